package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-core/internal/apperr"
	"parking-core/internal/models"
)

func activeBooking(now time.Time) *models.Booking {
	return &models.Booking{
		Status:    models.BookingActive,
		StartTime: now,
		OTP:       newOTP("123456", now),
	}
}

func TestRedeemOTP_Success(t *testing.T) {
	now := time.Now()
	b := activeBooking(now)
	require.NoError(t, redeemOTP(b, now.Add(time.Minute)))
	assert.True(t, b.OTP.IsUsed)
	assert.NotNil(t, b.OTP.UsedAt)
}

func TestRedeemOTP_AlreadyUsed(t *testing.T) {
	now := time.Now()
	b := activeBooking(now)
	require.NoError(t, redeemOTP(b, now))
	err := redeemOTP(b, now)
	require.Error(t, err)
	assert.Equal(t, apperr.OTPAlreadyUsed, apperr.KindOf(err))
}

func TestRedeemOTP_Expired(t *testing.T) {
	now := time.Now()
	b := activeBooking(now)
	err := redeemOTP(b, now.Add(31*time.Minute))
	require.Error(t, err)
	assert.Equal(t, apperr.OTPExpired, apperr.KindOf(err))
}

func TestRedeemOTP_NotActive(t *testing.T) {
	now := time.Now()
	b := activeBooking(now)
	b.Status = models.BookingCompleted
	err := redeemOTP(b, now)
	require.Error(t, err)
	assert.Equal(t, apperr.IllegalTransition, apperr.KindOf(err))
}

func TestCompleteTransition_SetsDurationAndStatus(t *testing.T) {
	start := time.Now()
	b := activeBooking(start)
	now := start.Add(90 * time.Minute)
	payment := models.Payment{Amount: 40, Status: models.PaymentCompleted}
	require.NoError(t, completeTransition(b, payment, "op1", now))
	assert.Equal(t, models.BookingCompleted, b.Status)
	assert.Equal(t, 1, b.Duration.Hours)
	assert.Equal(t, 30, b.Duration.Minutes)
	assert.Equal(t, "op1", b.Audit.CompletedBy)
	assert.Equal(t, float64(40), b.Payment.Amount)
}

func TestCompleteTransition_RejectsNonActive(t *testing.T) {
	b := activeBooking(time.Now())
	b.Status = models.BookingCancelled
	err := completeTransition(b, models.Payment{}, "op1", time.Now())
	require.Error(t, err)
	assert.Equal(t, apperr.IllegalTransition, apperr.KindOf(err))
}

func TestCancelTransition_ReleasesWithoutTouchingPayment(t *testing.T) {
	now := time.Now()
	b := activeBooking(now)
	b.Payment = models.Payment{Amount: 0, Status: models.PaymentPending}
	require.NoError(t, cancelTransition(b, "customer no-show", "op1", now.Add(time.Hour)))
	assert.Equal(t, models.BookingCancelled, b.Status)
	assert.Equal(t, models.PaymentPending, b.Payment.Status)
	assert.Contains(t, b.Notes, "customer no-show")
}

func TestCancelTransition_RejectsCompleted(t *testing.T) {
	b := activeBooking(time.Now())
	b.Status = models.BookingCompleted
	err := cancelTransition(b, "", "op1", time.Now())
	require.Error(t, err)
}

func TestExtendTransition_RequiresPositiveDuration(t *testing.T) {
	b := activeBooking(time.Now())
	err := extendTransition(b, 0, 0, "", "op1")
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestExtendTransition_AppendsInstructions(t *testing.T) {
	b := activeBooking(time.Now())
	require.NoError(t, extendTransition(b, 1, 30, "traffic", "op1"))
	assert.Contains(t, b.SpecialInstructions, "extended")
	assert.Contains(t, b.SpecialInstructions, "traffic")
}
