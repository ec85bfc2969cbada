package booking

import (
	"time"

	"parking-core/internal/apperr"
	"parking-core/internal/ids"
	"parking-core/internal/models"
)

// newOTP issues a fresh, unused one-time code valid for ids.OTPValidity
// from now (§4.E.1, §4.E.2's reissue path).
func newOTP(code string, now time.Time) models.OTP {
	return models.OTP{
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(ids.OTPValidity),
		IsUsed:    false,
	}
}

// redeemOTP implements §4.E.2: a booking's OTP may be redeemed exactly
// once, only while active, and only before it expires.
func redeemOTP(b *models.Booking, now time.Time) error {
	if b.Status != models.BookingActive {
		return apperr.New(apperr.IllegalTransition, "booking is not active")
	}
	if b.OTP.IsUsed {
		return apperr.New(apperr.OTPAlreadyUsed, "otp already used")
	}
	if !now.Before(b.OTP.ExpiresAt) {
		return apperr.New(apperr.OTPExpired, "otp has expired")
	}
	b.OTP.IsUsed = true
	t := now
	b.OTP.UsedAt = &t
	return nil
}

// computeElapsed derives hours/minutes parked as of `now`, used both at
// completion time and for in-progress duration reporting.
func computeElapsed(start, now time.Time) models.Duration {
	d := now.Sub(start)
	if d < 0 {
		d = 0
	}
	return models.Duration{
		Hours:   int(d.Hours()),
		Minutes: int(d.Minutes()) % 60,
	}
}

// completeTransition implements §4.E.3's status/fields update; pricing is
// computed by the caller (the site package owns rate tables) and passed in
// as the settled Payment.
func completeTransition(b *models.Booking, payment models.Payment, actor string, now time.Time) error {
	if b.Status != models.BookingActive {
		return apperr.New(apperr.IllegalTransition, "only active bookings can be completed")
	}
	d := computeElapsed(b.StartTime, now)
	b.Duration = &d
	b.EndTime = &now
	b.Status = models.BookingCompleted
	b.Payment = payment
	b.Audit.CompletedBy = actor
	return nil
}

// cancelTransition implements §4.E.4: only active bookings may be
// cancelled, and cancellation never touches payment.
func cancelTransition(b *models.Booking, reason, actor string, now time.Time) error {
	if b.Status != models.BookingActive {
		return apperr.New(apperr.IllegalTransition, "only active bookings can be cancelled")
	}
	b.Status = models.BookingCancelled
	b.EndTime = &now
	if reason != "" {
		b.Notes = strJoin(b.Notes, "cancelled: "+reason)
	}
	b.Audit.UpdatedBy = actor
	return nil
}

func strJoin(existing, addition string) string {
	if existing == "" {
		return addition
	}
	return existing + "; " + addition
}

// extendTransition implements §4.E.5: only active bookings extend, and the
// requested hours/minutes must add a positive duration. The booking has no
// fixed reservation end until completion, so an extension only appends
// "extended" (plus the reason, if any) to SpecialInstructions; the
// requested duration is not stored and the OTP is left unchanged.
func extendTransition(b *models.Booking, extraHours, extraMinutes int, reason, actor string) error {
	if b.Status != models.BookingActive {
		return apperr.New(apperr.IllegalTransition, "only active bookings can be extended")
	}
	if extraHours < 0 || extraMinutes < 0 || (extraHours == 0 && extraMinutes == 0) {
		return apperr.New(apperr.Validation, "extension must add positive duration")
	}
	if b.SpecialInstructions != "" {
		b.SpecialInstructions += "; "
	}
	b.SpecialInstructions += "extended"
	if reason != "" {
		b.SpecialInstructions += " (" + reason + ")"
	}
	b.Audit.UpdatedBy = actor
	return nil
}
