// Package ids implements §4.A: identifier generation as pure functions of
// an injected clock and RNG, so tests can make them deterministic.
package ids

import (
	"fmt"
	"math/rand"
	"time"
)

// Clock is a source of the current time; SystemClock reads the wall clock.
type Clock func() time.Time

func SystemClock() time.Time { return time.Now() }

// BookingNumber builds "BK" + class prefix + last 8 digits of epoch
// millis, per §4.A. Collisions are acceptable at the stated burst rate.
func BookingNumber(class string, now time.Time) string {
	prefix := "FW"
	if class == "two-wheeler" {
		prefix = "TW"
	}
	ms := now.UnixMilli()
	tail := ms % 100000000
	return fmt.Sprintf("BK%s%08d", prefix, tail)
}

// CustomerCode builds "CUST" + last 6 digits of epoch millis.
func CustomerCode(now time.Time) string {
	ms := now.UnixMilli()
	tail := ms % 1000000
	return fmt.Sprintf("CUST%06d", tail)
}

// sixDigitNoLeadingZero draws in [100000, 999999].
func sixDigitNoLeadingZero(rng *rand.Rand) string {
	n := 100000 + rng.Intn(900000)
	return fmt.Sprintf("%06d", n)
}

// fourDigitNoLeadingZero draws in [1000, 9999].
func fourDigitNoLeadingZero(rng *rand.Rand) string {
	n := 1000 + rng.Intn(9000)
	return fmt.Sprintf("%04d", n)
}

// MembershipNumber draws a 6-digit, non-zero-leading candidate. The caller
// is responsible for the uniqueness check-and-retry loop of §5 (retry <= 5
// attempts, then surface InternalError).
func MembershipNumber(rng *rand.Rand) string {
	return sixDigitNoLeadingZero(rng)
}

// MembershipPIN draws a 4-digit, non-zero-leading PIN.
func MembershipPIN(rng *rand.Rand) string {
	return fourDigitNoLeadingZero(rng)
}

// OTP draws a 6-digit, non-zero-leading one-time code.
func OTP(rng *rand.Rand) string {
	return sixDigitNoLeadingZero(rng)
}

// OTPValidity is the booking OTP's fixed 30-minute absolute expiry (§4.A —
// distinct from the auth subsystem's OTP_EXPIRE_MINUTES, which governs
// login/reset OTPs, not booking OTPs).
const OTPValidity = 30 * time.Minute

// MaxMembershipNumberRetries bounds the check-and-insert retry loop of §5.
const MaxMembershipNumberRetries = 5
