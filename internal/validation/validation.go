// Package validation implements §4.B: normalizing and rejecting malformed
// input shapes before they reach a domain engine.
package validation

import (
	"regexp"
	"strings"

	"parking-core/internal/apperr"
)

var (
	emailRe      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe      = regexp.MustCompile(`^[6-9]\d{9}$`)
	operatorIDRe = regexp.MustCompile(`^OP\d{3,6}$`)
	nameRe       = regexp.MustCompile(`^[A-Za-z ]{1,100}$`)
	plateRe      = regexp.MustCompile(`^[A-Z]{2}\d{1,2}[A-Z]{1,2}\d{4}$`)
	machineCodeRe = regexp.MustCompile(`^M\d{3}$`)
	otpRe        = regexp.MustCompile(`^\d{6}$`)
	membershipNumberRe = regexp.MustCompile(`^\d{6}$`)
	pinRe        = regexp.MustCompile(`^\d{4}$`)
	pincodeRe    = regexp.MustCompile(`^[1-9]\d{5}$`)
	siteCodeRe   = regexp.MustCompile(`^SITE\d{3,6}$`)
)

func Email(v string) error {
	if len(v) > 255 || !emailRe.MatchString(v) {
		return apperr.WithFields(apperr.Validation, "invalid email", []apperr.FieldError{{Field: "email", Message: "not a valid email", Value: v}})
	}
	return nil
}

func Phone(v string) error {
	if !phoneRe.MatchString(v) {
		return apperr.WithFields(apperr.Validation, "invalid phone", []apperr.FieldError{{Field: "phone", Message: "must match ^[6-9]\\d{9}$", Value: v}})
	}
	return nil
}

func OperatorID(v string) error {
	if !operatorIDRe.MatchString(v) {
		return apperr.WithFields(apperr.Validation, "invalid operator id", []apperr.FieldError{{Field: "operatorId", Message: "must match ^OP\\d{3,6}$", Value: v}})
	}
	return nil
}

func Name(field, v string) error {
	if v == "" || len(v) > 100 || !nameRe.MatchString(v) {
		return apperr.WithFields(apperr.Validation, "invalid name", []apperr.FieldError{{Field: field, Message: "letters and spaces only, max 100 chars", Value: v}})
	}
	return nil
}

// Plate uppercases and validates a vehicle registration plate.
func Plate(v string) (string, error) {
	up := strings.ToUpper(strings.TrimSpace(v))
	if !plateRe.MatchString(up) {
		return "", apperr.WithFields(apperr.Validation, "invalid vehicle plate", []apperr.FieldError{{Field: "plate", Message: "must match ^[A-Z]{2}\\d{1,2}[A-Z]{1,2}\\d{4}$", Value: v}})
	}
	return up, nil
}

func MachineCode(v string) error {
	if !machineCodeRe.MatchString(v) {
		return apperr.WithFields(apperr.Validation, "invalid machine code", []apperr.FieldError{{Field: "machineNumber", Message: "must match ^M\\d{3}$", Value: v}})
	}
	return nil
}

func SiteCode(v string) error {
	if !siteCodeRe.MatchString(v) {
		return apperr.WithFields(apperr.Validation, "invalid site code", []apperr.FieldError{{Field: "siteCode", Message: "must match ^SITE\\d{3,6}$", Value: v}})
	}
	return nil
}

// PalletNumber accepts any positive integer — the booking layer
// deliberately allows overbooking beyond a machine's nominal size (§4.B).
func PalletNumber(n int) error {
	if n < 1 {
		return apperr.WithFields(apperr.Validation, "invalid pallet number", []apperr.FieldError{{Field: "palletNumber", Message: "must be >= 1", Value: n}})
	}
	return nil
}

func OTP(v string) error {
	if !otpRe.MatchString(v) {
		return apperr.WithFields(apperr.Validation, "invalid otp", []apperr.FieldError{{Field: "otp", Message: "must be 6 digits", Value: v}})
	}
	return nil
}

func MembershipNumber(v string) error {
	if !membershipNumberRe.MatchString(v) {
		return apperr.WithFields(apperr.Validation, "invalid membership number", []apperr.FieldError{{Field: "membershipNumber", Message: "must be 6 digits", Value: v}})
	}
	return nil
}

func PIN(v string) error {
	if !pinRe.MatchString(v) {
		return apperr.WithFields(apperr.Validation, "invalid pin", []apperr.FieldError{{Field: "pin", Message: "must be 4 digits", Value: v}})
	}
	return nil
}

func Pincode(v string) error {
	if !pincodeRe.MatchString(v) {
		return apperr.WithFields(apperr.Validation, "invalid pincode", []apperr.FieldError{{Field: "pincode", Message: "must match ^[1-9]\\d{5}$", Value: v}})
	}
	return nil
}

// Pagination normalizes page/limit per §4.B, using defaultLimit when the
// caller supplies zero or less, and capping limit at 100.
func Pagination(page, limit, defaultLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

// Sanitize trims whitespace, strips angle brackets and quote characters,
// and caps the result at 1000 characters.
func Sanitize(v string) string {
	v = strings.TrimSpace(v)
	v = strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '\'', '"':
			return -1
		}
		return r
	}, v)
	if len(v) > 1000 {
		v = v[:1000]
	}
	return v
}
