package domain

import "time"

// VerificationCode is the single active password-reset code for an email.
// Only the fingerprint of the code is kept.
type VerificationCode struct {
	Email           string
	CodeFingerprint string
	ExpiresAt       time.Time
	VerifiedAt      *time.Time
	CreatedAt       time.Time
}

// Expired reports whether the code is no longer usable at now. A row past
// its expiry is invalid even if housekeeping has not removed it yet.
func (v VerificationCode) Expired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}

// Verified reports whether verify-code has accepted this code.
func (v VerificationCode) Verified() bool {
	return v.VerifiedAt != nil
}
