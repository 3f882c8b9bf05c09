package domain

import "time"

// OTPRecord is the single live verification code for an identifier.
// A new record for the same identifier replaces the previous one.
type OTPRecord struct {
	Identifier string    `json:"identifier" dynamodbav:"identifier"`
	Code       string    `json:"-" dynamodbav:"code"`
	IssuedAt   time.Time `json:"issued_at" dynamodbav:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at" dynamodbav:"expires_at"`
}

// Expired reports whether now is strictly past ExpiresAt.
func (r *OTPRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// SendOTPRequest identifies who should receive a code. Exactly one of the
// fields is expected; Email wins when both are set.
type SendOTPRequest struct {
	Email       *string `json:"email" validate:"omitempty,email"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,e164"`
}

// Identifier returns the delivery address carried by the request.
func (r SendOTPRequest) Identifier() string {
	if r.Email != nil && *r.Email != "" {
		return *r.Email
	}
	if r.PhoneNumber != nil {
		return *r.PhoneNumber
	}
	return ""
}

type VerifyOTPRequest struct {
	SendOTPRequest
	OTP string `json:"otp" validate:"required,len=6,numeric"`
}
