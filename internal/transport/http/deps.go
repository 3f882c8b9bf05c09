package http

import (
	"time"

	"github.com/go-api-otp/internal/application/auth"
	jwtinfra "github.com/go-api-otp/internal/infrastructure/jwt"
)

// Deps holds the services the router exposes.
type Deps struct {
	AuthService auth.Service
	JWTProvider *jwtinfra.Provider
	OTPTTL      time.Duration
}
