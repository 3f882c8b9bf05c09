package http

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-api-otp/internal/application/auth"
	"github.com/go-api-otp/internal/config"
	"github.com/go-api-otp/internal/domain"
	"github.com/stretchr/testify/assert"
)

// stubAuth answers SendOTP only; other methods are never reached in these tests.
type stubAuth struct {
	auth.Service
}

func (stubAuth) SendOTP(_ context.Context, identifier string) (*domain.OTPRecord, error) {
	return &domain.OTPRecord{Identifier: identifier, Code: "123456"}, nil
}

func (stubAuth) VerifyOTP(context.Context, string, string) error {
	return domain.ErrCodeInvalid
}

func newTestRouter(expose bool) http.Handler {
	cfg := &config.Config{AllowedOrigins: []string{"*"}, OTP: config.OTPConfig{ExposeCode: expose}, TrustProxyHeaders: true}
	return NewRouter(cfg, &Deps{AuthService: stubAuth{}, OTPTTL: 5 * time.Minute})
}

func post(h http.Handler, path, body, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", ip)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_HealthCheck(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(false).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/health-check/ping", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_SendOTPExposeFlag(t *testing.T) {
	rr := post(newTestRouter(true), "/v1/auth/otp/send", `{"email":"a@b.com"}`, "10.0.0.1")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"otp":"123456"`)

	rr = post(newTestRouter(false), "/v1/auth/otp/send", `{"email":"a@b.com"}`, "10.0.0.1")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "123456")
}

func TestRouter_SendOTPIsRateLimited(t *testing.T) {
	h := newTestRouter(false)
	var last int
	for i := 0; i < 30; i++ {
		last = post(h, "/v1/auth/otp/send", `{"email":"a@b.com"}`, "10.0.0.2").Code
		if last == http.StatusTooManyRequests {
			break
		}
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestRouter_VerifyOTPIsRateLimited(t *testing.T) {
	h := newTestRouter(false)
	codes := map[int]int{}
	for i := 0; i < 50; i++ {
		body := fmt.Sprintf(`{"email":"a@b.com","otp":"%06d"}`, i)
		codes[post(h, "/v1/auth/otp/verify", body, "10.0.0.3").Code]++
	}
	assert.Positive(t, codes[http.StatusTooManyRequests])
	assert.Less(t, codes[http.StatusBadRequest], 50)

	// another client is unaffected
	assert.Equal(t, http.StatusBadRequest, post(h, "/v1/auth/otp/verify", `{"email":"a@b.com","otp":"000000"}`, "10.0.0.4").Code)
}

func TestRouter_CodeSubmissionRoutesAreRateLimited(t *testing.T) {
	h := newTestRouter(false)
	for _, path := range []string{"/v1/auth/register/verify", "/v1/auth/password/reset"} {
		var last int
		for i := 0; i < 30; i++ {
			// malformed bodies still pass through the limiter first
			last = post(h, path, `{}`, "10.0.1.1").Code
			if last == http.StatusTooManyRequests {
				break
			}
		}
		assert.Equal(t, http.StatusTooManyRequests, last, path)
	}
}

func TestRouter_ForwardedForIgnoredUnlessTrusted(t *testing.T) {
	cfg := &config.Config{AllowedOrigins: []string{"*"}}
	h := NewRouter(cfg, &Deps{AuthService: stubAuth{}, OTPTTL: 5 * time.Minute})

	// Rotating the header does not buy a fresh bucket.
	var last int
	for i := 0; i < 30; i++ {
		last = post(h, "/v1/auth/otp/verify", `{"email":"a@b.com","otp":"123456"}`, fmt.Sprintf("203.0.113.%d", i)).Code
		if last == http.StatusTooManyRequests {
			break
		}
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}
