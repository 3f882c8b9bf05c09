package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-api-otp/internal/application/auth"
	"github.com/go-api-otp/internal/domain"
	"github.com/go-api-otp/internal/pkg/validate"
	"github.com/go-api-otp/internal/transport/http/middleware"
)

const maxBodyBytes = 1 << 20

// AuthHandler serves the OTP, registration, password reset and login endpoints.
type AuthHandler struct {
	svc        auth.Service
	exposeCode bool
	ttl        time.Duration
}

// NewAuthHandler builds the handler. exposeCode echoes issued codes back to the
// caller and must stay off outside development.
func NewAuthHandler(svc auth.Service, ttl time.Duration, exposeCode bool) *AuthHandler {
	return &AuthHandler{svc: svc, ttl: ttl, exposeCode: exposeCode}
}

func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.SendOTPRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Identifier() == "" {
		writeError(w, http.StatusBadRequest, "email or phone_number required")
		return
	}
	rec, err := h.svc.SendOTP(r.Context(), req.Identifier())
	if err != nil {
		httpError(w, r, err)
		return
	}
	h.writeIssued(w, rec, "OTP sent successfully")
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyOTPRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Identifier() == "" {
		writeError(w, http.StatusBadRequest, "email or phone_number required")
		return
	}
	if err := h.svc.VerifyOTP(r.Context(), req.Identifier(), req.OTP); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "OTP verified successfully"})
}

func (h *AuthHandler) RequestRegistration(w http.ResponseWriter, r *http.Request) {
	var req domain.EmailRequest
	if !decode(w, r, &req) {
		return
	}
	rec, err := h.svc.RequestRegistration(r.Context(), req.Email)
	if err != nil {
		httpError(w, r, err)
		return
	}
	h.writeIssued(w, rec, "verification code sent")
}

func (h *AuthHandler) CompleteRegistration(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterVerifyRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.CompleteRegistration(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	created := res.Created
	if !created {
		writeJSON(w, http.StatusOK, AuthEnvelope{Message: "account already exists", User: res.User, Created: &created})
		return
	}
	writeJSON(w, http.StatusCreated, AuthEnvelope{
		Message: "User registered successfully",
		Token:   res.Token,
		User:    res.User,
		Created: &created,
	})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.EmailRequest
	if !decode(w, r, &req) {
		return
	}
	rec, err := h.svc.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		httpError(w, r, err)
		return
	}
	h.writeIssued(w, rec, "password reset code sent")
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetPasswordRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.ResetPassword(r.Context(), req); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "password reset successfully"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{Message: "login successful", Token: res.Token, User: res.User})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	u, err := h.svc.Me(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{User: u})
}

func (h *AuthHandler) writeIssued(w http.ResponseWriter, rec *domain.OTPRecord, msg string) {
	env := OTPEnvelope{Message: msg, ExpiresIn: int(h.ttl / time.Second)}
	if h.exposeCode {
		env.OTP = rec.Code
	}
	writeJSON(w, http.StatusOK, env)
}

// decode reads a JSON body into dst and runs its validate tags. It writes the
// 400 response itself and reports false on failure.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
