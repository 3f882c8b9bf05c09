package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-api-otp/internal/domain"
)

// Result is the outcome of an operation that establishes an identity.
// Token is empty when registration found an existing account.
type Result struct {
	User    *domain.User
	Token   string
	Created bool
}

type Service interface {
	SendOTP(ctx context.Context, identifier string) (*domain.OTPRecord, error)
	VerifyOTP(ctx context.Context, identifier, code string) error
	RequestRegistration(ctx context.Context, email string) (*domain.OTPRecord, error)
	CompleteRegistration(ctx context.Context, req domain.RegisterVerifyRequest) (*Result, error)
	RequestPasswordReset(ctx context.Context, email string) (*domain.OTPRecord, error)
	ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error
	Login(ctx context.Context, email, password string) (*Result, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
}

type otpService interface {
	Issue(ctx context.Context, identifier string) (*domain.OTPRecord, error)
	Verify(ctx context.Context, identifier, code string) error
}

type accountService interface {
	CreateAccount(ctx context.Context, email, password, name string) (*domain.User, error)
	Exists(ctx context.Context, email string) (bool, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	SetPassword(ctx context.Context, email, password string) error
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
}

type jwtSigner interface {
	Sign(userID, email string) (string, error)
}

type service struct {
	otp            otpService
	accounts       accountService
	jwtProvider    jwtSigner
	rejectExisting bool
}

type ServiceDeps struct {
	OTP         otpService
	Accounts    accountService
	JWTProvider jwtSigner
	// RejectExisting makes CompleteRegistration fail with domain.ErrConflict
	// when the account already exists instead of reporting success.
	RejectExisting bool
}

func NewService(deps ServiceDeps) Service {
	return &service{
		otp:            deps.OTP,
		accounts:       deps.Accounts,
		jwtProvider:    deps.JWTProvider,
		rejectExisting: deps.RejectExisting,
	}
}

func (s *service) SendOTP(ctx context.Context, identifier string) (*domain.OTPRecord, error) {
	return s.otp.Issue(ctx, identifier)
}

func (s *service) VerifyOTP(ctx context.Context, identifier, code string) error {
	return s.otp.Verify(ctx, identifier, code)
}

func (s *service) RequestRegistration(ctx context.Context, email string) (*domain.OTPRecord, error) {
	return s.otp.Issue(ctx, email)
}

func (s *service) CompleteRegistration(ctx context.Context, req domain.RegisterVerifyRequest) (*Result, error) {
	// Reject what the account service cannot hash before the code is consumed.
	if err := checkPassword(req.Password); err != nil {
		return nil, err
	}
	if err := s.otp.Verify(ctx, req.Email, req.OTP); err != nil {
		return nil, err
	}

	u, err := s.accounts.CreateAccount(ctx, req.Email, req.Password, req.Name)
	switch {
	case errors.Is(err, domain.ErrConflict):
		if s.rejectExisting {
			return nil, fmt.Errorf("account already exists: %w", domain.ErrConflict)
		}
		slog.InfoContext(ctx, "registration verified for existing account", "email", req.Email)
		existing, gerr := s.accounts.GetByEmail(ctx, req.Email)
		if gerr != nil {
			return nil, gerr
		}
		return &Result{User: existing}, nil
	case err != nil:
		return nil, err
	}

	token, err := s.jwtProvider.Sign(u.UserID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Result{User: u, Token: token, Created: true}, nil
}

func (s *service) RequestPasswordReset(ctx context.Context, email string) (*domain.OTPRecord, error) {
	ok, err := s.accounts.Exists(ctx, email)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no account for this email: %w", domain.ErrNotFound)
	}
	return s.otp.Issue(ctx, email)
}

func (s *service) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error {
	if err := checkPassword(req.NewPassword); err != nil {
		return err
	}
	if err := s.otp.Verify(ctx, req.Email, req.OTP); err != nil {
		return err
	}
	return s.accounts.SetPassword(ctx, req.Email, req.NewPassword)
}

func (s *service) Login(ctx context.Context, email, password string) (*Result, error) {
	u, err := s.accounts.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	token, err := s.jwtProvider.Sign(u.UserID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Result{User: u, Token: token}, nil
}

func (s *service) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.accounts.Get(ctx, userID)
}

func checkPassword(pw string) error {
	if len(pw) > domain.MaxPasswordBytes {
		return fmt.Errorf("password longer than %d bytes: %w", domain.MaxPasswordBytes, domain.ErrBadRequest)
	}
	return nil
}
