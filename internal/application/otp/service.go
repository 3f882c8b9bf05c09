package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/go-api-otp/internal/domain"
	"github.com/go-api-otp/internal/pkg/clock"
)

const (
	// DefaultTTL is used when ServiceDeps.TTL is zero.
	DefaultTTL = 5 * time.Minute

	codeMin   = 100000
	codeRange = 900000 // codes fall in [100000, 999999]
)

type Service interface {
	// Issue generates, stores and dispatches a fresh code for identifier,
	// replacing any previous one. Delivery failures never fail Issue.
	Issue(ctx context.Context, identifier string) (*domain.OTPRecord, error)
	// Verify consumes the stored code for identifier when code matches and has
	// not expired.
	Verify(ctx context.Context, identifier, code string) error
}

// Store keeps at most one record per identifier.
// Get returns an error wrapping domain.ErrNotFound when nothing is stored.
type Store interface {
	Put(ctx context.Context, rec *domain.OTPRecord) error
	Get(ctx context.Context, identifier string) (*domain.OTPRecord, error)
	Delete(ctx context.Context, identifier string) error
}

// Notifier delivers a code out of band.
type Notifier interface {
	SendCode(ctx context.Context, identifier, code string) error
}

// Runner schedules background work; it reports false when the task was dropped.
type Runner interface {
	Go(ctx context.Context, f func(ctx context.Context) error) bool
}

type service struct {
	store    Store
	notifier Notifier
	clock    clock.Clocker
	rand     io.Reader
	runner   Runner
	ttl      time.Duration
}

type ServiceDeps struct {
	Store    Store
	Notifier Notifier
	Clock    clock.Clocker
	Rand     io.Reader
	Runner   Runner
	TTL      time.Duration
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		store:    deps.Store,
		notifier: deps.Notifier,
		clock:    deps.Clock,
		rand:     deps.Rand,
		runner:   deps.Runner,
		ttl:      deps.TTL,
	}
	if s.clock == nil {
		s.clock = clock.New()
	}
	if s.rand == nil {
		s.rand = rand.Reader
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}
	return s
}

func (s *service) Issue(ctx context.Context, identifier string) (*domain.OTPRecord, error) {
	identifier = Normalize(identifier)
	if identifier == "" {
		return nil, fmt.Errorf("identifier required: %w", domain.ErrBadRequest)
	}

	code, err := generateCode(s.rand)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	rec := &domain.OTPRecord{
		Identifier: identifier,
		Code:       code,
		IssuedAt:   now,
		ExpiresAt:  now.Add(s.ttl),
	}
	if err := s.store.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("store otp: %w", err)
	}

	s.dispatch(ctx, identifier, code)
	return rec, nil
}

// dispatch hands delivery to the runner, detached from request cancellation.
// Without a runner the notifier is called inline; either way errors are only logged.
func (s *service) dispatch(ctx context.Context, identifier, code string) {
	if s.notifier == nil {
		slog.WarnContext(ctx, "no notifier configured, otp not delivered", "identifier", identifier)
		return
	}
	send := func(ctx context.Context) error {
		if err := s.notifier.SendCode(ctx, identifier, code); err != nil {
			slog.ErrorContext(ctx, "failed to deliver otp", "identifier", identifier, "err", err)
		}
		return nil
	}
	bg := context.WithoutCancel(ctx)
	if s.runner == nil {
		_ = send(bg)
		return
	}
	if !s.runner.Go(bg, send) {
		slog.WarnContext(ctx, "otp delivery not scheduled", "identifier", identifier)
	}
}

func (s *service) Verify(ctx context.Context, identifier, code string) error {
	identifier = Normalize(identifier)
	rec, err := s.store.Get(ctx, identifier)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrCodeNotFound
	}
	if err != nil {
		return fmt.Errorf("load otp: %w", err)
	}

	if rec.Expired(s.clock.Now()) {
		if err := s.store.Delete(ctx, identifier); err != nil {
			slog.WarnContext(ctx, "failed to delete expired otp", "identifier", identifier, "err", err)
		}
		return domain.ErrCodeExpired
	}

	if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(code)) != 1 {
		return domain.ErrCodeInvalid
	}

	if err := s.store.Delete(ctx, identifier); err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}
	return nil
}

// Normalize trims the identifier and lowercases email addresses so the same
// mailbox always maps to the same record.
func Normalize(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		identifier = strings.ToLower(identifier)
	}
	return identifier
}

func generateCode(r io.Reader) (string, error) {
	n, err := rand.Int(r, big.NewInt(codeRange))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}
