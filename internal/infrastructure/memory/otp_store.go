package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-api-otp/internal/domain"
	"github.com/go-api-otp/internal/pkg/clock"
)

// OTPStore is an in-process OTP store. Records are copied on the way in and
// out so callers never share memory with the map.
type OTPStore struct {
	mu        sync.Mutex
	records   map[string]domain.OTPRecord
	clock     clock.Clocker
	retention time.Duration
}

// NewOTPStore creates a store whose sweeper drops records once they are more
// than retention past their expiry.
func NewOTPStore(c clock.Clocker, retention time.Duration) *OTPStore {
	if c == nil {
		c = clock.New()
	}
	if retention < 0 {
		retention = 0
	}
	return &OTPStore{
		records:   make(map[string]domain.OTPRecord),
		clock:     c,
		retention: retention,
	}
}

func (s *OTPStore) Put(_ context.Context, rec *domain.OTPRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Identifier] = *rec
	return nil
}

func (s *OTPStore) Get(_ context.Context, identifier string) (*domain.OTPRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[identifier]
	if !ok {
		return nil, fmt.Errorf("otp not found: %w", domain.ErrNotFound)
	}
	return &rec, nil
}

func (s *OTPStore) Delete(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, identifier)
	return nil
}

// Sweep removes every record whose expiry plus retention is before now and
// returns how many were removed.
func (s *OTPStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, rec := range s.records {
		if now.After(rec.ExpiresAt.Add(s.retention)) {
			delete(s.records, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is cancelled.
func (s *OTPStore) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(s.clock.Now()); n > 0 {
				slog.Debug("swept expired otp records", "count", n)
			}
		}
	}
}
