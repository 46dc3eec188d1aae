package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"siwf/internal/domain"
	"siwf/internal/port"
)

// NonceStore issues and single-use-consumes sign-in nonces keyed by fid.
type NonceStore interface {
	Issue(ctx context.Context, fid int64) (string, error)
	// ConsumeAndCheck deletes the fid's nonce and reports whether it was
	// still valid. The record is gone afterwards whatever the outcome.
	ConsumeAndCheck(ctx context.Context, fid int64) error
}

type nonceStore struct {
	repo      port.VerificationRepository
	generator port.NonceGenerator
	ttl       time.Duration
	now       func() time.Time
}

// NewNonceStore creates a NonceStore. A nil now defaults to time.Now.
func NewNonceStore(repo port.VerificationRepository, generator port.NonceGenerator, ttl time.Duration, now func() time.Time) NonceStore {
	if now == nil {
		now = time.Now
	}
	return &nonceStore{
		repo:      repo,
		generator: generator,
		ttl:       ttl,
		now:       now,
	}
}

func (s *nonceStore) Issue(ctx context.Context, fid int64) (string, error) {
	nonce, err := s.generator.Generate(ctx)
	if err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	v := &domain.Verification{
		Identifier: domain.NonceIdentifier(fid),
		Value:      nonce,
		ExpiresAt:  s.now().Add(s.ttl),
	}
	if err := s.repo.Upsert(ctx, v); err != nil {
		return "", fmt.Errorf("storing nonce: %w", err)
	}
	return nonce, nil
}

func (s *nonceStore) ConsumeAndCheck(ctx context.Context, fid int64) error {
	v, err := s.repo.Consume(ctx, domain.NonceIdentifier(fid))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNonceNotFound
		}
		return fmt.Errorf("consuming nonce: %w", err)
	}
	if v.IsExpired(s.now()) {
		return domain.ErrNonceExpired
	}
	return nil
}
