package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"siwf/internal/config"
	"siwf/internal/domain"
	"siwf/internal/port"
)

const sessionAudience = "session"

// SessionClaims are the claims carried by a session token.
type SessionClaims struct {
	jwt.RegisteredClaims
	SessionID uuid.UUID `json:"sid"`
	UserID    uuid.UUID `json:"uid"`
	FID       int64     `json:"fid"`
}

// SessionMeta describes the client a session is issued to.
type SessionMeta struct {
	IPAddress string
	UserAgent string
}

// IssuedSession is a persisted session and its signed token.
type IssuedSession struct {
	Token   string
	Session *domain.Session
}

// SessionService issues, validates and revokes sessions.
type SessionService interface {
	CreateSession(ctx context.Context, user *domain.User, fid int64, meta SessionMeta) (*IssuedSession, error)
	Authenticate(ctx context.Context, token string) (*SessionClaims, error)
	Revoke(ctx context.Context, sessionID uuid.UUID) error
}

type sessionService struct {
	sessionRepo port.SessionRepository
	cfg         config.SessionConfig
	now         func() time.Time
}

// NewSessionService creates a new SessionService.
func NewSessionService(sessionRepo port.SessionRepository, cfg config.SessionConfig) SessionService {
	return &sessionService{
		sessionRepo: sessionRepo,
		cfg:         cfg,
		now:         time.Now,
	}
}

func (s *sessionService) CreateSession(ctx context.Context, user *domain.User, fid int64, meta SessionMeta) (*IssuedSession, error) {
	if user == nil {
		return nil, domain.ErrSessionCreationFailed
	}
	now := s.now()
	session := &domain.Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		FID:       fid,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		ExpiresAt: now.Add(s.cfg.Expiry).UTC(),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSessionCreationFailed, err)
	}

	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			ID:        session.ID.String(),
			Audience:  jwt.ClaimStrings{sessionAudience},
		},
		SessionID: session.ID,
		UserID:    user.ID,
		FID:       fid,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("%w: signing session token: %v", domain.ErrSessionCreationFailed, err)
	}

	return &IssuedSession{Token: token, Session: session}, nil
}

func (s *sessionService) Authenticate(ctx context.Context, token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	},
		jwt.WithAudience(sessionAudience),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, domain.ErrUnauthorized
	}

	session, err := s.sessionRepo.GetByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("looking up session: %w", err)
	}
	if s.now().After(session.ExpiresAt) {
		return nil, domain.ErrSessionExpired
	}
	return claims, nil
}

func (s *sessionService) Revoke(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("revoking session: %w", err)
	}
	return nil
}
