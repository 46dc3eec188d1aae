package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"siwf/internal/config"
	"siwf/internal/domain"
	"siwf/internal/metrics"
	"siwf/internal/port"
)

// NonceInput is the DTO for nonce requests.
type NonceInput struct {
	FID int64 `json:"fid" binding:"required,min=1"`
}

// NonceOutput is returned by RequestNonce.
type NonceOutput struct {
	Nonce string `json:"nonce"`
}

// VerifyInput is the DTO for verify requests.
type VerifyInput struct {
	Token string         `json:"token" binding:"required"`
	User  ClaimedProfile `json:"user" binding:"required"`
}

// SignedInUser is the public view of a signed-in user.
type SignedInUser struct {
	ID    uuid.UUID `json:"id"`
	FID   int64     `json:"fid"`
	Name  string    `json:"name"`
	Image *string   `json:"image"`
}

// VerifyOutput is the result of a successful sign-in. Session is not
// serialized; the handler uses it to emit the session cookie.
type VerifyOutput struct {
	Success   bool           `json:"success"`
	Token     string         `json:"token"`
	User      SignedInUser   `json:"user"`
	Session   *IssuedSession `json:"-"`
	IsNewUser bool           `json:"-"`
}

// SIWFService runs the Sign In With Farcaster flow.
type SIWFService interface {
	RequestNonce(ctx context.Context, input NonceInput) (*NonceOutput, error)
	Verify(ctx context.Context, input VerifyInput, meta SessionMeta) (*VerifyOutput, error)
	CurrentUser(ctx context.Context, userID uuid.UUID, fid int64) (*SignedInUser, error)
	ListWallets(ctx context.Context, userID uuid.UUID) ([]domain.WalletAddress, error)
}

type siwfService struct {
	nonces   NonceStore
	verifier port.FarcasterTokenVerifier
	resolver IdentityResolver
	linker   WalletLinker
	sessions SessionService
	userRepo port.UserRepository
	wallets  port.WalletAddressRepository
	cfg      config.SIWFConfig
}

// NewSIWFService creates a new SIWFService.
func NewSIWFService(
	nonces NonceStore,
	verifier port.FarcasterTokenVerifier,
	resolver IdentityResolver,
	linker WalletLinker,
	sessions SessionService,
	userRepo port.UserRepository,
	wallets port.WalletAddressRepository,
	cfg config.SIWFConfig,
) SIWFService {
	return &siwfService{
		nonces:   nonces,
		verifier: verifier,
		resolver: resolver,
		linker:   linker,
		sessions: sessions,
		userRepo: userRepo,
		wallets:  wallets,
		cfg:      cfg,
	}
}

func (s *siwfService) RequestNonce(ctx context.Context, input NonceInput) (*NonceOutput, error) {
	if input.FID < 1 {
		return nil, domain.ErrInvalidFID
	}
	nonce, err := s.nonces.Issue(ctx, input.FID)
	if err != nil {
		return nil, fmt.Errorf("siwf.RequestNonce: %w", err)
	}
	metrics.NoncesIssued.Inc()
	return &NonceOutput{Nonce: nonce}, nil
}

func (s *siwfService) Verify(ctx context.Context, input VerifyInput, meta SessionMeta) (*VerifyOutput, error) {
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	out, err := s.verify(ctx, input, meta)
	if err == nil {
		metrics.VerifyOutcomes.WithLabelValues("success").Inc()
		return out, nil
	}

	outcome, classified := classifyVerifyError(err)
	metrics.VerifyOutcomes.WithLabelValues(outcome).Inc()
	if classified {
		slog.InfoContext(ctx, "siwf verify rejected", "fid", input.User.FID, "outcome", outcome, "error", err)
		return nil, err
	}
	slog.ErrorContext(ctx, "siwf verify failed", "fid", input.User.FID, "error", err)
	return nil, fmt.Errorf("%w: %v", domain.ErrSIWFUnauthorized, err)
}

func (s *siwfService) verify(ctx context.Context, input VerifyInput, meta SessionMeta) (*VerifyOutput, error) {
	fid := input.User.FID

	if err := s.nonces.ConsumeAndCheck(ctx, fid); err != nil {
		return nil, err
	}

	subject, err := s.verifier.VerifyToken(ctx, s.cfg.Domain, input.Token)
	if err != nil {
		if !errors.Is(err, domain.ErrVerificationFailed) {
			err = fmt.Errorf("%w: %v", domain.ErrVerificationFailed, err)
		}
		return nil, err
	}
	if subject != fid {
		return nil, fmt.Errorf("%w: token subject %d, claimed %d", domain.ErrIdentityMismatch, subject, fid)
	}

	user, isNew, err := s.resolver.Resolve(ctx, input.User)
	if err != nil {
		return nil, err
	}
	if isNew {
		metrics.IdentitiesCreated.Inc()
		s.linkWallets(ctx, user.ID, fid)
	}

	issued, err := s.sessions.CreateSession(ctx, user, fid, meta)
	if err != nil {
		if !errors.Is(err, domain.ErrSessionCreationFailed) {
			err = fmt.Errorf("%w: %v", domain.ErrSessionCreationFailed, err)
		}
		return nil, err
	}
	if issued == nil || issued.Session == nil {
		return nil, domain.ErrSessionCreationFailed
	}

	return &VerifyOutput{
		Success:   true,
		Token:     issued.Token,
		User:      signedInUser(user, fid),
		Session:   issued,
		IsNewUser: isNew,
	}, nil
}

// linkWallets never fails the sign-in.
func (s *siwfService) linkWallets(ctx context.Context, userID uuid.UUID, fid int64) {
	linkCtx := ctx
	if s.cfg.WalletLinkTimeout > 0 {
		var cancel context.CancelFunc
		linkCtx, cancel = context.WithTimeout(ctx, s.cfg.WalletLinkTimeout)
		defer cancel()
	}

	start := time.Now()
	if err := s.linker.Link(linkCtx, userID, fid); err != nil {
		metrics.WalletLinkOutcomes.WithLabelValues("error").Inc()
		slog.WarnContext(ctx, "wallet linking failed", "fid", fid, "user_id", userID, "error", err)
		return
	}
	metrics.WalletLinkOutcomes.WithLabelValues("ok").Inc()
	slog.DebugContext(ctx, "wallet linking done", "fid", fid, "duration", time.Since(start))
}

func (s *siwfService) CurrentUser(ctx context.Context, userID uuid.UUID, fid int64) (*SignedInUser, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("siwf.CurrentUser: %w", err)
	}
	u := signedInUser(user, fid)
	return &u, nil
}

func (s *siwfService) ListWallets(ctx context.Context, userID uuid.UUID) ([]domain.WalletAddress, error) {
	addresses, err := s.wallets.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("siwf.ListWallets: %w", err)
	}
	if addresses == nil {
		addresses = []domain.WalletAddress{}
	}
	return addresses, nil
}

func signedInUser(user *domain.User, fid int64) SignedInUser {
	return SignedInUser{
		ID:    user.ID,
		FID:   fid,
		Name:  user.Name,
		Image: user.Image,
	}
}

// classifyVerifyError returns the metrics outcome for err and whether err
// belongs to the sign-in taxonomy.
func classifyVerifyError(err error) (string, bool) {
	switch {
	case errors.Is(err, domain.ErrInvalidOrExpiredNonce):
		return "invalid_nonce", true
	case errors.Is(err, domain.ErrVerificationFailed):
		return "verification_failed", true
	case errors.Is(err, domain.ErrIdentityMismatch):
		return "identity_mismatch", true
	case errors.Is(err, domain.ErrSessionCreationFailed):
		return "session_failed", true
	case errors.Is(err, domain.ErrSIWFUnauthorized):
		return "unauthorized", true
	default:
		return "unauthorized", false
	}
}
