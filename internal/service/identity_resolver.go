package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx/types"

	"siwf/internal/domain"
	"siwf/internal/port"
)

// ClaimedProfile is the profile a client submits alongside its token. It is
// only trusted once the token has been verified for FID.
type ClaimedProfile struct {
	FID         int64   `json:"fid" binding:"required,min=1"`
	Username    *string `json:"username"`
	DisplayName *string `json:"displayName"`
	PfpURL      *string `json:"pfpUrl"`

	// NotificationDetails is the client's Mini App notification payload,
	// stored verbatim.
	NotificationDetails json.RawMessage `json:"notificationDetails"`
}

// IdentityResolver maps a verified fid to a local user, creating the user,
// identity and account on first sight.
type IdentityResolver interface {
	Resolve(ctx context.Context, profile ClaimedProfile) (user *domain.User, isNew bool, err error)
}

type identityResolver struct {
	farcasterRepo port.FarcasterRepository
	userRepo      port.UserRepository
	emailDomain   string
}

// NewIdentityResolver creates a new IdentityResolver.
func NewIdentityResolver(
	farcasterRepo port.FarcasterRepository,
	userRepo port.UserRepository,
	emailDomain string,
) IdentityResolver {
	return &identityResolver{
		farcasterRepo: farcasterRepo,
		userRepo:      userRepo,
		emailDomain:   emailDomain,
	}
}

func (r *identityResolver) Resolve(ctx context.Context, profile ClaimedProfile) (*domain.User, bool, error) {
	identity, err := r.farcasterRepo.GetByFID(ctx, profile.FID)
	if err == nil {
		user, ownerErr := r.owner(ctx, identity)
		return user, false, ownerErr
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, fmt.Errorf("looking up farcaster identity: %w", err)
	}

	user, identity, account, err := r.newRecords(profile)
	if err != nil {
		return nil, false, err
	}

	createErr := r.farcasterRepo.CreateWithUser(ctx, user, identity, account)
	if createErr == nil {
		return user, true, nil
	}
	if !errors.Is(createErr, domain.ErrDuplicateFID) {
		return nil, false, fmt.Errorf("creating farcaster identity: %w", createErr)
	}

	// Another request created the identity first; use theirs.
	slog.DebugContext(ctx, "identity created concurrently, re-reading", "fid", profile.FID)
	identity, err = r.farcasterRepo.GetByFID(ctx, profile.FID)
	if errors.Is(err, domain.ErrNotFound) {
		// The clash was on the user's email or the account, not the fid.
		return nil, false, fmt.Errorf("fid %d: %w: %v", profile.FID, domain.ErrIdentityConflict, createErr)
	}
	if err != nil {
		return nil, false, fmt.Errorf("re-reading farcaster identity: %w", err)
	}
	user, err = r.owner(ctx, identity)
	return user, false, err
}

func (r *identityResolver) owner(ctx context.Context, identity *domain.FarcasterIdentity) (*domain.User, error) {
	user, err := r.userRepo.GetByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("fid %d: %w", identity.FID, domain.ErrIdentityMissingOwner)
		}
		return nil, fmt.Errorf("looking up identity owner: %w", err)
	}
	return user, nil
}

func (r *identityResolver) newRecords(profile ClaimedProfile) (*domain.User, *domain.FarcasterIdentity, *domain.Account, error) {
	fid := strconv.FormatInt(profile.FID, 10)

	name := fid
	if profile.Username != nil && *profile.Username != "" {
		name = *profile.Username
	}
	username := name

	user := &domain.User{
		Name:  name,
		Email: fid + "@" + r.emailDomain,
		Image: profile.PfpURL,
	}

	identity := &domain.FarcasterIdentity{
		FID:         profile.FID,
		Username:    &username,
		DisplayName: profile.DisplayName,
		AvatarURL:   profile.PfpURL,
	}
	if raw := bytes.TrimSpace(profile.NotificationDetails); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		identity.NotificationDetails = types.NullJSONText{JSONText: types.JSONText(raw), Valid: true}
	}

	account := &domain.Account{
		ProviderID: domain.AuthProviderFarcaster,
		AccountID:  domain.FarcasterAccountID(profile.FID),
	}
	return user, identity, account, nil
}
