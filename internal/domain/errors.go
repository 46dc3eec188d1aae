package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrDuplicateFID = errors.New("farcaster identity already exists for this fid")
	ErrRateLimited  = errors.New("too many requests")
	ErrInvalidFID   = errors.New("fid must be a positive integer")

	// Sign-in taxonomy. Every error returned by the verify flow is one of
	// these (possibly wrapped).
	ErrInvalidOrExpiredNonce = errors.New("SIWF Unauthorized: invalid or expired nonce")
	ErrVerificationFailed    = errors.New("SIWF sign-in verification failed")
	ErrIdentityMismatch      = errors.New("SIWF Invalid Farcaster user")
	ErrSIWFUnauthorized      = errors.New("SIWF Something went wrong. Please try again later")
	ErrSessionCreationFailed = errors.New("SIWF Internal Server Error")
	ErrIdentityMissingOwner  = errors.New("farcaster identity has no owning user")
	ErrIdentityConflict      = errors.New("farcaster identity conflicts with an existing user")
	ErrSessionExpired        = errors.New("session expired")
)

// ErrNonceNotFound and ErrNonceExpired are the two ways a nonce check fails.
// Both match ErrInvalidOrExpiredNonce with errors.Is.
var (
	ErrNonceNotFound = fmt.Errorf("%w: nonce not found", ErrInvalidOrExpiredNonce)
	ErrNonceExpired  = fmt.Errorf("%w: nonce expired", ErrInvalidOrExpiredNonce)
)
