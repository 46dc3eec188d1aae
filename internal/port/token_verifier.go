package port

import "context"

// FarcasterTokenVerifier validates a Sign In With Farcaster token for a trust
// domain and returns the fid it was issued to.
type FarcasterTokenVerifier interface {
	VerifyToken(ctx context.Context, domain, token string) (int64, error)
}

// NonceGenerator produces opaque random nonces.
type NonceGenerator interface {
	Generate(ctx context.Context) (string, error)
}
