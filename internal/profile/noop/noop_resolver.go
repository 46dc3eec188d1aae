package noop

import (
	"context"
	"log/slog"

	"siwf/internal/port"
)

type noopResolver struct{}

// NewNoopResolver creates a FarcasterProfileResolver that never finds a
// profile, so wallet linking is always skipped.
func NewNoopResolver() port.FarcasterProfileResolver {
	return noopResolver{}
}

func (noopResolver) ResolveUser(ctx context.Context, fid int64) (*port.FarcasterProfile, error) {
	slog.DebugContext(ctx, "profile resolution disabled, skipping wallet linking", "fid", fid)
	return nil, nil
}
