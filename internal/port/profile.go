package port

import "context"

// FarcasterVerifiedAddresses are the addresses a fid has verified ownership of.
type FarcasterVerifiedAddresses struct {
	PrimaryEthAddress string
	PrimarySolAddress string
	EthAddresses      []string
	SolAddresses      []string
}

// FarcasterProfile is the externally resolved profile of a fid.
type FarcasterProfile struct {
	FID               int64
	Username          string
	DisplayName       string
	AvatarURL         string
	CustodyAddress    string
	VerifiedAddresses *FarcasterVerifiedAddresses
}

// FarcasterProfileResolver looks up a fid's profile in an external directory.
// A nil profile with a nil error means the fid is unknown and linking
// should be skipped.
type FarcasterProfileResolver interface {
	ResolveUser(ctx context.Context, fid int64) (*FarcasterProfile, error)
}
