package domain

import "strconv"

// AuthProvider identifies the provider an Account belongs to.
type AuthProvider string

const (
	AuthProviderFarcaster AuthProvider = "farcaster"
)

// Chain IDs used for linked wallet addresses.
const (
	ChainIDEthereum int64 = 1
	ChainIDOptimism int64 = 10
)

// NonceIdentifierPrefix namespaces sign-in nonces in the verifications table.
const NonceIdentifierPrefix = "siwf:"

// NonceIdentifier returns the verification identifier for a fid. The same
// key is used when issuing and when consuming.
func NonceIdentifier(fid int64) string {
	return NonceIdentifierPrefix + strconv.FormatInt(fid, 10)
}

// FarcasterAccountID returns the Account.AccountID for a fid.
func FarcasterAccountID(fid int64) string {
	return string(AuthProviderFarcaster) + ":" + strconv.FormatInt(fid, 10)
}
