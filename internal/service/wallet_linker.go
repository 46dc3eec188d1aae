package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"siwf/internal/domain"
	"siwf/internal/port"
)

// WalletLinker records the wallet addresses of a newly created identity.
type WalletLinker interface {
	Link(ctx context.Context, userID uuid.UUID, fid int64) error
}

type walletLinker struct {
	resolver   port.FarcasterProfileResolver
	walletRepo port.WalletAddressRepository
}

// NewWalletLinker creates a new WalletLinker.
func NewWalletLinker(resolver port.FarcasterProfileResolver, walletRepo port.WalletAddressRepository) WalletLinker {
	return &walletLinker{
		resolver:   resolver,
		walletRepo: walletRepo,
	}
}

func (l *walletLinker) Link(ctx context.Context, userID uuid.UUID, fid int64) error {
	profile, err := l.resolver.ResolveUser(ctx, fid)
	if err != nil {
		return fmt.Errorf("resolving farcaster profile: %w", err)
	}
	if profile == nil {
		slog.DebugContext(ctx, "no external profile, skipping wallet linking", "fid", fid)
		return nil
	}

	addresses := WalletAddressesFor(userID, profile)
	if len(addresses) == 0 {
		return nil
	}
	if err := l.walletRepo.CreateBatch(ctx, addresses); err != nil {
		return fmt.Errorf("storing wallet addresses: %w", err)
	}
	return nil
}

// WalletAddressesFor applies the primary-address policy to a resolved
// profile. The primary is the verified primary eth address, falling back to
// the custody address. Nothing is linked without both a custody address and
// a primary. The custody address is stored on chain 10 and each verified eth
// address on chain 1; an address already stored is not repeated.
func WalletAddressesFor(userID uuid.UUID, profile *port.FarcasterProfile) []domain.WalletAddress {
	custody := strings.TrimSpace(profile.CustodyAddress)
	primary := custody
	if v := profile.VerifiedAddresses; v != nil && strings.TrimSpace(v.PrimaryEthAddress) != "" {
		primary = strings.TrimSpace(v.PrimaryEthAddress)
	}
	if custody == "" || primary == "" {
		return nil
	}

	custodyChain, verifiedChain := domain.ChainIDOptimism, domain.ChainIDEthereum
	addresses := []domain.WalletAddress{{
		UserID:    userID,
		Address:   custody,
		ChainID:   &custodyChain,
		IsPrimary: strings.EqualFold(primary, custody),
	}}
	if profile.VerifiedAddresses == nil {
		return addresses
	}

	for _, addr := range profile.VerifiedAddresses.EthAddresses {
		addr = strings.TrimSpace(addr)
		if addr == "" || containsAddress(addresses, addr) {
			continue
		}
		addresses = append(addresses, domain.WalletAddress{
			UserID:    userID,
			Address:   addr,
			ChainID:   &verifiedChain,
			IsPrimary: strings.EqualFold(primary, addr),
		})
	}
	return addresses
}

func containsAddress(addresses []domain.WalletAddress, addr string) bool {
	for i := range addresses {
		if strings.EqualFold(addresses[i].Address, addr) {
			return true
		}
	}
	return false
}
