package neynar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"siwf/internal/config"
	"siwf/internal/port"
)

const userBulkPath = "/v2/farcaster/user/bulk"

type verifiedAddresses struct {
	EthAddresses []string `json:"eth_addresses"`
	SolAddresses []string `json:"sol_addresses"`
	Primary      struct {
		EthAddress *string `json:"eth_address"`
		SolAddress *string `json:"sol_address"`
	} `json:"primary"`
}

type user struct {
	FID               int64              `json:"fid"`
	Username          string             `json:"username"`
	DisplayName       string             `json:"display_name"`
	PfpURL            string             `json:"pfp_url"`
	CustodyAddress    string             `json:"custody_address"`
	VerifiedAddresses *verifiedAddresses `json:"verified_addresses"`
}

type userBulkResponse struct {
	Users []user `json:"users"`
}

// Client resolves Farcaster profiles through the Neynar API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a Neynar-backed FarcasterProfileResolver.
func NewClient(cfg config.ProfileConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) ResolveUser(ctx context.Context, fid int64) (*port.FarcasterProfile, error) {
	q := url.Values{}
	q.Set("fids", strconv.FormatInt(fid, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+userBulkPath+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating neynar request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("neynar user lookup: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("neynar user lookup: unexpected status %d", resp.StatusCode)
	}

	var body userBulkResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding neynar response: %w", err)
	}

	for _, u := range body.Users {
		if u.FID == fid {
			return toProfile(u), nil
		}
	}
	return nil, nil
}

func toProfile(u user) *port.FarcasterProfile {
	p := &port.FarcasterProfile{
		FID:            u.FID,
		Username:       u.Username,
		DisplayName:    u.DisplayName,
		AvatarURL:      u.PfpURL,
		CustodyAddress: u.CustodyAddress,
	}
	if u.VerifiedAddresses != nil {
		va := &port.FarcasterVerifiedAddresses{
			EthAddresses: u.VerifiedAddresses.EthAddresses,
			SolAddresses: u.VerifiedAddresses.SolAddresses,
		}
		if u.VerifiedAddresses.Primary.EthAddress != nil {
			va.PrimaryEthAddress = *u.VerifiedAddresses.Primary.EthAddress
		}
		if u.VerifiedAddresses.Primary.SolAddress != nil {
			va.PrimarySolAddress = *u.VerifiedAddresses.Primary.SolAddress
		}
		p.VerifiedAddresses = va
	}
	return p
}

// Compile-time check.
var _ port.FarcasterProfileResolver = (*Client)(nil)
