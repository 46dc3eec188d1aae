package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"siwf/internal/auth/nonce"
	"siwf/internal/config"
	"siwf/internal/domain"
	"siwf/internal/handler"
	"siwf/internal/platform/ratelimiter"
	"siwf/internal/repository/memory"
	"siwf/internal/router"
	"siwf/internal/service"
	"siwf/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixedVerifier map[string]int64

func (v fixedVerifier) VerifyToken(_ context.Context, _, token string) (int64, error) {
	fid, ok := v[token]
	if !ok {
		return 0, domain.ErrVerificationFailed
	}
	return fid, nil
}

func newTestEngine(t *testing.T, opts ...func(*router.Deps)) *gin.Engine {
	t.Helper()
	store := memory.NewStore()
	sessionCfg := config.SessionConfig{Secret: "s", Issuer: "siwf", Expiry: time.Hour, CookieName: "siwf.session_token"}
	siwfCfg := config.SIWFConfig{Domain: "app.example.com", NonceTTL: 15 * time.Minute,
		IdentityEmailDomain: "farcaster.emails", RequestTimeout: time.Second, WalletLinkTimeout: time.Second}

	profiles := new(mocks.MockProfileResolver)
	profiles.On("ResolveUser", mock.Anything, mock.Anything).Return(nil, nil)

	sessions := service.NewSessionService(store.Sessions(), sessionCfg)
	svc := service.NewSIWFService(
		service.NewNonceStore(store.Verifications(), nonce.NewGenerator(), siwfCfg.NonceTTL, nil),
		fixedVerifier{"tok-42": 42},
		service.NewIdentityResolver(store.Farcaster(), store.Users(), siwfCfg.IdentityEmailDomain),
		service.NewWalletLinker(profiles, store.Wallets()),
		sessions, store.Users(), store.Wallets(), siwfCfg,
	)

	deps := router.Deps{
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		SessionService: sessions,
		CookieName:     sessionCfg.CookieName,
		SIWF:           handler.NewSIWFHandler(svc, sessions, sessionCfg),
		Health:         handler.NewHealthHandler(nil),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	return router.Setup(deps)
}

func postFrom(r http.Handler, remoteAddr, forwardedFor string) int {
	req := httptest.NewRequest(http.MethodPost, "/siwf/nonce", bytes.NewReader([]byte(`{"fid":42}`)))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remoteAddr
	req.Header.Set("X-Forwarded-For", forwardedFor)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func post(t *testing.T, r http.Handler, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSignInRoundTrip(t *testing.T) {
	r := newTestEngine(t)

	w := post(t, r, "/siwf/nonce", map[string]int{"fid": 42})
	require.Equal(t, http.StatusOK, w.Code)

	w = post(t, r, "/siwf/verify", map[string]interface{}{
		"token": "tok-42",
		"user":  map[string]interface{}{"fid": 42, "username": "alice"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Success bool `json:"success"`
		User    struct {
			FID  int64  `json:"fid"`
			Name string `json:"name"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.True(t, out.Success)
	assert.Equal(t, int64(42), out.User.FID)
	assert.Equal(t, "alice", out.User.Name)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	session := cookies[0]
	assert.True(t, session.Secure)
	assert.True(t, session.HttpOnly)
	assert.Equal(t, http.SameSiteNoneMode, session.SameSite)

	req := httptest.NewRequest(http.MethodGet, "/siwf/session", http.NoBody)
	req.AddCookie(session)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"alice"`)

	w = post(t, r, "/siwf/sign-out", nil, session)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/siwf/session", http.NoBody)
	req.AddCookie(session)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerifyIdentityMismatch(t *testing.T) {
	r := newTestEngine(t)

	require.Equal(t, http.StatusOK, post(t, r, "/siwf/nonce", map[string]int{"fid": 7}).Code)

	w := post(t, r, "/siwf/verify", map[string]interface{}{
		"token": "tok-42",
		"user":  map[string]interface{}{"fid": 7},
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "UNAUTHORIZED_IDENTITY_MISMATCH")
	assert.Empty(t, w.Result().Cookies())
}

func TestMetricsAndHealth(t *testing.T) {
	r := newTestEngine(t)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRateLimit_IgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	r := newTestEngine(t, func(d *router.Deps) {
		d.Limiter = ratelimiter.New(0.001, 1, time.Minute)
	})

	ok, limited := 0, 0
	for i := 0; i < 20; i++ {
		switch postFrom(r, "203.0.113.9:4321", fmt.Sprintf("10.0.0.%d", i)) {
		case http.StatusOK:
			ok++
		case http.StatusTooManyRequests:
			limited++
		}
	}

	assert.Equal(t, 1, ok)
	assert.Equal(t, 19, limited)
}

func TestRateLimit_HonoursForwardedForFromTrustedProxy(t *testing.T) {
	r := newTestEngine(t, func(d *router.Deps) {
		d.Limiter = ratelimiter.New(0.001, 1, time.Minute)
		d.TrustedProxies = []string{"10.1.0.0/16"}
	})

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, postFrom(r, "10.1.0.2:4321", fmt.Sprintf("198.51.100.%d", i)))
	}
	assert.Equal(t, http.StatusTooManyRequests, postFrom(r, "10.1.0.3:4321", "198.51.100.0"))
}
