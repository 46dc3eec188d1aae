package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"siwf/internal/config"
	"siwf/internal/middleware"
	"siwf/internal/service"
)

// SIWFHandler handles the Sign In With Farcaster endpoints.
type SIWFHandler struct {
	siwfService    service.SIWFService
	sessionService service.SessionService
	cookie         config.SessionConfig
}

// NewSIWFHandler creates a new SIWFHandler.
func NewSIWFHandler(siwfService service.SIWFService, sessionService service.SessionService, cookie config.SessionConfig) *SIWFHandler {
	return &SIWFHandler{siwfService: siwfService, sessionService: sessionService, cookie: cookie}
}

// Nonce handles POST /siwf/nonce
func (h *SIWFHandler) Nonce(c *gin.Context) {
	var input service.NonceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	out, err := h.siwfService.RequestNonce(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

// Verify handles POST /siwf/verify
func (h *SIWFHandler) Verify(c *gin.Context) {
	var input service.VerifyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	out, err := h.siwfService.Verify(c.Request.Context(), input, service.SessionMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	h.setSessionCookie(c, out.Token, int(h.cookie.Expiry.Seconds()))
	c.JSON(http.StatusOK, out)
}

// Session handles GET /siwf/session
func (h *SIWFHandler) Session(c *gin.Context) {
	userID, _, ok := extractSession(c)
	if !ok {
		return
	}

	user, err := h.siwfService.CurrentUser(c.Request.Context(), userID, middleware.GetFID(c))
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, user)
}

// Wallets handles GET /siwf/wallets
func (h *SIWFHandler) Wallets(c *gin.Context) {
	userID, _, ok := extractSession(c)
	if !ok {
		return
	}

	wallets, err := h.siwfService.ListWallets(c.Request.Context(), userID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, wallets)
}

// SignOut handles POST /siwf/sign-out
func (h *SIWFHandler) SignOut(c *gin.Context) {
	_, sessionID, ok := extractSession(c)
	if !ok {
		return
	}

	if err := h.sessionService.Revoke(c.Request.Context(), sessionID); err != nil {
		HandleError(c, err)
		return
	}

	h.setSessionCookie(c, "", -1)
	RespondOK(c, nil)
}

// setSessionCookie writes the session cookie. Mini Apps run inside a
// third-party frame, so the cookie must be SameSite=None and therefore Secure.
func (h *SIWFHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(h.cookie.CookieName, value, maxAge, "/", "", true, true)
}
