package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"siwf/internal/domain"
	"siwf/internal/middleware"
)

// APIResponse is the standard envelope for API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
// Sign-in failures keep their fixed client-facing messages; wrapped detail
// never reaches the response.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrInvalidOrExpiredNonce):
		return http.StatusUnauthorized, "UNAUTHORIZED_INVALID_OR_EXPIRED_NONCE", domain.ErrInvalidOrExpiredNonce.Error()
	case errors.Is(err, domain.ErrVerificationFailed):
		return http.StatusUnauthorized, "UNAUTHORIZED_VERIFICATION_FAILED", domain.ErrVerificationFailed.Error()
	case errors.Is(err, domain.ErrIdentityMismatch):
		return http.StatusUnauthorized, "UNAUTHORIZED_IDENTITY_MISMATCH", domain.ErrIdentityMismatch.Error()
	case errors.Is(err, domain.ErrSessionCreationFailed):
		return http.StatusInternalServerError, "SESSION_CREATION_FAILED", domain.ErrSessionCreationFailed.Error()
	case errors.Is(err, domain.ErrSIWFUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", domain.ErrSIWFUnauthorized.Error()
	case errors.Is(err, domain.ErrInvalidFID):
		return http.StatusBadRequest, "VALIDATION_ERROR", domain.ErrInvalidFID.Error()
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "RATE_LIMITED", "too many requests"
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrSessionExpired):
		return http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// extractSession extracts the user and session IDs set by SessionAuth.
// Returns false if the session context is missing (error response already written).
func extractSession(c *gin.Context) (userID, sessionID uuid.UUID, ok bool) {
	var err error
	userID, err = middleware.GetUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing session context")
		return uuid.Nil, uuid.Nil, false
	}
	sessionID, err = middleware.GetSessionID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing session context")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, sessionID, true
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get("request_id")
		slog.ErrorContext(c.Request.Context(), "internal error", "request_id", requestID, "error", err)
	}
	RespondError(c, status, code, msg)
}
