package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/studyshelf/internal/auth"
	"github.com/mrlokans/studyshelf/internal/engine"
	"github.com/mrlokans/studyshelf/internal/locker"
)

// contextKeyRejection holds the engine error kind of a rejected request so
// the request logger can count it.
const contextKeyRejection = "engine_rejection"

// GetUserID extracts the authenticated user's ID from the Gin context.
func GetUserID(c *gin.Context) uint {
	return auth.GetUserID(c)
}

func principal(c *gin.Context) engine.Principal {
	return engine.Principal{UserID: GetUserID(c)}
}

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context (validation errors, etc.)
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: string(engine.KindValidation)})
}

// respondInvalidBody sends a 400 for a request body that failed binding.
func respondInvalidBody(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "invalid request body",
		Code:    string(engine.KindValidation),
		Details: err.Error(),
	})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found", Code: string(engine.KindNotFound)})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	slog.Error("Internal error", "context", context, "error", err, "request_id", c.GetString(ContextKeyRequestID))
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondError sends an error response with the given status code.
func respondError(c *gin.Context, status int, message, code string) {
	c.JSON(status, ErrorResponse{Error: message, Code: code})
}

// respondEngineError maps an engine rejection to its HTTP status. Anything
// that is not an engine rejection is a 500, except lock acquisition
// failures which are reported as 503.
func respondEngineError(c *gin.Context, err error, op string) {
	kind := engine.KindOf(err)
	if kind == "" {
		switch {
		case errors.Is(err, locker.ErrUnavailable),
			errors.Is(err, context.DeadlineExceeded),
			errors.Is(err, context.Canceled):
			slog.Warn("Lock unavailable", "context", op, "error", err)
			respondError(c, http.StatusServiceUnavailable, "resource busy, retry later", "unavailable")
		default:
			respondInternalError(c, err, op)
		}
		return
	}

	c.Set(contextKeyRejection, string(kind))
	status, code := statusForKind(kind)
	respondError(c, status, err.Error(), code)
}

func statusForKind(kind engine.Kind) (int, string) {
	switch kind {
	case engine.KindValidation:
		return http.StatusBadRequest, string(kind)
	case engine.KindNotFound:
		return http.StatusNotFound, string(kind)
	case engine.KindConflict:
		return http.StatusConflict, string(kind)
	case engine.KindCapacity:
		return http.StatusConflict, "capacity_exceeded"
	case engine.KindInvariant:
		return http.StatusUnprocessableEntity, string(kind)
	case engine.KindPermission:
		return http.StatusForbidden, string(kind)
	default:
		return http.StatusInternalServerError, string(kind)
	}
}

// --- Success Response Helpers ---

// respondCreated sends a 201 Created response with data.
func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	idStr := c.Param(paramName)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// parseQueryInt reads an optional integer query parameter.
func parseQueryInt(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		respondBadRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}
