package errors

import (
	"net/http"
	"strings"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
)

// Error is the typed failure the services hand to the boundary. Status carries
// the transport mapping so handlers never have to re-classify.
type Error struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (e *Error) Error() string {
	return e.Message
}

func New(message string, status int) *Error {
	return &Error{
		Message: message,
		Status:  status,
	}
}

var (
	ErrBadRequest          = New("bad request", http.StatusBadRequest)
	ErrNotFound            = New("resource not found", http.StatusNotFound)
	ErrForbidden           = New("forbidden", http.StatusForbidden)
	ErrUnauthorized        = New("unauthorized", http.StatusUnauthorized)
	ErrConflict            = New("resource already exists", http.StatusConflict)
	ErrInvalidPassword     = New("invalid email or password", http.StatusUnauthorized)
	ErrInternalServerError = New("internal server error", http.StatusInternalServerError)
	InActiveUserError      = New("account is deactivated", http.StatusForbidden)
)

// NotFound and friends build typed errors with the matching HTTP status.
func NotFound(message string) *Error {
	return New(message, http.StatusNotFound)
}

func Forbidden(message string) *Error {
	return New(message, http.StatusForbidden)
}

func InvalidOperation(message string) *Error {
	return New(message, http.StatusBadRequest)
}

func Conflict(message string) *Error {
	return New(message, http.StatusConflict)
}

// GetUniqueContraintError maps a store-level uniqueness violation to a
// Conflict, anything else stays a 500.
func GetUniqueContraintError(err error) *Error {
	if err == nil {
		return nil
	}
	if IsUniqueViolation(err) || strings.Contains(err.Error(), "already in use") || strings.Contains(err.Error(), "already exists") {
		return New(err.Error(), http.StatusConflict)
	}
	return ErrInternalServerError
}

// IsUniqueViolation recognizes duplicate-key failures from the drivers we run
// against (postgres in prod, sqlite in tests).
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry")
}

// ErrorHandler is the gin-rate-limit error hook.
func ErrorHandler(c *gin.Context, info ratelimit.Info) {
	c.JSON(http.StatusTooManyRequests, gin.H{
		"message": "too many requests, try again in " + time.Until(info.ResetTime).Round(time.Second).String(),
		"status":  http.StatusTooManyRequests,
	})
	c.Abort()
}
