package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`

	base *Error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the error e was derived from, or carries the
// same code and message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.base != nil && e.base == t {
		return true
	}
	return t.Code == e.Code && t.Message == e.Message
}

func (e *Error) root() *Error {
	if e.base != nil {
		return e.base
	}
	return e
}

// JSON returns the error as a JSON string
func (e *Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

func New(code int, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Wrap returns a copy of base carrying err as its cause.
func Wrap(base *Error, err error) *Error {
	return &Error{Code: base.Code, Message: base.Message, Err: err, base: base.root()}
}

// Withf returns a copy of base with a more specific message.
func Withf(base *Error, format string, args ...interface{}) *Error {
	return &Error{Code: base.Code, Message: fmt.Sprintf(format, args...), base: base.root()}
}

// Common error types
var (
	ErrBadRequest     = New(http.StatusBadRequest, "Bad request", nil)
	ErrUnauthorized   = New(http.StatusUnauthorized, "Unauthorized", nil)
	ErrNotFound       = New(http.StatusNotFound, "Not found", nil)
	ErrInternalServer = New(http.StatusInternalServerError, "Internal server error", nil)
)

// Import error types
var (
	ErrModuleNotFound = New(http.StatusNotFound, "Import module not found", nil)
	ErrInvalidSheet   = New(http.StatusBadRequest, "Invalid spreadsheet", nil)
	ErrTooManyRows    = New(http.StatusBadRequest, "Too many rows", nil)
	ErrFileTooLarge   = New(http.StatusRequestEntityTooLarge, "File too large", nil)
	ErrJobNotFound    = New(http.StatusNotFound, "Import job not found", nil)
	ErrInvalidOptions = New(http.StatusBadRequest, "Invalid import options", nil)
)

// As converts any error into an *Error, falling back to a 500.
func As(err error) *Error {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(ErrInternalServer, err)
}

// Respond writes err as {"error": message} with its status code.
func Respond(c *gin.Context, err error) {
	appErr := As(err)
	c.JSON(appErr.Code, gin.H{"error": appErr.Message})
}

// ErrorMiddleware renders the last error attached to the gin context.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			appErr := As(c.Errors.Last().Err)
			c.JSON(appErr.Code, appErr)
			c.Abort()
		}
	}
}
