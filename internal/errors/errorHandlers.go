package errors

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeBadRequest          ErrorType = "BAD_REQUEST"
	ErrorTypeUnauthorized        ErrorType = "UNAUTHORIZED"
	ErrorTypeNotFound            ErrorType = "NOT_FOUND"
	ErrorTypeUpstreamAuth        ErrorType = "UPSTREAM_AUTH"
	ErrorTypeInternalServerError ErrorType = "INTERNAL_SERVER_ERROR"
)

// CustomError represents a custom error with associated HTTP status code and type
type CustomError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Internal   error
	// ShowDetails exposes Internal's message to the caller for diagnostics.
	ShowDetails bool
}

// Error implements the error interface
func (e *CustomError) Error() string {
	return e.Message
}

func (e *CustomError) Unwrap() error {
	return e.Internal
}

func newError(errType ErrorType, message string, statusCode int, internal error) *CustomError {
	return &CustomError{
		Type:       errType,
		Message:    message,
		StatusCode: statusCode,
		Internal:   internal,
	}
}

// New400Error creates a new bad request error
func New400Error(message string) *CustomError {
	return newError(ErrorTypeBadRequest, message, http.StatusBadRequest, nil)
}

// New401Error creates a new unauthorized error
func New401Error(message string) *CustomError {
	if message == "" {
		message = "Unauthorized access"
	}
	return newError(ErrorTypeUnauthorized, message, http.StatusUnauthorized, nil)
}

// New404Error creates a new not found error
func New404Error(message string) *CustomError {
	return newError(ErrorTypeNotFound, message, http.StatusNotFound, nil)
}

// New500Error creates a new internal server error
func New500Error(internal error) *CustomError {
	return newError(ErrorTypeInternalServerError, "An unexpected error occurred", http.StatusInternalServerError, internal)
}

// NewUpstreamAuthError reports that the model provider rejected our credentials.
// The operator has to fix the API key, so the message says so.
func NewUpstreamAuthError(internal error) *CustomError {
	e := newError(ErrorTypeUpstreamAuth,
		"API Key غير صحيح. يرجى التحقق من مفتاح مزود النموذج",
		http.StatusInternalServerError, internal)
	e.ShowDetails = true
	return e
}

// NewUpstreamError reports a failed model call with the cause attached.
func NewUpstreamError(internal error) *CustomError {
	e := newError(ErrorTypeInternalServerError, "حدث خطأ في معالجة السؤال", http.StatusInternalServerError, internal)
	e.ShowDetails = true
	return e
}

// HandleError handles the custom error and sends an appropriate JSON response
func HandleError(c *gin.Context, err error) {
	var customErr *CustomError
	if !errors.As(err, &customErr) {
		customErr = New500Error(err)
	}

	if customErr.StatusCode >= http.StatusInternalServerError {
		log := zerolog.Ctx(c.Request.Context())
		log.Error().
			Err(customErr.Internal).
			Str("type", string(customErr.Type)).
			Str("url", c.Request.URL.String()).
			Msg("Request failed")
	}

	body := gin.H{
		"type":    customErr.Type,
		"message": customErr.Message,
	}
	if customErr.ShowDetails && customErr.Internal != nil {
		body["details"] = customErr.Internal.Error()
	}
	c.AbortWithStatusJSON(customErr.StatusCode, gin.H{"error": body})
}
