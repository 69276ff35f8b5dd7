package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respond(t *testing.T, err error) (int, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
	HandleError(c, err)

	var body struct {
		Error map[string]any `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body.Error
}

func TestHandleError(t *testing.T) {
	cause := errors.New("upstream said no")

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantType    ErrorType
		wantDetails bool
	}{
		{name: "bad request", err: New400Error("Message is required"), wantStatus: http.StatusBadRequest, wantType: ErrorTypeBadRequest},
		{name: "unauthorized", err: New401Error(""), wantStatus: http.StatusUnauthorized, wantType: ErrorTypeUnauthorized},
		{name: "not found", err: New404Error("Session not found"), wantStatus: http.StatusNotFound, wantType: ErrorTypeNotFound},
		{name: "internal hides cause", err: New500Error(cause), wantStatus: http.StatusInternalServerError, wantType: ErrorTypeInternalServerError},
		{name: "plain error", err: cause, wantStatus: http.StatusInternalServerError, wantType: ErrorTypeInternalServerError},
		{name: "upstream auth", err: NewUpstreamAuthError(cause), wantStatus: http.StatusInternalServerError, wantType: ErrorTypeUpstreamAuth, wantDetails: true},
		{name: "upstream failure", err: NewUpstreamError(cause), wantStatus: http.StatusInternalServerError, wantType: ErrorTypeInternalServerError, wantDetails: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := respond(t, tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, string(tt.wantType), body["type"])
			assert.NotEmpty(t, body["message"])
			if tt.wantDetails {
				assert.Equal(t, cause.Error(), body["details"])
			} else {
				assert.NotContains(t, body, "details")
			}
		})
	}
}

func TestCustomErrorUnwrap(t *testing.T) {
	cause := errors.New("root")
	err := New500Error(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "An unexpected error occurred", err.Error())
}
