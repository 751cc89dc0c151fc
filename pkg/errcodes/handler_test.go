package errcodes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errorPayload struct {
	Error struct {
		Code       string `json:"code"`
		Message    string `json:"message"`
		StatusCode int    `json:"status_code"`
	} `json:"error"`
}

func handle(t *testing.T, err error) (*httptest.ResponseRecorder, errorPayload) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHandler().Handle(err, c)

	var payload errorPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return rec, payload
}

func TestHandler_CustomError(t *testing.T) {
	t.Parallel()

	rec, payload := handle(t, errors.WithStack(NotFound("Story")))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", payload.Error.Code)
	assert.Equal(t, "Story not found.", payload.Error.Message)
	assert.Equal(t, http.StatusNotFound, payload.Error.StatusCode)
}

func TestHandler_EchoError(t *testing.T) {
	t.Parallel()

	rec, payload := handle(t, echo.NewHTTPError(http.StatusMethodNotAllowed, "Method Not Allowed"))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "method_not_allowed", payload.Error.Code)

	rec, payload = handle(t, echo.NewHTTPError(http.StatusBadGateway, errors.New("upstream")))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Bad Gateway", payload.Error.Message)
}

func TestHandler_InternalErrorIsNotLeaked(t *testing.T) {
	t.Parallel()

	rec, payload := handle(t, errors.New("UNIQUE constraint failed: users.username"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_server_error", payload.Error.Code)
	assert.Equal(t, "Internal Server Error", payload.Error.Message)
}

func TestError_IsAndAs(t *testing.T) {
	t.Parallel()

	err := errors.Wrap(ValidationError("A story can only have one start part"), "add part")
	assert.True(t, errors.Is(err, ValidationError("A story can only have one start part")))
	assert.False(t, errors.Is(err, NotFound("Story")))

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, http.StatusUnprocessableEntity, e.HTTPCode)

	assert.Equal(t, http.StatusTooManyRequests, TooManyRequests().(*Error).HTTPCode)
	assert.Equal(t, http.StatusConflict, Conflict("Username is taken.").(*Error).HTTPCode)
	assert.Equal(t, http.StatusUnauthorized, Unauthorized("Invalid credentials.").(*Error).HTTPCode)
}

func TestHandler_CanceledRequest(t *testing.T) {
	t.Parallel()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHandler().Handle(errors.Wrap(context.Canceled, "list stories"), c)

	assert.Equal(t, StatusClientClosedRequest, rec.Code)
	assert.Empty(t, rec.Body.String())
}
