package errcodes

import (
	"context"
	"net/http"

	"github.com/iancoleman/strcase"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/errutils"
)

// StatusClientClosedRequest is reported when the client went away before the
// handler finished.
const StatusClientClosedRequest = 499

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

type payloadError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

type payload struct {
	Error payloadError `json:"error"`
}

// Handle is an Echo error handler. Custom and Echo errors keep their status
// codes; anything else becomes an opaque internal server error.
func (h *Handler) Handle(err error, c echo.Context) {
	log := logger.FromEchoContext(c)

	if errutils.IsIgnorableErr(err) {
		log.Err(err).Warn("broken pipe")
		return
	}
	if errors.Is(err, context.Canceled) {
		log.Info("request canceled")
		if !c.Response().Committed {
			c.Response().WriteHeader(StatusClientClosedRequest)
		}
		return
	}
	if c.Response().Committed {
		log.Err(err).Warn("error after response was written")
		return
	}

	p := h.generatePayload(err)
	if p.Error.StatusCode == http.StatusInternalServerError {
		log.Err(err).Error("server error")
	}

	if err := c.JSON(p.Error.StatusCode, p); err != nil {
		log.Err(errors.WithStack(err)).Error("error handler json error")
	}
}

func (h *Handler) generatePayload(err error) payload {
	p := payloadError{StatusCode: http.StatusInternalServerError}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		p.StatusCode = he.Code
		if m, ok := he.Message.(string); ok {
			p.Message = m
		} else {
			p.Message = http.StatusText(he.Code)
		}
		p.Code = strcase.ToSnake(p.Message)
	}

	var e *Error
	if errors.As(err, &e) {
		p.StatusCode = e.HTTPCode
		p.Code = e.Code
		p.Message = e.Message
	}

	if p.StatusCode == http.StatusInternalServerError && p.Message == "" {
		p.Code = "internal_server_error"
		p.Message = "Internal Server Error"
	}

	return payload{Error: p}
}
