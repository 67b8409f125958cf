package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"mailmind/internal/model"
	"mailmind/internal/sse"
)

// errorStatus maps service errors to HTTP status codes.
func errorStatus(err error) int {
	var remoteErr *model.RemoteClassificationError
	switch {
	case errors.Is(err, model.ErrConfigMissing):
		return http.StatusPreconditionFailed
	case errors.Is(err, model.ErrEmailNotFound), errors.Is(err, model.ErrReplyNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrNoPendingMessages), errors.Is(err, sse.ErrJobRunning):
		return http.StatusConflict
	case errors.As(err, &remoteErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorJSON(c echo.Context, logger echo.Logger, err error) error {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error(c.Request().Method, " ", c.Path(), " failed: ", err)
	}
	return c.JSON(status, map[string]string{
		"error": err.Error(),
	})
}
