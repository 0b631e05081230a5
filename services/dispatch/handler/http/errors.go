package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/piresc/tripdispatch/internal/pkg/constants"
	"github.com/piresc/tripdispatch/internal/pkg/logger"
	"github.com/piresc/tripdispatch/internal/pkg/middleware"
	"github.com/piresc/tripdispatch/internal/utils"
	"github.com/piresc/tripdispatch/services/dispatch"
)

type errorMapping struct {
	err    error
	status int
	reason string
}

var errorMappings = []errorMapping{
	{dispatch.ErrInvalidLocation, http.StatusBadRequest, constants.ErrorInvalidLocation},
	{dispatch.ErrNotAuthorized, http.StatusForbidden, constants.ErrorNotAuthorized},
	{dispatch.ErrTripNotFound, http.StatusNotFound, constants.ErrorTripNotFound},
	{dispatch.ErrOfferNotFound, http.StatusGone, constants.ErrorOfferNotFound},
	{dispatch.ErrIllegalTransition, http.StatusConflict, constants.ErrorIllegalTransition},
	{dispatch.ErrTransitionContention, http.StatusConflict, constants.ErrorTripContention},
	{dispatch.ErrTripNotActive, http.StatusConflict, constants.ErrorTripNotActive},
	{dispatch.ErrRateLimited, http.StatusTooManyRequests, constants.ErrorRateLimitExceeded},
}

// writeError maps a use case error onto an HTTP response
func writeError(c echo.Context, err error) error {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return utils.ErrorWithReason(c, m.status, m.reason, m.err.Error())
		}
	}

	logger.ErrorCtx(c.Request().Context(), "Request failed",
		logger.String("path", c.Path()),
		logger.Err(err))
	middleware.NoticeError(c, err)
	return utils.ErrorWithReason(c, http.StatusInternalServerError, constants.ErrorInternalError, "Internal server error")
}
