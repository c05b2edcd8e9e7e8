package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/encoreline/backend/internal/apperrors"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// isRecordNotFound reports whether err is the backing store's missing-row error.
func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// getUserIDFromContext returns the authenticated user's id, or 0 when the
// request carries no identity. Both auth middlewares store it under "userID".
func getUserIDFromContext(c echo.Context) uint {
	if id, ok := c.Get("userID").(uint); ok {
		return id
	}
	return 0
}

// parseIDParam parses a numeric path parameter.
func parseIDParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

// httpError maps an application error to the HTTP status callers expect.
// Failed mutations leave prior state untouched, so a plain message is all
// the client needs for its retry affordance.
func httpError(err error) *echo.HTTPError {
	switch apperrors.CodeOf(err) {
	case apperrors.CodeNotAuthenticated:
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case apperrors.CodeInvalidTarget:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case apperrors.CodeNotFound:
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case apperrors.CodePermissionDenied:
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	}
	if apperrors.IsNotFound(err) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
