package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/plateprep/plateprep/internal/apperrors"
)

// respondError writes a coded error response. Plain errors are hidden behind
// a generic 500 and logged with their full chain.
func respondError(c echo.Context, logger *zap.Logger, err error) error {
	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) {
		if appErr.Code() == apperrors.ErrInternal {
			logger.Error("Request failed",
				zap.String("path", c.Request().URL.Path),
				zap.Error(err))
		}
		return c.JSON(apperrors.HTTPStatus(err), echo.Map{
			"error": appErr.Message(),
			"code":  appErr.Code(),
		})
	}

	logger.Error("Request failed",
		zap.String("path", c.Request().URL.Path),
		zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{
		"error": "Internal server error",
		"code":  apperrors.ErrInternal,
	})
}
