package handler

import (
	"errors"

	app_errors "wp-pilot/internal/errors"
	"wp-pilot/internal/response"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// HandleServiceError renders a service-layer error. APIErrors pass through
// with their status; database errors are translated; everything else becomes
// an opaque 500 with the detail logged server-side.
func HandleServiceError(c *gin.Context, err error) {
	var apiErr *app_errors.APIError
	if errors.As(err, &apiErr) {
		response.Error(c, apiErr)
		return
	}

	if dbErr := app_errors.ParseDBError(err); dbErr != nil {
		response.Error(c, dbErr)
		return
	}

	logrus.WithError(err).Error("Unhandled service error")
	response.Error(c, app_errors.ErrInternalServer)
}
