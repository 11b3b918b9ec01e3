package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/domain"
	apperrors "github.com/achilleasntalagiorgos1997/pm-dashboard/internal/errors"
)

// handleBulk applies one action to many projects at once. The response is
// 200 with the update count when everything matched, or 409 carrying every
// version conflict when anything did not. Nothing is partially applied.
func (s *Server) handleBulk(c echo.Context) error {
	var req domain.BulkRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	result, err := s.app.ApplyBulk(c.Request().Context(), req)
	if err != nil {
		return mapDomainError(err)
	}

	if len(result.Conflicts) > 0 {
		return c.JSON(http.StatusConflict, result)
	}
	return c.JSON(http.StatusOK, result)
}
