package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/app"
	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/domain"
	apperrors "github.com/achilleasntalagiorgos1997/pm-dashboard/internal/errors"
)

// mapDomainError converts domain sentinel errors into structured errors the
// error middleware knows how to render. Structured errors pass through.
func mapDomainError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrProjectNotFound):
		return apperrors.NotFoundError("project not found")
	case errors.Is(err, domain.ErrTeamMemberNotFound):
		return apperrors.NotFoundError("team member not found")
	case errors.Is(err, domain.ErrMilestoneNotFound):
		return apperrors.NotFoundError("milestone not found")
	case errors.Is(err, domain.ErrVersionMismatch):
		return apperrors.ConflictError("project version has moved")
	case errors.Is(err, domain.ErrProjectNotDeleted):
		return apperrors.ConflictError("project is not deleted")
	case errors.Is(err, domain.ErrUnsupportedAction):
		return apperrors.ValidationError("unsupported action")
	case errors.Is(err, domain.ErrStatusRequired):
		return apperrors.ValidationError("new_status is required")
	case errors.Is(err, domain.ErrTagRequired):
		return apperrors.ValidationError("tag is required")
	default:
		return err
	}
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		return 0, apperrors.ValidationError("invalid " + name).WithField(name, c.Param(name))
	}
	return id, nil
}

// parseIfMatch reads the optional If-Match header as an expected version.
// Returns domain.VersionMissing when the header is absent.
func parseIfMatch(c echo.Context) (int64, error) {
	raw := strings.TrimSpace(c.Request().Header.Get("If-Match"))
	if raw == "" {
		return domain.VersionMissing, nil
	}
	raw = strings.Trim(raw, `"`)

	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || version < 0 {
		return 0, apperrors.ValidationError("invalid If-Match header").WithField("if_match", raw)
	}
	return version, nil
}

func setVersionHeader(c echo.Context, version int64) {
	c.Response().Header().Set("ETag", `"`+strconv.FormatInt(version, 10)+`"`)
}

func (s *Server) handleListProjects(c echo.Context) error {
	filter := domain.ProjectFilter{
		Query:   c.QueryParam("q"),
		Status:  c.QueryParam("status"),
		Owner:   c.QueryParam("owner"),
		Tag:     c.QueryParam("tag"),
		Health:  c.QueryParam("health"),
		SortBy:  c.QueryParam("sort_by"),
		SortDir: c.QueryParam("sort_dir"),
	}
	if page := c.QueryParam("page"); page != "" {
		n, err := strconv.Atoi(page)
		if err != nil {
			return apperrors.ValidationError("invalid page")
		}
		filter.Page = n
	}
	if size := c.QueryParam("page_size"); size != "" {
		n, err := strconv.Atoi(size)
		if err != nil {
			return apperrors.ValidationError("invalid page_size")
		}
		filter.PageSize = n
	}
	filter.IncludeDeleted = c.QueryParam("include_deleted") == "true"

	page, err := s.app.ListProjects(c.Request().Context(), filter)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, page)
}

func (s *Server) handleGetProject(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	p, err := s.app.GetProject(c.Request().Context(), id)
	if err != nil {
		return mapDomainError(err)
	}

	setVersionHeader(c, p.Version)
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleCreateProject(c echo.Context) error {
	var in app.CreateProjectInput
	if err := c.Bind(&in); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	p, err := s.app.CreateProject(c.Request().Context(), in)
	if err != nil {
		return mapDomainError(err)
	}

	setVersionHeader(c, p.Version)
	return c.JSON(http.StatusCreated, p)
}

func (s *Server) handleUpdateProject(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ifMatch, err := parseIfMatch(c)
	if err != nil {
		return err
	}

	var in app.UpdateProjectInput
	if err := c.Bind(&in); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	p, err := s.app.UpdateProject(c.Request().Context(), id, in, ifMatch)
	if err != nil {
		return mapDomainError(err)
	}

	setVersionHeader(c, p.Version)
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleDeleteProject(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := s.app.DeleteProject(c.Request().Context(), id); err != nil {
		return mapDomainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleRecoverProject(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	p, err := s.app.RecoverProject(c.Request().Context(), id)
	if err != nil {
		return mapDomainError(err)
	}

	setVersionHeader(c, p.Version)
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleStats(c echo.Context) error {
	stats, err := s.app.GetStats(c.Request().Context())
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, stats)
}
