package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/app"
	apperrors "github.com/achilleasntalagiorgos1997/pm-dashboard/internal/errors"
)

func (s *Server) handleListTeam(c echo.Context) error {
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	members, err := s.app.ListTeam(c.Request().Context(), projectID)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, members)
}

func (s *Server) handleGetTeamMember(c echo.Context) error {
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	memberID, err := pathID(c, "memberID")
	if err != nil {
		return err
	}

	m, err := s.app.GetTeamMember(c.Request().Context(), projectID, memberID)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (s *Server) handleAddTeamMember(c echo.Context) error {
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var in app.TeamMemberInput
	if err := c.Bind(&in); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	m, err := s.app.AddTeamMember(c.Request().Context(), projectID, in)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (s *Server) handleUpdateTeamMember(c echo.Context) error {
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	memberID, err := pathID(c, "memberID")
	if err != nil {
		return err
	}

	var in app.TeamMemberInput
	if err := c.Bind(&in); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	m, err := s.app.UpdateTeamMember(c.Request().Context(), projectID, memberID, in)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (s *Server) handleRemoveTeamMember(c echo.Context) error {
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	memberID, err := pathID(c, "memberID")
	if err != nil {
		return err
	}

	if err := s.app.RemoveTeamMember(c.Request().Context(), projectID, memberID); err != nil {
		return mapDomainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleListMilestones(c echo.Context) error {
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	milestones, err := s.app.ListMilestones(c.Request().Context(), projectID)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, milestones)
}

func (s *Server) handleGetMilestone(c echo.Context) error {
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	milestoneID, err := pathID(c, "milestoneID")
	if err != nil {
		return err
	}

	m, err := s.app.GetMilestone(c.Request().Context(), projectID, milestoneID)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (s *Server) handleAddMilestone(c echo.Context) error {
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var in app.MilestoneInput
	if err := c.Bind(&in); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	m, err := s.app.AddMilestone(c.Request().Context(), projectID, in)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (s *Server) handleUpdateMilestone(c echo.Context) error {
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	milestoneID, err := pathID(c, "milestoneID")
	if err != nil {
		return err
	}

	var in app.MilestoneInput
	if err := c.Bind(&in); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	m, err := s.app.UpdateMilestone(c.Request().Context(), projectID, milestoneID, in)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (s *Server) handleRemoveMilestone(c echo.Context) error {
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	milestoneID, err := pathID(c, "milestoneID")
	if err != nil {
		return err
	}

	if err := s.app.RemoveMilestone(c.Request().Context(), projectID, milestoneID); err != nil {
		return mapDomainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleListAuditEvents(c echo.Context) error {
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return apperrors.ValidationError("invalid limit")
		}
		limit = n
	}

	events, err := s.app.ListAuditEvents(c.Request().Context(), projectID, limit)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, events)
}

type appendAuditRequest struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (s *Server) handleAppendAuditEvent(c echo.Context) error {
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req appendAuditRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	e, err := s.app.AppendAuditEvent(c.Request().Context(), projectID, req.Kind, req.Message)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusCreated, e)
}
