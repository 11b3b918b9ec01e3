package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/app"
	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/config"
	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/domain"
	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/hub"
)

type appService interface {
	ListProjects(ctx context.Context, f domain.ProjectFilter) (domain.ProjectPage, error)
	GetProject(ctx context.Context, id int64) (*domain.Project, error)
	CreateProject(ctx context.Context, in app.CreateProjectInput) (*domain.Project, error)
	UpdateProject(ctx context.Context, id int64, in app.UpdateProjectInput, ifMatch int64) (*domain.Project, error)
	DeleteProject(ctx context.Context, id int64) error
	RecoverProject(ctx context.Context, id int64) (*domain.Project, error)
	ApplyBulk(ctx context.Context, req domain.BulkRequest) (*domain.BulkResult, error)
	GetStats(ctx context.Context) (*domain.ProjectStats, error)

	ListTeam(ctx context.Context, projectID int64) ([]domain.TeamMember, error)
	GetTeamMember(ctx context.Context, projectID, memberID int64) (*domain.TeamMember, error)
	AddTeamMember(ctx context.Context, projectID int64, in app.TeamMemberInput) (*domain.TeamMember, error)
	UpdateTeamMember(ctx context.Context, projectID, memberID int64, in app.TeamMemberInput) (*domain.TeamMember, error)
	RemoveTeamMember(ctx context.Context, projectID, memberID int64) error

	ListMilestones(ctx context.Context, projectID int64) ([]domain.Milestone, error)
	GetMilestone(ctx context.Context, projectID, milestoneID int64) (*domain.Milestone, error)
	AddMilestone(ctx context.Context, projectID int64, in app.MilestoneInput) (*domain.Milestone, error)
	UpdateMilestone(ctx context.Context, projectID, milestoneID int64, in app.MilestoneInput) (*domain.Milestone, error)
	RemoveMilestone(ctx context.Context, projectID, milestoneID int64) error

	ListAuditEvents(ctx context.Context, projectID int64, limit int) ([]domain.AuditEvent, error)
	AppendAuditEvent(ctx context.Context, projectID int64, kind, message string) (*domain.AuditEvent, error)
}

// Server is the HTTP surface: the JSON API, the live-event streams, health
// probes, and metrics.
type Server struct {
	echo   *echo.Echo
	config *config.Config

	app     appService
	hub     *hub.Hub
	limiter *ConnectionLimiter

	healthChecks []HealthCheck
	startTime    time.Time
}

func NewServer(cfg *config.Config, app appService, h *hub.Hub, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		config:       cfg,
		app:          app,
		hub:          h,
		limiter:      NewConnectionLimiter(cfg.MaxStreamConnections),
		healthChecks: healthChecks,
		startTime:    time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
