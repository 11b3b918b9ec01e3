package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "github.com/achilleasntalagiorgos1997/pm-dashboard/internal/errors"
)

func (s *Server) registerRoutes() {
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(apperrors.Middleware())

	s.registerHealthRoutes()
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	mutationLimit := newRateLimiter(s.config.MutationRatePerSecond, s.config.MutationBurst)

	api := s.echo.Group("/api")
	api.GET("/projects", s.handleListProjects)
	api.POST("/projects", s.handleCreateProject, mutationLimit)
	api.POST("/projects/bulk", s.handleBulk, mutationLimit)
	api.GET("/projects/:id", s.handleGetProject)
	api.PATCH("/projects/:id", s.handleUpdateProject, mutationLimit)
	api.DELETE("/projects/:id", s.handleDeleteProject, mutationLimit)
	api.POST("/projects/:id/recover", s.handleRecoverProject, mutationLimit)

	api.GET("/projects/:id/team", s.handleListTeam)
	api.POST("/projects/:id/team", s.handleAddTeamMember, mutationLimit)
	api.GET("/projects/:id/team/:memberID", s.handleGetTeamMember)
	api.PUT("/projects/:id/team/:memberID", s.handleUpdateTeamMember, mutationLimit)
	api.DELETE("/projects/:id/team/:memberID", s.handleRemoveTeamMember, mutationLimit)

	api.GET("/projects/:id/milestones", s.handleListMilestones)
	api.POST("/projects/:id/milestones", s.handleAddMilestone, mutationLimit)
	api.GET("/projects/:id/milestones/:milestoneID", s.handleGetMilestone)
	api.PUT("/projects/:id/milestones/:milestoneID", s.handleUpdateMilestone, mutationLimit)
	api.DELETE("/projects/:id/milestones/:milestoneID", s.handleRemoveMilestone, mutationLimit)

	api.GET("/projects/:id/events", s.handleListAuditEvents)
	api.POST("/projects/:id/events", s.handleAppendAuditEvent, mutationLimit)

	api.GET("/stats", s.handleStats)
	api.GET("/stream", s.handleStream)

	s.echo.GET("/ws", s.handleWebSocket)
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.Info("Request", attrs...)
			return nil
		},
	})
}
