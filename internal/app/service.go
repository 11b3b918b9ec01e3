package app

import (
	"context"
	"slices"
	"strings"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/domain"
	apperrors "github.com/achilleasntalagiorgos1997/pm-dashboard/internal/errors"
	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/logging"
)

const (
	maxPageSize   = 100
	maxAuditLimit = 200
)

// Service is the application layer — the only component that references
// multiple domain components. It orchestrates all use cases.
type Service struct {
	projects   domain.ProjectStore
	team       domain.TeamStore
	milestones domain.MilestoneStore
	audits     domain.AuditStore
	clock      clockwork.Clock
	publishers []domain.EventPublisher
	statsGroup singleflight.Group
}

// NewService creates the application layer service. Publishers receive change
// events after each successful mutation; zero publishers is valid.
func NewService(
	projects domain.ProjectStore,
	team domain.TeamStore,
	milestones domain.MilestoneStore,
	audits domain.AuditStore,
	clock clockwork.Clock,
	publishers ...domain.EventPublisher,
) *Service {
	return &Service{
		projects:   projects,
		team:       team,
		milestones: milestones,
		audits:     audits,
		clock:      clock,
		publishers: publishers,
	}
}

func (s *Service) publish(events ...domain.ChangeEvent) {
	for _, e := range events {
		for _, p := range s.publishers {
			p.Publish(e)
		}
	}
}

// CreateProjectInput carries the writable fields of a new project.
type CreateProjectInput struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Owner       string            `json:"owner"`
	Status      string            `json:"status"`
	Health      string            `json:"health"`
	Tags        []string          `json:"tags"`
	Progress    float64           `json:"progress"`
	Team        []TeamMemberInput `json:"team"`
}

// TeamMemberInput carries the writable fields of a team member.
type TeamMemberInput struct {
	Name     string  `json:"name"`
	Role     string  `json:"role"`
	Capacity float64 `json:"capacity"`
}

// UpdateProjectInput is a partial update; nil fields are left untouched.
type UpdateProjectInput struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Owner       *string   `json:"owner"`
	Status      *string   `json:"status"`
	Health      *string   `json:"health"`
	Tags        *[]string `json:"tags"`
	Progress    *float64  `json:"progress"`
}

// ListProjects returns one page of the filtered project listing.
func (s *Service) ListProjects(ctx context.Context, f domain.ProjectFilter) (domain.ProjectPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
	return s.projects.List(ctx, f)
}

// GetProject loads a live project with its team and recent audit trail.
func (s *Service) GetProject(ctx context.Context, id int64) (*domain.Project, error) {
	return s.projects.GetByID(ctx, id, false)
}

// CreateProject validates the input, persists the project with its initial
// audit entry, and announces it to subscribers.
func (s *Service) CreateProject(ctx context.Context, in CreateProjectInput) (*domain.Project, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperrors.ValidationError("title is required")
	}
	if in.Progress < 0 || in.Progress > 1 {
		return nil, apperrors.ValidationError("progress must be between 0 and 1")
	}

	p := &domain.Project{
		Title:       title,
		Description: in.Description,
		Owner:       in.Owner,
		Status:      in.Status,
		Health:      in.Health,
		Tags:        domain.NormalizeTags(in.Tags),
		Progress:    in.Progress,
	}
	if p.Status == "" {
		p.Status = "active"
	}
	if p.Health == "" {
		p.Health = "green"
	}
	for _, m := range in.Team {
		if strings.TrimSpace(m.Name) == "" {
			return nil, apperrors.ValidationError("team member name is required")
		}
		p.Team = append(p.Team, domain.TeamMember{Name: m.Name, Role: m.Role, Capacity: m.Capacity})
	}

	audit := &domain.AuditEvent{Kind: "created", Message: "project created"}
	if err := s.projects.Create(ctx, p, audit); err != nil {
		return nil, err
	}

	s.publish(domain.ChangeEvent{Type: domain.EventProjectCreated, ID: p.ID})
	return p, nil
}

// UpdateProject applies a partial update guarded by the version the caller
// last observed. ifMatch is domain.VersionMissing when no precondition was
// given. An update that changes nothing returns the current state without
// bumping the version or emitting an event.
func (s *Service) UpdateProject(ctx context.Context, id int64, in UpdateProjectInput, ifMatch int64) (*domain.Project, error) {
	p, err := s.projects.GetByID(ctx, id, false)
	if err != nil {
		return nil, err
	}

	if ifMatch != domain.VersionMissing && ifMatch != p.Version {
		return nil, apperrors.PreconditionError("project version has moved").
			WithField("expected", ifMatch).
			WithField("found", p.Version)
	}

	changed := applyProjectPatch(p, in)
	if len(changed) == 0 {
		return p, nil
	}
	if p.Progress < 0 || p.Progress > 1 {
		return nil, apperrors.ValidationError("progress must be between 0 and 1")
	}
	if in.Title != nil && strings.TrimSpace(p.Title) == "" {
		return nil, apperrors.ValidationError("title must not be empty")
	}

	expected := p.Version
	p.Version++
	audit := &domain.AuditEvent{
		ProjectID: p.ID,
		Kind:      "updated",
		Message:   "updated " + strings.Join(changed, ", "),
	}
	if err := s.projects.Update(ctx, p, expected, audit); err != nil {
		return nil, err
	}

	s.publish(domain.ProjectUpdatedEvent(p, changed), domain.AuditAppendedEvent(*audit))
	return p, nil
}

func applyProjectPatch(p *domain.Project, in UpdateProjectInput) []string {
	var changed []string

	if in.Title != nil && *in.Title != p.Title {
		p.Title = *in.Title
		changed = append(changed, "title")
	}
	if in.Description != nil && *in.Description != p.Description {
		p.Description = *in.Description
		changed = append(changed, "description")
	}
	if in.Owner != nil && *in.Owner != p.Owner {
		p.Owner = *in.Owner
		changed = append(changed, "owner")
	}
	if in.Status != nil && *in.Status != p.Status {
		p.Status = *in.Status
		changed = append(changed, "status")
	}
	if in.Health != nil && *in.Health != p.Health {
		p.Health = *in.Health
		changed = append(changed, "health")
	}
	if in.Tags != nil {
		tags := domain.NormalizeTags(*in.Tags)
		if !slices.Equal(tags, p.Tags) {
			p.Tags = tags
			changed = append(changed, "tags")
		}
	}
	if in.Progress != nil && *in.Progress != p.Progress {
		p.Progress = *in.Progress
		changed = append(changed, "progress")
	}

	return changed
}

// DeleteProject soft-deletes a live project.
func (s *Service) DeleteProject(ctx context.Context, id int64) error {
	p, err := s.projects.GetByID(ctx, id, false)
	if err != nil {
		return err
	}

	now := s.clock.Now().UTC()
	p.DeletedAt = &now
	expected := p.Version
	p.Version++

	audit := &domain.AuditEvent{ProjectID: p.ID, Kind: "deleted", Message: "project deleted"}
	if err := s.projects.Update(ctx, p, expected, audit); err != nil {
		return err
	}

	logging.WithProject(p.ID).Info("Project soft-deleted")
	s.publish(domain.ChangeEvent{Type: domain.EventProjectDeleted, ID: p.ID})
	return nil
}

// RecoverProject undoes a soft delete. Recovering a live project is
// ErrProjectNotDeleted.
func (s *Service) RecoverProject(ctx context.Context, id int64) (*domain.Project, error) {
	p, err := s.projects.GetByID(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if p.DeletedAt == nil {
		return nil, domain.ErrProjectNotDeleted
	}

	p.DeletedAt = nil
	expected := p.Version
	p.Version++

	audit := &domain.AuditEvent{ProjectID: p.ID, Kind: "recovered", Message: "project recovered"}
	if err := s.projects.Update(ctx, p, expected, audit); err != nil {
		return nil, err
	}

	logging.WithProject(p.ID).Info("Project recovered")
	s.publish(domain.ChangeEvent{Type: domain.EventProjectRecovered, ID: p.ID})
	return p, nil
}

// GetStats computes portfolio statistics. Concurrent callers are collapsed
// into a single store query.
func (s *Service) GetStats(ctx context.Context) (*domain.ProjectStats, error) {
	v, err, _ := s.statsGroup.Do("stats", func() (any, error) {
		return s.projects.Stats(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.ProjectStats), nil
}
