package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/domain"
	apperrors "github.com/achilleasntalagiorgos1997/pm-dashboard/internal/errors"
)

// ListTeam returns the team of a live project.
func (s *Service) ListTeam(ctx context.Context, projectID int64) ([]domain.TeamMember, error) {
	return s.team.ListByProject(ctx, projectID)
}

// GetTeamMember loads one member of a project's team.
func (s *Service) GetTeamMember(ctx context.Context, projectID, memberID int64) (*domain.TeamMember, error) {
	return s.team.Get(ctx, projectID, memberID)
}

// AddTeamMember attaches a member to a project and records it in the audit
// trail.
func (s *Service) AddTeamMember(ctx context.Context, projectID int64, in TeamMemberInput) (*domain.TeamMember, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperrors.ValidationError("team member name is required")
	}

	m := &domain.TeamMember{ProjectID: projectID, Name: in.Name, Role: in.Role, Capacity: in.Capacity}
	audit := &domain.AuditEvent{
		ProjectID: projectID,
		Kind:      "team_changed",
		Message:   "added " + in.Name,
	}
	if err := s.team.Create(ctx, m, audit); err != nil {
		return nil, err
	}

	s.publish(domain.AuditAppendedEvent(*audit))
	return m, nil
}

// UpdateTeamMember overwrites a member's writable fields.
func (s *Service) UpdateTeamMember(ctx context.Context, projectID, memberID int64, in TeamMemberInput) (*domain.TeamMember, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperrors.ValidationError("team member name is required")
	}

	m := &domain.TeamMember{ID: memberID, ProjectID: projectID, Name: in.Name, Role: in.Role, Capacity: in.Capacity}
	audit := &domain.AuditEvent{
		ProjectID: projectID,
		Kind:      "team_changed",
		Message:   "updated " + in.Name,
	}
	if err := s.team.Update(ctx, m, audit); err != nil {
		return nil, err
	}

	s.publish(domain.AuditAppendedEvent(*audit))
	return m, nil
}

// RemoveTeamMember detaches a member from a project.
func (s *Service) RemoveTeamMember(ctx context.Context, projectID, memberID int64) error {
	audit := &domain.AuditEvent{
		ProjectID: projectID,
		Kind:      "team_changed",
		Message:   fmt.Sprintf("removed member %d", memberID),
	}
	if err := s.team.Delete(ctx, projectID, memberID, audit); err != nil {
		return err
	}

	s.publish(domain.AuditAppendedEvent(*audit))
	return nil
}

// MilestoneInput carries the writable fields of a milestone.
type MilestoneInput struct {
	Title string     `json:"title"`
	Done  bool       `json:"done"`
	DueAt *time.Time `json:"due_at"`
	Sort  int64      `json:"sort"`
}

// ListMilestones returns the milestones of a live project in sort order.
func (s *Service) ListMilestones(ctx context.Context, projectID int64) ([]domain.Milestone, error) {
	return s.milestones.ListByProject(ctx, projectID)
}

// GetMilestone loads one milestone of a project.
func (s *Service) GetMilestone(ctx context.Context, projectID, milestoneID int64) (*domain.Milestone, error) {
	return s.milestones.Get(ctx, projectID, milestoneID)
}

// AddMilestone creates a milestone and records it in the audit trail.
func (s *Service) AddMilestone(ctx context.Context, projectID int64, in MilestoneInput) (*domain.Milestone, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperrors.ValidationError("milestone title is required")
	}

	m := &domain.Milestone{ProjectID: projectID, Title: in.Title, Done: in.Done, DueAt: in.DueAt, Sort: in.Sort}
	audit := &domain.AuditEvent{
		ProjectID: projectID,
		Kind:      "milestone_changed",
		Message:   "added milestone: " + in.Title,
	}
	if err := s.milestones.Create(ctx, m, audit); err != nil {
		return nil, err
	}

	s.publish(domain.AuditAppendedEvent(*audit))
	return m, nil
}

// UpdateMilestone overwrites a milestone's writable fields.
func (s *Service) UpdateMilestone(ctx context.Context, projectID, milestoneID int64, in MilestoneInput) (*domain.Milestone, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperrors.ValidationError("milestone title is required")
	}

	m := &domain.Milestone{ID: milestoneID, ProjectID: projectID, Title: in.Title, Done: in.Done, DueAt: in.DueAt, Sort: in.Sort}
	audit := &domain.AuditEvent{
		ProjectID: projectID,
		Kind:      "milestone_changed",
		Message:   "updated milestone: " + in.Title,
	}
	if err := s.milestones.Update(ctx, m, audit); err != nil {
		return nil, err
	}

	s.publish(domain.AuditAppendedEvent(*audit))
	return m, nil
}

// RemoveMilestone deletes a milestone from a project.
func (s *Service) RemoveMilestone(ctx context.Context, projectID, milestoneID int64) error {
	audit := &domain.AuditEvent{
		ProjectID: projectID,
		Kind:      "milestone_changed",
		Message:   fmt.Sprintf("removed milestone %d", milestoneID),
	}
	if err := s.milestones.Delete(ctx, projectID, milestoneID, audit); err != nil {
		return err
	}

	s.publish(domain.AuditAppendedEvent(*audit))
	return nil
}

// ListAuditEvents returns a project's audit trail, newest first.
func (s *Service) ListAuditEvents(ctx context.Context, projectID int64, limit int) ([]domain.AuditEvent, error) {
	if limit < 1 {
		limit = 50
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	return s.audits.ListByProject(ctx, projectID, limit)
}

// AppendAuditEvent records a free-form audit entry and announces it.
func (s *Service) AppendAuditEvent(ctx context.Context, projectID int64, kind, message string) (*domain.AuditEvent, error) {
	if strings.TrimSpace(kind) == "" {
		return nil, apperrors.ValidationError("kind is required")
	}

	e := &domain.AuditEvent{ProjectID: projectID, Kind: kind, Message: message}
	if err := s.audits.Append(ctx, e); err != nil {
		return nil, err
	}

	s.publish(domain.AuditAppendedEvent(*e))
	return e, nil
}
