package httpserver

import (
	"context"
	"errors"

	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/app"
	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/domain"
)

var errNotStubbed = errors.New("not stubbed")

// mockService implements appService with overridable function fields.
type mockService struct {
	listProjects   func(ctx context.Context, f domain.ProjectFilter) (domain.ProjectPage, error)
	getProject     func(ctx context.Context, id int64) (*domain.Project, error)
	createProject  func(ctx context.Context, in app.CreateProjectInput) (*domain.Project, error)
	updateProject  func(ctx context.Context, id int64, in app.UpdateProjectInput, ifMatch int64) (*domain.Project, error)
	deleteProject  func(ctx context.Context, id int64) error
	recoverProject func(ctx context.Context, id int64) (*domain.Project, error)
	applyBulk      func(ctx context.Context, req domain.BulkRequest) (*domain.BulkResult, error)
	getStats       func(ctx context.Context) (*domain.ProjectStats, error)

	listTeam         func(ctx context.Context, projectID int64) ([]domain.TeamMember, error)
	getTeamMember    func(ctx context.Context, projectID, memberID int64) (*domain.TeamMember, error)
	addTeamMember    func(ctx context.Context, projectID int64, in app.TeamMemberInput) (*domain.TeamMember, error)
	updateTeamMember func(ctx context.Context, projectID, memberID int64, in app.TeamMemberInput) (*domain.TeamMember, error)
	removeTeamMember func(ctx context.Context, projectID, memberID int64) error

	listMilestones  func(ctx context.Context, projectID int64) ([]domain.Milestone, error)
	getMilestone    func(ctx context.Context, projectID, milestoneID int64) (*domain.Milestone, error)
	addMilestone    func(ctx context.Context, projectID int64, in app.MilestoneInput) (*domain.Milestone, error)
	updateMilestone func(ctx context.Context, projectID, milestoneID int64, in app.MilestoneInput) (*domain.Milestone, error)
	removeMilestone func(ctx context.Context, projectID, milestoneID int64) error

	listAuditEvents  func(ctx context.Context, projectID int64, limit int) ([]domain.AuditEvent, error)
	appendAuditEvent func(ctx context.Context, projectID int64, kind, message string) (*domain.AuditEvent, error)
}

func (m *mockService) ListProjects(ctx context.Context, f domain.ProjectFilter) (domain.ProjectPage, error) {
	if m.listProjects == nil {
		return domain.ProjectPage{}, errNotStubbed
	}
	return m.listProjects(ctx, f)
}

func (m *mockService) GetProject(ctx context.Context, id int64) (*domain.Project, error) {
	if m.getProject == nil {
		return nil, errNotStubbed
	}
	return m.getProject(ctx, id)
}

func (m *mockService) CreateProject(ctx context.Context, in app.CreateProjectInput) (*domain.Project, error) {
	if m.createProject == nil {
		return nil, errNotStubbed
	}
	return m.createProject(ctx, in)
}

func (m *mockService) UpdateProject(ctx context.Context, id int64, in app.UpdateProjectInput, ifMatch int64) (*domain.Project, error) {
	if m.updateProject == nil {
		return nil, errNotStubbed
	}
	return m.updateProject(ctx, id, in, ifMatch)
}

func (m *mockService) DeleteProject(ctx context.Context, id int64) error {
	if m.deleteProject == nil {
		return errNotStubbed
	}
	return m.deleteProject(ctx, id)
}

func (m *mockService) RecoverProject(ctx context.Context, id int64) (*domain.Project, error) {
	if m.recoverProject == nil {
		return nil, errNotStubbed
	}
	return m.recoverProject(ctx, id)
}

func (m *mockService) ApplyBulk(ctx context.Context, req domain.BulkRequest) (*domain.BulkResult, error) {
	if m.applyBulk == nil {
		return nil, errNotStubbed
	}
	return m.applyBulk(ctx, req)
}

func (m *mockService) GetStats(ctx context.Context) (*domain.ProjectStats, error) {
	if m.getStats == nil {
		return nil, errNotStubbed
	}
	return m.getStats(ctx)
}

func (m *mockService) ListTeam(ctx context.Context, projectID int64) ([]domain.TeamMember, error) {
	if m.listTeam == nil {
		return nil, errNotStubbed
	}
	return m.listTeam(ctx, projectID)
}

func (m *mockService) GetTeamMember(ctx context.Context, projectID, memberID int64) (*domain.TeamMember, error) {
	if m.getTeamMember == nil {
		return nil, errNotStubbed
	}
	return m.getTeamMember(ctx, projectID, memberID)
}

func (m *mockService) AddTeamMember(ctx context.Context, projectID int64, in app.TeamMemberInput) (*domain.TeamMember, error) {
	if m.addTeamMember == nil {
		return nil, errNotStubbed
	}
	return m.addTeamMember(ctx, projectID, in)
}

func (m *mockService) UpdateTeamMember(ctx context.Context, projectID, memberID int64, in app.TeamMemberInput) (*domain.TeamMember, error) {
	if m.updateTeamMember == nil {
		return nil, errNotStubbed
	}
	return m.updateTeamMember(ctx, projectID, memberID, in)
}

func (m *mockService) RemoveTeamMember(ctx context.Context, projectID, memberID int64) error {
	if m.removeTeamMember == nil {
		return errNotStubbed
	}
	return m.removeTeamMember(ctx, projectID, memberID)
}

func (m *mockService) ListMilestones(ctx context.Context, projectID int64) ([]domain.Milestone, error) {
	if m.listMilestones == nil {
		return nil, errNotStubbed
	}
	return m.listMilestones(ctx, projectID)
}

func (m *mockService) GetMilestone(ctx context.Context, projectID, milestoneID int64) (*domain.Milestone, error) {
	if m.getMilestone == nil {
		return nil, errNotStubbed
	}
	return m.getMilestone(ctx, projectID, milestoneID)
}

func (m *mockService) AddMilestone(ctx context.Context, projectID int64, in app.MilestoneInput) (*domain.Milestone, error) {
	if m.addMilestone == nil {
		return nil, errNotStubbed
	}
	return m.addMilestone(ctx, projectID, in)
}

func (m *mockService) UpdateMilestone(ctx context.Context, projectID, milestoneID int64, in app.MilestoneInput) (*domain.Milestone, error) {
	if m.updateMilestone == nil {
		return nil, errNotStubbed
	}
	return m.updateMilestone(ctx, projectID, milestoneID, in)
}

func (m *mockService) RemoveMilestone(ctx context.Context, projectID, milestoneID int64) error {
	if m.removeMilestone == nil {
		return errNotStubbed
	}
	return m.removeMilestone(ctx, projectID, milestoneID)
}

func (m *mockService) ListAuditEvents(ctx context.Context, projectID int64, limit int) ([]domain.AuditEvent, error) {
	if m.listAuditEvents == nil {
		return nil, errNotStubbed
	}
	return m.listAuditEvents(ctx, projectID, limit)
}

func (m *mockService) AppendAuditEvent(ctx context.Context, projectID int64, kind, message string) (*domain.AuditEvent, error) {
	if m.appendAuditEvent == nil {
		return nil, errNotStubbed
	}
	return m.appendAuditEvent(ctx, projectID, kind, message)
}
