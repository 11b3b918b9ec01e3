package database

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/domain"
)

// CreateTestProject is a helper that creates a project with sensible defaults
// for testing. Returns the created project with ids filled in.
func CreateTestProject(t *testing.T, pool *pgxpool.Pool, title string) *domain.Project {
	t.Helper()

	repo := NewProjectRepo(pool, 5*time.Second)
	p := &domain.Project{
		Title:       title,
		Description: "test project",
		Owner:       "alice",
		Status:      "active",
		Health:      "green",
		Tags:        []string{"test"},
		Progress:    0.25,
	}
	audit := &domain.AuditEvent{Kind: "created", Message: "project created"}

	err := repo.Create(context.Background(), p, audit)
	require.NoError(t, err)
	require.NotZero(t, p.ID)
	require.Equal(t, int64(1), p.Version)

	return p
}

// AddTestMember attaches a team member to a project for testing.
func AddTestMember(t *testing.T, pool *pgxpool.Pool, projectID int64, name, role string) *domain.TeamMember {
	t.Helper()

	repo := NewTeamRepo(pool)
	m := &domain.TeamMember{ProjectID: projectID, Name: name, Role: role, Capacity: 1.0}
	err := repo.Create(context.Background(), m, nil)
	require.NoError(t, err)
	require.NotZero(t, m.ID)

	return m
}
