package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/domain"
)

// TeamRepo implements domain.TeamStore backed by PostgreSQL.
type TeamRepo struct {
	pool *pgxpool.Pool
}

func NewTeamRepo(pool *pgxpool.Pool) *TeamRepo {
	return &TeamRepo{pool: pool}
}

func (r *TeamRepo) ListByProject(ctx context.Context, projectID int64) ([]domain.TeamMember, error) {
	if err := projectExists(ctx, r.pool, projectID); err != nil {
		return nil, err
	}
	return loadTeam(ctx, r.pool, projectID)
}

func (r *TeamRepo) Get(ctx context.Context, projectID, memberID int64) (*domain.TeamMember, error) {
	var m domain.TeamMember
	err := r.pool.QueryRow(ctx, `
		SELECT id, project_id, name, role, capacity
		FROM team_members
		WHERE id = $1 AND project_id = $2
	`, memberID, projectID).Scan(&m.ID, &m.ProjectID, &m.Name, &m.Role, &m.Capacity)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTeamMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team member: %w", err)
	}
	return &m, nil
}

func (r *TeamRepo) Create(ctx context.Context, m *domain.TeamMember, audit *domain.AuditEvent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := touchProject(ctx, tx, m.ProjectID); err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO team_members (project_id, name, role, capacity)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, m.ProjectID, m.Name, m.Role, m.Capacity).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("failed to insert team member: %w", err)
	}

	if audit != nil {
		if err := insertAudit(ctx, tx, audit); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *TeamRepo) Update(ctx context.Context, m *domain.TeamMember, audit *domain.AuditEvent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := touchProject(ctx, tx, m.ProjectID); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE team_members
		SET name = $1, role = $2, capacity = $3
		WHERE id = $4 AND project_id = $5
	`, m.Name, m.Role, m.Capacity, m.ID, m.ProjectID)
	if err != nil {
		return fmt.Errorf("failed to update team member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTeamMemberNotFound
	}

	if audit != nil {
		if err := insertAudit(ctx, tx, audit); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *TeamRepo) Delete(ctx context.Context, projectID, memberID int64, audit *domain.AuditEvent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := touchProject(ctx, tx, projectID); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx,
		`DELETE FROM team_members WHERE id = $1 AND project_id = $2`,
		memberID, projectID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete team member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTeamMemberNotFound
	}

	if audit != nil {
		if err := insertAudit(ctx, tx, audit); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
