package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/domain"
)

// MilestoneRepo implements domain.MilestoneStore backed by PostgreSQL.
type MilestoneRepo struct {
	pool *pgxpool.Pool
}

func NewMilestoneRepo(pool *pgxpool.Pool) *MilestoneRepo {
	return &MilestoneRepo{pool: pool}
}

func (r *MilestoneRepo) ListByProject(ctx context.Context, projectID int64) ([]domain.Milestone, error) {
	if err := projectExists(ctx, r.pool, projectID); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, title, done, due_at, sort
		FROM milestones
		WHERE project_id = $1
		ORDER BY sort, id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	defer rows.Close()

	milestones := []domain.Milestone{}
	for rows.Next() {
		var m domain.Milestone
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Title, &m.Done, &m.DueAt, &m.Sort); err != nil {
			return nil, fmt.Errorf("failed to scan milestone: %w", err)
		}
		milestones = append(milestones, m)
	}
	return milestones, rows.Err()
}

func (r *MilestoneRepo) Get(ctx context.Context, projectID, milestoneID int64) (*domain.Milestone, error) {
	var m domain.Milestone
	err := r.pool.QueryRow(ctx, `
		SELECT id, project_id, title, done, due_at, sort
		FROM milestones
		WHERE id = $1 AND project_id = $2
	`, milestoneID, projectID).Scan(&m.ID, &m.ProjectID, &m.Title, &m.Done, &m.DueAt, &m.Sort)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrMilestoneNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get milestone: %w", err)
	}
	return &m, nil
}

func (r *MilestoneRepo) Create(ctx context.Context, m *domain.Milestone, audit *domain.AuditEvent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := touchProject(ctx, tx, m.ProjectID); err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO milestones (project_id, title, done, due_at, sort)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, m.ProjectID, m.Title, m.Done, m.DueAt, m.Sort).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("failed to insert milestone: %w", err)
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

func (r *MilestoneRepo) Update(ctx context.Context, m *domain.Milestone, audit *domain.AuditEvent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := touchProject(ctx, tx, m.ProjectID); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE milestones
		SET title = $1, done = $2, due_at = $3, sort = $4
		WHERE id = $5 AND project_id = $6
	`, m.Title, m.Done, m.DueAt, m.Sort, m.ID, m.ProjectID)
	if err != nil {
		return fmt.Errorf("failed to update milestone: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMilestoneNotFound
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

func (r *MilestoneRepo) Delete(ctx context.Context, projectID, milestoneID int64, audit *domain.AuditEvent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := touchProject(ctx, tx, projectID); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx,
		`DELETE FROM milestones WHERE id = $1 AND project_id = $2`,
		milestoneID, projectID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete milestone: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMilestoneNotFound
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
