package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/domain"
)

// AuditRepo implements domain.AuditStore backed by PostgreSQL.
type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

func (r *AuditRepo) ListByProject(ctx context.Context, projectID int64, limit int) ([]domain.AuditEvent, error) {
	if err := projectExists(ctx, r.pool, projectID); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = 50
	}
	return loadRecentEvents(ctx, r.pool, projectID, limit)
}

func (r *AuditRepo) Append(ctx context.Context, e *domain.AuditEvent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := touchProject(ctx, tx, e.ProjectID); err != nil {
		return err
	}
	if err := insertAudit(ctx, tx, e); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// projectExists reports ErrProjectNotFound unless a live row with the id exists.
func projectExists(ctx context.Context, q interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}, projectID int64) error {
	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1 AND deleted_at IS NULL)`,
		projectID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check project existence: %w", err)
	}
	if !exists {
		return domain.ErrProjectNotFound
	}
	return nil
}

// touchProject bumps last_updated on a live project so subresource changes
// surface in recency-sorted listings.
func touchProject(ctx context.Context, tx pgx.Tx, projectID int64) error {
	tag, err := tx.Exec(ctx,
		`UPDATE projects SET last_updated = NOW() WHERE id = $1 AND deleted_at IS NULL`,
		projectID,
	)
	if err != nil {
		return fmt.Errorf("failed to touch project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}
