package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/domain"
)

// projectColumns must match the Scan order in scanProject.
const projectColumns = `id, title, description, owner, status, health, tags, progress, last_updated, version, deleted_at`

// sortColumns whitelists the sortable fields of a project listing.
var sortColumns = map[string]string{
	"id":           "id",
	"title":        "title",
	"owner":        "owner",
	"status":       "status",
	"health":       "health",
	"progress":     "progress",
	"last_updated": "last_updated",
}

// ProjectRepo implements domain.ProjectStore backed by PostgreSQL.
type ProjectRepo struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewProjectRepo creates a ProjectRepo from the shared connection pool.
// lockTimeout caps how long bulk transactions wait on contended row locks;
// zero disables the cap.
func NewProjectRepo(pool *pgxpool.Pool, lockTimeout time.Duration) *ProjectRepo {
	return &ProjectRepo{pool: pool, lockTimeout: lockTimeout}
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var p domain.Project
	var tags string
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.Owner, &p.Status, &p.Health,
		&tags, &p.Progress, &p.LastUpdated, &p.Version, &p.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Tags = domain.DecodeTags(tags)
	return &p, nil
}

func (r *ProjectRepo) List(ctx context.Context, f domain.ProjectFilter) (domain.ProjectPage, error) {
	where, args := buildProjectFilter(f)

	page := f.Page
	if page < 1 {
		page = 1
	}
	pageSize := f.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	var total int64
	countSQL := `SELECT COUNT(*) FROM projects` + where
	if err := r.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return domain.ProjectPage{}, fmt.Errorf("failed to count projects: %w", err)
	}

	listSQL := fmt.Sprintf(
		`SELECT %s FROM projects%s ORDER BY %s LIMIT %d OFFSET %d`,
		projectColumns, where, buildProjectOrder(f), pageSize, (page-1)*pageSize,
	)
	rows, err := r.pool.Query(ctx, listSQL, args...)
	if err != nil {
		return domain.ProjectPage{}, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Project, 0, pageSize)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return domain.ProjectPage{}, fmt.Errorf("failed to scan project: %w", err)
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return domain.ProjectPage{}, fmt.Errorf("failed to read project rows: %w", err)
	}

	if err := r.attachTeams(ctx, items); err != nil {
		return domain.ProjectPage{}, err
	}

	return domain.ProjectPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

func buildProjectFilter(f domain.ProjectFilter) (string, []any) {
	var clauses []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !f.IncludeDeleted {
		clauses = append(clauses, "deleted_at IS NULL")
	}
	if f.Query != "" {
		p := arg("%" + f.Query + "%")
		clauses = append(clauses, fmt.Sprintf(
			"(title ILIKE %s OR description ILIKE %s OR tags ILIKE %s OR owner ILIKE %s)", p, p, p, p))
	}
	if f.Status != "" {
		clauses = append(clauses, "status = "+arg(f.Status))
	}
	if f.Owner != "" {
		clauses = append(clauses, "owner = "+arg(f.Owner))
	}
	if f.Health != "" {
		clauses = append(clauses, "health = "+arg(f.Health))
	}
	if f.Tag != "" {
		// Tags are stored as a sorted comma-delimited string.
		clauses = append(clauses, "(',' || tags || ',') LIKE "+arg("%,"+f.Tag+",%"))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func buildProjectOrder(f domain.ProjectFilter) string {
	col, ok := sortColumns[f.SortBy]
	if !ok {
		return "last_updated DESC, id ASC"
	}
	dir := "ASC"
	if strings.EqualFold(f.SortDir, "desc") {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s, id ASC", col, dir)
}

// attachTeams loads team members for all listed projects in one query.
func (r *ProjectRepo) attachTeams(ctx context.Context, projects []domain.Project) error {
	if len(projects) == 0 {
		return nil
	}

	ids := make([]int64, len(projects))
	index := make(map[int64]int, len(projects))
	for i := range projects {
		ids[i] = projects[i].ID
		index[projects[i].ID] = i
		projects[i].Team = []domain.TeamMember{}
		projects[i].RecentEvents = []domain.AuditEvent{}
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, name, role, capacity
		FROM team_members
		WHERE project_id = ANY($1)
		ORDER BY project_id, id
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to load team members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m domain.TeamMember
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Name, &m.Role, &m.Capacity); err != nil {
			return fmt.Errorf("failed to scan team member: %w", err)
		}
		if i, ok := index[m.ProjectID]; ok {
			projects[i].Team = append(projects[i].Team, m)
		}
	}
	return rows.Err()
}

func (r *ProjectRepo) GetByID(ctx context.Context, id int64, allowDeleted bool) (*domain.Project, error) {
	sql := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	if !allowDeleted {
		sql += ` AND deleted_at IS NULL`
	}

	p, err := scanProject(r.pool.QueryRow(ctx, sql, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	p.Team, err = loadTeam(ctx, r.pool, id)
	if err != nil {
		return nil, err
	}
	p.RecentEvents, err = loadRecentEvents(ctx, r.pool, id, 10)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func loadTeam(ctx context.Context, q interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}, projectID int64) ([]domain.TeamMember, error) {
	rows, err := q.Query(ctx, `
		SELECT id, project_id, name, role, capacity
		FROM team_members
		WHERE project_id = $1
		ORDER BY id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load team members: %w", err)
	}
	defer rows.Close()

	team := []domain.TeamMember{}
	for rows.Next() {
		var m domain.TeamMember
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Name, &m.Role, &m.Capacity); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		team = append(team, m)
	}
	return team, rows.Err()
}

func loadRecentEvents(ctx context.Context, q interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}, projectID int64, limit int) ([]domain.AuditEvent, error) {
	rows, err := q.Query(ctx, `
		SELECT id, project_id, kind, message, at
		FROM audit_events
		WHERE project_id = $1
		ORDER BY at DESC, id DESC
		LIMIT $2
	`, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load audit events: %w", err)
	}
	defer rows.Close()

	events := []domain.AuditEvent{}
	for rows.Next() {
		var e domain.AuditEvent
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Kind, &e.Message, &e.At); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *ProjectRepo) Create(ctx context.Context, p *domain.Project, audit *domain.AuditEvent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	err = tx.QueryRow(ctx, `
		INSERT INTO projects (title, description, owner, status, health, tags, progress)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, last_updated, version
	`, p.Title, p.Description, p.Owner, p.Status, p.Health,
		domain.EncodeTags(p.Tags), p.Progress,
	).Scan(&p.ID, &p.LastUpdated, &p.Version)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	p.Tags = domain.NormalizeTags(p.Tags)

	for i := range p.Team {
		m := &p.Team[i]
		m.ProjectID = p.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO team_members (project_id, name, role, capacity)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, m.ProjectID, m.Name, m.Role, m.Capacity).Scan(&m.ID)
		if err != nil {
			return fmt.Errorf("failed to insert team member: %w", err)
		}
	}

	if audit != nil {
		audit.ProjectID = p.ID
		if err := insertAudit(ctx, tx, audit); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *ProjectRepo) Update(ctx context.Context, p *domain.Project, expectedVersion int64, audit *domain.AuditEvent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	err = tx.QueryRow(ctx, `
		UPDATE projects
		SET title = $1, description = $2, owner = $3, status = $4, health = $5,
		    tags = $6, progress = $7, version = $8, deleted_at = $9, last_updated = NOW()
		WHERE id = $10 AND version = $11
		RETURNING last_updated
	`, p.Title, p.Description, p.Owner, p.Status, p.Health,
		domain.EncodeTags(p.Tags), p.Progress, p.Version, p.DeletedAt,
		p.ID, expectedVersion,
	).Scan(&p.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		// Distinguish a moved version from a missing row.
		var exists bool
		if checkErr := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1)`, p.ID,
		).Scan(&exists); checkErr != nil {
			return fmt.Errorf("failed to check project existence: %w", checkErr)
		}
		if !exists {
			return domain.ErrProjectNotFound
		}
		return domain.ErrVersionMismatch
	}
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	p.Tags = domain.NormalizeTags(p.Tags)

	if audit != nil {
		audit.ProjectID = p.ID
		if err := insertAudit(ctx, tx, audit); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *ProjectRepo) Stats(ctx context.Context) (*domain.ProjectStats, error) {
	stats := &domain.ProjectStats{
		ByStatus: make(map[string]int64),
		ByHealth: make(map[string]int64),
	}

	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(AVG(progress), 0)
		FROM projects
		WHERE deleted_at IS NULL
	`).Scan(&stats.Total, &stats.MeanProgress)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate projects: %w", err)
	}

	if err := r.groupCount(ctx, "status", stats.ByStatus); err != nil {
		return nil, err
	}
	if err := r.groupCount(ctx, "health", stats.ByHealth); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *ProjectRepo) groupCount(ctx context.Context, column string, out map[string]int64) error {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s, COUNT(*)
		FROM projects
		WHERE deleted_at IS NULL
		GROUP BY %s
	`, column, column))
	if err != nil {
		return fmt.Errorf("failed to group projects by %s: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("failed to scan %s count: %w", column, err)
		}
		out[key] = count
	}
	return rows.Err()
}

func (r *ProjectRepo) InTx(ctx context.Context, fn func(domain.BulkTx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if r.lockTimeout > 0 {
		// lock_timeout cannot be bound as a parameter.
		set := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, set); err != nil {
			return fmt.Errorf("failed to set lock timeout: %w", err)
		}
	}

	if err := fn(&bulkTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// bulkTx exposes the locked-row operations of one open transaction.
type bulkTx struct {
	tx pgx.Tx
}

func (b *bulkTx) LockProjects(ctx context.Context, ids []int64) ([]domain.Project, error) {
	// Ascending id order keeps concurrent batches lock-compatible.
	rows, err := b.tx.Query(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE id = ANY($1) AND deleted_at IS NULL
		ORDER BY id
		FOR UPDATE
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to lock projects: %w", err)
	}
	defer rows.Close()

	projects := make([]domain.Project, 0, len(ids))
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan locked project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func (b *bulkTx) UpdateProject(ctx context.Context, p *domain.Project) error {
	err := b.tx.QueryRow(ctx, `
		UPDATE projects
		SET status = $1, health = $2, tags = $3, progress = $4,
		    version = $5, last_updated = NOW()
		WHERE id = $6
		RETURNING last_updated
	`, p.Status, p.Health, domain.EncodeTags(p.Tags), p.Progress, p.Version, p.ID,
	).Scan(&p.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrProjectNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update locked project: %w", err)
	}
	return nil
}

func (b *bulkTx) AppendAudit(ctx context.Context, e *domain.AuditEvent) error {
	return insertAudit(ctx, b.tx, e)
}

func insertAudit(ctx context.Context, q interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}, e *domain.AuditEvent) error {
	err := q.QueryRow(ctx, `
		INSERT INTO audit_events (project_id, kind, message)
		VALUES ($1, $2, $3)
		RETURNING id, at
	`, e.ProjectID, e.Kind, e.Message).Scan(&e.ID, &e.At)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	return nil
}
