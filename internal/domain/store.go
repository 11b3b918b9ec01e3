package domain

import "context"

// ProjectStore is the transactional storage port for projects. Implementations
// must append the passed audit entry in the same transaction as the row change
// and fill in generated ids on the passed structs.
type ProjectStore interface {
	List(ctx context.Context, f ProjectFilter) (ProjectPage, error)

	// GetByID loads a project with its team and most recent audit entries.
	// Soft-deleted rows are ErrProjectNotFound unless allowDeleted is set.
	GetByID(ctx context.Context, id int64, allowDeleted bool) (*Project, error)

	// Create inserts the project and its team members, fills p.ID and the
	// member ids, and appends audit atomically.
	Create(ctx context.Context, p *Project, audit *AuditEvent) error

	// Update persists the mutable fields of p (including version and
	// deleted_at) guarded by the version the caller read before bumping it.
	// Returns ErrVersionMismatch when the row moved underneath the caller.
	Update(ctx context.Context, p *Project, expectedVersion int64, audit *AuditEvent) error

	Stats(ctx context.Context) (*ProjectStats, error)

	// InTx runs fn inside one transaction holding whatever row locks fn takes.
	// A non-nil error from fn rolls everything back.
	InTx(ctx context.Context, fn func(BulkTx) error) error
}

// BulkTx is the slice of a transaction the batch mutator needs: lock, write,
// and audit, all committed or rolled back together by InTx.
type BulkTx interface {
	// LockProjects acquires exclusive row locks on the named live rows in
	// ascending id order and returns the current state of each. Rows that do
	// not exist are simply absent from the result.
	LockProjects(ctx context.Context, ids []int64) ([]Project, error)

	UpdateProject(ctx context.Context, p *Project) error

	AppendAudit(ctx context.Context, e *AuditEvent) error
}

// AuditStore reads and extends a project's audit trail outside of mutations.
type AuditStore interface {
	ListByProject(ctx context.Context, projectID int64, limit int) ([]AuditEvent, error)

	// Append inserts e, fills e.ID, and touches the project's last_updated.
	Append(ctx context.Context, e *AuditEvent) error
}

// TeamStore manages project team members. Mutations append the passed audit
// entry (when non-nil) in the same transaction and fill in its id.
type TeamStore interface {
	ListByProject(ctx context.Context, projectID int64) ([]TeamMember, error)
	Get(ctx context.Context, projectID, memberID int64) (*TeamMember, error)
	Create(ctx context.Context, m *TeamMember, audit *AuditEvent) error
	Update(ctx context.Context, m *TeamMember, audit *AuditEvent) error
	Delete(ctx context.Context, projectID, memberID int64, audit *AuditEvent) error
}

// MilestoneStore manages project milestones with the same audit discipline
// as TeamStore.
type MilestoneStore interface {
	ListByProject(ctx context.Context, projectID int64) ([]Milestone, error)
	Get(ctx context.Context, projectID, milestoneID int64) (*Milestone, error)
	Create(ctx context.Context, m *Milestone, audit *AuditEvent) error
	Update(ctx context.Context, m *Milestone, audit *AuditEvent) error
	Delete(ctx context.Context, projectID, milestoneID int64, audit *AuditEvent) error
}
