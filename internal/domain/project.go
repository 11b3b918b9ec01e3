package domain

import "time"

// Project is a dashboard project. Tags are kept decoded (sorted, deduplicated);
// the storage layer owns the delimited encoding.
type Project struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Owner       string     `json:"owner"`
	Status      string     `json:"status"`
	Health      string     `json:"health"`
	Tags        []string   `json:"tags"`
	Progress    float64    `json:"progress"`
	LastUpdated time.Time  `json:"last_updated"`
	Version     int64      `json:"version"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`

	Team         []TeamMember `json:"team"`
	RecentEvents []AuditEvent `json:"recent_events"`
}

// TeamMember is a person assigned to a project.
type TeamMember struct {
	ID        int64   `json:"id"`
	ProjectID int64   `json:"project_id"`
	Name      string  `json:"name"`
	Role      string  `json:"role"`
	Capacity  float64 `json:"capacity"`
}

// AuditEvent is one entry in a project's audit trail. Every mutation that
// changes a project appends exactly one of these in the same transaction.
type AuditEvent struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	At        time.Time `json:"at"`
}

// Milestone is a dated checkpoint within a project.
type Milestone struct {
	ID        int64      `json:"id"`
	ProjectID int64      `json:"project_id"`
	Title     string     `json:"title"`
	Done      bool       `json:"done"`
	DueAt     *time.Time `json:"due_at,omitempty"`
	Sort      int64      `json:"sort"`
}

// ProjectFilter narrows and orders a project listing.
type ProjectFilter struct {
	Query          string
	Status         string
	Owner          string
	Tag            string
	Health         string
	IncludeDeleted bool
	SortBy         string
	SortDir        string
	Page           int
	PageSize       int
}

// ProjectPage is one page of a filtered listing.
type ProjectPage struct {
	Items    []Project `json:"items"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}

// ProjectStats summarizes the live portfolio for the dashboard header.
type ProjectStats struct {
	Total        int64            `json:"total"`
	ByStatus     map[string]int64 `json:"by_status"`
	ByHealth     map[string]int64 `json:"by_health"`
	MeanProgress float64          `json:"mean_progress"`
}
