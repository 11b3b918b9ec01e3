package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/domain"
)

// fakeStore is an in-memory domain.ProjectStore (plus the subresource stores)
// with the same transactional semantics as the real one: bulk transactions
// stage their writes and an error from the callback discards them.
type fakeStore struct {
	mu       sync.Mutex
	nextID   int64
	projects map[int64]*domain.Project
	audits   map[int64][]domain.AuditEvent
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:   1,
		projects: make(map[int64]*domain.Project),
		audits:   make(map[int64][]domain.AuditEvent),
	}
}

func cloneProject(p *domain.Project) *domain.Project {
	c := *p
	c.Tags = append([]string(nil), p.Tags...)
	c.Team = append([]domain.TeamMember(nil), p.Team...)
	c.RecentEvents = append([]domain.AuditEvent(nil), p.RecentEvents...)
	if p.DeletedAt != nil {
		t := *p.DeletedAt
		c.DeletedAt = &t
	}
	return &c
}

// seed inserts a project directly, bypassing Create.
func (f *fakeStore) seed(p domain.Project) *domain.Project {
	f.mu.Lock()
	defer f.mu.Unlock()

	if p.ID == 0 {
		p.ID = f.nextID
		f.nextID++
	} else if p.ID >= f.nextID {
		f.nextID = p.ID + 1
	}
	if p.Version == 0 {
		p.Version = 1
	}
	p.Tags = domain.NormalizeTags(p.Tags)
	f.projects[p.ID] = cloneProject(&p)
	return cloneProject(&p)
}

func (f *fakeStore) get(id int64) *domain.Project {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.projects[id]; ok {
		return cloneProject(p)
	}
	return nil
}

func (f *fakeStore) auditTrail(id int64) []domain.AuditEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.AuditEvent(nil), f.audits[id]...)
}

func (f *fakeStore) List(ctx context.Context, filter domain.ProjectFilter) (domain.ProjectPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	items := []domain.Project{}
	for _, p := range f.projects {
		if p.DeletedAt != nil && !filter.IncludeDeleted {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		items = append(items, *cloneProject(p))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return domain.ProjectPage{Items: items, Total: int64(len(items)), Page: filter.Page, PageSize: filter.PageSize}, nil
}

func (f *fakeStore) GetByID(ctx context.Context, id int64, allowDeleted bool) (*domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.projects[id]
	if !ok || (p.DeletedAt != nil && !allowDeleted) {
		return nil, domain.ErrProjectNotFound
	}
	return cloneProject(p), nil
}

func (f *fakeStore) Create(ctx context.Context, p *domain.Project, audit *domain.AuditEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	p.ID = f.nextID
	f.nextID++
	p.Version = 1
	p.LastUpdated = time.Now().UTC()
	for i := range p.Team {
		p.Team[i].ID = f.nextID
		f.nextID++
		p.Team[i].ProjectID = p.ID
	}
	f.projects[p.ID] = cloneProject(p)

	if audit != nil {
		audit.ProjectID = p.ID
		f.appendAuditLocked(audit)
	}
	return nil
}

func (f *fakeStore) Update(ctx context.Context, p *domain.Project, expectedVersion int64, audit *domain.AuditEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	current, ok := f.projects[p.ID]
	if !ok {
		return domain.ErrProjectNotFound
	}
	if current.Version != expectedVersion {
		return domain.ErrVersionMismatch
	}

	p.LastUpdated = time.Now().UTC()
	f.projects[p.ID] = cloneProject(p)

	if audit != nil {
		audit.ProjectID = p.ID
		f.appendAuditLocked(audit)
	}
	return nil
}

func (f *fakeStore) Stats(ctx context.Context) (*domain.ProjectStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stats := &domain.ProjectStats{
		ByStatus: map[string]int64{},
		ByHealth: map[string]int64{},
	}
	var sum float64
	for _, p := range f.projects {
		if p.DeletedAt != nil {
			continue
		}
		stats.Total++
		stats.ByStatus[p.Status]++
		stats.ByHealth[p.Health]++
		sum += p.Progress
	}
	if stats.Total > 0 {
		stats.MeanProgress = sum / float64(stats.Total)
	}
	return stats, nil
}

func (f *fakeStore) InTx(ctx context.Context, fn func(domain.BulkTx) error) error {
	f.mu.Lock()
	staged := make(map[int64]*domain.Project, len(f.projects))
	for id, p := range f.projects {
		staged[id] = cloneProject(p)
	}
	f.mu.Unlock()

	tx := &fakeBulkTx{staged: staged}
	if err := fn(tx); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.projects = staged
	for i := range tx.audits {
		f.appendAuditLocked(&tx.audits[i])
	}
	return nil
}

func (f *fakeStore) appendAuditLocked(e *domain.AuditEvent) {
	e.ID = f.nextID
	f.nextID++
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	f.audits[e.ProjectID] = append(f.audits[e.ProjectID], *e)
}

type fakeBulkTx struct {
	staged map[int64]*domain.Project
	audits []domain.AuditEvent
}

func (t *fakeBulkTx) LockProjects(ctx context.Context, ids []int64) ([]domain.Project, error) {
	var locked []domain.Project
	for _, id := range ids {
		if p, ok := t.staged[id]; ok && p.DeletedAt == nil {
			locked = append(locked, *cloneProject(p))
		}
	}
	sort.Slice(locked, func(i, j int) bool { return locked[i].ID < locked[j].ID })
	return locked, nil
}

func (t *fakeBulkTx) UpdateProject(ctx context.Context, p *domain.Project) error {
	if _, ok := t.staged[p.ID]; !ok {
		return domain.ErrProjectNotFound
	}
	p.LastUpdated = time.Now().UTC()
	t.staged[p.ID] = cloneProject(p)
	return nil
}

func (t *fakeBulkTx) AppendAudit(ctx context.Context, e *domain.AuditEvent) error {
	t.audits = append(t.audits, *e)
	return nil
}

// fakePublisher records every published event.
type fakePublisher struct {
	mu     sync.Mutex
	events []domain.ChangeEvent
}

func (p *fakePublisher) Publish(event domain.ChangeEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *fakePublisher) all() []domain.ChangeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.ChangeEvent(nil), p.events...)
}

func (p *fakePublisher) ofType(eventType string) []domain.ChangeEvent {
	var out []domain.ChangeEvent
	for _, e := range p.all() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// fakeTeamStore and fakeMilestoneStore back the subresource use cases.
type fakeTeamStore struct {
	store   *fakeStore
	mu      sync.Mutex
	nextID  int64
	members map[int64]*domain.TeamMember
}

func newFakeTeamStore(store *fakeStore) *fakeTeamStore {
	return &fakeTeamStore{store: store, nextID: 1, members: make(map[int64]*domain.TeamMember)}
}

func (f *fakeTeamStore) projectLive(projectID int64) error {
	p := f.store.get(projectID)
	if p == nil || p.DeletedAt != nil {
		return domain.ErrProjectNotFound
	}
	return nil
}

func (f *fakeTeamStore) ListByProject(ctx context.Context, projectID int64) ([]domain.TeamMember, error) {
	if err := f.projectLive(projectID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	members := []domain.TeamMember{}
	for _, m := range f.members {
		if m.ProjectID == projectID {
			members = append(members, *m)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members, nil
}

func (f *fakeTeamStore) Get(ctx context.Context, projectID, memberID int64) (*domain.TeamMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[memberID]
	if !ok || m.ProjectID != projectID {
		return nil, domain.ErrTeamMemberNotFound
	}
	c := *m
	return &c, nil
}

func (f *fakeTeamStore) Create(ctx context.Context, m *domain.TeamMember, audit *domain.AuditEvent) error {
	if err := f.projectLive(m.ProjectID); err != nil {
		return err
	}
	f.mu.Lock()
	m.ID = f.nextID
	f.nextID++
	c := *m
	f.members[m.ID] = &c
	f.mu.Unlock()

	if audit != nil {
		f.store.mu.Lock()
		f.store.appendAuditLocked(audit)
		f.store.mu.Unlock()
	}
	return nil
}

func (f *fakeTeamStore) Update(ctx context.Context, m *domain.TeamMember, audit *domain.AuditEvent) error {
	if err := f.projectLive(m.ProjectID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.members[m.ID]
	if !ok || existing.ProjectID != m.ProjectID {
		return domain.ErrTeamMemberNotFound
	}
	c := *m
	f.members[m.ID] = &c
	return nil
}

func (f *fakeTeamStore) Delete(ctx context.Context, projectID, memberID int64, audit *domain.AuditEvent) error {
	if err := f.projectLive(projectID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[memberID]
	if !ok || m.ProjectID != projectID {
		return domain.ErrTeamMemberNotFound
	}
	delete(f.members, memberID)
	return nil
}

type fakeMilestoneStore struct {
	store      *fakeStore
	mu         sync.Mutex
	nextID     int64
	milestones map[int64]*domain.Milestone
}

func newFakeMilestoneStore(store *fakeStore) *fakeMilestoneStore {
	return &fakeMilestoneStore{store: store, nextID: 1, milestones: make(map[int64]*domain.Milestone)}
}

func (f *fakeMilestoneStore) projectLive(projectID int64) error {
	p := f.store.get(projectID)
	if p == nil || p.DeletedAt != nil {
		return domain.ErrProjectNotFound
	}
	return nil
}

func (f *fakeMilestoneStore) ListByProject(ctx context.Context, projectID int64) ([]domain.Milestone, error) {
	if err := f.projectLive(projectID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	milestones := []domain.Milestone{}
	for _, m := range f.milestones {
		if m.ProjectID == projectID {
			milestones = append(milestones, *m)
		}
	}
	sort.Slice(milestones, func(i, j int) bool {
		if milestones[i].Sort != milestones[j].Sort {
			return milestones[i].Sort < milestones[j].Sort
		}
		return milestones[i].ID < milestones[j].ID
	})
	return milestones, nil
}

func (f *fakeMilestoneStore) Get(ctx context.Context, projectID, milestoneID int64) (*domain.Milestone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.milestones[milestoneID]
	if !ok || m.ProjectID != projectID {
		return nil, domain.ErrMilestoneNotFound
	}
	c := *m
	return &c, nil
}

func (f *fakeMilestoneStore) Create(ctx context.Context, m *domain.Milestone, audit *domain.AuditEvent) error {
	if err := f.projectLive(m.ProjectID); err != nil {
		return err
	}
	f.mu.Lock()
	m.ID = f.nextID
	f.nextID++
	c := *m
	f.milestones[m.ID] = &c
	f.mu.Unlock()

	if audit != nil {
		f.store.mu.Lock()
		f.store.appendAuditLocked(audit)
		f.store.mu.Unlock()
	}
	return nil
}

func (f *fakeMilestoneStore) Update(ctx context.Context, m *domain.Milestone, audit *domain.AuditEvent) error {
	if err := f.projectLive(m.ProjectID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.milestones[m.ID]
	if !ok || existing.ProjectID != m.ProjectID {
		return domain.ErrMilestoneNotFound
	}
	c := *m
	f.milestones[m.ID] = &c
	return nil
}

func (f *fakeMilestoneStore) Delete(ctx context.Context, projectID, milestoneID int64, audit *domain.AuditEvent) error {
	if err := f.projectLive(projectID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.milestones[milestoneID]
	if !ok || m.ProjectID != projectID {
		return domain.ErrMilestoneNotFound
	}
	delete(f.milestones, milestoneID)
	return nil
}

type fakeAuditStore struct {
	store *fakeStore
}

func (f *fakeAuditStore) ListByProject(ctx context.Context, projectID int64, limit int) ([]domain.AuditEvent, error) {
	if p := f.store.get(projectID); p == nil || p.DeletedAt != nil {
		return nil, domain.ErrProjectNotFound
	}

	trail := f.store.auditTrail(projectID)
	// Newest first.
	out := make([]domain.AuditEvent, 0, len(trail))
	for i := len(trail) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, trail[i])
	}
	return out, nil
}

func (f *fakeAuditStore) Append(ctx context.Context, e *domain.AuditEvent) error {
	if p := f.store.get(e.ProjectID); p == nil || p.DeletedAt != nil {
		return domain.ErrProjectNotFound
	}
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	f.store.appendAuditLocked(e)
	return nil
}
