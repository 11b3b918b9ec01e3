package domain

import "time"

// Change event types as they appear on the wire.
const (
	EventProjectCreated   = "project_created"
	EventProjectUpdated   = "project_updated"
	EventProjectDeleted   = "project_deleted"
	EventProjectRecovered = "project_recovered"
	EventAuditAppended    = "event_created"
)

// AuditEventBody is the embedded payload of an event_created notification.
type AuditEventBody struct {
	ID      int64     `json:"id"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// ChangeEvent describes what changed on one entity. It is immutable once
// constructed and carries only the fields that changed, in the entity's
// external representation (tags as ordered lists, not the storage encoding).
type ChangeEvent struct {
	Type      string          `json:"type"`
	ID        int64           `json:"id,omitempty"`
	ProjectID int64           `json:"project_id,omitempty"`
	Changed   []string        `json:"changed,omitempty"`
	Patch     map[string]any  `json:"patch,omitempty"`
	Event     *AuditEventBody `json:"event,omitempty"`
}

// ProjectUpdatedEvent builds a project_updated event from the in-memory
// post-mutation state. The patch carries exactly the changed fields.
func ProjectUpdatedEvent(p *Project, changed []string) ChangeEvent {
	patch := make(map[string]any, len(changed))
	for _, field := range changed {
		switch field {
		case "title":
			patch[field] = p.Title
		case "description":
			patch[field] = p.Description
		case "owner":
			patch[field] = p.Owner
		case "status":
			patch[field] = p.Status
		case "health":
			patch[field] = p.Health
		case "tags":
			patch[field] = p.Tags
		case "progress":
			patch[field] = p.Progress
		}
	}
	return ChangeEvent{Type: EventProjectUpdated, ID: p.ID, Changed: changed, Patch: patch}
}

// AuditAppendedEvent builds an event_created notification for one audit entry.
func AuditAppendedEvent(e AuditEvent) ChangeEvent {
	return ChangeEvent{
		Type:      EventAuditAppended,
		ProjectID: e.ProjectID,
		Event:     &AuditEventBody{ID: e.ID, Kind: e.Kind, Message: e.Message, At: e.At},
	}
}

// EventPublisher delivers change events to live subscribers. Publish must
// never block and must never surface delivery failures to the caller: a
// mutation is complete once its transaction commits, regardless of whether
// anyone hears about it.
type EventPublisher interface {
	Publish(event ChangeEvent)
}
