package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/domain"
	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/metrics"
)

// ApplyBulk applies one action to a set of projects atomically. Every target
// must match its expected version or nothing is written and the returned
// result lists all conflicts. The version gate runs before parameter
// validation, so a request that is both stale and malformed reports its
// conflicts, not a 400. Targets whose state already satisfies the action are
// skipped without a version bump. Change events go out only after the
// transaction has committed.
func (s *Service) ApplyBulk(ctx context.Context, req domain.BulkRequest) (*domain.BulkResult, error) {
	ids := dedupSorted(req.IDs)
	if len(ids) == 0 {
		metrics.BulkMutationsTotal.WithLabelValues("applied").Inc()
		metrics.BulkTargetsUpdated.Observe(0)
		return &domain.BulkResult{UpdatedCount: 0, Conflicts: []domain.BulkConflict{}}, nil
	}

	var result domain.BulkResult
	var events []domain.ChangeEvent

	err := s.projects.InTx(ctx, func(tx domain.BulkTx) error {
		locked, err := tx.LockProjects(ctx, ids)
		if err != nil {
			return err
		}

		byID := make(map[int64]*domain.Project, len(locked))
		for i := range locked {
			byID[locked[i].ID] = &locked[i]
		}

		// Gate first: a single mismatch anywhere rejects the whole batch
		// before any write happens.
		for _, id := range ids {
			expected, has := req.Versions[id]
			if !has {
				expected = domain.VersionMissing
			}
			row, present := byID[id]
			switch {
			case !present:
				result.Conflicts = append(result.Conflicts, domain.BulkConflict{
					ID: id, Expected: expected, Found: domain.VersionMissing,
				})
			case expected != row.Version:
				result.Conflicts = append(result.Conflicts, domain.BulkConflict{
					ID: id, Expected: expected, Found: row.Version,
				})
			}
		}
		if len(result.Conflicts) > 0 {
			return nil
		}

		if err := validateBulk(&req); err != nil {
			return err
		}

		for _, id := range ids {
			p := byID[id]
			changed, message := applyBulkAction(p, req)
			if len(changed) == 0 {
				continue
			}

			p.Version++
			if err := tx.UpdateProject(ctx, p); err != nil {
				return err
			}
			audit := &domain.AuditEvent{
				ProjectID: p.ID,
				Kind:      "bulk_" + string(req.Action),
				Message:   message,
			}
			if err := tx.AppendAudit(ctx, audit); err != nil {
				return err
			}

			events = append(events, domain.ProjectUpdatedEvent(p, changed))
			result.UpdatedCount++
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedAction) ||
			errors.Is(err, domain.ErrStatusRequired) ||
			errors.Is(err, domain.ErrTagRequired) {
			metrics.BulkMutationsTotal.WithLabelValues("invalid").Inc()
		}
		return nil, err
	}

	if len(result.Conflicts) > 0 {
		metrics.BulkMutationsTotal.WithLabelValues("conflict").Inc()
		metrics.BulkConflictsTotal.Add(float64(len(result.Conflicts)))
		result.UpdatedCount = 0
		return &result, nil
	}

	metrics.BulkMutationsTotal.WithLabelValues("applied").Inc()
	metrics.BulkTargetsUpdated.Observe(float64(result.UpdatedCount))
	s.publish(events...)
	return &result, nil
}

func validateBulk(req *domain.BulkRequest) error {
	switch req.Action {
	case domain.ActionUpdateStatus:
		req.NewStatus = strings.TrimSpace(req.NewStatus)
		if req.NewStatus == "" {
			return domain.ErrStatusRequired
		}
	case domain.ActionAddTag, domain.ActionRemoveTag:
		req.Tag = strings.TrimSpace(req.Tag)
		if req.Tag == "" {
			return domain.ErrTagRequired
		}
	default:
		return domain.ErrUnsupportedAction
	}
	return nil
}

// applyBulkAction mutates p in place and reports which fields changed. An
// empty changed list means the project already satisfied the action.
func applyBulkAction(p *domain.Project, req domain.BulkRequest) (changed []string, message string) {
	switch req.Action {
	case domain.ActionUpdateStatus:
		if p.Status == req.NewStatus {
			return nil, ""
		}
		old := p.Status
		p.Status = req.NewStatus
		return []string{"status"}, fmt.Sprintf("status %s -> %s", old, req.NewStatus)

	case domain.ActionAddTag:
		if domain.HasTag(p.Tags, req.Tag) {
			return nil, ""
		}
		p.Tags = domain.NormalizeTags(append(p.Tags, req.Tag))
		return []string{"tags"}, "tag added: " + req.Tag

	case domain.ActionRemoveTag:
		if !domain.HasTag(p.Tags, req.Tag) {
			return nil, ""
		}
		tags := make([]string, 0, len(p.Tags))
		for _, t := range p.Tags {
			if t != req.Tag {
				tags = append(tags, t)
			}
		}
		p.Tags = tags
		return []string{"tags"}, "tag removed: " + req.Tag
	}
	return nil, ""
}

func dedupSorted(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
