package products

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/example/horeca/internal/apperr"
	"github.com/example/horeca/internal/models"
)

const bulkConcurrency = 8

// Patch is a bulk flag update. Nil fields are left alone.
type Patch struct {
	Featured *bool                 `json:"featured"`
	Premium  *bool                 `json:"premium"`
	Status   *models.ProductStatus `json:"status"`
}

// ItemResult reports the outcome of one item of a bulk operation.
type ItemResult struct {
	ID      uuid.UUID   `json:"id"`
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	Code    apperr.Code `json:"code,omitempty"`
}

func (p Patch) fields() (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	if p.Featured != nil {
		fields["featured"] = *p.Featured
	}
	if p.Premium != nil {
		fields["premium"] = *p.Premium
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			return nil, apperr.Validationf("unknown status %q", *p.Status)
		}
		fields["status"] = *p.Status
	}
	if len(fields) == 0 {
		return nil, apperr.Validation("nothing to update")
	}
	return fields, nil
}

// BulkUpdate applies patch to every id independently.
func (s *Service) BulkUpdate(ctx context.Context, ids []uuid.UUID, patch Patch) ([]ItemResult, error) {
	fields, err := patch.fields()
	if err != nil {
		return nil, err
	}
	results := s.each(ctx, ids, func(ctx context.Context, id uuid.UUID) error {
		if _, err := s.repo.GetByID(ctx, id); err != nil {
			return err
		}
		return s.repo.UpdateFlags(ctx, id, fields)
	})
	s.changed(ctx)
	return results, nil
}

// BulkDelete deletes every id independently.
func (s *Service) BulkDelete(ctx context.Context, ids []uuid.UUID) ([]ItemResult, error) {
	results := s.each(ctx, ids, func(ctx context.Context, id uuid.UUID) error {
		if _, err := s.repo.GetByID(ctx, id); err != nil {
			return err
		}
		return s.repo.Delete(ctx, id)
	})
	s.changed(ctx)
	return results, nil
}

// each runs fn for every id with bounded fan-out. A failing item never
// cancels the others.
func (s *Service) each(ctx context.Context, ids []uuid.UUID, fn func(context.Context, uuid.UUID) error) []ItemResult {
	results := make([]ItemResult, len(ids))
	var g errgroup.Group
	g.SetLimit(bulkConcurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			results[i] = ItemResult{ID: id, Success: true}
			if err := fn(ctx, id); err != nil {
				err = apperr.FromStore(err, "product")
				results[i] = ItemResult{ID: id, Error: err.Error(), Code: apperr.CodeOf(err)}
				s.log.Warn("bulk item failed", "id", id, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
