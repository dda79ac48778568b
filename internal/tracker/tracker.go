// Package tracker runs each inventory action as one load, mutate, save
// cycle against a store. Upserts and field edits are appended to the
// restock log afterwards.
//
// Nothing is cached between calls and writers are not serialized: two
// concurrent saves race and the later one wins.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/erazemk/stockroom/internal/inventory"
	"github.com/erazemk/stockroom/internal/model"
	"github.com/erazemk/stockroom/internal/store"
)

// Service applies inventory rules to the records held in a store.
type Service struct {
	store  store.Store
	schema model.Schema
	now    func() time.Time
}

// New returns a service over st. The clock defaults to time.Now.
func New(st store.Store, schema model.Schema) *Service {
	return &Service{store: st, schema: schema, now: time.Now}
}

// WithClock replaces the clock, for tests and replays.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Schema returns the schema the service writes with.
func (s *Service) Schema() model.Schema {
	return s.schema
}

// Table loads the full inventory.
func (s *Service) Table(ctx context.Context) (model.Table, error) {
	t, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading inventory: %w", err)
	}
	return t, nil
}

// List returns the records matching query and category.
func (s *Service) List(ctx context.Context, query, category string) (model.Table, error) {
	t, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	return inventory.Filter(t, query, category), nil
}

// Get returns the record for name.
func (s *Service) Get(ctx context.Context, name string) (model.Record, error) {
	t, err := s.Table(ctx)
	if err != nil {
		return model.Record{}, err
	}
	r, ok := inventory.Find(t, name)
	if !ok {
		return model.Record{}, &inventory.NotFoundError{Item: name}
	}
	return r, nil
}

// Report analyzes the current inventory.
func (s *Service) Report(ctx context.Context) (inventory.Report, error) {
	t, err := s.Table(ctx)
	if err != nil {
		return inventory.Report{}, err
	}
	return inventory.Analyze(t), nil
}

// Upsert adds the candidate or overwrites the record with the same name,
// then logs the new quantity under actor.
func (s *Service) Upsert(ctx context.Context, c model.Record, actor string) (model.Table, inventory.Outcome, error) {
	if s.schema.RequireCategory && strings.TrimSpace(c.Category) == "" {
		return nil, 0, &inventory.ValidationError{Field: "category", Message: "is required"}
	}
	c = s.schema.Apply(c)
	c.Category = strings.TrimSpace(c.Category)

	t, err := s.Table(ctx)
	if err != nil {
		return nil, 0, err
	}

	now := s.now()
	out, outcome, err := inventory.Upsert(t, c, now)
	if err != nil {
		return nil, 0, err
	}
	if err := s.store.Save(ctx, out); err != nil {
		return nil, 0, fmt.Errorf("saving inventory: %w", err)
	}

	item := strings.TrimSpace(c.Item)
	slog.Info("item saved", "item", item, "outcome", outcome.String(), "quantity", c.Quantity, "actor", actor)

	if err := s.logRestock(ctx, item, c.Quantity, actor, now); err != nil {
		return out, outcome, err
	}
	return out, outcome, nil
}

// SetFields edits the record matching name and logs its resulting quantity.
func (s *Service) SetFields(ctx context.Context, name string, p inventory.Patch, actor string) (model.Record, error) {
	if !s.schema.TrackPrice {
		p.UnitPrice = nil
	}
	if !s.schema.TrackSupplier {
		p.Supplier = nil
	}

	t, err := s.Table(ctx)
	if err != nil {
		return model.Record{}, err
	}

	now := s.now()
	out, err := inventory.SetFields(t, name, p, now)
	if err != nil {
		return model.Record{}, err
	}
	if err := s.store.Save(ctx, out); err != nil {
		return model.Record{}, fmt.Errorf("saving inventory: %w", err)
	}

	r := out[inventory.Index(out, name)]
	slog.Info("item updated", "item", r.Item, "quantity", r.Quantity, "actor", actor)

	if err := s.logRestock(ctx, r.Item, r.Quantity, actor, now); err != nil {
		return r, err
	}
	return r, nil
}

// Delete removes every record named name. Removing an unknown item saves
// nothing and returns zero.
func (s *Service) Delete(ctx context.Context, name, actor string) (int, error) {
	t, err := s.Table(ctx)
	if err != nil {
		return 0, err
	}

	out, removed := inventory.Delete(t, name)
	if removed == 0 {
		return 0, nil
	}
	if err := s.store.Save(ctx, out); err != nil {
		return 0, fmt.Errorf("saving inventory: %w", err)
	}

	slog.Info("item deleted", "item", strings.TrimSpace(name), "removed", removed, "actor", actor)
	return removed, nil
}

// RestockLog returns the full restock log, oldest first.
func (s *Service) RestockLog(ctx context.Context) ([]model.RestockEntry, error) {
	log, err := s.store.LoadLog(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading restock log: %w", err)
	}
	if log == nil {
		log = []model.RestockEntry{}
	}
	return log, nil
}

// LogError reports a change that reached the inventory store but could not
// be added to the restock log.
type LogError struct {
	Item string
	Err  error
}

func (e *LogError) Error() string {
	return fmt.Sprintf("inventory saved but restock log not written for %q: %v", e.Item, e.Err)
}

func (e *LogError) Unwrap() error {
	return e.Err
}

func (s *Service) logRestock(ctx context.Context, item string, quantity int, actor string, now time.Time) error {
	log, err := s.store.LoadLog(ctx)
	if err != nil {
		return &LogError{Item: item, Err: err}
	}
	log = inventory.AppendRestock(log, item, quantity, actor, now)
	if err := s.store.SaveLog(ctx, log); err != nil {
		return &LogError{Item: item, Err: err}
	}
	return nil
}
