package record

import (
	"context"
	"time"

	applog "github.com/RaidenIV/dj-database/internal/platform/logging"
)

const resourceType = "record"

// Service is the record upsert engine: every write passes the required
// field gate and goes to the Store as a single atomic operation.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a Service backed by store.
func NewService(store Store) *Service {
	return &Service{
		store: store,
		now: func() time.Time {
			// Millisecond precision survives every backing store unchanged.
			return time.Now().UTC().Truncate(time.Millisecond)
		},
	}
}

// prepare normalizes in and applies the required field gate.
func prepare(in Input) (Input, error) {
	in = in.Normalize()
	if missing := in.Missing(); len(missing) > 0 {
		return in, &ValidationError{Fields: missing}
	}
	return in, nil
}

// Create stores a new record.
func (s *Service) Create(ctx context.Context, in Input) (*Record, error) {
	in, err := prepare(in)
	if err != nil {
		s.audit(ctx, "create", "", err)
		return nil, err
	}
	rec, err := s.store.Insert(ctx, in.toRecord(s.now()))
	if err != nil {
		s.audit(ctx, "create", "", err)
		return nil, err
	}
	s.audit(ctx, "create", rec.ID, nil)
	return rec, nil
}

// Update overwrites every editable field of record id.
func (s *Service) Update(ctx context.Context, id string, in Input) (*Record, error) {
	in, err := prepare(in)
	if err != nil {
		s.audit(ctx, "update", id, err)
		return nil, err
	}
	rec, err := s.store.Replace(ctx, id, in.toRecord(s.now()))
	if err != nil {
		s.audit(ctx, "update", id, err)
		return nil, err
	}
	s.audit(ctx, "update", id, nil)
	return rec, nil
}

// Delete removes record id.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.store.Delete(ctx, id)
	s.audit(ctx, "delete", id, err)
	return err
}

// Get returns record id.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	return s.store.Get(ctx, id)
}

// List returns records matching opts.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]*Record, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return applyListOptions(all, opts), nil
}

// Upsert creates the record for in's key or overwrites the existing one.
func (s *Service) Upsert(ctx context.Context, in Input) (*Record, UpsertResult, error) {
	rec, res, err := s.upsert(ctx, in)
	id := ""
	if rec != nil {
		id = rec.ID
	}
	s.audit(ctx, "upsert", id, err)
	return rec, res, err
}

// upsert is Upsert without the audit event; the importer audits once per file.
func (s *Service) upsert(ctx context.Context, in Input) (*Record, UpsertResult, error) {
	in, err := prepare(in)
	if err != nil {
		return nil, 0, err
	}
	return s.store.Upsert(ctx, in.toRecord(s.now()))
}

// Ping checks the backing store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) audit(ctx context.Context, action, id string, err error) {
	ev := applog.AuditEvent{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   id,
		Result:       applog.AuditSuccess,
	}
	if err != nil {
		ev.Result = applog.AuditFailure
		ev.Details = map[string]any{"error": categorizeError(err)}
	}
	applog.LogAuditEvent(ctx, ev)
}
