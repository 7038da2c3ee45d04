package record

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	applog "github.com/RaidenIV/dj-database/internal/platform/logging"
)

// Row outcomes and import results reported to an Observer.
const (
	OutcomeCreated = "created"
	OutcomeUpdated = "updated"
	OutcomeSkipped = "skipped"
	OutcomeError   = "error"

	ImportOK       = "ok"
	ImportRejected = "rejected"
	ImportCanceled = "canceled"
)

const rowErrorMessage = "Failed to upsert row"

// Observer receives import counters. The metrics package implements it.
type Observer interface {
	ObserveRow(outcome string)
	ObserveImport(result string)
}

type nopObserver struct{}

func (nopObserver) ObserveRow(string)    {}
func (nopObserver) ObserveImport(string) {}

// RowError describes a row whose upsert failed in the store.
type RowError struct {
	Row       int
	StageName string
	Email     string
	Error     string
}

// ImportResult tallies one import.
type ImportResult struct {
	Created int
	Updated int
	Skipped int
	Errors  []RowError
}

// Importer is the bulk import coordinator. It runs every row of a file
// through the normalizer and the upsert engine and never aborts the batch
// for a single row.
type Importer struct {
	svc      *Service
	observer Observer
}

// NewImporter creates an Importer. A nil observer disables counting.
func NewImporter(svc *Service, observer Observer) *Importer {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Importer{svc: svc, observer: observer}
}

// Import parses the file and upserts each row in order. Rows missing a
// required field are skipped; store failures are collected in Errors.
// A file that cannot be parsed, or in which no row has every required
// field, returns a *ParseError and writes nothing. When ctx is canceled the
// loop stops, rows already written stay written, and the partial result is
// returned with ctx's error.
func (im *Importer) Import(ctx context.Context, filename string, r io.Reader) (*ImportResult, error) {
	ctx = applog.WithFields(ctx, zap.String("importFile", filename))
	rows, err := Parse(filename, r)
	if err != nil {
		im.reject(ctx, err)
		return nil, err
	}

	inputs, usable := normalizeRows(rows)
	if usable == 0 {
		err := &ParseError{Reason: noValidRows}
		im.reject(ctx, err)
		return nil, err
	}

	res := &ImportResult{Errors: []RowError{}}
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			im.finish(ctx, res, len(rows), err)
			return res, err
		}

		in := inputs[i]
		_, outcome, err := im.svc.upsert(ctx, in)
		switch {
		case errors.Is(err, ErrValidation):
			res.Skipped++
			im.observer.ObserveRow(OutcomeSkipped)
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				im.finish(ctx, res, len(rows), ctxErr)
				return res, ctxErr
			}
			applog.LogWarn(ctx, "import row failed", zap.Int("row", row.Line), zap.Error(err))
			res.Errors = append(res.Errors, RowError{
				Row:       row.Line,
				StageName: in.StageName,
				Email:     in.Email,
				Error:     rowErrorMessage,
			})
			im.observer.ObserveRow(OutcomeError)
		case outcome == Created:
			res.Created++
			im.observer.ObserveRow(OutcomeCreated)
		default:
			res.Updated++
			im.observer.ObserveRow(OutcomeUpdated)
		}
	}

	im.finish(ctx, res, len(rows), nil)
	return res, nil
}

// normalizeRows maps every row onto Input and counts the rows that pass the
// required field gate.
func normalizeRows(rows []Row) ([]Input, int) {
	inputs := make([]Input, len(rows))
	usable := 0
	for i, row := range rows {
		inputs[i] = Normalize(row.Fields)
		if len(inputs[i].Missing()) == 0 {
			usable++
		}
	}
	return inputs, usable
}

func (im *Importer) reject(ctx context.Context, err error) {
	im.observer.ObserveImport(ImportRejected)
	im.svc.audit(ctx, "import", "", err)
}

func (im *Importer) finish(ctx context.Context, res *ImportResult, total int, err error) {
	result := ImportOK
	if err != nil {
		result = ImportCanceled
	}
	im.observer.ObserveImport(result)

	ev := applog.AuditEvent{
		Action:       "import",
		ResourceType: resourceType,
		Result:       applog.AuditSuccess,
		Details: map[string]any{
			"rows":    total,
			"created": res.Created,
			"updated": res.Updated,
			"skipped": res.Skipped,
			"errors":  len(res.Errors),
		},
	}
	if err != nil {
		ev.Result = applog.AuditFailure
		ev.Details["error"] = "canceled"
	}
	applog.LogAuditEvent(ctx, ev)
}
