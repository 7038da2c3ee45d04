package records

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/RaidenIV/dj-database/internal/platform/auth"
	applog "github.com/RaidenIV/dj-database/internal/platform/logging"
	recordsvc "github.com/RaidenIV/dj-database/internal/service/record"
)

const (
	tag      = "Records"
	basePath = "/api/records"

	fileField = "file"
	xlsxType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	defaultMaxUploadBytes = 10 << 20
)

// Options tunes record route registration.
type Options struct {
	// Prefix is prepended to Location headers.
	Prefix string
	// PublicSubmissions leaves record creation open without a token.
	PublicSubmissions bool
	// MaxUploadBytes caps import request bodies.
	MaxUploadBytes int64
}

// Register registers record endpoints.
func Register(api huma.API, svc *recordsvc.Service, importer *recordsvc.Importer, opts Options) {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	createSecurity := auth.Security()
	if opts.PublicSubmissions {
		createSecurity = nil
	}

	huma.Register(api, huma.Operation{
		OperationID: "list-records",
		Method:      http.MethodGet,
		Path:        basePath,
		Summary:     "List records",
		Description: "Returns records matching the search, newest first unless another sort is requested.",
		Tags:        []string{tag},
		Security:    auth.Security(),
	}, func(ctx context.Context, input *ListInput) (*ListOutput, error) {
		list, err := svc.List(ctx, recordsvc.ListOptions{
			Query: input.Q,
			Sort:  input.Sort,
			Limit: input.Limit,
		})
		if err != nil {
			return nil, mapServiceError(ctx, err)
		}
		return &ListOutput{Body: toHTTPRecords(list)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-record",
		Method:        http.MethodPost,
		Path:          basePath,
		Summary:       "Create a record",
		Description:   "Stores a new record. stageName, fullName, age and email are required; stageName + email must be unique ignoring case.",
		Tags:          []string{tag},
		DefaultStatus: http.StatusCreated,
		Security:      createSecurity,
	}, func(ctx context.Context, input *CreateInput) (*CreateOutput, error) {
		rec, err := svc.Create(ctx, input.Body.toInput())
		if err != nil {
			return nil, mapServiceError(ctx, err)
		}
		return &CreateOutput{
			Location: opts.Prefix + basePath + "/" + rec.ID,
			Body:     toHTTPRecord(rec),
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "export-records-csv",
		Method:      http.MethodGet,
		Path:        basePath + "/export.csv",
		Summary:     "Export records as CSV",
		Tags:        []string{tag},
		Security:    auth.Security(),
		Responses: map[string]*huma.Response{
			"200": {Description: "CSV file", Content: map[string]*huma.MediaType{"text/csv": {}}},
		},
	}, func(ctx context.Context, _ *struct{}) (*FileOutput, error) {
		return export(ctx, svc, recordsvc.WriteCSV, "text/csv; charset=utf-8", recordsvc.ExportCSVFilename)
	})

	huma.Register(api, huma.Operation{
		OperationID: "export-records-xlsx",
		Method:      http.MethodGet,
		Path:        basePath + "/export.xlsx",
		Summary:     "Export records as XLSX",
		Tags:        []string{tag},
		Security:    auth.Security(),
		Responses: map[string]*huma.Response{
			"200": {Description: "XLSX workbook", Content: map[string]*huma.MediaType{xlsxType: {}}},
		},
	}, func(ctx context.Context, _ *struct{}) (*FileOutput, error) {
		return export(ctx, svc, recordsvc.WriteXLSX, xlsxType, recordsvc.ExportXLSXFilename)
	})

	huma.Register(api, huma.Operation{
		OperationID: "import-records",
		Method:      http.MethodPost,
		Path:        basePath + "/import",
		Summary:     "Import records from CSV or XLSX",
		Description: "Upserts every row of the uploaded file by stageName + email. " +
			"Rows missing a required field are skipped; rows the store fails to write are listed in errors.",
		Tags:         []string{tag},
		Security:     auth.Security(),
		MaxBodyBytes: opts.MaxUploadBytes,
	}, func(ctx context.Context, input *ImportInput) (*ImportOutput, error) {
		files := input.RawBody.File[fileField]
		if len(files) == 0 {
			return nil, huma.Error400BadRequest("No file uploaded (expected field name: file)")
		}
		fh := files[0]
		f, err := fh.Open()
		if err != nil {
			applog.LogError(ctx, "open upload failed", err)
			return nil, huma.Error400BadRequest("Unreadable upload")
		}
		defer func() { _ = f.Close() }()

		res, err := importer.Import(ctx, fh.Filename, f)
		if err != nil {
			return nil, mapServiceError(ctx, err)
		}
		return &ImportOutput{Body: toHTTPImportResult(res)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "record-stats",
		Method:      http.MethodGet,
		Path:        basePath + "/stats",
		Summary:     "Aggregate record counts",
		Tags:        []string{tag},
		Security:    auth.Security(),
	}, func(ctx context.Context, _ *struct{}) (*StatsOutput, error) {
		st, err := svc.Stats(ctx)
		if err != nil {
			return nil, mapServiceError(ctx, err)
		}
		return &StatsOutput{Body: toHTTPStats(st)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-record",
		Method:      http.MethodGet,
		Path:        basePath + "/{id}",
		Summary:     "Get a record",
		Tags:        []string{tag},
		Security:    auth.Security(),
	}, func(ctx context.Context, input *GetInput) (*RecordOutput, error) {
		rec, err := svc.Get(ctx, input.ID)
		if err != nil {
			return nil, mapServiceError(ctx, err)
		}
		return &RecordOutput{Body: toHTTPRecord(rec)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-record",
		Method:      http.MethodPut,
		Path:        basePath + "/{id}",
		Summary:     "Replace a record",
		Description: "Overwrites every field of the record. Omitted optional fields are cleared.",
		Tags:        []string{tag},
		Security:    auth.Security(),
	}, func(ctx context.Context, input *UpdateInput) (*RecordOutput, error) {
		rec, err := svc.Update(ctx, input.ID, input.Body.toInput())
		if err != nil {
			return nil, mapServiceError(ctx, err)
		}
		return &RecordOutput{Body: toHTTPRecord(rec)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-record",
		Method:      http.MethodDelete,
		Path:        basePath + "/{id}",
		Summary:     "Delete a record",
		Tags:        []string{tag},
		Security:    auth.Security(),
	}, func(ctx context.Context, input *DeleteInput) (*DeleteOutput, error) {
		if err := svc.Delete(ctx, input.ID); err != nil {
			return nil, mapServiceError(ctx, err)
		}
		return &DeleteOutput{Body: Deleted{OK: true}}, nil
	})
}

func export(
	ctx context.Context,
	svc *recordsvc.Service,
	write func(io.Writer, []*recordsvc.Record) error,
	contentType, filename string,
) (*FileOutput, error) {
	list, err := svc.Export(ctx)
	if err != nil {
		return nil, mapServiceError(ctx, err)
	}
	var buf bytes.Buffer
	if err := write(&buf, list); err != nil {
		return nil, mapServiceError(ctx, err)
	}
	applog.LogInfo(ctx, "records exported", zap.Int("count", len(list)), zap.String("file", filename))
	return &FileOutput{
		ContentType:        contentType,
		ContentDisposition: fmt.Sprintf("attachment; filename=%q", filename),
		Body:               buf.Bytes(),
	}, nil
}

func mapServiceError(ctx context.Context, err error) error {
	var (
		verr *recordsvc.ValidationError
		derr *recordsvc.DuplicateError
		perr *recordsvc.ParseError
	)
	switch {
	case errors.As(err, &verr):
		return huma.Error400BadRequest(verr.Error())
	case errors.As(err, &derr):
		return huma.Error409Conflict(derr.Error())
	case errors.As(err, &perr):
		applog.LogWarn(ctx, "import rejected", zap.Error(err))
		return huma.Error400BadRequest(perr.Reason)
	case errors.Is(err, recordsvc.ErrNotFound):
		return huma.Error404NotFound("record not found")
	default:
		applog.LogError(ctx, "record operation failed", err)
		return huma.Error500InternalServerError("internal error")
	}
}
