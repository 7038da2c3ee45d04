package record

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Export file names.
const (
	ExportCSVFilename  = "dj-profiles-export.csv"
	ExportXLSXFilename = "dj-profiles-export.xlsx"
	exportSheet        = "Profiles"
)

// ExportHeader is the fixed column order of exported files. Every column is
// also an import alias, so exports round-trip.
var ExportHeader = []string{
	"Stage Name",
	"Name (First & Last)",
	"City",
	"State",
	"Phone Number",
	"Experience Level",
	"Age",
	"Email",
	"Social Media Links",
	"How did you hear about us?",
}

func exportRow(r *Record) []string {
	return []string{
		r.StageName,
		r.FullName,
		r.City,
		r.State,
		r.PhoneNumber,
		r.ExperienceLevel,
		r.Age,
		r.Email,
		r.SocialMedia,
		r.HeardAbout,
	}
}

// WriteCSV writes records under ExportHeader with RFC 4180 quoting.
func WriteCSV(w io.Writer, records []*Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(exportRow(r)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes records to a single "Profiles" sheet.
func WriteXLSX(w io.Writer, records []*Record) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(exportSheet)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}
	if err := sw.SetRow("A1", toCells(ExportHeader)); err != nil {
		return fmt.Errorf("write xlsx header: %w", err)
	}
	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, toCells(exportRow(r))); err != nil {
			return fmt.Errorf("write xlsx row: %w", err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush xlsx: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func toCells(values []string) []any {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

// Export returns all records newest first, the order exports use.
func (s *Service) Export(ctx context.Context) ([]*Record, error) {
	return s.store.List(ctx)
}
