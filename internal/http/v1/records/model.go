package records

import (
	"github.com/RaidenIV/dj-database/internal/platform/timeutil"
	recordsvc "github.com/RaidenIV/dj-database/internal/service/record"
)

// Record is a stored DJ profile.
type Record struct {
	ID              string        `json:"id"              doc:"Record identifier"                example:"6f1c2a9e-3b1d-4c55-9a8e-2f0b7d1e4c21"`
	StageName       string        `json:"stageName"       doc:"Stage name"                       example:"DJ Nova"`
	FullName        string        `json:"fullName"        doc:"Full name"                        example:"Nova Reyes"`
	City            string        `json:"city"            doc:"City"                             example:"Austin"`
	State           string        `json:"state"           doc:"Canonical US state name"          example:"Texas"`
	PhoneNumber     string        `json:"phoneNumber"     doc:"Digits only"                      example:"5551234567"`
	ExperienceLevel string        `json:"experienceLevel" doc:"Experience level"                 example:"Intermediate"`
	Age             string        `json:"age"             doc:"Age or age range"                 example:"25-34"`
	Email           string        `json:"email"           doc:"Email address"                    example:"nova@example.com"`
	SocialMedia     string        `json:"socialMedia"     doc:"Social media links"               example:"@djnova"`
	HeardAbout      string        `json:"heardAbout"      doc:"Referral sources, ';' separated"  example:"Instagram; Friend"`
	CreatedAt       timeutil.Time `json:"createdAt"       doc:"Creation timestamp"`
	UpdatedAt       timeutil.Time `json:"updatedAt"       doc:"Last update timestamp"`
}

// Count is one bucket of an aggregate.
type Count struct {
	Label string `json:"label" example:"Texas"`
	Count int    `json:"count" example:"12"`
}

// Stats holds aggregate counts over all records.
type Stats struct {
	Total      int     `json:"total"      doc:"Number of records"`
	Experience []Count `json:"experience" doc:"Records per experience level"`
	Ages       []Count `json:"ages"       doc:"Records per age"`
	States     []Count `json:"states"     doc:"Top states"`
	Referrals  []Count `json:"referrals"  doc:"Mentions per referral source"`
}

// RowError reports a row the store failed to write.
type RowError struct {
	Row       int    `json:"row"       doc:"Line number in the uploaded file" example:"7"`
	StageName string `json:"stageName" example:"DJ Nova"`
	Email     string `json:"email"     example:"nova@example.com"`
	Error     string `json:"error"     example:"Failed to upsert row"`
}

// ImportResult summarizes an import.
type ImportResult struct {
	OK      bool       `json:"ok"      example:"true"`
	Created int        `json:"created" doc:"Rows inserted as new records"        example:"3"`
	Updated int        `json:"updated" doc:"Rows that overwrote existing records" example:"1"`
	Skipped int        `json:"skipped" doc:"Rows missing a required field"       example:"2"`
	Errors  []RowError `json:"errors"  doc:"Rows the store failed to write"`
}

// Deleted confirms a deletion.
type Deleted struct {
	OK bool `json:"ok" example:"true"`
}

func toHTTPRecord(r *recordsvc.Record) Record {
	return Record{
		ID:              r.ID,
		StageName:       r.StageName,
		FullName:        r.FullName,
		City:            r.City,
		State:           r.State,
		PhoneNumber:     r.PhoneNumber,
		ExperienceLevel: r.ExperienceLevel,
		Age:             r.Age,
		Email:           r.Email,
		SocialMedia:     r.SocialMedia,
		HeardAbout:      r.HeardAbout,
		CreatedAt:       timeutil.From(r.CreatedAt),
		UpdatedAt:       timeutil.From(r.UpdatedAt),
	}
}

func toHTTPRecords(in []*recordsvc.Record) []Record {
	out := make([]Record, len(in))
	for i, r := range in {
		out[i] = toHTTPRecord(r)
	}
	return out
}

func toHTTPCounts(in []recordsvc.Count) []Count {
	out := make([]Count, len(in))
	for i, c := range in {
		out[i] = Count{Label: c.Label, Count: c.Count}
	}
	return out
}

func toHTTPStats(s *recordsvc.Stats) Stats {
	return Stats{
		Total:      s.Total,
		Experience: toHTTPCounts(s.Experience),
		Ages:       toHTTPCounts(s.Ages),
		States:     toHTTPCounts(s.States),
		Referrals:  toHTTPCounts(s.Referrals),
	}
}

func toHTTPImportResult(res *recordsvc.ImportResult) ImportResult {
	out := ImportResult{
		OK:      true,
		Created: res.Created,
		Updated: res.Updated,
		Skipped: res.Skipped,
		Errors:  make([]RowError, len(res.Errors)),
	}
	for i, e := range res.Errors {
		out.Errors[i] = RowError(e)
	}
	return out
}
