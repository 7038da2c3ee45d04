package record

import (
	"cmp"
	"slices"
	"strings"
)

// Sort keys accepted by ListOptions.
const (
	SortNewest        = "newest"
	SortStageName     = "stageName"
	SortStageNameDesc = "stageName-desc"
	SortFullName      = "fullName"
	SortFullNameDesc  = "fullName-desc"
	SortAge           = "age"
	SortExperience    = "experience"
	SortCity          = "city"
)

// SortKeys lists every accepted sort key.
var SortKeys = []string{
	SortNewest, SortStageName, SortStageNameDesc, SortFullName,
	SortFullNameDesc, SortAge, SortExperience, SortCity,
}

// ListOptions filters and orders a listing.
type ListOptions struct {
	// Query is a case-insensitive substring matched against stage name,
	// full name, city, state, email and phone number.
	Query string
	// Sort is one of SortKeys. Empty or unknown means newest first.
	Sort string
	// Limit caps the result; 0 returns everything.
	Limit int
}

// applyListOptions expects records newest first, as stores return them.
func applyListOptions(records []*Record, opts ListOptions) []*Record {
	out := records
	if q := strings.ToLower(strings.TrimSpace(opts.Query)); q != "" {
		out = make([]*Record, 0, len(records))
		for _, r := range records {
			if matches(r, q) {
				out = append(out, r)
			}
		}
	}

	if cmpFn := comparator(opts.Sort); cmpFn != nil {
		out = slices.Clone(out)
		slices.SortStableFunc(out, cmpFn)
	}

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

func matches(r *Record, q string) bool {
	for _, v := range []string{r.StageName, r.FullName, r.City, r.State, r.Email, r.PhoneNumber} {
		if strings.Contains(strings.ToLower(v), q) {
			return true
		}
	}
	return false
}

func comparator(sortKey string) func(a, b *Record) int {
	folded := func(get func(*Record) string, desc bool) func(a, b *Record) int {
		return func(a, b *Record) int {
			c := cmp.Compare(strings.ToLower(get(a)), strings.ToLower(get(b)))
			if desc {
				return -c
			}
			return c
		}
	}
	switch sortKey {
	case SortStageName:
		return folded(func(r *Record) string { return r.StageName }, false)
	case SortStageNameDesc:
		return folded(func(r *Record) string { return r.StageName }, true)
	case SortFullName:
		return folded(func(r *Record) string { return r.FullName }, false)
	case SortFullNameDesc:
		return folded(func(r *Record) string { return r.FullName }, true)
	case SortCity:
		return folded(func(r *Record) string { return r.City }, false)
	case SortAge:
		return func(a, b *Record) int { return cmp.Compare(a.Age, b.Age) }
	case SortExperience:
		return func(a, b *Record) int { return cmp.Compare(a.ExperienceLevel, b.ExperienceLevel) }
	default:
		return nil
	}
}
