package record

import (
	"cmp"
	"context"
	"slices"
	"strings"
)

const (
	notSpecified = "Not specified"
	topStates    = 10
)

// Count is one bucket of an aggregate.
type Count struct {
	Label string
	Count int
}

// Stats aggregates the records for the dashboard charts.
type Stats struct {
	Total      int
	Experience []Count
	Ages       []Count
	States     []Count // top states only
	Referrals  []Count
}

// Stats computes aggregate counts over all records.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return computeStats(all), nil
}

func computeStats(records []*Record) *Stats {
	experience := map[string]int{}
	ages := map[string]int{}
	states := map[string]int{}
	referrals := map[string]int{}

	for _, r := range records {
		experience[orNotSpecified(r.ExperienceLevel)]++
		ages[orNotSpecified(r.Age)]++
		if r.State != "" {
			states[r.State]++
		}
		for src := range strings.SplitSeq(r.HeardAbout, ";") {
			if src = strings.TrimSpace(src); src != "" {
				referrals[src]++
			}
		}
	}

	st := &Stats{
		Total:      len(records),
		Experience: sortedCounts(experience),
		Ages:       sortedCounts(ages),
		States:     sortedCounts(states),
		Referrals:  sortedCounts(referrals),
	}
	if len(st.States) > topStates {
		st.States = st.States[:topStates]
	}
	return st
}

func orNotSpecified(v string) string {
	if v == "" {
		return notSpecified
	}
	return v
}

// sortedCounts orders buckets by count descending, then label.
func sortedCounts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for label, n := range m {
		out = append(out, Count{Label: label, Count: n})
	}
	slices.SortFunc(out, func(a, b Count) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return out
}
