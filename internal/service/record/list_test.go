package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyListOptions(t *testing.T) {
	// newest first, as stores return them
	records := []*Record{
		{StageName: "delta", Age: "35-44", ExperienceLevel: "Pro", City: "boston", Email: "d@example.com"},
		{StageName: "Charlie", Age: "18-24", ExperienceLevel: "Beginner", City: "Austin", PhoneNumber: "5551234567"},
		{StageName: "bravo", Age: "25-34", ExperienceLevel: "Intermediate", State: "Texas"},
		{StageName: "Alpha", Age: "25-34", ExperienceLevel: "Beginner", City: "austin"},
	}

	tests := []struct {
		name string
		opts ListOptions
		want []string
	}{
		{"default keeps store order", ListOptions{}, []string{"delta", "Charlie", "bravo", "Alpha"}},
		{"unknown sort keeps store order", ListOptions{Sort: "shoe-size"}, []string{"delta", "Charlie", "bravo", "Alpha"}},
		{"stage name folds case", ListOptions{Sort: SortStageName}, []string{"Alpha", "bravo", "Charlie", "delta"}},
		{"stage name descending", ListOptions{Sort: SortStageNameDesc}, []string{"delta", "Charlie", "bravo", "Alpha"}},
		{"age is stable", ListOptions{Sort: SortAge}, []string{"Charlie", "bravo", "Alpha", "delta"}},
		{"experience", ListOptions{Sort: SortExperience}, []string{"Charlie", "Alpha", "bravo", "delta"}},
		{"city empties first", ListOptions{Sort: SortCity}, []string{"bravo", "Charlie", "Alpha", "delta"}},
		{"query matches city", ListOptions{Query: " AUSTIN "}, []string{"Charlie", "Alpha"}},
		{"query matches phone", ListOptions{Query: "555123"}, []string{"Charlie"}},
		{"query matches state", ListOptions{Query: "tex"}, []string{"bravo"}},
		{"query matches email", ListOptions{Query: "d@example"}, []string{"delta"}},
		{"query without match", ListOptions{Query: "zzz"}, []string{}},
		{"limit", ListOptions{Sort: SortStageName, Limit: 2}, []string{"Alpha", "bravo"}},
		{"limit beyond length", ListOptions{Limit: 10}, []string{"delta", "Charlie", "bravo", "Alpha"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stageNames(applyListOptions(records, tt.opts)))
		})
	}

	assert.Equal(t, "delta", records[0].StageName, "input order is not modified")
}
