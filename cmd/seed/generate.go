package main

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/RaidenIV/dj-database/internal/service/record"
)

var (
	experienceLevels = []string{"Beginner", "Intermediate", "Advanced", "Professional"}
	ageRanges        = []string{"18-24", "25-34", "35-44", "45+"}
	referralSources  = []string{"Instagram", "TikTok", "Friend", "Flyer", "Event", "Radio"}
	stagePrefixes    = []string{"DJ", "MC", "The", ""}
)

// generate returns n profiles with distinct stage name + email keys. With
// messy set, values look like raw form input and every tenth row lacks an
// age, so an import reports it as skipped.
func generate(f *gofakeit.Faker, n int, messy bool) []*record.Record {
	seen := make(map[record.Key]struct{}, n)
	out := make([]*record.Record, 0, n)
	for len(out) < n {
		r := fakeProfile(f)
		if _, dup := seen[r.Key()]; dup {
			continue
		}
		seen[r.Key()] = struct{}{}
		if messy {
			mess(f, r, len(out))
		}
		out = append(out, r)
	}
	return out
}

func fakeProfile(f *gofakeit.Faker) *record.Record {
	first, last := f.FirstName(), f.LastName()
	stage := strings.TrimSpace(f.RandomString(stagePrefixes) + " " + capitalize(f.Adjective()) + " " + capitalize(f.Noun()))

	sources := make([]string, f.Number(1, 2))
	for i := range sources {
		sources[i] = f.RandomString(referralSources)
	}

	return &record.Record{
		StageName:       stage,
		FullName:        first + " " + last,
		City:            f.City(),
		State:           f.State(),
		PhoneNumber:     f.Phone(),
		ExperienceLevel: f.RandomString(experienceLevels),
		Age:             f.RandomString(ageRanges),
		Email:           strings.ToLower(first + "." + last + "@" + f.DomainName()),
		SocialMedia:     "@" + strings.ToLower(f.Username()),
		HeardAbout:      strings.Join(sources, "; "),
	}
}

func mess(f *gofakeit.Faker, r *record.Record, i int) {
	r.State = strings.ToLower(f.StateAbr())
	if len(r.PhoneNumber) == 10 {
		r.PhoneNumber = fmt.Sprintf("1 (%s) %s-%s", r.PhoneNumber[:3], r.PhoneNumber[3:6], r.PhoneNumber[6:])
	}
	r.Email = strings.ToUpper(r.Email[:1]) + r.Email[1:]
	if i%10 == 9 {
		r.Age = ""
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
