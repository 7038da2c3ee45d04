// Package record implements storage, normalization, upsert and bulk import
// of DJ profile records.
package record

import (
	"strings"
	"time"
)

// Key is the case-insensitive identity of a record. No two stored records
// share a Key.
type Key struct {
	StageName string // lower-cased, trimmed
	Email     string // lower-cased, trimmed
}

// NewKey derives the Key for a stage name and email.
func NewKey(stageName, email string) Key {
	return Key{
		StageName: strings.ToLower(strings.TrimSpace(stageName)),
		Email:     strings.ToLower(strings.TrimSpace(email)),
	}
}

// Record is a stored DJ profile.
type Record struct {
	ID              string
	StageName       string
	FullName        string
	City            string
	State           string
	PhoneNumber     string
	ExperienceLevel string
	Age             string
	Email           string
	SocialMedia     string
	HeardAbout      string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Key returns the record's uniqueness key.
func (r *Record) Key() Key {
	return NewKey(r.StageName, r.Email)
}

// clone returns a copy safe to hand out from stores that keep pointers.
func (r *Record) clone() *Record {
	c := *r
	return &c
}

// Input carries the user-editable fields of a record.
type Input struct {
	StageName       string
	FullName        string
	City            string
	State           string
	PhoneNumber     string
	ExperienceLevel string
	Age             string
	Email           string
	SocialMedia     string
	HeardAbout      string
}

// Key returns the uniqueness key the input would be stored under.
func (in Input) Key() Key {
	return NewKey(in.StageName, in.Email)
}

// Missing lists the empty required fields in the order stageName,
// fullName, age, email. Values are checked after trimming.
func (in Input) Missing() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{FieldStageName, in.StageName},
		{FieldFullName, in.FullName},
		{FieldAge, in.Age},
		{FieldEmail, in.Email},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Normalize trims every field and canonicalizes phone number and state.
func (in Input) Normalize() Input {
	return Input{
		StageName:       strings.TrimSpace(in.StageName),
		FullName:        strings.TrimSpace(in.FullName),
		City:            strings.TrimSpace(in.City),
		State:           NormalizeState(in.State),
		PhoneNumber:     NormalizePhone(in.PhoneNumber),
		ExperienceLevel: strings.TrimSpace(in.ExperienceLevel),
		Age:             strings.TrimSpace(in.Age),
		Email:           strings.TrimSpace(in.Email),
		SocialMedia:     strings.TrimSpace(in.SocialMedia),
		HeardAbout:      strings.TrimSpace(in.HeardAbout),
	}
}

// toRecord builds an unsaved record from normalized input.
func (in Input) toRecord(now time.Time) *Record {
	return &Record{
		StageName:       in.StageName,
		FullName:        in.FullName,
		City:            in.City,
		State:           in.State,
		PhoneNumber:     in.PhoneNumber,
		ExperienceLevel: in.ExperienceLevel,
		Age:             in.Age,
		Email:           in.Email,
		SocialMedia:     in.SocialMedia,
		HeardAbout:      in.HeardAbout,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// UpsertResult tells whether an upsert inserted or overwrote a record.
type UpsertResult int

const (
	Created UpsertResult = iota + 1
	Updated
)

func (r UpsertResult) String() string {
	switch r {
	case Created:
		return "created"
	case Updated:
		return "updated"
	default:
		return "unknown"
	}
}
