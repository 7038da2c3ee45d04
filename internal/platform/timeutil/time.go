// Package timeutil holds the timestamp layouts and the API timestamp type.
package timeutil

import (
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/fxamacker/cbor/v2"
)

const (
	// RFC3339Millis is the layout of API timestamps, e.g. 2024-01-15T10:30:00.000Z.
	RFC3339Millis = "2006-01-02T15:04:05.000Z"
	// RFC3339Micros is the layout of log timestamps.
	RFC3339Micros = "2006-01-02T15:04:05.000000Z"
)

// Time is a record timestamp. It always serializes as a UTC string with
// millisecond precision, in both JSON and CBOR responses.
type Time struct {
	time.Time
}

// From wraps t.
func From(t time.Time) Time {
	return Time{Time: t}
}

func (t Time) String() string {
	return t.UTC().Format(RFC3339Millis)
}

func (t Time) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON accepts any RFC 3339 timestamp. null leaves t unchanged.
func (t *Time) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return t.parse(s)
}

// MarshalCBOR encodes t as a text string in the JSON layout.
func (t Time) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(t.String())
}

func (t *Time) UnmarshalCBOR(data []byte) error {
	var s string
	if err := cbor.Unmarshal(data, &s); err != nil {
		return err
	}
	return t.parse(s)
}

func (t *Time) parse(s string) error {
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// Schema describes Time as a date-time string in the OpenAPI document.
func (Time) Schema(huma.Registry) *huma.Schema {
	return &huma.Schema{
		Type:     huma.TypeString,
		Format:   "date-time",
		Examples: []any{"2024-01-15T10:30:00.000Z"},
	}
}
