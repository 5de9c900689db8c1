package fhir

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Precision of a FHIR dateTime value.
type Precision string

const (
	PrecisionYear  Precision = "YYYY"
	PrecisionMonth Precision = "YYYY-MM"
	PrecisionDay   Precision = "YYYY-MM-DD"
	PrecisionFull  Precision = "FULL"
)

// DateTime represents a FHIR dateTime
type DateTime struct {
	time.Time
	Precision Precision
}

// NewDateTime creates a new DateTime from a time.Time
func NewDateTime(t time.Time) DateTime {
	return DateTime{
		Time:      t,
		Precision: PrecisionFull,
	}
}

// NewDate creates a DateTime truncated to day precision, the form Questionnaire.date is written in.
func NewDate(t time.Time) DateTime {
	return DateTime{
		Time:      t,
		Precision: PrecisionDay,
	}
}

// String returns the datetime in FHIR format based on precision
func (d DateTime) String() string {
	if d.Time.IsZero() {
		return ""
	}

	switch d.Precision {
	case PrecisionYear:
		return d.Time.Format("2006")
	case PrecisionMonth:
		return d.Time.Format("2006-01")
	case PrecisionDay:
		return d.Time.Format("2006-01-02")
	default:
		t := d.Time
		baseFormat := "2006-01-02T15:04:05.000"

		_, offset := t.Zone()
		if t.Location() == time.UTC || offset == 0 {
			return t.Format(baseFormat + "Z")
		}
		return fmt.Sprintf("%s%+03d:%02d", t.Format(baseFormat), offset/3600, (offset%3600)/60)
	}
}

// MarshalJSON implements the json.Marshaler interface
func (d DateTime) MarshalJSON() ([]byte, error) {
	if d.Time.IsZero() {
		return json.Marshal("")
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (d *DateTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" {
		d.Time = time.Time{}
		d.Precision = ""
		return nil
	}

	partial := map[int]struct {
		layout    string
		precision Precision
	}{
		4:  {"2006", PrecisionYear},
		7:  {"2006-01", PrecisionMonth},
		10: {"2006-01-02", PrecisionDay},
	}
	if p, ok := partial[len(s)]; ok {
		t, err := time.Parse(p.layout, s)
		if err != nil {
			return fmt.Errorf("invalid date format: %s", s)
		}
		d.Time = t
		d.Precision = p.precision
		return nil
	}

	var lastErr error
	for _, layout := range []string{"2006-01-02T15:04:05.000Z07:00", time.RFC3339} {
		t, err := time.Parse(layout, s)
		if err == nil {
			d.Time = t
			d.Precision = PrecisionFull
			return nil
		}
		lastErr = err
	}

	return fmt.Errorf("invalid datetime format: %s (last error: %v)", s, lastErr)
}
