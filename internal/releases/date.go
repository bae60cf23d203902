// Package releases classifies partial-precision release dates into the playlist windows of an update cycle.
package releases

import (
	"fmt"
	"time"

	"github.com/naestech/newNoise/internal/shared"
)

// Precision is the granularity of a catalog release date.
type Precision int

const (
	PrecisionNone  Precision = iota // Unparseable
	PrecisionYear                   // "2024"
	PrecisionMonth                  // "2024-05"
	PrecisionDay                    // "2024-05-15"
)

func (p Precision) String() string {
	switch p {
	case PrecisionYear:
		return "year"
	case PrecisionMonth:
		return "month"
	case PrecisionDay:
		return "day"
	default:
		return "none"
	}
}

var layouts = map[int]struct {
	layout    string
	precision Precision
}{
	4:  {"2006", PrecisionYear},
	7:  {"2006-01", PrecisionMonth},
	10: {"2006-01-02", PrecisionDay},
}

// ReleaseDate is a release date normalized to a calendar day, keeping the precision it was published with.
//
// Year precision normalizes to January 1st and month precision to the 1st of the month.
type ReleaseDate struct {
	Raw       string
	Day       time.Time // Midnight UTC of the normalized day
	Precision Precision
}

// ParseReleaseDate parses YYYY, YYYY-MM or YYYY-MM-DD.
//
// Any other input returns an error wrapping [shared.ErrDateParse].
func ParseReleaseDate(raw string) (ReleaseDate, error) {
	format, ok := layouts[len(raw)]
	if !ok {
		return ReleaseDate{Raw: raw}, fmt.Errorf("%w: %q", shared.ErrDateParse, raw)
	}

	day, err := time.Parse(format.layout, raw)
	if err != nil {
		return ReleaseDate{Raw: raw}, fmt.Errorf("%w: %q", shared.ErrDateParse, raw)
	}

	return ReleaseDate{Raw: raw, Day: day, Precision: format.precision}, nil
}

// civil returns the calendar date of t in t's own location as midnight UTC,
// so that day arithmetic ignores DST and time of day.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
