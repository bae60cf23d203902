package releases

import (
	"time"
)

// Window is the playlist bucket a release falls into relative to the cycle's clock.
type Window int

const (
	Skip     Window = iota // Unparseable, or recent but in neither bucket
	ThisWeek               // Current week, Monday through Sunday; goes to the current playlist
	Archive                // Between the archive horizon and one week ago; goes to the archive playlist
	TooOld                 // Older than the archive horizon, or only known to the year
)

func (w Window) String() string {
	switch w {
	case ThisWeek:
		return "this_week"
	case Archive:
		return "archive"
	case TooOld:
		return "too_old"
	default:
		return "skip"
	}
}

// Classifier places release dates relative to one fixed instant.
//
// A pipeline run builds a single Classifier so every track is judged against the same clock.
// All comparisons are on calendar days in Now's location.
type Classifier struct {
	Now         time.Time
	ArchiveDays int
}

// NewClassifier returns a Classifier pinned to now.
func NewClassifier(now time.Time, archiveDays int) Classifier {
	return Classifier{Now: now, ArchiveDays: archiveDays}
}

func (c Classifier) today() time.Time {
	return civil(c.Now)
}

// clamp treats releases dated in the future as released today.
func (c Classifier) clamp(d ReleaseDate) time.Time {
	if today := c.today(); d.Day.After(today) {
		return today
	}
	return d.Day
}

// WeekStart returns the Monday of the week containing Now.
func (c Classifier) WeekStart() time.Time {
	today := c.today()
	offset := (int(today.Weekday()) + 6) % 7
	return today.AddDate(0, 0, -offset)
}

// IsThisWeek reports whether d falls in the Monday to Sunday week containing Now.
// Only day precision can be placed within a week.
func (c Classifier) IsThisWeek(d ReleaseDate) bool {
	if d.Precision != PrecisionDay {
		return false
	}

	day := c.clamp(d)
	start := c.WeekStart()
	end := start.AddDate(0, 0, 6)
	return !day.Before(start) && !day.After(end)
}

// InArchiveWindow reports whether d is within [Now - ArchiveDays, Now].
// Year precision is too coarse and never matches.
func (c Classifier) InArchiveWindow(d ReleaseDate) bool {
	if d.Precision == PrecisionYear || d.Precision == PrecisionNone {
		return false
	}

	day := c.clamp(d)
	cutoff := c.today().AddDate(0, 0, -c.ArchiveDays)
	return !day.Before(cutoff)
}

// InArchivePeriod reports whether d is within [Now - ArchiveDays, Now - 7 days].
func (c Classifier) InArchivePeriod(d ReleaseDate) bool {
	if d.Precision == PrecisionYear || d.Precision == PrecisionNone {
		return false
	}

	day := c.clamp(d)
	today := c.today()
	oldest := today.AddDate(0, 0, -c.ArchiveDays)
	newest := today.AddDate(0, 0, -7)
	return !day.Before(oldest) && !day.After(newest)
}

// Classify parses raw and returns its window.
//
// A parse failure yields [Skip] together with the parse error, which callers surface as a warning.
func (c Classifier) Classify(raw string) (Window, error) {
	d, err := ParseReleaseDate(raw)
	if err != nil {
		return Skip, err
	}
	return c.ClassifyDate(d), nil
}

// ClassifyDate returns the window of an already parsed date.
func (c Classifier) ClassifyDate(d ReleaseDate) Window {
	switch {
	case !c.InArchiveWindow(d):
		return TooOld
	case c.IsThisWeek(d):
		return ThisWeek
	case c.InArchivePeriod(d):
		return Archive
	default:
		return Skip
	}
}
