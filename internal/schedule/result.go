package schedule

import (
	"strings"

	"github.com/garyellow/vyatsu-schedule/internal/directory"
	"github.com/garyellow/vyatsu-schedule/internal/timetable"
)

// Kind tells which of the result fields carry the outcome.
type Kind string

const (
	KindEntries    Kind = "entries"
	KindImage      Kind = "image"
	KindNoDocument Kind = "no_document"
	KindNoLessons  Kind = "no_lessons"
)

// Diagnostic codes attached to results.
const (
	DiagMultiplePeriods = "MultiplePeriodsMatched"
	DiagImageFallback   = "ImageFallback"
	DiagMalformedDays   = "MalformedDaysSkipped"
)

// EntityRef identifies the resolved group or instructor.
type EntityRef struct {
	Kind  directory.Kind `json:"kind"`
	Name  string         `json:"name"`
	Scope string         `json:"scope"`
}

func refOf(e directory.Entity) EntityRef {
	return EntityRef{Kind: e.Kind(), Name: e.DisplayName(), Scope: e.ScopeKey()}
}

// Result is the outcome of a single-day query. Entries and ImageRef are
// never both set.
type Result struct {
	Kind        Kind              `json:"kind"`
	Entity      EntityRef         `json:"entity"`
	Date        string            `json:"date"`
	Entries     []timetable.Entry `json:"entries,omitempty"`
	ImageRef    string            `json:"image_ref,omitempty"`
	Link        string            `json:"link,omitempty"`
	Diagnostics []string          `json:"diagnostics,omitempty"`
}

// Text renders entries the way chat clients display them, one block per
// lesson.
func (r *Result) Text() string {
	parts := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		parts[i] = e.String()
	}
	return strings.Join(parts, "\n\n")
}

// Day is one date of a week result.
type Day struct {
	Date     string            `json:"date"`
	Kind     Kind              `json:"kind"`
	Entries  []timetable.Entry `json:"entries,omitempty"`
	ImageRef string            `json:"image_ref,omitempty"`
}

// WeekResult holds every date published in the document covering a date.
type WeekResult struct {
	Kind        Kind      `json:"kind"` // KindEntries, KindImage or KindNoDocument
	Entity      EntityRef `json:"entity"`
	Link        string    `json:"link,omitempty"`
	Start       string    `json:"start,omitempty"`
	End         string    `json:"end,omitempty"`
	Days        []Day     `json:"days,omitempty"`
	Diagnostics []string  `json:"diagnostics,omitempty"`
}

// LinkResult is the document link for a date without fetching it.
type LinkResult struct {
	Entity      EntityRef `json:"entity"`
	Found       bool      `json:"found"`
	Link        string    `json:"link,omitempty"`
	Start       string    `json:"start,omitempty"`
	End         string    `json:"end,omitempty"`
	Diagnostics []string  `json:"diagnostics,omitempty"`
}
