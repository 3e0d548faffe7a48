// Package directory holds the in-memory index of everything the schedule
// site publishes: canonical group names, instructors with their departments,
// and the dated document periods of every group and department.
package directory

import (
	"slices"
	"strings"
	"time"
)

// Kind distinguishes the two entity families.
type Kind string

const (
	KindGroup      Kind = "group"
	KindInstructor Kind = "instructor"
)

// Entity is anything a schedule can be requested for. ScopeKey names the
// scope that owns the entity's documents: the group itself, or the
// instructor's department.
type Entity interface {
	Kind() Kind
	DisplayName() string
	ScopeKey() string
}

// Group is a canonical group name such as "ИВТб-4301-03-00".
type Group string

func (g Group) Kind() Kind          { return KindGroup }
func (g Group) DisplayName() string { return string(g) }
func (g Group) ScopeKey() string    { return string(g) }

// Instructor is a teaching staff member as listed in a department table.
type Instructor struct {
	Name       string `json:"name"`       // "Фамилия И.О."
	Department string `json:"department"` // full department name
}

func (i Instructor) Kind() Kind          { return KindInstructor }
func (i Instructor) DisplayName() string { return i.Name }
func (i Instructor) ScopeKey() string    { return i.Department }

// Period is one published document covering [Start, End], both inclusive.
type Period struct {
	Scope string    `json:"scope"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	URL   string    `json:"url"`
}

// Covers reports whether date falls inside the period, comparing calendar
// days only.
func (p Period) Covers(date time.Time) bool {
	d := civil(date)
	return !d.Before(civil(p.Start)) && !d.After(civil(p.End))
}

// civil drops the clock and zone, keeping the calendar day.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Snapshot is an immutable view of the directory. It is replaced as a whole
// on refresh and must not be modified after publication.
type Snapshot struct {
	Groups            []string            `json:"groups"`
	Instructors       []Instructor        `json:"instructors"`
	GroupPeriods      map[string][]Period `json:"group_periods"`
	DepartmentPeriods map[string][]Period `json:"department_periods"`
	LoadedAt          time.Time           `json:"loaded_at"`
}

// NewSnapshot builds a snapshot with deduplicated, sorted group and
// instructor lists.
func NewSnapshot(groups []string, instructors []Instructor, groupPeriods, deptPeriods map[string][]Period, loadedAt time.Time) *Snapshot {
	groups = slices.Clone(groups)
	slices.Sort(groups)
	groups = slices.Compact(groups)

	instructors = slices.Clone(instructors)
	slices.SortFunc(instructors, func(a, b Instructor) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Department, b.Department)
	})
	instructors = slices.Compact(instructors)

	if groupPeriods == nil {
		groupPeriods = map[string][]Period{}
	}
	if deptPeriods == nil {
		deptPeriods = map[string][]Period{}
	}
	return &Snapshot{
		Groups:            groups,
		Instructors:       instructors,
		GroupPeriods:      groupPeriods,
		DepartmentPeriods: deptPeriods,
		LoadedAt:          loadedAt,
	}
}

// Periods returns the documents published for entity's scope.
func (s *Snapshot) Periods(e Entity) []Period {
	switch e.Kind() {
	case KindGroup:
		return s.GroupPeriods[e.ScopeKey()]
	case KindInstructor:
		return s.DepartmentPeriods[e.ScopeKey()]
	}
	return nil
}

// HasGroup reports whether name is a known canonical group.
func (s *Snapshot) HasGroup(name string) bool {
	_, found := slices.BinarySearch(s.Groups, name)
	return found
}

// HasInstructor reports whether the exact record is in the directory.
func (s *Snapshot) HasInstructor(in Instructor) bool {
	return slices.Contains(s.Instructors, in)
}

// Departments returns the department names that publish documents, sorted.
func (s *Snapshot) Departments() []string {
	out := make([]string, 0, len(s.DepartmentPeriods))
	for name := range s.DepartmentPeriods {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Stats summarizes the snapshot for logs and metrics.
func (s *Snapshot) Stats() (groups, instructors, periods int) {
	for _, p := range s.GroupPeriods {
		periods += len(p)
	}
	for _, p := range s.DepartmentPeriods {
		periods += len(p)
	}
	return len(s.Groups), len(s.Instructors), periods
}
