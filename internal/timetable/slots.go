// Package timetable reconstructs day × lesson-slot grids from published
// schedule documents: structured HTML tables (one column per instructor)
// and linear text streams extracted from group PDFs.
package timetable

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// SlotCount is the number of lesson slots in a day.
const SlotCount = 7

// Slots are the fixed lesson time ranges, identical across all documents.
var Slots = [SlotCount]string{
	"08:20-09:50",
	"10:00-11:30",
	"11:45-13:15",
	"14:00-15:30",
	"15:45-17:15",
	"17:20-18:50",
	"18:55-20:25",
}

// DateLayout is the dd.mm.yy format used inside documents and as grid key.
const DateLayout = "02.01.06"

var datePattern = regexp.MustCompile(`[0-3][0-9]\.[0-1][0-9]\.[0-9][0-9]`)

// SlotIndex returns the slot whose time range equals token.
func SlotIndex(token string) (int, bool) {
	token = strings.TrimSpace(token)
	for i, s := range Slots {
		if s == token {
			return i, true
		}
	}
	return -1, false
}

// Key formats a date as a grid key.
func Key(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseKey parses a grid key back into a date (UTC midnight).
func ParseKey(key string) (time.Time, error) {
	return time.Parse(DateLayout, key)
}

// Entry is one lesson of a day.
type Entry struct {
	TimeRange   string `json:"time_range"`
	Description string `json:"description"`
}

// String renders the entry as "<time_range> \n <description>".
func (e Entry) String() string {
	return e.TimeRange + " \n " + e.Description
}

// Day holds the text of each slot; an empty string means no lesson.
type Day [SlotCount]string

// Entries pairs non-empty slots with their time ranges, in slot order.
func (d Day) Entries() []Entry {
	var out []Entry
	for i, text := range d {
		if text == "" {
			continue
		}
		out = append(out, Entry{TimeRange: Slots[i], Description: text})
	}
	return out
}

// IsEmpty reports whether the day has no lessons.
func (d Day) IsEmpty() bool {
	for _, text := range d {
		if text != "" {
			return false
		}
	}
	return true
}

// Grid maps a date key (dd.mm.yy) to that day's slots.
type Grid map[string]Day

// Day returns the slots for date.
func (g Grid) Day(date time.Time) (Day, bool) {
	d, ok := g[Key(date)]
	return d, ok
}

// Dates returns the grid's keys in chronological order.
func (g Grid) Dates() []string {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	SortDates(keys)
	return keys
}

// merge adds other's days, failing on a date present in both.
func (g Grid) merge(other Grid) error {
	for k, d := range other {
		if _, dup := g[k]; dup {
			return fmt.Errorf("date %s appears twice", k)
		}
		g[k] = d
	}
	return nil
}

// SortDates sorts dd.mm.yy keys chronologically; unparsable keys sort last.
func SortDates(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		ti, errI := ParseKey(keys[i])
		tj, errJ := ParseKey(keys[j])
		switch {
		case errI != nil:
			return false
		case errJ != nil:
			return true
		}
		return ti.Before(tj)
	})
}

var spaceRun = regexp.MustCompile(`\s+`)

// normalizeText replaces non-breaking spaces and collapses whitespace.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}
