package main

import (
	"strings"
	"testing"
	"time"

	"github.com/garyellow/vyatsu-schedule/internal/directory"
)

func TestSummary(t *testing.T) {
	start := time.Date(2021, 9, 6, 0, 0, 0, 0, time.UTC)
	snap := directory.NewSnapshot(
		[]string{"ИВТб-4301-03-00", "ИВТб-4302-03-00"},
		[]directory.Instructor{{Name: "Иванов А.А.", Department: "Кафедра физики (ОРУ)"}},
		map[string][]directory.Period{
			"ИВТб-4301-03-00": {{Scope: "ИВТб-4301-03-00", Start: start, End: start.AddDate(0, 0, 13), URL: "https://example.org/a.pdf"}},
		},
		map[string][]directory.Period{
			"Кафедра физики (ОРУ)": {{Scope: "Кафедра физики (ОРУ)", Start: start, End: start.AddDate(0, 0, 13), URL: "https://example.org/b.html"}},
		},
		start,
	)

	got := summary(snap, 1500*time.Millisecond)
	for _, want := range []string{"2 groups", "1 instructors", "2 documents", "1 departments", "2s"} {
		if !strings.Contains(got, want) {
			t.Errorf("summary() = %q, missing %q", got, want)
		}
	}
}
