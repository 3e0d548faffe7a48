package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/vyatsu-schedule/internal/directory"
	"github.com/garyellow/vyatsu-schedule/internal/schedule"
	"github.com/garyellow/vyatsu-schedule/internal/timetable"
)

func TestWriteICS(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("MSK", 3*60*60)
	week := &schedule.WeekResult{
		Kind:   schedule.KindEntries,
		Entity: schedule.EntityRef{Kind: directory.KindGroup, Name: "ИВТб-4303-00-00"},
		Link:   "https://example.org/g.pdf",
		Days: []schedule.Day{
			{
				Date: "06.09.2021",
				Kind: schedule.KindEntries,
				Entries: []timetable.Entry{
					{TimeRange: "08:20-09:50", Description: "Математика\nЛекция 1-210"},
					{TimeRange: "10:00-11:30", Description: "Физика"},
				},
			},
			{Date: "07.09.2021", Kind: schedule.KindNoLessons},
			{Date: "08.09.2021", Kind: schedule.KindImage, ImageRef: "https://cdn.example.org/p2.png"},
		},
	}

	var buf bytes.Buffer
	now := time.Date(2021, 9, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, WriteICS(&buf, week, loc, now))
	out := buf.String()

	assert.Equal(t, 3, strings.Count(out, "BEGIN:VEVENT"))
	assert.Contains(t, out, "SUMMARY:Математика")
	assert.Contains(t, out, "SUMMARY:Физика")
	assert.Contains(t, out, "DTSTART:20210906T052000Z")
	assert.Contains(t, out, "DTEND:20210906T065000Z")
	assert.Contains(t, out, "p2.png")
	assert.Contains(t, out, "METHOD:PUBLISH")
}

func TestWriteICS_MalformedTimeRange(t *testing.T) {
	t.Parallel()
	week := &schedule.WeekResult{
		Days: []schedule.Day{{
			Date:    "06.09.2021",
			Kind:    schedule.KindEntries,
			Entries: []timetable.Entry{{TimeRange: "утро", Description: "x"}},
		}},
	}
	err := WriteICS(&bytes.Buffer{}, week, time.UTC, time.Now())
	assert.Error(t, err)
}

func TestSummaryOf(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Математика", summaryOf("Математика\nЛекция"))
	assert.Equal(t, "Физика", summaryOf("  Физика  "))
}
