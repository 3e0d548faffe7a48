// Package export renders schedule results into calendar formats.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/garyellow/vyatsu-schedule/internal/schedule"
)

const (
	prodID       = "-//vyatsu-schedule//RU"
	dateTimeForm = schedule.DisplayLayout + " 15:04"
)

// WriteICS writes every lesson of week as a VEVENT. Days rendered as
// images carry no lesson text and are exported as one all-day event
// pointing at the image. now stamps DTSTAMP; loc interprets slot times.
func WriteICS(w io.Writer, week *schedule.WeekResult, loc *time.Location, now time.Time) error {
	if loc == nil {
		loc = time.UTC
	}
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(prodID)
	cal.SetName(week.Entity.Name)
	cal.SetXWRTimezone(loc.String())

	for _, day := range week.Days {
		switch day.Kind {
		case schedule.KindEntries:
			for _, e := range day.Entries {
				if err := addLesson(cal, week, day.Date, e.TimeRange, e.Description, loc, now); err != nil {
					return err
				}
			}
		case schedule.KindImage:
			date, err := time.ParseInLocation(schedule.DisplayLayout, day.Date, loc)
			if err != nil {
				return fmt.Errorf("parse date %q: %w", day.Date, err)
			}
			event := cal.AddEvent(eventID(week, day.Date, "image"))
			event.SetDtStampTime(now)
			event.SetAllDayStartAt(date)
			event.SetAllDayEndAt(date.AddDate(0, 0, 1))
			event.SetSummary(week.Entity.Name)
			event.SetDescription(day.ImageRef)
			if strings.HasPrefix(day.ImageRef, "http") {
				event.SetURL(day.ImageRef)
			}
		}
	}

	return cal.SerializeTo(w)
}

func addLesson(cal *ics.Calendar, week *schedule.WeekResult, date, timeRange, desc string, loc *time.Location, now time.Time) error {
	from, to, ok := strings.Cut(timeRange, "-")
	if !ok {
		return fmt.Errorf("malformed time range %q", timeRange)
	}
	start, err := time.ParseInLocation(dateTimeForm, date+" "+from, loc)
	if err != nil {
		return fmt.Errorf("parse lesson start: %w", err)
	}
	end, err := time.ParseInLocation(dateTimeForm, date+" "+to, loc)
	if err != nil {
		return fmt.Errorf("parse lesson end: %w", err)
	}

	event := cal.AddEvent(eventID(week, date, from))
	event.SetDtStampTime(now)
	event.SetStartAt(start)
	event.SetEndAt(end)
	event.SetSummary(summaryOf(desc))
	event.SetDescription(desc)
	if week.Link != "" {
		event.SetURL(week.Link)
	}
	return nil
}

// summaryOf uses the first line of a cell as the event title.
func summaryOf(desc string) string {
	first, _, _ := strings.Cut(desc, "\n")
	first = strings.TrimSpace(first)
	if first == "" {
		return strings.TrimSpace(desc)
	}
	return first
}

func eventID(week *schedule.WeekResult, date, suffix string) string {
	id := strings.ToLower(week.Entity.Name) + "-" + date + "-" + suffix
	return strings.NewReplacer(" ", "_", ":", "", ".", "").Replace(id) + "@vyatsu-schedule"
}
