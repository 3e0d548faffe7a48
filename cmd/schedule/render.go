package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"

	"github.com/garyellow/vyatsu-schedule/internal/schedule"
	"github.com/garyellow/vyatsu-schedule/internal/timetable"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true).Padding(1, 0, 0, 0)
	dateStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	timeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	linkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Underline(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	lessonBox  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

// runWithSpinner shows a spinner while action runs. Without a terminal the
// action runs directly.
func runWithSpinner(title string, action func()) {
	ran := false
	err := spinner.New().Title(title).Action(func() {
		ran = true
		action()
	}).Run()
	if err != nil && !ran {
		action()
	}
}

func renderHeader(w io.Writer, ref schedule.EntityRef) {
	title := ref.Name
	if ref.Scope != "" && ref.Scope != ref.Name {
		title += mutedStyle.Render("  " + ref.Scope)
	}
	fmt.Fprintln(w, titleStyle.Render(title))
}

func renderEntry(e timetable.Entry) string {
	return lessonBox.Render(timeStyle.Render(e.TimeRange) + "\n" + strings.TrimSpace(e.Description))
}

// renderDay prints one day's outcome below its date line.
func renderDay(w io.Writer, date string, kind schedule.Kind, entries []timetable.Entry, imageRef string) {
	fmt.Fprintln(w, dateStyle.Render(date))
	switch kind {
	case schedule.KindEntries:
		for _, e := range entries {
			fmt.Fprintln(w, renderEntry(e))
		}
	case schedule.KindImage:
		fmt.Fprintln(w, warnStyle.Render("The document could not be read as text. Page image:"))
		fmt.Fprintln(w, linkStyle.Render(imageRef))
	case schedule.KindNoLessons:
		fmt.Fprintln(w, mutedStyle.Render("No lessons."))
	case schedule.KindNoDocument:
		fmt.Fprintln(w, mutedStyle.Render("No schedule is published for this date."))
	}
}

func renderResult(w io.Writer, res *schedule.Result) {
	renderHeader(w, res.Entity)
	renderDay(w, res.Date, res.Kind, res.Entries, res.ImageRef)
	renderFooter(w, res.Link, res.Diagnostics)
}

func renderWeek(w io.Writer, week *schedule.WeekResult) {
	renderHeader(w, week.Entity)
	if week.Kind == schedule.KindNoDocument {
		fmt.Fprintln(w, mutedStyle.Render("No schedule is published for this date."))
		return
	}
	fmt.Fprintln(w, mutedStyle.Render(week.Start+" - "+week.End))
	for _, d := range week.Days {
		fmt.Fprintln(w)
		renderDay(w, d.Date, d.Kind, d.Entries, d.ImageRef)
	}
	renderFooter(w, week.Link, week.Diagnostics)
}

func renderLink(w io.Writer, link *schedule.LinkResult) {
	renderHeader(w, link.Entity)
	if !link.Found {
		fmt.Fprintln(w, mutedStyle.Render("No schedule is published for this date."))
		return
	}
	fmt.Fprintln(w, mutedStyle.Render(link.Start+" - "+link.End))
	renderFooter(w, link.Link, link.Diagnostics)
}

func renderFooter(w io.Writer, link string, diags []string) {
	if link != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, linkStyle.Render(link))
	}
	if len(diags) > 0 {
		fmt.Fprintln(w, mutedStyle.Render("notes: "+strings.Join(diags, ", ")))
	}
}
