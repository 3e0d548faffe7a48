// Package vyatsu scrapes the schedule index pages of vyatsu.ru and builds
// the directory snapshot from them.
package vyatsu

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/garyellow/vyatsu-schedule/internal/directory"
)

var (
	// GroupPattern matches canonical group names such as "ИВТб-4301-03-00".
	GroupPattern = regexp.MustCompile(`[А-Яа-яЁё]{1,3}[бсма]-\d{4}-\d{2}-\d{2}`)

	// Period links read "с 01 09 2021 по 31 12 2021".
	periodDatePattern = regexp.MustCompile(`\d{2} \d{2} \d{4}`)

	spaceRun = regexp.MustCompile(`\s+`)
)

func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

// parsePeriods reads the period links listed next to a scope marker.
// Links without exactly two dates are skipped.
func parsePeriods(marker *goquery.Selection, scope string, base *url.URL) []directory.Period {
	var periods []directory.Period
	list := marker.NextAllFiltered("div.listPeriod").First()
	if list.Length() == 0 {
		list = marker.Parent().Find("div.listPeriod").First()
	}
	list.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		dates := periodDatePattern.FindAllString(strings.ReplaceAll(a.Text(), "\n", ""), -1)
		if len(dates) != 2 {
			return
		}
		start, err := time.Parse("02 01 2006", dates[0])
		if err != nil {
			return
		}
		end, err := time.Parse("02 01 2006", dates[1])
		if err != nil {
			return
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		periods = append(periods, directory.Period{
			Scope: scope,
			Start: start,
			End:   end,
			URL:   base.ResolveReference(ref).String(),
		})
	})
	return periods
}

// ParseDepartmentIndex extracts every department and its published periods
// from the instructor schedule index. A department listed more than once
// accumulates the periods of all its entries.
func ParseDepartmentIndex(doc *goquery.Document, base *url.URL) map[string][]directory.Period {
	out := make(map[string][]directory.Period)
	doc.Find("div.kafPeriod").Each(func(_ int, s *goquery.Selection) {
		name := cleanText(s.Text())
		if name == "" {
			return
		}
		out[name] = append(out[name], parsePeriods(s, name, base)...)
	})
	return out
}

// ParseGroupIndex extracts the full-time group names and their periods from
// the student schedule index. Names are collected from the whole page so
// that groups without a published document are still known.
func ParseGroupIndex(doc *goquery.Document, base *url.URL) ([]string, map[string][]directory.Period) {
	periods := make(map[string][]directory.Period)
	doc.Find("div.grpPeriod").Each(func(_ int, s *goquery.Selection) {
		name := GroupPattern.FindString(s.Text())
		if name == "" {
			return
		}
		periods[name] = append(periods[name], parsePeriods(s, name, base)...)
	})

	seen := make(map[string]bool)
	var groups []string
	for _, name := range GroupPattern.FindAllString(doc.Text(), -1) {
		if !seen[name] {
			seen[name] = true
			groups = append(groups, name)
		}
	}
	for name := range periods {
		if !seen[name] {
			seen[name] = true
			groups = append(groups, name)
		}
	}
	return groups, periods
}

// pickPeriod chooses the department document used to list instructors: the
// one covering now, else the next upcoming, else the most recent.
func pickPeriod(periods []directory.Period, now time.Time) (directory.Period, bool) {
	var upcoming, recent *directory.Period
	for i := range periods {
		p := &periods[i]
		if p.Covers(now) {
			return *p, true
		}
		if p.Start.After(now) {
			if upcoming == nil || p.Start.Before(upcoming.Start) {
				upcoming = p
			}
		} else if recent == nil || p.End.After(recent.End) {
			recent = p
		}
	}
	switch {
	case upcoming != nil:
		return *upcoming, true
	case recent != nil:
		return *recent, true
	}
	return directory.Period{}, false
}
