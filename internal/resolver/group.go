// Package resolver maps free-form user input to directory entities: group
// names in any of the spellings students type, and instructor surnames with
// optional initials.
package resolver

import (
	"regexp"
	"strings"

	"github.com/garyellow/vyatsu-schedule/internal/directory"
)

const levelLetters = "бсма"

var (
	// abbreviation, optional level letter, then a digit or dash
	abbrPattern = regexp.MustCompile(`([а-яё]{1,3})([бсма])?(?:-|\d)`)
	// an explicit level letter right after a letter
	levelPattern = regexp.MustCompile(`[а-яё][бсма][-\d]`)
	longNumber   = regexp.MustCompile(`\d{4}`)
	shortNumber  = regexp.MustCompile(`\d{2}`)
)

// groupQuery is the parsed form of a free-form group name.
type groupQuery struct {
	name   string   // normalized input
	abbrs  []string // candidate lowercase prefixes, in preference order
	number func(id string) bool
}

// parseGroup normalizes input and extracts the abbreviation and number
// pattern. ok is false for input that cannot name a group.
func parseGroup(input string, defaultLevel rune) (groupQuery, bool) {
	name := strings.ToLower(strings.TrimSpace(input))
	name = strings.NewReplacer(" ", "-", "_", "-").Replace(name)
	if !strings.Contains(name, "-") {
		return groupQuery{}, false
	}

	m := abbrPattern.FindStringSubmatch(name)
	if m == nil {
		return groupQuery{}, false
	}
	abbr := m[1] + m[2]

	q := groupQuery{name: name}
	if levelPattern.MatchString(name) {
		if last := []rune(abbr); strings.ContainsRune(levelLetters, last[len(last)-1]) {
			q.abbrs = append(q.abbrs, abbr)
		}
	}
	q.abbrs = append(q.abbrs, abbr+string(defaultLevel))

	runs := longNumber.FindAllString(name, -1)
	switch {
	case len(runs) > 1:
		return groupQuery{}, false
	case len(runs) == 1:
		want := runs[0]
		q.number = func(id string) bool { return strings.Contains(id, want) }
	default:
		short := shortNumber.FindString(name)
		if short == "" {
			return groupQuery{}, false
		}
		q.number = shortNumberMatcher(short)
	}
	return q, true
}

// shortNumberMatcher accepts a 4-digit id that starts with the two digits
// ("43" → 43xx) or that has them as its first and last digit ("43" → 4xx3).
func shortNumberMatcher(short string) func(string) bool {
	edges := regexp.MustCompile(regexp.QuoteMeta(short[:1]) + `\d{2}` + regexp.QuoteMeta(short[1:]))
	return func(id string) bool {
		return strings.HasPrefix(id, short) || edges.MatchString(id)
	}
}

// Canonicalize returns the directory group that input names, or "" when
// nothing matches. An exact (case-insensitive) directory name wins;
// otherwise the first group in sorted order whose abbreviation and number
// match is returned.
func Canonicalize(snap *directory.Snapshot, input string, defaultLevel rune) string {
	q, ok := parseGroup(input, defaultLevel)
	if !ok {
		return ""
	}

	for _, g := range snap.Groups {
		if strings.ToLower(g) == q.name {
			return g
		}
	}

	for _, abbr := range q.abbrs {
		for _, g := range snap.Groups {
			parts := strings.Split(strings.ToLower(g), "-")
			if len(parts) < 2 || parts[0] != abbr {
				continue
			}
			if q.number(parts[1]) {
				return g
			}
		}
	}
	return ""
}
