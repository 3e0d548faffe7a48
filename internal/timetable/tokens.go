package timetable

import (
	"fmt"
	"strings"

	domerrors "github.com/garyellow/vyatsu-schedule/internal/errors"
)

// Sentinel is the "approved by" stamp that closes the last day block of a page.
const Sentinel = "УТВЕРЖДАЮ"

// Weekdays are the weekday names as printed in group documents.
var Weekdays = [7]string{
	"понедельник",
	"вторник",
	"среда",
	"четверг",
	"пятница",
	"суббота",
	"воскресенье",
}

// Tokenize splits extracted page text into line tokens.
func Tokenize(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, normalizeText(line))
	}
	return out
}

func isWeekday(token string) bool {
	for _, w := range Weekdays {
		if strings.HasPrefix(token, w) {
			return true
		}
	}
	return false
}

// dateAt returns the date printed on the weekday line at i or on the line after it.
func dateAt(tokens []string, i int) (string, bool) {
	if d := datePattern.FindString(tokens[i]); d != "" {
		return d, true
	}
	if i+1 < len(tokens) {
		if d := datePattern.FindString(tokens[i+1]); d != "" {
			return d, true
		}
	}
	return "", false
}

// FindDates returns the dates attached to every weekday line, sorted
// chronologically. A weekday without a date yields ErrDateNotFound.
func FindDates(tokens []string) ([]string, error) {
	var dates []string
	for i, token := range tokens {
		if !isWeekday(token) {
			continue
		}
		d, ok := dateAt(tokens, i)
		if !ok {
			return nil, fmt.Errorf("%w: %q at line %d", domerrors.ErrDateNotFound, token, i)
		}
		dates = append(dates, d)
	}
	SortDates(dates)
	return dates, nil
}

type segment struct {
	date  string
	start int // index of the weekday token
	end   int // exclusive
}

// segments splits tokens into day blocks. A block runs from a weekday line to
// the next weekday line, the sentinel, or the end of the stream.
func segments(tokens []string) ([]segment, error) {
	var out []segment
	open := -1
	closeAt := func(end int) {
		if open >= 0 {
			out[open].end = end
			open = -1
		}
	}
	for i, token := range tokens {
		switch {
		case isWeekday(token):
			closeAt(i)
			d, ok := dateAt(tokens, i)
			if !ok {
				return nil, fmt.Errorf("%w: %q at line %d", domerrors.ErrDateNotFound, token, i)
			}
			out = append(out, segment{date: d, start: i})
			open = len(out) - 1
		case token == Sentinel:
			closeAt(i)
		}
	}
	closeAt(len(tokens))
	return out, nil
}

// ParseTokens reconstructs a grid from the line tokens of one page.
//
// Inside a day block each time label selects the active slot and the lines
// that follow it are appended to that slot. Lines before the first label
// (the weekday and date) are dropped. Every block must carry all seven
// labels exactly once and in slot order; otherwise the page layout was not
// understood and ErrStructuralParse is returned.
func ParseTokens(tokens []string) (Grid, error) {
	segs, err := segments(tokens)
	if err != nil {
		return nil, err
	}
	if pos, ok := strayLabel(tokens, segs); ok {
		return nil, fmt.Errorf("%w: time label %q at line %d is outside any day block",
			domerrors.ErrStructuralParse, tokens[pos], pos)
	}

	grid := make(Grid, len(segs))
	for _, seg := range segs {
		day, err := parseSegment(tokens[seg.start:seg.end])
		if err != nil {
			return nil, fmt.Errorf("%w: day %s: %v", domerrors.ErrStructuralParse, seg.date, err)
		}
		if _, dup := grid[seg.date]; dup {
			return nil, fmt.Errorf("%w: date %s appears twice", domerrors.ErrStructuralParse, seg.date)
		}
		grid[seg.date] = day
	}
	return grid, nil
}

// strayLabel finds a time label that belongs to no day block.
func strayLabel(tokens []string, segs []segment) (int, bool) {
	inside := make([]bool, len(tokens))
	for _, seg := range segs {
		for i := seg.start; i < seg.end; i++ {
			inside[i] = true
		}
	}
	for i, token := range tokens {
		if _, ok := SlotIndex(token); ok && !inside[i] {
			return i, true
		}
	}
	return 0, false
}

func parseSegment(tokens []string) (Day, error) {
	var day Day
	current := -1
	lastLabel := -1
	for pos, token := range tokens {
		if slot, ok := SlotIndex(token); ok {
			if slot != lastLabel+1 {
				return day, fmt.Errorf("label %s at line %d out of order after %d labels", Slots[slot], pos, lastLabel+1)
			}
			lastLabel = slot
			current = slot
			continue
		}
		if current < 0 || token == "" {
			continue
		}
		if day[current] == "" {
			day[current] = token
		} else {
			day[current] += " " + token
		}
	}
	if lastLabel != SlotCount-1 {
		return day, fmt.Errorf("block ends after %d of %d time labels", lastLabel+1, SlotCount)
	}
	return day, nil
}

// ParsePages parses each page independently and merges the results.
func ParsePages(pages [][]string) (Grid, error) {
	grid := make(Grid)
	for i, tokens := range pages {
		pageGrid, err := ParseTokens(tokens)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		if err := grid.merge(pageGrid); err != nil {
			return nil, fmt.Errorf("page %d: %w: %v", i+1, domerrors.ErrStructuralParse, err)
		}
	}
	return grid, nil
}
