package schedule

import (
	"strings"
	"time"

	domerrors "github.com/garyellow/vyatsu-schedule/internal/errors"
)

// DisplayLayout is the date format used in results and accepted from users.
const DisplayLayout = "02.01.2006"

var relativeDays = map[string]int{
	"":          0,
	"today":     0,
	"сегодня":   0,
	"tomorrow":  1,
	"завтра":    1,
	"yesterday": -1,
	"вчера":     -1,
}

var dateLayouts = []string{DisplayLayout, "02.01.06", time.DateOnly}

// ParseDate interprets a user date relative to now. It accepts today,
// tomorrow and yesterday (English or Russian), dd.mm.yyyy, dd.mm.yy,
// yyyy-mm-dd and dd.mm in the current year. The result is midnight in
// now's location.
func ParseDate(input string, now time.Time) (time.Time, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	if offset, ok := relativeDays[s]; ok {
		return today.AddDate(0, 0, offset), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	if t, err := time.ParseInLocation("02.01", s, loc); err == nil {
		return time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
	}
	return time.Time{}, domerrors.NewValidationError("date", "expected dd.mm.yyyy, today or tomorrow, got "+input)
}
