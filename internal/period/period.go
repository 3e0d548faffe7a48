// Package period picks the published document that covers a date.
package period

import (
	"fmt"
	"time"

	"github.com/garyellow/vyatsu-schedule/internal/directory"
	domerrors "github.com/garyellow/vyatsu-schedule/internal/errors"
)

// Resolution is the outcome of Resolve.
type Resolution struct {
	Period directory.Period
	// Matches is the number of periods that cover the date. The publisher
	// never overlaps periods of one scope; Matches > 1 means it did and the
	// first listed period was chosen.
	Matches int
}

// Ambiguous reports whether more than one period covered the date.
func (r Resolution) Ambiguous() bool {
	return r.Matches > 1
}

// Resolve returns the first period that covers date, in publication order.
// No covering period yields ErrNoDocumentForDate.
func Resolve(periods []directory.Period, date time.Time) (Resolution, error) {
	var res Resolution
	for _, p := range periods {
		if !p.Covers(date) {
			continue
		}
		if res.Matches == 0 {
			res.Period = p
		}
		res.Matches++
	}
	if res.Matches == 0 {
		return res, fmt.Errorf("%w: %s", domerrors.ErrNoDocumentForDate, date.Format("02.01.2006"))
	}
	return res, nil
}
