package timetable

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	domerrors "github.com/garyellow/vyatsu-schedule/internal/errors"
)

// dateCellPattern matches day labels such as "Понедельник 01.09.21".
var dateCellPattern = regexp.MustCompile(`^(\p{L}+)\s+(\d{2}\.\d{2}\.\d{2})$`)

// Header cells that are not entity names.
var headerExclude = map[string]bool{"": true, "День": true, "Интервал": true}

// headerRow locates the row that names the columns. Department tables put a
// caption in the first row and the header in the second.
func headerRow(table *goquery.Selection) *goquery.Selection {
	rows := table.Find("tr")
	var found *goquery.Selection
	rows.EachWithBreak(func(_ int, row *goquery.Selection) bool {
		row.Children().Filter("td,th").EachWithBreak(func(_ int, cell *goquery.Selection) bool {
			text := normalizeText(cell.Text())
			if text == "День" || text == "Интервал" {
				found = row
				return false
			}
			return true
		})
		return found == nil
	})
	if found != nil {
		return found
	}
	if rows.Length() > 1 {
		return rows.Eq(1)
	}
	return nil
}

func cells(row *goquery.Selection) *goquery.Selection {
	return row.Children().Filter("td,th")
}

// ParseTableHeader returns the entity display names listed in the header of
// the first table in doc. Only cells carrying a name span are considered.
func ParseTableHeader(doc *goquery.Document) ([]string, error) {
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: no table", domerrors.ErrStructuralParse)
	}
	header := headerRow(table)
	if header == nil {
		return nil, fmt.Errorf("%w: no header row", domerrors.ErrStructuralParse)
	}

	var names []string
	cells(header).Each(func(_ int, cell *goquery.Selection) {
		span := cell.Find("span").First()
		if span.Length() == 0 {
			return
		}
		name := normalizeText(span.Text())
		if headerExclude[name] {
			return
		}
		names = append(names, name)
	})
	return names, nil
}

// ParseTableGrid extracts every day block of entity's column. Blocks that
// cannot be read are left out of the grid and their dates returned as
// malformed, so one broken day does not hide the rest of the document.
func ParseTableGrid(doc *goquery.Document, entity string) (grid Grid, malformed []string, err error) {
	table, col, err := locateColumn(doc, entity)
	if err != nil {
		return nil, nil, err
	}

	grid = make(Grid)
	table.Find("td").Each(func(_ int, cell *goquery.Selection) {
		date, ok := dateLabel(cell)
		if !ok {
			return
		}
		day, err := readDay(cell.Parent(), col)
		if err != nil {
			malformed = append(malformed, date)
			return
		}
		grid[date] = day
	})
	SortDates(malformed)
	return grid, malformed, nil
}

// ParseTable extracts entity's lessons on date, reading only the block that
// starts at the row labeled with date. A table without such a row yields no
// entries and no error.
func ParseTable(doc *goquery.Document, entity string, date time.Time) ([]Entry, error) {
	table, col, err := locateColumn(doc, entity)
	if err != nil {
		return nil, err
	}

	key := Key(date)
	var label *goquery.Selection
	table.Find("td").EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		if d, ok := dateLabel(cell); ok && d == key {
			label = cell
			return false
		}
		return true
	})
	if label == nil {
		return nil, nil
	}

	day, err := readDay(label.Parent(), col)
	if err != nil {
		return nil, fmt.Errorf("%w: day %s: %v", domerrors.ErrStructuralParse, key, err)
	}
	return day.Entries(), nil
}

func locateColumn(doc *goquery.Document, entity string) (*goquery.Selection, int, error) {
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, 0, fmt.Errorf("%w: no table", domerrors.ErrStructuralParse)
	}
	col, err := entityColumn(table, entity)
	if err != nil {
		return nil, 0, err
	}
	return table, col, nil
}

func entityColumn(table *goquery.Selection, entity string) (int, error) {
	header := headerRow(table)
	if header == nil {
		return 0, fmt.Errorf("%w: no header row", domerrors.ErrStructuralParse)
	}
	entity = normalizeText(entity)
	col := -1
	cells(header).EachWithBreak(func(i int, cell *goquery.Selection) bool {
		if normalizeText(cell.Text()) == entity {
			col = i
			return false
		}
		return true
	})
	if col < 0 {
		return 0, fmt.Errorf("%w: %q", domerrors.ErrEntityColumnNotFound, entity)
	}
	return col, nil
}

// dateLabel reports the dd.mm.yy key of a day label cell. The update stamp
// in the table caption also carries a date and is skipped.
func dateLabel(cell *goquery.Selection) (string, bool) {
	m := dateCellPattern.FindStringSubmatch(normalizeText(cell.Text()))
	if m == nil {
		return "", false
	}
	if strings.HasPrefix(strings.ToLower(m[1]), "обновлен") {
		return "", false
	}
	if _, err := ParseKey(m[2]); err != nil {
		return "", false
	}
	return m[2], true
}

// readDay reads col across the day's rows. The first row carries the
// row-spanning day label, so later rows are shifted left by the number of
// cells they lack.
func readDay(first *goquery.Selection, col int) (Day, error) {
	var day Day
	width := cells(first).Length()
	row := first
	for slot := range SlotCount {
		if row.Length() == 0 {
			return day, fmt.Errorf("block ends after %d rows", slot)
		}
		rowCells := cells(row)
		idx := col - (width - rowCells.Length())
		if idx < 0 || idx >= rowCells.Length() {
			return day, fmt.Errorf("row %d has no column %d", slot, idx)
		}
		day[slot] = normalizeText(rowCells.Eq(idx).Text())
		row = row.Next()
	}
	return day, nil
}
