package resolver

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/garyellow/vyatsu-schedule/internal/directory"
)

// initial returns the upper-cased first letter of s followed by a dot.
func initial(s string) string {
	r, _ := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + "."
}

// InstructorPattern builds the substring searched for in directory names:
//
//	"чистяков"            → "Чистяков "
//	"чистяков г"          → "Чистяков Г."
//	"чистяков ген"        → "Чистяков Г."
//	"чистяков г.а."       → "Чистяков Г.А."
//	"чистяков ген андр"   → "Чистяков Г.А."
//
// Only the first three words are used. Empty input yields "".
func InstructorPattern(input string) string {
	words := strings.Fields(input)
	if len(words) == 0 {
		return ""
	}
	if len(words) > 3 {
		words = words[:3]
	}
	surname := cases.Title(language.Russian).String(words[0])
	given := words[1:]

	switch len(given) {
	case 0:
		return surname + " "
	case 1:
		name := given[0]
		if utf8.RuneCountInString(name) >= 2 {
			parts := strings.Split(name, ".")
			if len(parts) > 1 && parts[0] != "" && parts[1] != "" {
				return surname + " " + initial(parts[0]) + initial(parts[1])
			}
		}
		return surname + " " + initial(name)
	default:
		return surname + " " + initial(given[0]) + initial(given[1])
	}
}

// FindInstructor returns every directory instructor whose name contains the
// pattern built from input. The result may be empty or hold several records.
func FindInstructor(snap *directory.Snapshot, input string) []directory.Instructor {
	pattern := InstructorPattern(input)
	if pattern == "" {
		return nil
	}
	var out []directory.Instructor
	for _, in := range snap.Instructors {
		if strings.Contains(in.Name, pattern) {
			out = append(out, in)
		}
	}
	return out
}
