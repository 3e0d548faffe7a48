package sentiment

import (
	"errors"
	"strings"
)

// ErrUnparseable indicates a model reply that names no label.
var ErrUnparseable = errors.New("unparseable sentiment reply")

// Instructions is the system prompt shared by all providers.
const Instructions = `You classify feedback that university students send to a class schedule bot.
Messages are usually in Russian. Reply with exactly one word:
positive, neutral or negative.
Complaints about wrong or missing schedules are negative.
Questions and suggestions without emotion are neutral.`

// labelWords maps reply fragments to labels. Russian stems cover models
// that answer in the message language.
var labelWords = []struct {
	word  string
	label Label
}{
	{"negative", Negative},
	{"негатив", Negative},
	{"positive", Positive},
	{"позитив", Positive},
	{"neutral", Neutral},
	{"нейтрал", Neutral},
}

// ParseLabel extracts the label from a model reply.
func ParseLabel(reply string) (Label, error) {
	s := strings.ToLower(strings.TrimSpace(reply))
	for _, lw := range labelWords {
		if strings.Contains(s, lw.word) {
			return lw.label, nil
		}
	}
	return Unknown, ErrUnparseable
}
