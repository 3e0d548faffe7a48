package sentiment

import (
	"errors"
	"testing"
)

func TestParseLabel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		reply   string
		want    Label
		wantErr bool
	}{
		{reply: "positive", want: Positive},
		{reply: "  Negative.\n", want: Negative},
		{reply: "NEUTRAL", want: Neutral},
		{reply: "Нейтрально", want: Neutral},
		{reply: "позитивный", want: Positive},
		{reply: "негативный отзыв", want: Negative},
		{reply: "not positive, negative", want: Negative},
		{reply: "", want: Unknown, wantErr: true},
		{reply: "I cannot tell", want: Unknown, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			t.Parallel()
			got, err := ParseLabel(tt.reply)
			if tt.wantErr {
				if !errors.Is(err, ErrUnparseable) {
					t.Fatalf("ParseLabel(%q) error = %v, want ErrUnparseable", tt.reply, err)
				}
			} else if err != nil {
				t.Fatalf("ParseLabel(%q) unexpected error: %v", tt.reply, err)
			}
			if got != tt.want {
				t.Errorf("ParseLabel(%q) = %q, want %q", tt.reply, got, tt.want)
			}
		})
	}
}
