package buildinfo

import "testing"

func TestSummary(t *testing.T) {
	orig := [3]string{Version, Commit, BuildDate}
	t.Cleanup(func() { Version, Commit, BuildDate = orig[0], orig[1], orig[2] })

	tests := []struct {
		name                  string
		version, commit, date string
		want                  string
	}{
		{"development", "", "", "", "dev"},
		{"version only", "v1.2.0", "", "", "v1.2.0"},
		{"full", "v1.2.0", "abc1234def", "2026-01-02T03:04:05Z", "v1.2.0 (abc1234, 2026-01-02T03:04:05Z)"},
		{"commit without version", "", "abc", "", "dev (abc)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Version, Commit, BuildDate = tt.version, tt.commit, tt.date
			if got := Summary(); got != tt.want {
				t.Errorf("Summary() = %q, want %q", got, tt.want)
			}
		})
	}
}
