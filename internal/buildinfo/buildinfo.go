// Package buildinfo holds build-time metadata injected via -ldflags, e.g.
//
//	-X github.com/garyellow/vyatsu-schedule/internal/buildinfo.Version=v1.2.0
package buildinfo

import "strings"

// Set at link time; empty in development builds.
var (
	Version   = ""
	Commit    = ""
	BuildDate = ""
)

// Summary renders "v1.2.0 (abc1234, 2026-01-02T03:04:05Z)", falling back to
// "dev" and omitting unknown parts.
func Summary() string {
	v := Version
	if v == "" {
		v = "dev"
	}
	var extra []string
	if Commit != "" {
		c := Commit
		if len(c) > 7 {
			c = c[:7]
		}
		extra = append(extra, c)
	}
	if BuildDate != "" {
		extra = append(extra, BuildDate)
	}
	if len(extra) == 0 {
		return v
	}
	return v + " (" + strings.Join(extra, ", ") + ")"
}
