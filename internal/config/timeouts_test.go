package config

import (
	"testing"
	"time"
)

// TestTimeoutRelationships verifies timeouts that depend on each other stay ordered
func TestTimeoutRelationships(t *testing.T) {
	tests := []struct {
		name    string
		shorter time.Duration
		longer  time.Duration
	}{
		{"query fits in write timeout", QueryProcessing, HTTPWrite},
		{"request fits in query", ScraperRequest, QueryProcessing},
		{"read shorter than idle", HTTPRead, HTTPIdle},
		{"retry delay shorter than request", ScraperRetryInitial, ScraperRequest},
		{"load shorter than refresh", DirectoryLoad, DirectoryRefresh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shorter >= tt.longer {
				t.Errorf("expected %v < %v", tt.shorter, tt.longer)
			}
		})
	}
}

// TestDatabaseTimeouts verifies database-related timeout constants
func TestDatabaseTimeouts(t *testing.T) {
	tests := []struct {
		name     string
		got      time.Duration
		expected time.Duration
	}{
		{"DatabaseBusyTimeout", DatabaseBusyTimeout, 10 * time.Second},
		{"DatabaseConnMaxLifetime", DatabaseConnMaxLifetime, time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}
}
