package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Setenv(EnvDataDir, t.TempDir())
	t.Setenv(EnvScraperMaxRetries, "5")
	t.Setenv(EnvSentimentProviders, " OpenAI, ,gemini ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "10000" {
		t.Errorf("Expected default port '10000', got '%s'", cfg.Port)
	}

	if cfg.ScraperMaxRetries != 5 {
		t.Errorf("Expected max retries 5, got %d", cfg.ScraperMaxRetries)
	}

	if cfg.DefaultLevelRune() != 'б' {
		t.Errorf("Expected default level 'б', got %q", cfg.DefaultLevelRune())
	}

	if got := strings.Join(cfg.SentimentProviders, ","); got != "openai,gemini" {
		t.Errorf("Expected providers 'openai,gemini', got '%s'", got)
	}

	want := "https://www.vyatsu.ru/studentu-1/spravochnaya-informatsiya/teacher.html"
	if cfg.TeacherIndexURL() != want {
		t.Errorf("TeacherIndexURL() = %q, want %q", cfg.TeacherIndexURL(), want)
	}
}

func TestLoad_TrimsBaseURL(t *testing.T) {
	t.Setenv(EnvDataDir, t.TempDir())
	t.Setenv(EnvBaseURL, "http://127.0.0.1:8080/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.StudentIndexURL() != "http://127.0.0.1:8080/studentu-1/spravochnaya-informatsiya/raspisanie-zanyatiy-dlya-studentov.html" {
		t.Errorf("unexpected student index URL %q", cfg.StudentIndexURL())
	}
}

func validConfig() *Config {
	return &Config{
		Port:                     "10000",
		DataDir:                  "/data",
		BaseURL:                  "https://www.vyatsu.ru",
		TeacherIndexPath:         "/teacher.html",
		StudentIndexPath:         "/students.html",
		DefaultLevel:             "б",
		ScraperTimeout:           20 * time.Second,
		ScraperMaxRetries:        3,
		ScraperWorkers:           4,
		DirectoryRefreshInterval: time.Hour,
		Timezone:                 "UTC",
		APIRateBurst:             20,
		APIRateRefill:            2,
		SentrySampleRate:         1,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errContains string
	}{
		{
			name:        "zero api refill",
			mutate:      func(c *Config) { c.APIRateRefill = 0 },
			wantErr:     true,
			errContains: "API rate limit",
		},
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:        "missing port",
			mutate:      func(c *Config) { c.Port = "" },
			wantErr:     true,
			errContains: "PORT",
		},
		{
			name:        "relative base url",
			mutate:      func(c *Config) { c.BaseURL = "vyatsu.ru" },
			wantErr:     true,
			errContains: "BASE_URL",
		},
		{
			name:        "latin level letter",
			mutate:      func(c *Config) { c.DefaultLevel = "b" },
			wantErr:     true,
			errContains: "DEFAULT_LEVEL",
		},
		{
			name:        "negative retries",
			mutate:      func(c *Config) { c.ScraperMaxRetries = -1 },
			wantErr:     true,
			errContains: "SCRAPER_MAX_RETRIES",
		},
		{
			name:        "r2 without credentials",
			mutate:      func(c *Config) { c.R2Enabled = true },
			wantErr:     true,
			errContains: "R2",
		},
		{
			name:        "unknown timezone",
			mutate:      func(c *Config) { c.Timezone = "Mars/Olympus" },
			wantErr:     true,
			errContains: "TIMEZONE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("Validate() error = %v, want error containing %q", err, tt.errContains)
			}
		})
	}
}

func TestValidate_JoinsAllErrors(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Port = ""
	cfg.ScraperWorkers = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"PORT", "SCRAPER_WORKERS"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestLocation_Fallback(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Timezone = "Nowhere/Invalid"

	loc := cfg.Location()
	_, offset := time.Date(2021, 10, 15, 12, 0, 0, 0, loc).Zone()
	if offset != 3*60*60 {
		t.Errorf("expected UTC+3 fallback, got offset %d", offset)
	}
}
