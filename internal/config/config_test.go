package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "missing api url", mutate: func(c *Config) { c.APIURL = "" }, wantErr: "api_url"},
		{name: "zero poll interval", mutate: func(c *Config) { c.PollInterval = 0 }, wantErr: "poll_interval"},
		{name: "negative debounce", mutate: func(c *Config) { c.SearchDebounce = -time.Second }, wantErr: "search_debounce"},
		{
			name:    "schedule without spec",
			mutate:  func(c *Config) { c.Schedules = []Schedule{{Scrapers: []string{"bae"}}} },
			wantErr: "schedules[0]: spec",
		},
		{
			name:    "schedule without scrapers",
			mutate:  func(c *Config) { c.Schedules = []Schedule{{Spec: "@daily"}} },
			wantErr: "scraper",
		},
	}
	for _, tt := range tests {
		cfg := Default
		tt.mutate(&cfg)
		err := cfg.Validate()
		if tt.wantErr == "" {
			if err != nil {
				t.Fatalf("%s: unexpected error %v", tt.name, err)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
			t.Fatalf("%s: err=%v, want containing %q", tt.name, err, tt.wantErr)
		}
	}
}
