package config

import (
	"strings"
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		wantErr     bool
		errorString string
	}{
		{
			name: "valid rest backend config",
			config: Config{
				DataBackend:     "rest",
				APIBaseURL:      "https://api.example.com",
				HTTPTimeout:     15 * time.Second,
				TokenFile:       "/tmp/token",
				AdminLogPerPage: 20,
			},
			wantErr: false,
		},
		{
			name: "valid memory backend config",
			config: Config{
				DataBackend:     "memory",
				HTTPTimeout:     15 * time.Second,
				AdminLogPerPage: 20,
			},
			wantErr: false,
		},
		{
			name: "invalid data backend",
			config: Config{
				DataBackend:     "sqlite",
				HTTPTimeout:     15 * time.Second,
				AdminLogPerPage: 20,
			},
			wantErr:     true,
			errorString: "invalid data backend 'sqlite': must be one of [rest memory]",
		},
		{
			name: "rest backend missing base URL",
			config: Config{
				DataBackend:     "rest",
				APIBaseURL:      "",
				HTTPTimeout:     15 * time.Second,
				TokenFile:       "/tmp/token",
				AdminLogPerPage: 20,
			},
			wantErr:     true,
			errorString: "API base URL cannot be empty",
		},
		{
			name: "invalid base URL scheme",
			config: Config{
				DataBackend:     "rest",
				APIBaseURL:      "ftp://api.example.com",
				HTTPTimeout:     15 * time.Second,
				TokenFile:       "/tmp/token",
				AdminLogPerPage: 20,
			},
			wantErr:     true,
			errorString: "invalid API base URL scheme 'ftp': must be 'http' or 'https'",
		},
		{
			name: "rest backend missing token file",
			config: Config{
				DataBackend:     "rest",
				APIBaseURL:      "http://localhost:8080",
				HTTPTimeout:     15 * time.Second,
				TokenFile:       "",
				AdminLogPerPage: 20,
			},
			wantErr:     true,
			errorString: "token file path cannot be empty",
		},
		{
			name: "timeout too small",
			config: Config{
				DataBackend:     "memory",
				HTTPTimeout:     100 * time.Millisecond,
				AdminLogPerPage: 20,
			},
			wantErr:     true,
			errorString: "must be at least 1 second",
		},
		{
			name: "page size out of range",
			config: Config{
				DataBackend:     "memory",
				HTTPTimeout:     15 * time.Second,
				AdminLogPerPage: 500,
			},
			wantErr:     true,
			errorString: "must be at most 200",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.errorString != "" && !strings.Contains(err.Error(), tt.errorString) {
					t.Errorf("error %q does not contain %q", err.Error(), tt.errorString)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}
}

func TestConfig_ValidateExport(t *testing.T) {
	cfg := Config{
		GoogleSpreadsheetID:   "sheet-id",
		GoogleSheetName:       "Monthly",
		GoogleOAuthClientJSON: "{}",
		GoogleOAuthTokenJSON:  "{}",
	}
	if err := cfg.ValidateExport(); err != nil {
		t.Fatalf("expected valid export config, got %v", err)
	}

	empty := Config{}
	err := empty.ValidateExport()
	if err == nil {
		t.Fatal("expected error for empty export config")
	}
	for _, want := range []string{
		"Google Spreadsheet ID is required",
		"Google Sheet name is required",
		"GOOGLE_OAUTH_CLIENT_FILE or GOOGLE_OAUTH_CLIENT_JSON",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q: %v", want, err)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.DataBackend != "rest" {
		t.Errorf("default backend = %q", cfg.DataBackend)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Errorf("default timeout = %v", cfg.HTTPTimeout)
	}
	if cfg.TokenFile == "" {
		t.Error("default token file must not be empty")
	}
}
