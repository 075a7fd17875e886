package config

import (
	"strings"
	"testing"

	"github.com/kestrelsec/kestrel/internal/domain"
)

func validConfig() domain.Config {
	return domain.Config{
		ConfigFormatVersion: "1",
		Preferences: domain.ConfigPreferences{
			DefaultBackend: "primary",
			TimeoutSeconds: 60,
		},
		Execution: domain.ExecutionSettings{
			MaxConcurrent:        4,
			ActionTimeoutSeconds: 30,
		},
		Backends: []domain.BackendDefinition{
			{
				Name:           "primary",
				Endpoint:       "https://reasoning.example.com/v1",
				AuthEnvVar:     "KESTREL_API_KEY",
				MaxTokens:      1024,
				RequestsPerMin: 30,
			},
		},
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidateRejectsBrokenConfigs(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*domain.Config)
		wantErr string
	}{
		{
			name:    "no backends",
			mutate:  func(cfg *domain.Config) { cfg.Backends = nil },
			wantErr: "at least one reasoning backend",
		},
		{
			name:    "unknown default backend",
			mutate:  func(cfg *domain.Config) { cfg.Preferences.DefaultBackend = "ghost" },
			wantErr: "not found",
		},
		{
			name:    "invalid endpoint",
			mutate:  func(cfg *domain.Config) { cfg.Backends[0].Endpoint = "::not-a-url" },
			wantErr: "not a valid URL",
		},
		{
			name:    "negative concurrency",
			mutate:  func(cfg *domain.Config) { cfg.Execution.MaxConcurrent = -1 },
			wantErr: "max_concurrent",
		},
		{
			name:    "negative rate limit",
			mutate:  func(cfg *domain.Config) { cfg.Backends[0].RequestsPerMin = -5 },
			wantErr: "requests_per_min",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestValidateFillsMissingDefaultBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Preferences.DefaultBackend = ""
	if err := Validate(cfg); err != nil {
		t.Fatalf("empty default backend should fall back to first: %v", err)
	}
}
