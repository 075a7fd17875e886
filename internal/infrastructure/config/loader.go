package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kestrelsec/kestrel/internal/domain"
	"github.com/kestrelsec/kestrel/internal/pkg/filesystem"
	"github.com/kestrelsec/kestrel/internal/ports"
)

// FileLoader loads YAML configuration from ~/.kestrel/config.yaml
// (overridable via KESTREL_CONFIG).
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Load implements ports.ConfigProvider.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.resolvePath()
	if err := ensureConfigDir(path); err != nil {
		return domain.Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := defaultConfig()
			if err := writeDefault(path, cfg); err != nil {
				return domain.Config{}, err
			}
			return cfg, nil
		}
		return domain.Config{}, err
	}

	var cfg domain.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, err
	}

	return hydrateDefaults(cfg), nil
}

// Path returns the location the loader reads from.
func (l *FileLoader) Path() string {
	return l.resolvePath()
}

func (l *FileLoader) resolvePath() string {
	if l.overridePath != "" {
		return l.overridePath
	}
	if custom := os.Getenv("KESTREL_CONFIG"); custom != "" {
		return expandPath(custom)
	}
	return filepath.Join(filesystem.UserHomeDir(), ".kestrel", "config.yaml")
}

func ensureConfigDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, domain.DirectoryPermissions)
}

func writeDefault(path string, cfg domain.Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, domain.SecureFilePermissions)
}

func defaultConfig() domain.Config {
	home := filesystem.UserHomeDir()
	return domain.Config{
		ConfigFormatVersion: "1",
		Preferences: domain.ConfigPreferences{
			DefaultBackend: "kestrel-reasoning",
			AutoFixLowRisk: false,
			TimeoutSeconds: 60,
		},
		Risk: domain.RiskSettings{
			RulesFile: filepath.Join(home, ".kestrel", "risk_rules.yaml"),
		},
		Execution: domain.ExecutionSettings{
			MaxConcurrent:        domain.DefaultMaxConcurrent,
			ActionTimeoutSeconds: 30,
			ConfirmBeforeFix:     true,
		},
		Learning: domain.LearningSettings{
			StorePath: filepath.Join(home, ".kestrel", "patterns", "patterns.db"),
		},
		Backends: []domain.BackendDefinition{
			{
				Name:           "kestrel-reasoning",
				Endpoint:       "https://api.anthropic.com/v1/messages",
				AuthEnvVar:     "ANTHROPIC_API_KEY",
				ModelID:        "claude-3-5-sonnet-20240620",
				MaxTokens:      1024,
				RequestsPerMin: 30,
			},
		},
	}
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.Preferences.DefaultBackend == "" && len(cfg.Backends) > 0 {
		cfg.Preferences.DefaultBackend = cfg.Backends[0].Name
	}
	if cfg.Preferences.TimeoutSeconds == 0 {
		cfg.Preferences.TimeoutSeconds = 60
	}
	if cfg.Execution.MaxConcurrent == 0 {
		cfg.Execution.MaxConcurrent = domain.DefaultMaxConcurrent
	}
	if cfg.Execution.ActionTimeoutSeconds == 0 {
		cfg.Execution.ActionTimeoutSeconds = 30
	}
	if cfg.Learning.StorePath == "" {
		cfg.Learning.StorePath = filepath.Join(filesystem.UserHomeDir(), ".kestrel", "patterns", "patterns.db")
	}
	return cfg
}

func expandPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if len(path) > 1 && path[:2] == "~/" {
		return filepath.Join(filesystem.UserHomeDir(), path[2:])
	}
	return filepath.Clean(path)
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
