// Package config validates loaded configuration before services consume it.
package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/kestrelsec/kestrel/internal/domain"
)

// Validate ensures config structure is consistent.
func Validate(cfg domain.Config) error {
	if len(cfg.Backends) == 0 {
		return errors.New("at least one reasoning backend must be configured")
	}
	if cfg.Preferences.DefaultBackend == "" {
		cfg.Preferences.DefaultBackend = cfg.Backends[0].Name
	}
	if _, ok := findBackend(cfg, cfg.Preferences.DefaultBackend); !ok {
		return fmt.Errorf("default backend %s not found in backends list", cfg.Preferences.DefaultBackend)
	}
	if cfg.Preferences.TimeoutSeconds < 0 {
		return fmt.Errorf("preferences.timeout_seconds must be >= 0")
	}
	for _, backend := range cfg.Backends {
		if err := validateBackend(backend); err != nil {
			return err
		}
	}
	if err := validateExecution(cfg.Execution); err != nil {
		return err
	}
	return nil
}

func validateBackend(backend domain.BackendDefinition) error {
	if backend.Name == "" {
		return errors.New("backend name must be set")
	}
	if backend.Endpoint != "" {
		parsed, err := url.Parse(backend.Endpoint)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("backend %s endpoint %q is not a valid URL", backend.Name, backend.Endpoint)
		}
	}
	if backend.MaxTokens < 0 {
		return fmt.Errorf("backend %s max_tokens must be >= 0", backend.Name)
	}
	if backend.RequestsPerMin < 0 {
		return fmt.Errorf("backend %s requests_per_min must be >= 0", backend.Name)
	}
	return nil
}

func validateExecution(exec domain.ExecutionSettings) error {
	if exec.MaxConcurrent < 0 {
		return fmt.Errorf("execution.max_concurrent must be >= 0")
	}
	if exec.ActionTimeoutSeconds < 0 {
		return fmt.Errorf("execution.action_timeout_seconds must be >= 0")
	}
	return nil
}

func findBackend(cfg domain.Config, name string) (domain.BackendDefinition, bool) {
	for _, backend := range cfg.Backends {
		if backend.Name == name {
			return backend, true
		}
	}
	return domain.BackendDefinition{}, false
}
