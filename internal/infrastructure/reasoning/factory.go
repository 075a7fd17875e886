// Package reasoning provides the reasoning-backend strategy and its two
// implementations: a configuration-driven HTTP client for a remote reasoning
// service and a deterministic offline heuristic.
//
// The strategy is selected by availability probing at construction time. A
// backend with no endpoint or no credential resolves to the heuristic, so
// business logic never branches on runtime provider errors.
package reasoning

import (
	"net/http"
	"os"

	"github.com/kestrelsec/kestrel/internal/domain"
	"github.com/kestrelsec/kestrel/internal/ports"
)

// Factory creates reasoning provider instances for backend definitions.
// It maintains a single HTTP client shared across all providers.
type Factory struct {
	httpClient *http.Client
}

// NewFactory creates a new provider factory with a configured HTTP client.
func NewFactory() *Factory {
	return &Factory{
		httpClient: &http.Client{Timeout: domain.DefaultBackendTimeout},
	}
}

// ForBackend probes the backend definition and returns the remote provider
// when it is usable, the deterministic heuristic otherwise.
func (f *Factory) ForBackend(backend domain.BackendDefinition) (ports.ReasoningProvider, error) {
	if probeAvailable(backend) {
		return newRemoteProvider(backend, f.httpClient), nil
	}
	return NewHeuristic(), nil
}

// probeAvailable checks the static preconditions for reaching the backend:
// a configured endpoint and a resolvable credential.
func probeAvailable(backend domain.BackendDefinition) bool {
	if backend.Endpoint == "" {
		return false
	}
	if backend.AuthEnvVar == "" {
		return false
	}
	return os.Getenv(backend.AuthEnvVar) != ""
}

var _ ports.ReasoningFactory = (*Factory)(nil)
