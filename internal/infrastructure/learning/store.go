// Package learning implements the vulnerability pattern store.
//
// The store fingerprints findings into structural signatures, reweights
// pattern confidence on repeated observations, and answers prediction
// queries for new endpoint descriptions. Patterns survive process restarts
// through a SQLite repository.
package learning

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kestrelsec/kestrel/internal/domain"
	"github.com/kestrelsec/kestrel/internal/ports"
)

// confidenceAlpha controls how fast repeated observations pull confidence
// toward 1: c' = c + alpha*(1-c).
const confidenceAlpha = 0.3

// Repository persists patterns between processes.
type Repository interface {
	LoadAll() ([]domain.VulnerabilityPattern, error)
	Upsert(domain.VulnerabilityPattern) error
	Clear() error
}

// Store implements ports.PatternStore. Learn takes the write lock;
// Predict and Patterns run under the read lock.
type Store struct {
	mu       sync.RWMutex
	patterns map[string]domain.VulnerabilityPattern // keyed by signature
	repo     Repository
	logger   ports.Logger
	now      func() time.Time
}

// NewStore builds a store hydrated from the repository. A nil repository
// keeps patterns in memory only.
func NewStore(repo Repository, logger ports.Logger) *Store {
	store := &Store{
		patterns: make(map[string]domain.VulnerabilityPattern),
		repo:     repo,
		logger:   logger,
		now:      time.Now,
	}
	if repo != nil {
		loaded, err := repo.LoadAll()
		if err != nil {
			if logger != nil {
				logger.Warn("learning: could not load persisted patterns", map[string]interface{}{"error": err.Error()})
			}
		} else {
			for _, pattern := range loaded {
				store.patterns[pattern.Signature] = pattern
			}
		}
	}
	return store
}

// Learn implements ports.PatternStore. A repeated signature reweights the
// existing pattern; a fresh signature creates one with a confidence
// proportional to the finding's severity. The returned pattern is a copy.
func (s *Store) Learn(finding domain.Finding, endpoint domain.EndpointContext) (domain.VulnerabilityPattern, error) {
	if finding.Type == "" {
		return domain.VulnerabilityPattern{}, fmt.Errorf("finding type is required")
	}

	signature := Signature(finding, endpoint)
	now := s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	pattern, known := s.patterns[signature]
	if known {
		pattern.Confidence = clamp01(pattern.Confidence + confidenceAlpha*(1-pattern.Confidence))
		pattern.Observations++
		pattern.LastSeen = now
	} else {
		pattern = domain.VulnerabilityPattern{
			PatternID:    uuid.NewString(),
			PatternType:  finding.Type,
			Confidence:   initialConfidence(finding.Severity),
			Signature:    signature,
			Observations: 1,
			FirstSeen:    now,
			LastSeen:     now,
		}
	}
	s.patterns[signature] = pattern

	if s.repo != nil {
		if err := s.repo.Upsert(pattern); err != nil && s.logger != nil {
			s.logger.Warn("learning: could not persist pattern", map[string]interface{}{
				"signature": signature,
				"error":     err.Error(),
			})
		}
	}
	return pattern, nil
}

// Predict implements ports.PatternStore. A pattern matches an endpoint when
// the method and parameterized path shape line up and the endpoint exposes
// the pattern's location. Matches are ordered by confidence, strongest
// first.
func (s *Store) Predict(desc domain.APIDescription) ([]domain.Prediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var predictions []domain.Prediction
	for _, endpoint := range desc.Endpoints {
		for _, pattern := range s.patterns {
			if !matches(pattern, endpoint) {
				continue
			}
			predictions = append(predictions, domain.Prediction{
				PatternID:           pattern.PatternID,
				PatternType:         pattern.PatternType,
				MatchedSignature:    pattern.Signature,
				EstimatedConfidence: pattern.Confidence,
			})
		}
	}
	sort.Slice(predictions, func(i, j int) bool {
		if predictions[i].EstimatedConfidence != predictions[j].EstimatedConfidence {
			return predictions[i].EstimatedConfidence > predictions[j].EstimatedConfidence
		}
		return predictions[i].MatchedSignature < predictions[j].MatchedSignature
	})
	return predictions, nil
}

// Patterns implements ports.PatternStore, returning a snapshot sorted by
// signature.
func (s *Store) Patterns() []domain.VulnerabilityPattern {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.VulnerabilityPattern, 0, len(s.patterns))
	for _, pattern := range s.patterns {
		out = append(out, pattern)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Signature < out[j].Signature })
	return out
}

// Clear implements ports.PatternStore.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.patterns = make(map[string]domain.VulnerabilityPattern)
	if s.repo != nil {
		return s.repo.Clear()
	}
	return nil
}

// Signature fingerprints a finding in its endpoint context. Concrete path
// parameters are collapsed so /users/123 and /users/{id} share a shape.
func Signature(finding domain.Finding, endpoint domain.EndpointContext) string {
	return strings.Join([]string{
		finding.Type,
		string(finding.Severity),
		finding.Location,
		strings.ToUpper(endpoint.Method),
		pathShape(endpoint.Path),
	}, "|")
}

var numericSegmentRe = regexp.MustCompile(`^\d+$`)

func pathShape(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		switch {
		case segment == "":
		case strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}"):
			segments[i] = "{}"
		case strings.HasPrefix(segment, ":"):
			segments[i] = "{}"
		case numericSegmentRe.MatchString(segment):
			segments[i] = "{}"
		}
	}
	return strings.Join(segments, "/")
}

func matches(pattern domain.VulnerabilityPattern, endpoint domain.EndpointContext) bool {
	parts := strings.Split(pattern.Signature, "|")
	if len(parts) != 5 {
		return false
	}
	location, method, shape := parts[2], parts[3], parts[4]
	if method != strings.ToUpper(endpoint.Method) {
		return false
	}
	if shape != pathShape(endpoint.Path) {
		return false
	}
	// Path-scoped findings bind to the route itself; other locations need a
	// parameter declared there.
	if location == domain.LocationPath || location == "" {
		return true
	}
	if location == domain.LocationBody {
		return true
	}
	return endpoint.HasParameterIn(location)
}

func initialConfidence(severity domain.RiskLevel) float64 {
	switch severity {
	case domain.RiskCritical:
		return 0.9
	case domain.RiskHigh:
		return 0.7
	case domain.RiskMedium:
		return 0.5
	default:
		return 0.3
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

var _ ports.PatternStore = (*Store)(nil)
