package domain

import "time"

// VulnerabilityPattern is a learned structural fingerprint of a
// vulnerability class with an associated confidence. Confidence only moves
// within [0,1] and is reweighted upward on repeated observations.
type VulnerabilityPattern struct {
	PatternID    string
	PatternType  string
	Confidence   float64
	Signature    string
	Observations int
	FirstSeen    time.Time
	LastSeen     time.Time
}

// Prediction is a pattern match against a new endpoint description.
// Produced transiently by prediction queries, never persisted.
type Prediction struct {
	PatternID           string
	PatternType         string
	MatchedSignature    string
	EstimatedConfidence float64
}

// APIDescription declares the endpoints a prediction query walks.
type APIDescription struct {
	Endpoints []EndpointContext `yaml:"endpoints"`
}
