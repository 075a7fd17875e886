package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Timeout and duration constants
const (
	// DefaultActionTimeout bounds a single tool invocation
	DefaultActionTimeout = 30 * time.Second
	// DefaultBackendTimeout is the timeout for reasoning backend requests
	DefaultBackendTimeout = 60 * time.Second
)

// Limit constants
const (
	// DefaultMaxConcurrent bounds the executor worker pool
	DefaultMaxConcurrent = 4
	// MaxPlanActions caps the number of actions accepted from a backend proposal
	MaxPlanActions = 16
	// FallbackConfidenceCeiling caps the confidence of heuristic plans
	FallbackConfidenceCeiling = 0.5
)

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339
)
