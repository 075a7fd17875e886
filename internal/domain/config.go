package domain

// Config is the root configuration loaded from ~/.kestrel/config.yaml.
type Config struct {
	ConfigFormatVersion string              `yaml:"config_format_version"`
	Preferences         ConfigPreferences   `yaml:"preferences"`
	Risk                RiskSettings        `yaml:"risk"`
	Execution           ExecutionSettings   `yaml:"execution"`
	Learning            LearningSettings    `yaml:"learning"`
	Backends            []BackendDefinition `yaml:"backends"`
}

// ConfigPreferences hold default user gating options.
type ConfigPreferences struct {
	DefaultBackend string `yaml:"default_backend"`
	AutoFixLowRisk bool   `yaml:"auto_fix_low_risk"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// RiskSettings locate the risk classification rules.
type RiskSettings struct {
	RulesFile string `yaml:"rules_file"`
}

// ExecutionSettings tune the action executor.
type ExecutionSettings struct {
	MaxConcurrent        int  `yaml:"max_concurrent"`
	ActionTimeoutSeconds int  `yaml:"action_timeout_seconds"`
	ConfirmBeforeFix     bool `yaml:"confirm_before_fix"`
}

// LearningSettings locate the persisted pattern store.
type LearningSettings struct {
	StorePath string `yaml:"store_path"`
}

// BackendDefinition describes a reasoning backend declared in the config
// file. Each backend represents a specific external reasoning service
// endpoint with its authentication and generation parameters.
type BackendDefinition struct {
	Name             string            `yaml:"name"`
	Endpoint         string            `yaml:"endpoint"`
	AuthEnvVar       string            `yaml:"auth_env_var"`
	ModelID          string            `yaml:"model_id"`
	MaxTokens        int               `yaml:"max_tokens"`
	RequestsPerMin   int               `yaml:"requests_per_min"`
	ResponseJSONPath string            `yaml:"response_json_path,omitempty"`
	ExtraHeaders     map[string]string `yaml:"extra_headers,omitempty"`
}
