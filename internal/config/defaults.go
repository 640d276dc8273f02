package config

// Config holds all application configuration values.
// Defaults are set in DefaultConfig() and can be overridden via the config file.
// NOTE: Values in config files override defaults, including explicit zero values.
// Missing keys are left at their default values.
type Config struct {
	Host             string   `json:"host"`              // Default: 0.0.0.0
	Port             int      `json:"port"`              // Default: 8080
	Title            string   `json:"title"`             // Default: FileView
	DefaultDirectory string   `json:"default_directory"` // Default: /
	AllowedPaths     []string `json:"allowed_paths"`     // Default: none, must be configured
	FavoritePaths    []string `json:"favorite_paths"`
	CORSOrigins      []string `json:"cors_origins"` // Default: ["*"]
	IgnoreFile       string   `json:"ignore_file"`  // Default: .fileviewignore

	Features FeaturesConfig `json:"features"`
	Limits   LimitsConfig   `json:"limits"`
}

// FeaturesConfig gates optional behaviour.
type FeaturesConfig struct {
	FileOperations bool            `json:"file_operations"` // Default: false
	AllowOverwrite bool            `json:"allow_overwrite"` // Default: false
	AllowMerge     bool            `json:"allow_merge"`     // Default: false
	PathConversion *PathConversion `json:"path_conversion,omitempty"`
}

// PathConversion is the single prefix rewrite applied to incoming paths,
// e.g. {"from": "V:\\", "to": "/srv/files/"}.
type PathConversion struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type LimitsConfig struct {
	MaxViewSize             int64 `json:"max_view_size"`             // Default: 10MB
	MaxCopyBytes            int64 `json:"max_copy_bytes"`            // Default: 1GB
	MaxCopyEntries          int   `json:"max_copy_entries"`          // Default: 10000
	OperationTimeoutSeconds int   `json:"operation_timeout_seconds"` // Default: 60
	DefaultBrowseLimit      int   `json:"default_browse_limit"`      // Default: 1000
	MaxBrowseLimit          int   `json:"max_browse_limit"`          // Default: 10000
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:             "0.0.0.0",
		Port:             8080,
		Title:            "FileView",
		DefaultDirectory: "/",
		AllowedPaths:     []string{},
		FavoritePaths:    []string{},
		CORSOrigins:      []string{"*"},
		IgnoreFile:       ".fileviewignore",
		Limits: LimitsConfig{
			MaxViewSize:             10 * 1024 * 1024,
			MaxCopyBytes:            1024 * 1024 * 1024,
			MaxCopyEntries:          10000,
			OperationTimeoutSeconds: 60,
			DefaultBrowseLimit:      1000,
			MaxBrowseLimit:          10000,
		},
	}
}
