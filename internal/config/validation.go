package config

import (
	"fmt"
	"time"
)

// Validate checks config values for correctness.
// Returns an error listing every invalid value.
func (c *Config) Validate() error {
	var errs []string

	if len(c.AllowedPaths) == 0 {
		errs = append(errs, "allowed_paths must contain at least one directory")
	}
	for i, p := range c.AllowedPaths {
		if p == "" {
			errs = append(errs, fmt.Sprintf("allowed_paths[%d] must not be empty", i))
		}
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, "port must be between 1 and 65535")
	}
	if c.Features.PathConversion != nil && c.Features.PathConversion.From == "" {
		errs = append(errs, "features.path_conversion.from must not be empty")
	}

	// Limits
	if c.Limits.MaxViewSize < 1 {
		errs = append(errs, "limits.max_view_size must be >= 1")
	}
	if c.Limits.MaxCopyBytes < 1 {
		errs = append(errs, "limits.max_copy_bytes must be >= 1")
	}
	if c.Limits.MaxCopyEntries < 1 {
		errs = append(errs, "limits.max_copy_entries must be >= 1")
	}
	if c.Limits.OperationTimeoutSeconds < 1 {
		errs = append(errs, "limits.operation_timeout_seconds must be >= 1")
	}
	if c.Limits.DefaultBrowseLimit < 1 {
		errs = append(errs, "limits.default_browse_limit must be >= 1")
	}
	if c.Limits.MaxBrowseLimit < 1 {
		errs = append(errs, "limits.max_browse_limit must be >= 1")
	}
	if c.Limits.DefaultBrowseLimit > c.Limits.MaxBrowseLimit {
		errs = append(errs, "limits.default_browse_limit must be <= limits.max_browse_limit")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}

// OperationTimeout returns the per-mutation deadline.
func (c *Config) OperationTimeout() time.Duration {
	return time.Duration(c.Limits.OperationTimeoutSeconds) * time.Second
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
