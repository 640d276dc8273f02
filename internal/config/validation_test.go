package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.AllowedPaths = []string{"/srv/files"}
	return cfg
}

func TestValidate_ValidConfig_Pass(t *testing.T) {
	err := validConfig().Validate()
	assert.NoError(t, err)
}

func TestValidate_Defaults_FailWithoutAllowedPaths(t *testing.T) {
	err := DefaultConfig().Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "allowed_paths")
}

func TestValidate_AllowedPaths(t *testing.T) {
	t.Run("Empty Entry Fails", func(t *testing.T) {
		cfg := validConfig()
		cfg.AllowedPaths = []string{"/srv/files", ""}
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "allowed_paths[1]")
	})
}

func TestValidate_Server(t *testing.T) {
	t.Run("Zero Port Fails", func(t *testing.T) {
		cfg := validConfig()
		cfg.Port = 0
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "port")
	})

	t.Run("Port Too Large Fails", func(t *testing.T) {
		cfg := validConfig()
		cfg.Port = 70000
		assert.Error(t, cfg.Validate())
	})
}

func TestValidate_PathConversion(t *testing.T) {
	t.Run("Empty From Fails", func(t *testing.T) {
		cfg := validConfig()
		cfg.Features.PathConversion = &PathConversion{From: "", To: "/srv/files/"}
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "path_conversion.from")
	})

	t.Run("Empty To Allowed", func(t *testing.T) {
		cfg := validConfig()
		cfg.Features.PathConversion = &PathConversion{From: "/mnt/share", To: ""}
		assert.NoError(t, cfg.Validate())
	})
}

func TestValidate_Limits(t *testing.T) {
	t.Run("Zero View Size Fails", func(t *testing.T) {
		cfg := validConfig()
		cfg.Limits.MaxViewSize = 0
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "max_view_size")
	})

	t.Run("Zero Copy Entries Fails", func(t *testing.T) {
		cfg := validConfig()
		cfg.Limits.MaxCopyEntries = 0
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "max_copy_entries")
	})

	t.Run("Default Browse Limit Above Max Fails", func(t *testing.T) {
		cfg := validConfig()
		cfg.Limits.DefaultBrowseLimit = 20
		cfg.Limits.MaxBrowseLimit = 10
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "default_browse_limit must be <=")
	})
}

func TestConfig_Helpers(t *testing.T) {
	cfg := validConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 9000
	cfg.Limits.OperationTimeoutSeconds = 5

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr())
	assert.Equal(t, 5*time.Second, cfg.OperationTimeout())
}
