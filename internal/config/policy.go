package config

import "github.com/Cyclone1070/fileview/internal/access"

// PolicyOptions maps the configuration onto the access policy inputs.
func (c *Config) PolicyOptions() access.PolicyOptions {
	opts := access.PolicyOptions{
		AllowedPaths:     append([]string(nil), c.AllowedPaths...),
		MutationsEnabled: c.Features.FileOperations,
		AllowOverwrite:   c.Features.AllowOverwrite,
		AllowMerge:       c.Features.AllowMerge,
	}
	if pc := c.Features.PathConversion; pc != nil {
		opts.Conversion = &access.ConversionRule{From: pc.From, To: pc.To}
	}
	return opts
}

// Policy builds the access policy snapshot for this configuration.
func (c *Config) Policy() (*access.Policy, error) {
	return access.NewPolicy(c.PolicyOptions())
}
