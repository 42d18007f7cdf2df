package config

import (
	"fmt"

	"github.com/kilianp07/logvault/core/factory"
)

// CatalogConfig selects the store category configurations are loaded from.
type CatalogConfig struct {
	// Provider is one of "inline" (records listed in conf.records), "file"
	// (conf.path to a yaml/json file with a categories list) or "sqlite"
	// (conf.dsn).
	Provider factory.ModuleConfig `json:"provider"`
	// Watch reloads the registry when a file provider's file changes.
	Watch bool `json:"watch"`
}

// SetDefaults reads categories from the main config file when no provider
// is set.
func (c *CatalogConfig) SetDefaults(configPath string) {
	if c.Provider.Type == "" {
		c.Provider.Type = "file"
		c.Provider.Conf = map[string]any{"path": configPath}
	}
}

// Validate checks that a provider type is set.
func (c CatalogConfig) Validate() error {
	if c.Provider.Type == "" {
		return fmt.Errorf("catalog.provider.type is required")
	}
	return nil
}
