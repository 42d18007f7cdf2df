package metrics

import "github.com/kilianp07/logvault/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// Address serves /metrics when a prometheus sink is configured, e.g. ":9102".
	Address string `json:"address"`
}
