package category

import (
	"context"

	"github.com/kilianp07/logvault/core/factory"
)

// Provider is the external configuration store categories are loaded from.
type Provider interface {
	GetAll(ctx context.Context) ([]Record, error)
}

// StaticProvider serves a fixed list of records.
type StaticProvider []Record

// GetAll returns a copy of the records.
func (p StaticProvider) GetAll(context.Context) ([]Record, error) {
	out := make([]Record, len(p))
	copy(out, p)
	return out, nil
}

var providerRegistry = factory.NewRegistry[Provider]()

// RegisterProvider adds a provider factory identified by name.
func RegisterProvider(name string, f factory.Factory[Provider]) error {
	return providerRegistry.Register(name, f)
}

// NewProvider creates the provider described by cfg.
func NewProvider(cfg factory.ModuleConfig) (Provider, error) {
	return providerRegistry.Create(cfg)
}

func init() {
	_ = RegisterProvider("inline", func(conf map[string]any) (Provider, error) {
		var c struct {
			Records []Record `json:"records"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return StaticProvider(c.Records), nil
	})
}
