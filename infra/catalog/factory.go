package catalog

import (
	"fmt"

	"github.com/kilianp07/logvault/core/category"
	"github.com/kilianp07/logvault/core/factory"
)

// init registers the file and sqlite category providers.
func init() {
	_ = category.RegisterProvider("file", func(conf map[string]any) (category.Provider, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, fmt.Errorf("file provider: path is required")
		}
		return NewFileProvider(c.Path)
	})
	_ = category.RegisterProvider("sqlite", func(conf map[string]any) (category.Provider, error) {
		var c struct {
			DSN string `json:"dsn"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.DSN == "" {
			return nil, fmt.Errorf("sqlite provider: dsn is required")
		}
		return NewSQLiteProvider(c.DSN)
	})
}
