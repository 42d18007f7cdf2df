// Package factory is the generic registry behind pluggable modules such as
// category configuration providers and metrics sinks. A module is selected
// by a type string and configured with a raw settings map that the factory
// decodes into its own struct.
//
//	reg := factory.NewRegistry[category.Provider]()
//	reg.Register("sqlite", func(conf map[string]any) (category.Provider, error) {
//	    var c struct{ DSN string `json:"dsn"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return catalog.NewSQLiteProvider(c.DSN)
//	})
//	p, err := reg.Create(factory.ModuleConfig{Type: "sqlite", Conf: map[string]any{"dsn": "cats.db"}})
package factory
