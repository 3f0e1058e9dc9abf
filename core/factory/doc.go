// Package factory instantiates pluggable modules (reservation stores, metrics
// sinks, notifiers) from configuration. A module is described by a type name
// and a map of raw settings; factories decode the settings into typed structs
// and return the concrete implementation.
//
//	reg := factory.NewRegistry[ledger.Store]()
//	reg.MustRegister("memory", func(map[string]any) (ledger.Store, error) {
//	    return store.NewMemoryStore(), nil
//	})
//	s, err := reg.Create(factory.ModuleConfig{Type: "memory"})
package factory
