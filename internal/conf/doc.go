// Package conf implements the layered plugin configuration.
//
// # Usage
//
//	cfg, err := conf.NewConfigSource("/etc/director/plugins/google").Read()
//	if err != nil {
//	    return err
//	}
//	timeout, err := cfg.GetInt(conf.ComputePollingTimeoutKey)
//
// # Load Order
//
// Config is loaded and applied in four layers:
//
//  1. Embedded defaults (default.toml)
//  2. HOCON override file: <dir>/google.conf
//  3. TOML override file: <dir>/google.toml
//  4. Drop-in files: <dir>/google.toml.d/*.toml, in lexicographic order
//
// A missing override file or drop-in directory is not an error. A file that
// exists but does not parse is.
//
// # Merging
//
// google.conf uses nested blocks (google { compute { ... } }); every other
// layer is a TOML document. Both decode to the same section tree. Tables are merged key by key, recursively, so an
// override that adds one image alias keeps every alias of the lower layers.
// Any other value (strings, numbers, arrays) replaces the lower value.
//
// # Lookups
//
// Config is read-only. Paths use "." between sections and the leaf key, e.g.
// "google.compute.imageAliases.rhel6". Lookups fail with ErrMissingKey or
// ErrTypeMismatch; merging itself never does.
package conf
