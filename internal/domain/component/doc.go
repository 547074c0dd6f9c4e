// Package component describes individually updatable SDK components.
//
// A Request names a component and its Type. Supported types and the marker
// path each one leaves behind live in a single table; any other type is a
// ConfigError raised before anything touches the host.
package component
