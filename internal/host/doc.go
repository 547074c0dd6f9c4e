// Package host probes the machine the provisioner runs on.
//
// Kernel and architecture come from the Go runtime; the OS family is read
// from os-release(5). Every probed value can be overridden by the caller.
package host
