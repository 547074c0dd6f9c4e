// Package component installs named SDK components through the SDK manager.
// A component whose marker directory exists is never touched again.
package component
