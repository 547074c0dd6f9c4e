// Package version exposes build metadata for sdk-provisioner.
//
// Version, Commit and BuildTime are injected at build time via Go ldflags.
// Full renders them for the `version` subcommand and UserAgent identifies the
// provisioner to download servers.
package version
