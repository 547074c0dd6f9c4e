//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.

// Package common provides the setup shared by the provisioner commands:
// loading settings, probing the host, resolving installation parameters and
// refusing to start while another provisioner process is running.
package common
