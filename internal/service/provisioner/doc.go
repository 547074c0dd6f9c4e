// Package provisioner installs the SDK base on a host.
//
// A Provisioner runs an ordered list of idempotent steps: create the install
// root, fetch the archive, unpack it, assert 32-bit compatibility packages
// and refresh platform-tools. Each step checks the output of its predecessor
// (a directory or file) before acting, and skips itself when its own output
// already exists. A failed run is retried by running it again.
package provisioner
