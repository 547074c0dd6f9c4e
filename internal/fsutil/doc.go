// Package fsutil holds the small filesystem helpers shared by provisioning
// steps: path existence checks used as idempotence markers and ownership
// changes by user and group name.
package fsutil
