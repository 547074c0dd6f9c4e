// Package state persists the report of the last provisioning run.
//
// The FileRepository stores the report as JSON on disk, encoded through a
// protobuf Struct with protojson so the file stays readable by any protobuf
// tooling.
package state
