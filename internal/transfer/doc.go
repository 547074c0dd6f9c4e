// Package transfer downloads SDK archives over HTTP.
//
// Downloads land in a hidden staging file next to the destination, are
// optionally verified against a SHA-256 checksum, and are renamed into place
// only once complete. A failed transfer never leaves a file at the
// destination path, so a retry never mistakes a partial download for a
// finished one.
package transfer
