// Package run contains the record of a provisioning run.
//
// A Report lists the outcome of every step in execution order, together with
// the time the run started and finished.
package run
