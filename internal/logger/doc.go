// Package logger wraps zap for the provisioner:
//   - a global sugared logger with a console encoder that only colors levels on a terminal,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing for the --log-level flag,
//   - convenience functions (Infof, ErrorKV, etc.).
//
// Provisioning steps accept a context and extract the logger from it, so every
// log line carries the step and component it belongs to.
package logger
