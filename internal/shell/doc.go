// Package shell runs external commands on behalf of provisioning steps.
//
// A Command carries its argv, working directory, the user to run as and the
// input to feed on stdin. ExecRunner executes commands with os/exec and logs
// their output; tests substitute their own Runner.
package shell
