// Package pkgmanager asserts the presence of OS packages through the host's
// native package manager (yum on RedHat-family hosts, apt on Debian-family
// hosts). Presence checks may run concurrently; installs are serialized
// because both tools hold a global lock.
package pkgmanager
