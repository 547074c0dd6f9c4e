package platform

import "strings"

// Kernel is the host kernel name as reported by the host probe.
type Kernel string

// Known kernels. Anything else is treated like Linux.
const (
	KernelLinux  Kernel = "Linux"
	KernelDarwin Kernel = "Darwin"
)

// OSFamily is the operating system family of the host.
type OSFamily string

// Known OS families. Other families get no compatibility packages.
const (
	OSFamilyRedHat OSFamily = "RedHat"
	OSFamilyDebian OSFamily = "Debian"
)

// Architecture is the host CPU architecture.
type Architecture string

// ArchitectureX86_64 is the only architecture that needs 32-bit compatibility libraries.
//
//nolint:revive,stylecheck // Matches the name reported by uname.
const ArchitectureX86_64 Architecture = "x86_64"

// Facts are read-only probe results for the target host.
type Facts struct {
	// Kernel selects the archive kind and the SDK directory layout.
	Kernel Kernel `yaml:"kernel"`
	// OSFamily selects the package manager and compatibility packages.
	OSFamily OSFamily `yaml:"os_family"`
	// Architecture decides whether 32-bit compatibility packages are needed.
	Architecture Architecture `yaml:"architecture"`
}

// ParseKernel normalizes a kernel name, keeping unknown values verbatim.
func ParseKernel(s string) Kernel {
	s = strings.TrimSpace(s)

	switch strings.ToLower(s) {
	case "linux":
		return KernelLinux
	case "darwin", "macos", "osx":
		return KernelDarwin
	default:
		return Kernel(s)
	}
}

// ParseOSFamily normalizes an OS family name, keeping unknown values verbatim.
func ParseOSFamily(s string) OSFamily {
	s = strings.TrimSpace(s)

	switch strings.ToLower(s) {
	case "redhat", "rhel":
		return OSFamilyRedHat
	case "debian":
		return OSFamilyDebian
	default:
		return OSFamily(s)
	}
}

// ParseArchitecture normalizes an architecture name. Go's amd64 maps to x86_64.
func ParseArchitecture(s string) Architecture {
	s = strings.TrimSpace(s)

	switch strings.ToLower(s) {
	case "x86_64", "amd64", "x64":
		return ArchitectureX86_64
	default:
		return Architecture(s)
	}
}

// IsDarwin reports whether the host runs the Darwin kernel.
func (f Facts) IsDarwin() bool {
	return f.Kernel == KernelDarwin
}
