package host

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/oshokin/sdk-provisioner/internal/domain/platform"
)

// DefaultOSReleasePath is where os-release(5) lives on modern distributions.
const DefaultOSReleasePath = "/etc/os-release"

// Overrides replace probed values when non-empty.
type Overrides struct {
	Kernel       string
	OSFamily     string
	Architecture string
}

// Prober detects host facts.
type Prober struct {
	goos          string
	goarch        string
	osReleasePath string
}

// NewProber returns a Prober for the running process.
func NewProber() *Prober {
	return &Prober{
		goos:          runtime.GOOS,
		goarch:        runtime.GOARCH,
		osReleasePath: DefaultOSReleasePath,
	}
}

// Detect probes the host and applies overrides.
func (p *Prober) Detect(overrides Overrides) (platform.Facts, error) {
	facts := platform.Facts{
		Kernel:       platform.ParseKernel(p.goos),
		Architecture: platform.ParseArchitecture(p.goarch),
	}

	if overrides.OSFamily != "" {
		facts.OSFamily = platform.ParseOSFamily(overrides.OSFamily)
	} else if facts.Kernel == platform.KernelLinux {
		family, err := p.osFamily()
		if err != nil {
			return platform.Facts{}, err
		}

		facts.OSFamily = family
	} else {
		facts.OSFamily = platform.OSFamily(facts.Kernel)
	}

	if overrides.Kernel != "" {
		facts.Kernel = platform.ParseKernel(overrides.Kernel)
	}

	if overrides.Architecture != "" {
		facts.Architecture = platform.ParseArchitecture(overrides.Architecture)
	}

	return facts, nil
}

// osFamily maps os-release ID and ID_LIKE onto a family.
// A missing os-release file yields an empty (other) family.
func (p *Prober) osFamily() (platform.OSFamily, error) {
	contents, err := os.ReadFile(p.osReleasePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}

		return "", fmt.Errorf("read os-release: %w", err)
	}

	fields := parseOSRelease(contents)

	ids := append([]string{fields["ID"]}, strings.Fields(fields["ID_LIKE"])...)
	for _, id := range ids {
		switch id {
		case "rhel", "fedora", "centos", "rocky", "almalinux", "ol", "amzn":
			return platform.OSFamilyRedHat, nil
		case "debian", "ubuntu":
			return platform.OSFamilyDebian, nil
		}
	}

	return platform.OSFamily(fields["ID"]), nil
}

// parseOSRelease reads KEY=value lines, unquoting values.
func parseOSRelease(contents []byte) map[string]string {
	fields := make(map[string]string)

	scanner := bufio.NewScanner(bytes.NewReader(contents))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}

		fields[key] = strings.ToLower(strings.Trim(value, `"'`))
	}

	return fields
}
