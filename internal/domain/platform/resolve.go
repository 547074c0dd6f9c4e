package platform

import (
	"fmt"
	"path"
	"strings"
)

// Defaults applied by Resolve to empty Settings fields.
const (
	DefaultVersion    = "20.0.3"
	DefaultInstallDir = "/usr/local/android"
	DefaultOwner      = "root"
	DefaultGroup      = "root"
	// DarwinGroup replaces DefaultGroup on macOS hosts, where root's group is admin.
	DarwinGroup = "admin"

	// downloadURLTemplate is filled with version, platform suffix and archive extension.
	downloadURLTemplate = "http://dl.google.com/android/android-sdk_r%s-%s.%s"
)

// Settings is the user-supplied provisioning configuration. Every field is optional.
type Settings struct {
	Version    string
	InstallDir string
	Owner      string
	// Group left empty means "not overridden"; Resolve then picks a kernel-specific default.
	Group     string
	ProxyHost string
	ProxyPort string
}

// Resolved holds every parameter derived from Facts and Settings.
type Resolved struct {
	// ArchiveExtension is "tgz" on Linux and "zip" on Darwin.
	ArchiveExtension string `yaml:"archive_extension"`
	// SDKDirName is the top-level directory inside the archive.
	SDKDirName string `yaml:"sdk_dir_name"`
	// DownloadURL is where the SDK archive is fetched from.
	DownloadURL string `yaml:"download_url"`
	// DownloadDestination is where the archive is stored on the host.
	DownloadDestination string `yaml:"download_destination"`
	// InstallDir is the install root.
	InstallDir string `yaml:"install_dir"`
	// SDKRoot is InstallDir/SDKDirName.
	SDKRoot string `yaml:"sdk_root"`
	// ToolsPath holds the SDK's `android` tool.
	ToolsPath string `yaml:"tools_path"`
	// Owner owns the install root and runs SDK commands.
	Owner string `yaml:"owner"`
	// Group owns the install root.
	Group string `yaml:"group"`
	// ProxyArgs is passed verbatim to SDK update commands; empty without a full proxy config.
	ProxyArgs string `yaml:"proxy_args"`
}

// flavor is the kernel-specific part of the resolution.
type flavor struct {
	extension string
	dirName   string
	urlSuffix string
}

//nolint:gochecknoglobals // Read-only lookup table.
var (
	linuxFlavor  = flavor{extension: "tgz", dirName: "android-sdk-linux", urlSuffix: "linux"}
	darwinFlavor = flavor{extension: "zip", dirName: "android-sdk-macosx", urlSuffix: "macosx"}
)

// Resolve derives the installation parameters. It never fails: unknown kernels
// resolve like Linux.
func Resolve(facts Facts, settings Settings) Resolved {
	f := linuxFlavor
	if facts.IsDarwin() {
		f = darwinFlavor
	}

	version := valueOr(settings.Version, DefaultVersion)
	installDir := path.Clean(valueOr(settings.InstallDir, DefaultInstallDir))
	downloadURL := fmt.Sprintf(downloadURLTemplate, version, f.urlSuffix, f.extension)
	sdkRoot := path.Join(installDir, f.dirName)

	group := DefaultGroup
	if facts.IsDarwin() {
		group = DarwinGroup
	}

	return Resolved{
		ArchiveExtension:    f.extension,
		SDKDirName:          f.dirName,
		DownloadURL:         downloadURL,
		DownloadDestination: path.Join(installDir, path.Base(downloadURL)),
		InstallDir:          installDir,
		SDKRoot:             sdkRoot,
		ToolsPath:           path.Join(sdkRoot, "tools"),
		Owner:               valueOr(settings.Owner, DefaultOwner),
		Group:               valueOr(settings.Group, group),
		ProxyArgs:           proxyArgs(settings.ProxyHost, settings.ProxyPort),
	}
}

// AndroidTool is the path of the SDK manager executable.
func (r Resolved) AndroidTool() string {
	return path.Join(r.ToolsPath, "android")
}

// proxyArgs is empty unless both host and port are set.
func proxyArgs(host, port string) string {
	host = strings.TrimSpace(host)
	port = strings.TrimSpace(port)

	if host == "" || port == "" {
		return ""
	}

	return fmt.Sprintf("--proxy-host %s --proxy-port %s", host, port)
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}
