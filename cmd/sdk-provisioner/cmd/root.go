package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/sdk-provisioner/internal/config"
	"github.com/oshokin/sdk-provisioner/internal/logger"
	"github.com/oshokin/sdk-provisioner/internal/service/common"
	"github.com/oshokin/sdk-provisioner/internal/version"
)

var (
	// commonOptions are filled from the persistent flags.
	commonOptions common.Options
	// logLevel is the minimum level written to the log.
	logLevel string

	// rootCmd is the base command; it only hosts subcommands and global flags.
	rootCmd = &cobra.Command{
		Use:   "sdk-provisioner",
		Short: "Install and keep the Android SDK up to date on this host.",
		Long: `Declarative Android SDK provisioner.

Selects the SDK archive, install location and ownership from the host's
kernel, OS family and architecture, downloads and unpacks the SDK once,
installs the 32-bit compatibility libraries the SDK tools need, refreshes
platform-tools and installs every configured SDK component.

Every step checks whether its result already exists, so running the
provisioner again is safe and converges an interrupted installation.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level, ok := logger.ParseLogLevel(logLevel)
			if !ok {
				return fmt.Errorf("unknown log level %q", logLevel)
			}

			logger.SetLevel(level)

			return nil
		},
	}
)

// Execute runs the sdk-provisioner CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// signalContext is cancelled on SIGTERM or SIGINT.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.PersistentFlags()

	flags.StringVarP(&commonOptions.ConfigPath, "config", "c", config.DefaultConfigFilename, "path to configuration file (YAML, or TOML with .toml extension)")
	flags.StringVarP(&logLevel, "log-level", "l", "info", "log level: debug, info, warn, error")
	flags.StringVar(&commonOptions.Overrides.Kernel, "kernel", "", "override the detected kernel (Linux, Darwin)")
	flags.StringVar(&commonOptions.Overrides.OSFamily, "os-family", "", "override the detected OS family (RedHat, Debian)")
	flags.StringVar(&commonOptions.Overrides.Architecture, "arch", "", "override the detected architecture (x86_64)")
	flags.StringVar(&commonOptions.MetricsFile, "metrics-file", "", "write Prometheus textfile metrics to this path")

	rootCmd.AddCommand(installCmd, componentCmd, resolveCmd, statusCmd, configCmd)
}
