package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/oshokin/sdk-provisioner/internal/domain/component"
	componentsvc "github.com/oshokin/sdk-provisioner/internal/service/component"
	"github.com/oshokin/sdk-provisioner/internal/service/provisioner"
)

var (
	// componentType is the --type flag of the component command.
	componentType string
	// overwriteConfig is the --force flag of config init.
	overwriteConfig bool

	installCmd = &cobra.Command{
		Use:   "install",
		Short: "Provision the SDK and every configured component.",
		Long: `Creates the install root, downloads and unpacks the SDK archive when missing,
asserts the 32-bit compatibility packages, refreshes platform-tools and
installs every component listed in the configuration file.

The outcome of each step is stored in the state file.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			return provisioner.Run(ctx, &commonOptions)
		},
	}

	componentCmd = &cobra.Command{
		Use:   "component NAME",
		Short: "Install a single SDK component, e.g. android-15.",
		Long: `Installs one named component through the SDK manager unless its marker
directory already exists. The SDK itself must already be provisioned.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			return componentsvc.Run(ctx, &componentsvc.Options{
				Options: commonOptions,
				Name:    args[0],
				Type:    componentType,
			})
		},
	}

	resolveCmd = &cobra.Command{
		Use:   "resolve",
		Short: "Print the resolved platform without changing the host.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			return provisioner.Resolve(ctx, &commonOptions, cmd.OutOrStdout())
		},
	}

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Print the step outcomes of the last install run.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			return provisioner.Status(ctx, &commonOptions, cmd.OutOrStdout())
		},
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file.",
	}

	configInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file holding every default to --config.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			return provisioner.InitConfig(ctx, commonOptions.ConfigPath, overwriteConfig)
		},
	}
)

// supportedTypes renders the component type table for flag help.
func supportedTypes() string {
	types := component.SupportedTypes()
	names := make([]string, 0, len(types))

	for _, t := range types {
		names = append(names, string(t))
	}

	return strings.Join(names, ", ")
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	componentCmd.Flags().StringVarP(&componentType, "type", "t", string(component.TypePlatform), "component type: "+supportedTypes())
	configInitCmd.Flags().BoolVarP(&overwriteConfig, "force", "f", false, "replace an existing configuration file")

	configCmd.AddCommand(configInitCmd)
}
