//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"github.com/oshokin/sdk-provisioner/internal/domain/platform"
	"github.com/oshokin/sdk-provisioner/internal/shell"
)

// licenseAnswer accepts the license prompt the SDK manager shows for new packages.
const licenseAnswer = "y\n"

// SDKUpdateCommand builds `android update sdk -u -t <filter>` run as the SDK owner.
// Proxy arguments are appended verbatim when configured.
func SDKUpdateCommand(resolved platform.Resolved, filter string) (*shell.Command, error) {
	cmd := &shell.Command{
		Name:  resolved.AndroidTool(),
		Args:  []string{"update", "sdk", "-u", "-t", filter},
		User:  resolved.Owner,
		Stdin: licenseAnswer,
	}

	if err := cmd.AppendArgs(resolved.ProxyArgs); err != nil {
		return nil, err
	}

	return cmd, nil
}
