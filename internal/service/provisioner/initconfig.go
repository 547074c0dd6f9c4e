package provisioner

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/sdk-provisioner/internal/config"
	"github.com/oshokin/sdk-provisioner/internal/fsutil"
	"github.com/oshokin/sdk-provisioner/internal/logger"
)

// errConfigExists is returned when InitConfig would overwrite a settings file.
var errConfigExists = errors.New("configuration file already exists")

// InitConfig writes a settings file holding every default to path.
// An existing file is only replaced when overwrite is set.
func InitConfig(ctx context.Context, path string, overwrite bool) error {
	if path == "" {
		path = config.DefaultConfigFilename
	}

	present, err := fsutil.Exists(path)
	if err != nil {
		return err
	}

	if present && !overwrite {
		return fmt.Errorf("%w: %s", errConfigExists, path)
	}

	cfg, err := config.Default()
	if err != nil {
		return err
	}

	if err = config.Save(path, cfg); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Configuration written", "path", path)

	return nil
}
