package config

import (
	"fmt"
	"os"
)

// InitConfig creates a default configuration file at the default location.
// Returns the path the file was written to. Fails if the file already
// exists unless force is true.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	return path, InitConfigToPath(path, force)
}

// InitConfigToPath creates a default configuration file at the given path.
// Fails if the file already exists unless force is true.
func InitConfigToPath(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}

	return SaveConfig(GetDefaultConfig(), path)
}
