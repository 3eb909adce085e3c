package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iamdhrv/bigbluebutton/internal/cli/prompt"
	"github.com/iamdhrv/bigbluebutton/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample bbb-webhooks configuration file.

By default, the configuration file is created at
$XDG_CONFIG_HOME/bbb-webhooks/config.yaml. Use --config to specify a
custom path. If the file already exists you will be asked before it is
overwritten; --force skips the prompt.

Examples:
  # Initialize with default location
  bbb-webhooks init

  # Initialize with custom path
  bbb-webhooks init --config /etc/bbb-webhooks/config.yaml

  # Force overwrite existing config
  bbb-webhooks init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	overwrite := initForce
	if _, err := os.Stat(configPath); err == nil && !overwrite {
		confirmed, err := prompt.Confirm(
			fmt.Sprintf("Configuration file %s already exists. Overwrite?", configPath), false)
		if err != nil {
			if errors.Is(err, prompt.ErrAborted) {
				return fmt.Errorf("aborted")
			}
			return err
		}
		if !confirmed {
			fmt.Println("Keeping existing configuration file.")
			return nil
		}
		overwrite = true
	}

	if err := config.InitConfigToPath(configPath, overwrite); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Println("  2. Start the service with: bbb-webhooks start")
	fmt.Printf("  3. Or specify custom config: bbb-webhooks start --config %s\n", configPath)

	return nil
}
