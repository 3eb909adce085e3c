// Package commands implements the CLI commands for the bbb-webhooks service.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	configcmd "github.com/iamdhrv/bigbluebutton/cmd/bbb-webhooks/commands/config"
	"github.com/iamdhrv/bigbluebutton/internal/logger"
	"github.com/iamdhrv/bigbluebutton/pkg/config"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "bbb-webhooks",
	Short: "BigBlueButton webhooks user mapping service",
	Long: `bbb-webhooks maintains the mapping between internal and external user
identifiers for BigBlueButton meetings. Mappings are kept in an in-memory
index for fast event enrichment and mirrored to a persistent store so they
survive restarts.

Use "bbb-webhooks [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/bbb-webhooks/config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(mappingsCmd)
	rootCmd.AddCommand(configcmd.Cmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}
