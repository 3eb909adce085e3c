package commands

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/iamdhrv/bigbluebutton/internal/cli/output"
	"github.com/iamdhrv/bigbluebutton/internal/logger"
	"github.com/iamdhrv/bigbluebutton/pkg/config"
	"github.com/iamdhrv/bigbluebutton/pkg/mapping"
)

var mappingsOutput string

var mappingsCmd = &cobra.Command{
	Use:   "mappings",
	Short: "List persisted user mappings",
	Long: `List the user mappings currently persisted in the configured store.

The command opens the store read-only, rebuilds the mapping index the same
way the service does on startup, and prints it. Useful for inspecting what
would survive a restart.

Examples:
  # List mappings as a table
  bbb-webhooks mappings

  # List mappings as JSON
  bbb-webhooks mappings --output json`,
	RunE: runMappings,
}

func init() {
	mappingsCmd.Flags().StringVarP(&mappingsOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

func runMappings(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	// Quiet logger: this is an inspection command, not the service
	if err := logger.Init(logger.Config{Level: "ERROR", Format: "text", Output: "stderr"}); err != nil {
		return err
	}

	format, err := output.ParseFormat(mappingsOutput)
	if err != nil {
		return err
	}

	ctx := context.Background()

	kv, keys, err := config.OpenStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = kv.Close() }()

	registry := mapping.NewRegistry(kv, keys, nil)
	if err := registry.Resync(ctx); err != nil {
		return fmt.Errorf("failed to read mappings: %w", err)
	}

	mappings := registry.ListAll()
	sort.Slice(mappings, func(i, j int) bool {
		return mappings[i].ID < mappings[j].ID
	})

	printer := output.NewPrinter(cmd.OutOrStdout(), format)

	if format == output.FormatTable {
		if len(mappings) == 0 {
			printer.Println("No mappings found.")
			return nil
		}
		table := output.NewTableData("ID", "INTERNAL USER ID", "EXTERNAL USER ID", "MEETING ID")
		for _, m := range mappings {
			table.AddRow(strconv.FormatInt(m.ID, 10), m.InternalUserID, m.ExternalUserID, m.MeetingID)
		}
		return printer.Print(table)
	}

	return printer.Print(mappings)
}
