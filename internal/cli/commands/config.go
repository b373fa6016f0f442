package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/modelschema/internal/cli/config"
)

// NewConfigCommand creates the config command group
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}
	cmd.AddCommand(newConfigSchemaCommand())
	cmd.AddCommand(newConfigShowCommand())
	return cmd
}

func newConfigSchemaCommand() *cobra.Command {
	var outFile string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of modelschema.yml",
		Long: `Print the JSON Schema of the configuration file. Editors use it for completion
and validation of modelschema.yml.

Examples:
  modelschema config schema > modelschema.schema.json
  modelschema config schema -o modelschema.schema.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.Schema()
			if err != nil {
				return fmt.Errorf("failed to generate schema: %w", err)
			}
			if outFile != "" {
				return os.WriteFile(outFile, append(data, '\n'), 0644)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Write to file instead of stdout")
	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with defaults applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			if cfg.File != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", cfg.File)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
