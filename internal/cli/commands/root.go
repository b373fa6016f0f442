// Package commands implements the modelschema command line.
package commands

import (
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/conduit-lang/modelschema/internal/cli/config"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

var (
	configPath string
	verbose    bool
	noColor    bool
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "modelschema",
		Short: "Compile application schema models to JSON Schema",
		Long: color.CyanString(`modelschema - application schema to JSON Schema compiler

modelschema reads an application schema model (packages, classes and properties
with multiplicities and tagged values) and produces one JSON Schema document per
application schema, together with a cross-reference table for later runs.

Features:
  • JSON Schema 2020-12, 2019-09, draft-07 and OpenAPI 3.0 output
  • Encoding rules for plain JSON, GeoJSON and JSON-FG layouts
  • Discriminated collection schemas
  • Watch mode with content-based rebuilds`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file (default: ./"+config.FileName+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed output and debug logs")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewBuildCommand())
	rootCmd.AddCommand(NewWatchCommand())
	rootCmd.AddCommand(NewInitCommand())
	rootCmd.AddCommand(NewConfigCommand())

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the modelschema version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			out := cmd.OutOrStdout()
			titleColor := color.New(color.FgCyan, color.Bold)
			for _, row := range [][2]string{
				{"modelschema version", Version},
				{"Git commit", GitCommit},
				{"Build date", BuildDate},
				{"Go version", goVer},
			} {
				titleColor.Fprintf(out, "%s: ", row[0])
				fmt.Fprintln(out, row[1])
			}
		},
	}
}

// newLogger returns a development logger with --verbose and a console logger that only
// reports warnings otherwise
func newLogger() (*zap.Logger, error) {
	if verbose {
		cfg := zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
		return cfg.Build()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}
