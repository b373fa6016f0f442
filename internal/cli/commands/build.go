package commands

import (
	stderrors "errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/modelschema/internal/cli/config"
	"github.com/conduit-lang/modelschema/internal/cli/ui"
	"github.com/conduit-lang/modelschema/internal/compiler/errors"
)

var (
	buildJSON     bool
	buildOutput   string
	buildSchemas  []string
	buildNoCheck  bool
	buildWarnings bool
)

// NewBuildCommand creates the build command
func NewBuildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Compile the model to JSON Schema documents",
		Long: `Compile the configured model and write one JSON Schema document per application
schema into the output directory.

The build process:
  1. Definitions - one schema definition per class
  2. Encoding infos - entity type and identifier members of every class
  3. Member restrictions - narrowing of externally inherited members
  4. Collections - discriminated collection schemas
  5. Documents - output files and the cross-reference table

Diagnostics never stop the build; the command fails when any error was reported.`,
		Example: `  # Build with modelschema.yml from the working directory
  modelschema build

  # Build only some application schemas into another directory
  modelschema build --schema Transport --schema 'Hydro*' -o dist/schemas

  # Report diagnostics as JSON (useful for tooling)
  modelschema build --json`,
		RunE: runBuild,
	}

	cmd.Flags().BoolVar(&buildJSON, "json", false, "Output diagnostics in JSON format")
	cmd.Flags().StringVarP(&buildOutput, "output", "o", "", "Output directory (default: output.dir)")
	cmd.Flags().StringArrayVar(&buildSchemas, "schema", nil, "Application schema name or glob to compile (repeatable)")
	cmd.Flags().BoolVar(&buildNoCheck, "no-check", false, "Skip validating the produced documents")
	cmd.Flags().BoolVarP(&buildWarnings, "warnings", "w", false, "Show warnings")

	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError(err.Error(), nil, color.NoColor))
		return err
	}
	buildSettings{outputDir: buildOutput, schemas: buildSchemas, noCheck: buildNoCheck}.apply(cfg)

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	report, err := buildProject(cfg, logger)
	if err != nil {
		var missing *schemaNotFoundError
		var diag *errors.Diagnostic
		switch {
		case stderrors.As(err, &missing):
			fmt.Fprint(cmd.ErrOrStderr(), ui.SchemaNotFoundError(missing.name, missing.suggestions, color.NoColor))
		case stderrors.As(err, &diag):
			fmt.Fprint(cmd.ErrOrStderr(), ui.BuildError(diag.Message, nil, color.NoColor))
		default:
			fmt.Fprint(cmd.ErrOrStderr(), ui.BuildError(err.Error(), nil, color.NoColor))
		}
		return err
	}

	diags := report.Result.Diagnostics
	if buildJSON {
		if err := writeDiagnosticsJSON(out, diags); err != nil {
			return err
		}
	} else {
		ui.WriteDiagnostics(cmd.ErrOrStderr(), diags, buildWarnings || verbose, color.NoColor)
		printBuildSummary(out, report)
	}

	if diags.HasErrors() {
		fatal, errs, _ := diags.Count()
		return fmt.Errorf("compilation reported %d error(s)", fatal+errs)
	}
	return nil
}

func writeDiagnosticsJSON(w io.Writer, diags errors.DiagnosticList) error {
	if diags == nil {
		diags = errors.DiagnosticList{}
	}
	data, err := diags.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to encode diagnostics: %w", err)
	}
	fmt.Fprintln(w, data)
	return nil
}

func printBuildSummary(w io.Writer, report *buildReport) {
	written := make(map[string]bool)
	for _, f := range report.Stats.Written {
		written[filepath.Base(f)] = true
	}

	if verbose {
		table := ui.NewTable(w, color.NoColor, "Schema", "File", "Definitions", "Status")
		for _, doc := range report.Result.Documents {
			status := "unchanged"
			if written[doc.FileName] {
				status = "written"
			}
			defs := 0
			if doc.Root != nil {
				defs = doc.Root.Defs.Len()
			}
			table.AddRow(doc.Name, doc.FileName, strconv.Itoa(defs), status)
		}
		table.Render()
		if report.MapEntryFile != "" {
			fmt.Fprintf(w, "Cross references: %s\n", report.MapEntryFile)
		}
		if report.Check != nil && len(report.Check.External) > 0 {
			fmt.Fprintf(w, "Not checked: %d external reference(s)\n", len(report.Check.External))
		}
	}

	ui.WriteSuccess(w, fmt.Sprintf("Built %d document(s) in %s (%d written, %d unchanged)",
		len(report.Result.Documents), report.Duration.Round(time.Millisecond),
		len(report.Stats.Written), len(report.Stats.Unchanged)), color.NoColor)
}
