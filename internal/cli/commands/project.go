package commands

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/conduit-lang/modelschema/internal/cli/config"
	"github.com/conduit-lang/modelschema/internal/cli/ui"
	"github.com/conduit-lang/modelschema/internal/compiler/jsonschema"
	"github.com/conduit-lang/modelschema/internal/compiler/model"
	"github.com/conduit-lang/modelschema/internal/compiler/rules"
	"github.com/conduit-lang/modelschema/internal/output"
)

// buildReport is the outcome of one build of a project
type buildReport struct {
	Result       *jsonschema.Result
	Stats        *output.WriteStats
	MapEntryFile string
	Check        *output.CheckReport
	Duration     time.Duration
}

// buildSettings are command line overrides of the configuration
type buildSettings struct {
	outputDir string
	schemas   []string
	noCheck   bool
}

func (s buildSettings) apply(cfg *config.Config) {
	if s.outputDir != "" {
		cfg.Output.Dir = s.outputDir
	}
	if len(s.schemas) > 0 {
		cfg.Schemas = s.schemas
	}
	if s.noCheck {
		cfg.Output.Check = false
	}
}

// schemaNotFoundError is returned when a requested schema is missing from the model
type schemaNotFoundError struct {
	name        string
	suggestions []string
}

func (e *schemaNotFoundError) Error() string {
	return fmt.Sprintf("application schema %q not found", e.name)
}

// inputFiles returns the files a build reads
func inputFiles(cfg *config.Config) []string {
	files := []string{cfg.ModelPath()}
	if cfg.File != "" {
		files = append(files, cfg.File)
	}
	for _, f := range cfg.MapEntryFiles {
		files = append(files, cfg.Path(f))
	}
	return files
}

// checkSchemas reports literal schema selections that name no application schema
func checkSchemas(m *model.Model, selections []string) error {
	var names []string
	for _, p := range m.ApplicationSchemas() {
		names = append(names, p.Name)
	}
	for _, s := range selections {
		if strings.ContainsAny(s, "*?[{") {
			continue
		}
		found := false
		for _, n := range names {
			if n == s {
				found = true
				break
			}
		}
		if !found {
			return &schemaNotFoundError{name: s, suggestions: ui.Suggest(s, names, 3)}
		}
	}
	return nil
}

// buildProject loads the model, compiles it and writes all outputs. Compilation
// diagnostics are part of the report; the error covers input and output failures.
func buildProject(cfg *config.Config, logger *zap.Logger) (*buildReport, error) {
	start := time.Now()

	m, err := model.Load(cfg.ModelPath())
	if err != nil {
		return nil, err
	}
	if err := checkSchemas(m, cfg.Schemas); err != nil {
		return nil, err
	}

	var extra []rules.MapEntry
	for _, f := range cfg.MapEntryFiles {
		entries, err := output.ReadMapEntries(cfg.Path(f))
		if err != nil {
			return nil, err
		}
		extra = append(extra, entries...)
	}

	// diagnostics are printed by the command; the compiler only logs them when verbose
	compileLogger := zap.NewNop()
	if verbose {
		compileLogger = logger.Named("compiler")
	}
	c, err := jsonschema.New(m, cfg.Options(extra...), compileLogger)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	report := &buildReport{Result: c.Compile()}

	w := output.NewWriter(cfg.OutputDir(), logger.Named("output"))
	if report.Stats, err = w.Write(report.Result.Documents); err != nil {
		return report, err
	}
	if cfg.Output.MapEntries != "" {
		if report.MapEntryFile, err = w.WriteMapEntries(cfg.Output.MapEntries, report.Result.CrossReferences); err != nil {
			return report, err
		}
	}
	if cfg.Output.Check {
		if report.Check, err = output.Check(report.Result.Documents, cfg.Target.SchemaVersion); err != nil {
			return report, err
		}
		if len(report.Check.External) > 0 {
			logger.Debug("external references not checked", zap.Strings("urls", report.Check.External))
		}
	}

	report.Duration = time.Since(start)
	return report, nil
}
