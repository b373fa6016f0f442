package commands

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/modelschema/internal/cli/config"
	"github.com/conduit-lang/modelschema/internal/compiler/jsonschema"
	"github.com/conduit-lang/modelschema/internal/compiler/rules"
)

var (
	initYes   bool
	initForce bool
)

// initAnswers are the values asked for by init
type initAnswers struct {
	Model         string `survey:"model"`
	OutputDir     string `survey:"outputDir"`
	SchemaVersion string `survey:"schemaVersion"`
	BaseURI       string `survey:"baseURI"`
	EncodingRule  string `survey:"encodingRule"`
	MapEntries    bool   `survey:"mapEntries"`
}

// askFunc asks the init questions; replaced in tests
var askFunc = func(qs []*survey.Question, answers *initAnswers) error {
	return survey.Ask(qs, answers)
}

// NewInitCommand creates the init command
func NewInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a modelschema.yml configuration",
		Long: `Create a modelschema.yml configuration in the given directory (default: the
working directory). You are asked for the model file, the output directory, the
JSON Schema version, the base URI and the default encoding rule.

Examples:
  modelschema init
  modelschema init schemas/transport --yes`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInit,
	}

	cmd.Flags().BoolVarP(&initYes, "yes", "y", false, "Use defaults without asking")
	cmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing configuration")

	return cmd
}

func defaultAnswers() initAnswers {
	d := config.Default()
	return initAnswers{
		Model:         d.Input.Model,
		OutputDir:     d.Output.Dir,
		SchemaVersion: string(d.Target.SchemaVersion),
		EncodingRule:  d.Target.DefaultEncodingRule,
	}
}

func initQuestions(d initAnswers) []*survey.Question {
	return []*survey.Question{
		{
			Name:     "model",
			Prompt:   &survey.Input{Message: "Model file:", Default: d.Model},
			Validate: survey.Required,
		},
		{
			Name:     "outputDir",
			Prompt:   &survey.Input{Message: "Output directory:", Default: d.OutputDir},
			Validate: survey.Required,
		},
		{
			Name: "schemaVersion",
			Prompt: &survey.Select{
				Message: "JSON Schema version:",
				Options: []string{
					string(jsonschema.Version202012),
					string(jsonschema.Version201909),
					string(jsonschema.VersionDraft07),
					string(jsonschema.VersionOpenAPI30),
				},
				Default: d.SchemaVersion,
			},
		},
		{
			Name:     "baseURI",
			Prompt:   &survey.Input{Message: "Base URI of the documents (empty for urn:uuid ids):"},
			Validate: validateBaseURI,
		},
		{
			Name: "encodingRule",
			Prompt: &survey.Select{
				Message: "Default encoding rule:",
				Options: []string{rules.EncodingDefault, rules.EncodingGeoJSON, rules.EncodingJSONFG},
				Default: d.EncodingRule,
				Description: func(value string, index int) string {
					switch value {
					case rules.EncodingGeoJSON:
						return "GeoJSON features"
					case rules.EncodingJSONFG:
						return "JSON-FG features"
					}
					return "plain JSON objects"
				},
			},
		},
		{
			Name:   "mapEntries",
			Prompt: &survey.Confirm{Message: "Write a cross-reference table?", Default: false},
		},
	}
}

// validateBaseURI accepts an empty value or an absolute URI
func validateBaseURI(ans interface{}) error {
	s, _ := ans.(string)
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() {
		return fmt.Errorf("base URI must be absolute, e.g. https://example.org/schemas")
	}
	return nil
}

// newConfig builds the configuration for the answers
func newConfig(a initAnswers) *config.Config {
	cfg := config.Default()
	cfg.Input.Model = a.Model
	cfg.Output.Dir = a.OutputDir
	cfg.Target.SchemaVersion = jsonschema.SchemaVersion(a.SchemaVersion)
	cfg.Target.BaseURI = strings.TrimSpace(a.BaseURI)
	cfg.Target.DefaultEncodingRule = a.EncodingRule
	if a.MapEntries {
		cfg.Output.MapEntries = "mapentries.yml"
	}
	cfg.MapEntries = []rules.MapEntry{
		{Type: "CharacterString", TargetType: "string"},
		{Type: "Boolean", TargetType: "boolean"},
		{Type: "Integer", TargetType: "integer"},
		{Type: "Real", TargetType: "number"},
		{Type: "Date", TargetType: "string", Keywords: rules.Keywords{Format: "date"}},
		{Type: "DateTime", TargetType: "string", Keywords: rules.Keywords{Format: "date-time"}},
		{Type: "URI", TargetType: "string", Keywords: rules.Keywords{Format: "uri"}},
	}
	return cfg
}

func runInit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	successColor := color.New(color.FgGreen, color.Bold)
	infoColor := color.New(color.FgCyan)

	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	path := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	answers := defaultAnswers()
	if !initYes {
		if err := askFunc(initQuestions(answers), &answers); err != nil {
			return err
		}
	}

	cfg := newConfig(answers)
	if err := cfg.Target.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := cfg.Save(path); err != nil {
		return err
	}

	successColor.Fprintf(out, "✓ Created %s\n", path)
	infoColor.Fprintln(out, "\nNext steps:")
	infoColor.Fprintf(out, "  1. Put your model into %s\n", filepath.Join(dir, cfg.Input.Model))
	infoColor.Fprintln(out, "  2. Run: modelschema build")
	return nil
}
