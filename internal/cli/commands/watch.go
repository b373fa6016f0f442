package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/modelschema/internal/cli/config"
	"github.com/conduit-lang/modelschema/internal/cli/ui"
	"github.com/conduit-lang/modelschema/internal/watch"
)

// NewWatchCommand creates the watch command
func NewWatchCommand() *cobra.Command {
	var (
		delay    time.Duration
		output   string
		warnings bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild whenever the model or configuration changes",
		Long: `Build once, then watch the model file, the configuration file and the included
map entry files. Saving a file with new content triggers a rebuild; saving it
unchanged does not.

Examples:
  # Watch with modelschema.yml from the working directory
  modelschema watch

  # Wait longer for editors that write in several steps
  modelschema watch --delay 500ms
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer logger.Sync()

			s := &watchSession{
				out:      cmd.OutOrStdout(),
				errOut:   cmd.ErrOrStderr(),
				settings: buildSettings{outputDir: output},
				warnings: warnings || verbose,
				logger:   logger,
			}
			cfg, err := s.reload()
			if err != nil {
				fmt.Fprint(s.errOut, ui.ConfigError(err.Error(), nil, color.NoColor))
				return err
			}
			s.build(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return s.run(ctx, cfg, delay)
		},
	}

	cmd.Flags().DurationVar(&delay, "delay", watch.DefaultDelay, "Quiet period before rebuilding")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (default: output.dir)")
	cmd.Flags().BoolVarP(&warnings, "warnings", "w", false, "Show warnings")

	return cmd
}

// watchSession rebuilds a project on change. The set of watched files follows the
// configuration, so a configuration change restarts the watcher.
type watchSession struct {
	mu       sync.Mutex
	out      io.Writer
	errOut   io.Writer
	settings buildSettings
	warnings bool
	logger   *zap.Logger
	restart  chan *config.Config
}

func (s *watchSession) reload() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	s.settings.apply(cfg)
	return cfg, nil
}

// build runs one build and prints its outcome; failures are reported, not returned
func (s *watchSession) build(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, err := buildProject(cfg, s.logger)
	if err != nil {
		fmt.Fprint(s.errOut, ui.BuildError(err.Error(), nil, color.NoColor))
		return
	}
	ui.WriteDiagnostics(s.errOut, report.Result.Diagnostics, s.warnings, color.NoColor)
	printBuildSummary(s.out, report)
}

func (s *watchSession) run(ctx context.Context, cfg *config.Config, delay time.Duration) error {
	s.restart = make(chan *config.Config, 1)
	for {
		current := cfg
		files := inputFiles(current)
		fw, err := watch.NewFileWatcher(files, delay, s.logger.Named("watch"), func(changed []string) error {
			return s.onChange(current, changed)
		})
		if err != nil {
			return err
		}
		if err := fw.Start(); err != nil {
			fw.Stop()
			return err
		}
		fmt.Fprintln(s.out)
		color.New(color.FgCyan, color.Bold).Fprintf(s.out, "👀 Watching %d file(s)\n", len(files))
		color.New(color.FgYellow).Fprintln(s.out, "   Press Ctrl+C to stop")

		select {
		case <-ctx.Done():
			if err := fw.Stop(); err != nil {
				return fmt.Errorf("error stopping watcher: %w", err)
			}
			color.New(color.FgGreen).Fprintln(s.out, "\nStopped watching.")
			return nil
		case next := <-s.restart:
			if err := fw.Stop(); err != nil {
				return fmt.Errorf("error stopping watcher: %w", err)
			}
			cfg = next
		}
	}
}

// onChange rebuilds; a changed configuration is reloaded first and restarts the watcher
func (s *watchSession) onChange(cfg *config.Config, changed []string) error {
	configChanged := false
	for _, f := range changed {
		if cfg.File != "" && f == cfg.File {
			configChanged = true
		}
	}
	if !configChanged {
		s.build(cfg)
		return nil
	}

	next, err := s.reload()
	if err != nil {
		fmt.Fprint(s.errOut, ui.ConfigError(err.Error(), nil, color.NoColor))
		return nil
	}
	s.build(next)
	select {
	case s.restart <- next:
	default:
	}
	return nil
}
