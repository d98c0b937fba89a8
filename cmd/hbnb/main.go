// hbnb is the administrative shell for the hbnb object registry.
//
// # Usage
//
//	hbnb                      interactive shell, or read commands from stdin
//	hbnb create User          run one command and exit
//	hbnb --backend sqlite     use a SQLite database instead of file.json
//
// Inside the shell, type "help" for the list of commands. Both notations are
// accepted:
//
//	(hbnb) update Place 1234 max_guest 4
//	(hbnb) Place.update("1234", {'max_guest': 4, 'latitude': 48.8})
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/acksell/hbnb/console"
	"github.com/acksell/hbnb/models"
	"github.com/acksell/hbnb/storage"
	"github.com/acksell/hbnb/storage/badgerstore"
	"github.com/acksell/hbnb/storage/filestore"
	"github.com/acksell/hbnb/storage/sqlstore"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

type rootFlags struct {
	config  string
	backend string
	path    string
	prompt  string
	verbose bool
}

func newRootCmd() *cobra.Command {
	var f rootFlags
	cmd := &cobra.Command{
		Use:   "hbnb [command...]",
		Short: "Administrative shell for the hbnb object registry",
		Long: `hbnb manipulates the registry of users, places, cities, states, amenities
and reviews. Without arguments it reads commands from stdin; with arguments
it runs them as a single command line and exits.`,
		Version:      version,
		SilenceUsage: true,
		Args:         cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(f.config)
			if err != nil {
				return err
			}
			applyFlags(cmd, f, &cfg)
			if err := cfg.validate(); err != nil {
				return err
			}

			logger, err := newLogger(cfg.Verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			return run(cmd.Context(), cfg, logger, args, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	// Everything after the first shell word belongs to the shell command.
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringVar(&f.config, "config", "", "config file (default: hbnb.yaml in this or a parent directory)")
	cmd.Flags().StringVar(&f.backend, "backend", "", "durable store: file, badger or sqlite")
	cmd.Flags().StringVar(&f.path, "path", "", "durable file or database location")
	cmd.Flags().StringVar(&f.prompt, "prompt", "", "interactive prompt")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "debug logging on stderr")
	return cmd
}

func applyFlags(cmd *cobra.Command, f rootFlags, cfg *Config) {
	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = f.backend
	}
	if flags.Changed("path") {
		cfg.Path = f.path
	}
	if flags.Changed("prompt") {
		cfg.Prompt = f.prompt
	}
	if flags.Changed("verbose") {
		cfg.Verbose = f.verbose
	}
}

// newLogger logs to stderr; stdout carries command responses only.
func newLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	return config.Build()
}

func run(ctx context.Context, cfg Config, logger *zap.Logger, args []string, stdin io.Reader, stdout io.Writer) error {
	backend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	classes := models.DefaultRegistry()
	engine, err := storage.Open(ctx, storage.Options{
		Backend: backend,
		Classes: classes,
		Logger:  logger.Named("storage"),
	})
	if err != nil {
		_ = backend.Close()
		return fmt.Errorf("load registry: %w", err)
	}
	defer func() {
		if err := engine.Close(); err != nil {
			logger.Error("close backend", zap.Error(err))
		}
	}()
	logger.Debug("registry loaded",
		zap.String("backend", cfg.Backend),
		zap.Strings("classes", classes.Names()),
		zap.Int("entities", engine.Count("")))

	in, err := console.New(console.Options{
		Engine:      engine,
		Out:         stdout,
		Prompt:      cfg.Prompt,
		Interactive: isTerminal(stdin),
		Logger:      logger.Named("console"),
	})
	if err != nil {
		return err
	}

	if len(args) > 0 {
		in.Exec(ctx, strings.Join(args, " "))
		return nil
	}
	return in.Run(ctx, stdin)
}

func openBackend(ctx context.Context, cfg Config, logger *zap.Logger) (storage.Backend, error) {
	switch cfg.Backend {
	case backendFile:
		return filestore.New(filestore.Options{Path: cfg.Path, Logger: logger.Named("filestore")}), nil
	case backendBadger:
		return badgerstore.New(badgerstore.Options{Path: cfg.Path, Logger: logger.Named("badgerstore")})
	case backendSQLite:
		return sqlstore.Open(ctx, sqlstore.Options{Path: cfg.Path, Logger: logger.Named("sqlstore")})
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
