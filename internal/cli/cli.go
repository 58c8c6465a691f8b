package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/rota-da-festa/internal/config"
	"github.com/pfrederiksen/rota-da-festa/internal/logger"
	"github.com/pfrederiksen/rota-da-festa/internal/storage"
)

const (
	ExitSuccess = 0
	ExitError   = 1
	// ExitEmptyRun signals a run that collected no fixtures at all
	ExitEmptyRun = 2
)

var version = "dev"

// exitError carries a non-zero exit code out of a command
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

type rootFlags struct {
	verbose bool
	format  string
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "rota-scraper",
		Short: "Collect amateur football fixtures for the Rota da Festa dashboard",
		Long: `Scrapes upcoming amateur and youth football fixtures in northern Portugal,
geocodes their venues and upserts them into the Rota da Festa event store.
Fixtures that vanish from an agenda date are marked as postponed.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVar(&flags.verbose, "verbose", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&flags.format, "format", string(FormatText), "Output format: text or json")

	cmd.AddCommand(
		newRunCmd(flags),
		newPurgeCmd(flags),
		newExportCmd(flags),
		newMigrateCmd(flags),
	)
	return cmd
}

// loadConfig reads the configuration and installs the logger it asks for
func loadConfig(cmd *cobra.Command, flags *rootFlags) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "loading configuration")
	}
	level := cfg.LogLevel
	if flags.verbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, cmd.ErrOrStderr()))
	return cfg, nil
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	store, err := storage.Open(ctx, cfg.StorageOptions())
	if err != nil {
		return nil, errors.Wrap(err, "opening event store")
	}
	return store, nil
}

func closeStore(store storage.Store) {
	if err := store.Close(); err != nil {
		logger.Warn("closing event store", logger.Fields{"error": err.Error()})
	}
}

func parseFormat(raw string, allowed ...OutputFormat) (OutputFormat, error) {
	f := OutputFormat(raw)
	for _, a := range allowed {
		if f == a {
			return f, nil
		}
	}
	return "", errors.Newf("invalid format: %s (must be one of %v)", raw, allowed)
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	_ = logger.Default().Sync()

	if err == nil {
		os.Exit(ExitSuccess)
	}
	var exit exitError
	if errors.As(err, &exit) {
		os.Exit(exit.code)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if hint := errors.FlattenHints(err); hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	}
	os.Exit(ExitError)
}
