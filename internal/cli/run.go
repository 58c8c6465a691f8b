package cli

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/rota-da-festa/internal/classifier"
	"github.com/pfrederiksen/rota-da-festa/internal/config"
	"github.com/pfrederiksen/rota-da-festa/internal/crawler"
	"github.com/pfrederiksen/rota-da-festa/internal/gazetteer"
	"github.com/pfrederiksen/rota-da-festa/internal/geocode"
	"github.com/pfrederiksen/rota-da-festa/internal/loader"
	"github.com/pfrederiksen/rota-da-festa/internal/logger"
	"github.com/pfrederiksen/rota-da-festa/internal/notifier"
	"github.com/pfrederiksen/rota-da-festa/internal/parser"
	"github.com/pfrederiksen/rota-da-festa/internal/runner"
)

type runFlags struct {
	dryRun      bool
	forcePurge  bool
	skipDetails bool
}

func newRunCmd(root *rootFlags) *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Crawl fixtures, reconcile postponements and upsert the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, root, flags)
		},
	}
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Crawl and report without writing to the store or notifying")
	cmd.Flags().BoolVar(&flags.forcePurge, "force-purge", false, "Purge past events regardless of the weekday")
	cmd.Flags().BoolVar(&flags.skipDetails, "skip-details", false, "Do not open match pages for team and standings links")
	return cmd
}

func runPipeline(cmd *cobra.Command, root *rootFlags, flags *runFlags) error {
	format, err := parseFormat(root.format, FormatText, FormatJSON)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, root)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore(store)

	browser, err := openBrowser(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := browser.Close(); err != nil {
			logger.Warn("closing browser", logger.Fields{"error": err.Error()})
		}
	}()

	metrics := logger.NewMetrics()
	c, err := buildCrawler(cfg, browser, metrics, flags.skipDetails)
	if err != nil {
		return err
	}
	n, err := buildNotifier(cmd, cfg, flags.dryRun)
	if err != nil {
		return err
	}

	summary, err := runner.Run(ctx, runner.Deps{
		Crawler:  c,
		Store:    store,
		Notifier: n,
		Metrics:  metrics,
	}, runner.Options{
		DryRun:       flags.dryRun,
		PurgeWeekday: cfg.PurgeWeekday,
		ForcePurge:   flags.forcePurge,
	})
	if err != nil {
		return err
	}

	if err := WriteSummary(cmd.OutOrStdout(), summary, format); err != nil {
		return errors.Wrap(err, "writing output")
	}
	if summary.StoppedEmpty {
		return exitError{code: ExitEmptyRun}
	}
	return nil
}

func openBrowser(ctx context.Context, cfg *config.Config) (*loader.Browser, error) {
	opts := loader.DefaultBrowserOptions()
	opts.Headless = cfg.Headless
	opts.WaitSelectors = parser.ContainerSelectors

	browser, err := loader.OpenBrowser(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "starting browser")
	}
	return browser, nil
}

// buildCrawler wires the loader, gazetteer and classifier for one run
func buildCrawler(cfg *config.Config, renderer loader.Renderer, metrics *logger.Metrics, skipDetails bool) (*crawler.Crawler, error) {
	catalog, err := config.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		return nil, err
	}

	pages := loader.New(renderer,
		loader.WithRetryPolicy(cfg.RetryPolicy()),
		loader.WithMetrics(metrics))

	var geocoder gazetteer.Geocoder
	if cfg.GeocoderURL != "" {
		geocoder = geocode.NewClient(
			geocode.WithBaseURL(cfg.GeocoderURL),
			geocode.WithUserAgent(cfg.GeocoderUserAgent),
			geocode.WithInterval(cfg.GeocodeInterval))
	}
	resolver := gazetteer.NewResolver(geocoder, nil)
	fixtures := classifier.New(resolver.Cache().Keys())

	return crawler.New(pages, fixtures, resolver, crawler.Options{
		LookaheadDays: cfg.LookaheadDays,
		MaxEditions:   cfg.MaxEditions,
		DetailDelay:   cfg.DetailDelay,
		SkipDetails:   skipDetails,
		Sources:       catalog.CrawlerSources(),
		Now:           time.Now,
		Metrics:       metrics,
	}), nil
}

// buildNotifier prints to stdout on dry runs and posts to Telegram when a bot
// is configured. It returns nil when neither applies.
func buildNotifier(cmd *cobra.Command, cfg *config.Config, dryRun bool) (notifier.Notifier, error) {
	if dryRun {
		return notifier.NewDryRunNotifier(cmd.OutOrStdout()), nil
	}
	if !cfg.TelegramEnabled() {
		return nil, nil
	}
	tg, err := notifier.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID)
	if err != nil {
		return nil, errors.Wrap(err, "creating telegram notifier")
	}
	return tg, nil
}
