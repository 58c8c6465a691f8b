package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/rota-da-festa/internal/event"
	"github.com/pfrederiksen/rota-da-festa/internal/logger"
	"github.com/pfrederiksen/rota-da-festa/internal/storage"
)

func newPurgeCmd(root *rootFlags) *cobra.Command {
	var before string
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete events dated before a day (default today)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cutoff, err := resolveDate(before)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd, root)
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore(store)

			n, err := store.DeleteBefore(cmd.Context(), cutoff)
			if err != nil {
				return errors.Wrap(err, "purging past events")
			}
			logger.Info("purged past events", logger.Fields{"before": cutoff, "count": n})
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d event(s) dated before %s.\n", n, cutoff)
			return nil
		},
	}
	cmd.Flags().StringVar(&before, "before", "", "Cutoff date YYYY-MM-DD (default today, Europe/Lisbon)")
	return cmd
}

type exportFlags struct {
	from   string
	all    bool
	status string
	sort   string
	output string
	name   string
}

func newExportCmd(root *rootFlags) *cobra.Command {
	flags := &exportFlags{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write stored events as text, JSON or an iCalendar feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, root, flags)
		},
	}
	cmd.Flags().StringVar(&flags.from, "from", "", "First date YYYY-MM-DD (default today, Europe/Lisbon)")
	cmd.Flags().BoolVar(&flags.all, "all", false, "Include past events")
	cmd.Flags().StringVar(&flags.status, "status", "", "Only events with this status (aprovado or adiado)")
	cmd.Flags().StringVar(&flags.sort, "sort", string(SortByDate), "Sort order: date, name or category")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Write to this file instead of stdout")
	cmd.Flags().StringVar(&flags.name, "calendar-name", "Rota da Festa - Futebol", "Calendar name for the ics format")
	return cmd
}

func runExport(cmd *cobra.Command, root *rootFlags, flags *exportFlags) error {
	format, err := parseFormat(root.format, FormatText, FormatJSON, FormatICS)
	if err != nil {
		return err
	}
	order, err := parseSortOrder(flags.sort)
	if err != nil {
		return err
	}
	q := storage.Query{Status: flags.status}
	if flags.status != "" && flags.status != event.StatusApproved && flags.status != event.StatusPostponed {
		return errors.Newf("invalid status: %s (must be %s or %s)", flags.status, event.StatusApproved, event.StatusPostponed)
	}
	if !flags.all {
		if q.FromDate, err = resolveDate(flags.from); err != nil {
			return err
		}
	}

	cfg, err := loadConfig(cmd, root)
	if err != nil {
		return err
	}
	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeStore(store)

	recs, err := store.Select(cmd.Context(), q)
	if err != nil {
		return errors.Wrap(err, "reading events")
	}
	sortRecords(recs, order)

	var w io.Writer = cmd.OutOrStdout()
	if flags.output != "" {
		f, err := os.Create(flags.output)
		if err != nil {
			return errors.Wrap(err, "creating output file")
		}
		defer f.Close()
		w = f
	}

	result := &OutputResult{
		ExportedAt:   time.Now().UTC(),
		FromDate:     q.FromDate,
		Events:       recs,
		EventCount:   len(recs),
		CalendarName: flags.name,
	}
	if err := WriteOutput(w, result, format, root.verbose); err != nil {
		return errors.Wrap(err, "writing output")
	}
	return nil
}

func newMigrateCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the Postgres schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, root)
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.WithHint(errors.New("DATABASE_URL is not set"),
					"migrations only apply to the postgres store")
			}
			res, err := storage.Migrate(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			if res.Changed {
				fmt.Fprintf(cmd.OutOrStdout(), "Schema migrated to version %d.\n", res.Version)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Schema already at version %d.\n", res.Version)
			}
			return nil
		},
	}
}

// resolveDate validates a YYYY-MM-DD flag, defaulting to today in Lisbon
func resolveDate(raw string) (string, error) {
	if raw == "" {
		return event.FormatDate(event.Day(time.Now())), nil
	}
	if event.ParseRecordDate(raw).IsZero() {
		return "", errors.Newf("invalid date %q (want YYYY-MM-DD)", raw)
	}
	return raw, nil
}
