package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/export"
)

const (
	dateLayout      = "2006-01-02"
	defaultLookback = 30
)

type exportOptions struct {
	configPath string
	from       string
	to         string
	out        string
}

func main() {
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	if err := newRootCmd(&logger).Execute(); err != nil {
		logger.Fatal().Err(err).Msg("journal export failed")
	}
}

func newRootCmd(logger *zerolog.Logger) *cobra.Command {
	opts := &exportOptions{}
	cmd := &cobra.Command{
		Use:           "journal-export",
		Short:         "Write the open/close and theme transition journal to an Excel workbook",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, opts, logger)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", os.Getenv("STOREFRONT_CONFIG_PATH"), "path to config.yaml")
	flags.StringVarP(&opts.from, "from", "f", "", "first day to include, YYYY-MM-DD (default: 30 days ago)")
	flags.StringVarP(&opts.to, "to", "t", "", "last day to include, YYYY-MM-DD (default: today)")
	flags.StringVarP(&opts.out, "out", "o", "", "output .xlsx path (default: generated name)")
	return cmd
}

func runExport(cmd *cobra.Command, opts *exportOptions, logger *zerolog.Logger) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := config.LoadStoreConfig(cfg.Store.Path)
	if err != nil {
		logger.Warn().Err(err).Msg("store config unavailable, using defaults")
		store = config.DefaultStoreConfig()
	}
	loc := store.Location()

	from, to, err := resolveRange(opts.from, opts.to, loc, time.Now())
	if err != nil {
		return err
	}

	journal, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer journal.Close()

	path := opts.out
	if path == "" {
		path = export.GenerateFilename(from, to.AddDate(0, 0, -1))
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	n, err := export.NewExporter(journal, loc, logger).Export(cmd.Context(), from, to, f)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	logger.Info().Int("rows", n).Str("path", path).Msg("Journal report written")
	return nil
}

// resolveRange turns the --from/--to days into a half-open [from, to) range in loc.
// --to is inclusive, so the returned end is the midnight after it.
func resolveRange(fromRaw, toRaw string, loc *time.Location, now time.Time) (time.Time, time.Time, error) {
	today := now.In(loc)
	to := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)
	from := to.AddDate(0, 0, -defaultLookback)

	var err error
	if fromRaw != "" {
		if from, err = time.ParseInLocation(dateLayout, fromRaw, loc); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from %q: %w", fromRaw, err)
		}
	}
	if toRaw != "" {
		if to, err = time.ParseInLocation(dateLayout, toRaw, loc); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to %q: %w", toRaw, err)
		}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to %s is before --from %s", to.Format(dateLayout), from.Format(dateLayout))
	}
	return from, to.AddDate(0, 0, 1), nil
}
