// Package main is the terminal quote gallery.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quote-gallery/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quote-gallery/internal/adapters/preferences"
	"github.com/jsamuelsen/quote-gallery/internal/app"
	"github.com/jsamuelsen/quote-gallery/internal/gallery"
	"github.com/jsamuelsen/quote-gallery/internal/platform/config"
	"github.com/jsamuelsen/quote-gallery/internal/platform/logging"
	"github.com/jsamuelsen/quote-gallery/internal/tui"
)

// Version is injected via ldflags.
var Version = "dev"

type options struct {
	profile   string
	configDir string
	sort      string
	ungrouped bool
	logFile   string
}

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := options{
		profile:   os.Getenv("APP_ENVIRONMENT"),
		configDir: "configs",
	}
	if opts.profile == "" {
		opts.profile = "local"
	}

	cmd := &cobra.Command{
		Use:   "quotewall",
		Short: "Browse the quote collection in the terminal",
		Long: `quotewall shows the quote collection as masonry columns with a rotating
featured quote. The Airtable API key comes from the config files or
APP_SOURCE_API_KEY.

Keys: arrows/hjkl move, enter opens details, esc closes, s sort, g group,
t theme, n/p featured quote, q quit.`,
		Version:      Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := initialSort(opts.sort, string(gallery.SortShuffle)); err != nil {
				return err
			}
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.profile, "profile", "p", opts.profile, "configuration profile (configs/<profile>.yaml)")
	cmd.Flags().StringVar(&opts.configDir, "config-dir", opts.configDir, "directory holding the configuration files")
	cmd.Flags().StringVarP(&opts.sort, "sort", "s", "", "initial sort: shuffle, asc, desc or priority")
	cmd.Flags().BoolVar(&opts.ungrouped, "ungrouped", false, "do not cluster quotes by group when showing all")
	cmd.Flags().StringVar(&opts.logFile, "log-file", "", "write JSON logs to this file")

	return cmd
}

func run(parent context.Context, opts options) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadFrom(opts.configDir, opts.profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if opts.logFile != "" {
		cfg.Log.File.Enabled = true
		cfg.Log.File.Path = opts.logFile
	}

	// The terminal belongs to the program, so logs only go to the file.
	logger := logging.NewWithWriter(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  "json",
		Service: "quotewall",
		Version: Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	}, io.Discard)
	logging.SetDefault(logger)

	source, err := acl.NewAirtableSource(cfg.Client, cfg.Source, "quotewall/"+Version, logger)
	if err != nil {
		return err
	}

	disk := preferences.NewDiskStore(cfg.Preferences)
	logger.Debug("preference store", slog.String("dir", disk.Dir()))
	store := preferences.FirstUsable(logger, disk)
	fallback := app.Theme(cfg.Preferences.DefaultTheme)

	sort, err := initialSort(opts.sort, cfg.Gallery.DefaultSort)
	if err != nil {
		return err
	}

	model := tui.New(ctx, tui.Config{
		Loader: app.NewLoader(app.LoaderConfig{
			Source:  source,
			Timeout: cfg.Gallery.LoadTimeout,
			Logger:  logger,
		}),
		Theme:       app.NewThemeService(store, func() app.Theme { return fallback }, logger),
		Title:       "Quotes",
		Grouped:     cfg.Gallery.Grouped && !opts.ungrouped,
		Sort:        sort,
		Breakpoints: cfg.Gallery.TerminalBreakpoints,
		Interval:    cfg.Gallery.Carousel.Interval,
		Fade:        cfg.Gallery.Carousel.Fade,
		Logger:      logger,
	})

	_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		logger.Error("terminal program failed", slog.Any("error", err))
		return fmt.Errorf("running terminal gallery: %w", err)
	}

	return nil
}

// initialSort resolves the --sort flag, falling back to the configured
// default. Aliases such as "random" resolve to their canonical mode.
func initialSort(flag, configured string) (gallery.SortMode, error) {
	if flag == "" {
		flag = configured
	}

	return gallery.ParseSortMode(flag)
}
