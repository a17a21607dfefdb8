package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"imgbundle/pkg/auth"
	"imgbundle/pkg/config"
	errs "imgbundle/pkg/errors"
	"imgbundle/pkg/fetch"
	"imgbundle/pkg/filter"
	"imgbundle/pkg/i18n"
	"imgbundle/pkg/logger"
	"imgbundle/pkg/ratelimit"
	"imgbundle/pkg/scanner"
	"imgbundle/pkg/ui"
)

// app holds what every page command needs once configuration is loaded
type app struct {
	cfg      *config.Config
	log      logger.Logger
	msgs     *i18n.Messages
	client   *fetch.Client
	scanner  *scanner.Scanner
	notifier *ui.Notifier
}

// newApp loads configuration with the command's flags applied and wires the
// fetch client, scanner and notifier
func newApp(cmd *cobra.Command, mode logger.Mode) (*app, error) {
	flags, err := collectFlags(cmd)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}
	if !cfg.UI.ColorEnabled {
		ui.SetColor(false)
	}

	log, err := logger.Initialize(&cfg.Logging, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log.WithField("version", version).Debug("imgbundle starting")

	opts := []fetch.Option{
		fetch.WithLimiter(ratelimit.PerMinute(cfg.Fetch.RequestsPerMinute)),
	}
	if cfg.Fetch.UseStoredCookies {
		if manager, err := auth.NewManager(); err == nil {
			opts = append(opts, fetch.WithCookies(manager))
		} else {
			log.WithError(err).Warn("Stored cookies unavailable")
		}
	}
	client := fetch.NewClient(&cfg.Fetch, log, opts...)

	return &app{
		cfg:      cfg,
		log:      log,
		msgs:     i18n.New(cfg.UI.Language),
		client:   client,
		scanner:  scanner.New(cfg, client, log),
		notifier: ui.NewNotifier(&cfg.Notifications),
	}, nil
}

// addFilterFlags registers the flags shared by scan, bundle and panel
func addFilterFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("min-width", 0, "minimum intrinsic width in pixels")
	f.Int("min-height", 0, "minimum intrinsic height in pixels")
	f.String("type", "", "file type to keep: png, jpg, gif, svg, webp, ... or all")
	f.String("max-size", "", "maximum image size, e.g. 500KB or 2MiB (empty for no limit)")
	f.Bool("large", false, "keep only images of at least 100x100")
	f.Bool("measure-size", true, "download each image to measure its dimensions and size")
	f.Bool("no-cookies", false, "do not send stored cookies")
	f.Duration("timeout", 0, "timeout for each HTTP request")
	f.Int("concurrent", 0, "number of images measured in parallel")
}

// addArchiveFlags registers the flags of commands that write archives
func addArchiveFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("output", "o", "", "archive path (default is ./images.zip)")
	f.Bool("save-as", false, "ask for the file name before saving")
	f.Bool("overwrite", false, "replace an existing file instead of adding a number")
	f.Bool("notifications", false, "send a desktop notification when the archive is done")
}

func changed(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

// collectFlags builds the override map for config.Load. Only flags the user
// actually set are included so that file and environment values survive.
func collectFlags(cmd *cobra.Command) (map[string]interface{}, error) {
	flags := make(map[string]interface{})
	fs := cmd.Flags()

	for _, name := range []string{"min-width", "min-height", "concurrent"} {
		if changed(cmd, name) {
			v, _ := fs.GetInt(name)
			flags[name] = v
		}
	}
	for _, name := range []string{"type", "output"} {
		if changed(cmd, name) {
			v, _ := fs.GetString(name)
			flags[name] = v
		}
	}
	for _, name := range []string{"measure-size", "no-cookies", "save-as", "overwrite", "notifications"} {
		if changed(cmd, name) {
			v, _ := fs.GetBool(name)
			flags[name] = v
		}
	}
	if changed(cmd, "timeout") {
		v, _ := fs.GetDuration("timeout")
		flags["timeout"] = v
	}
	if changed(cmd, "max-size") {
		v, _ := fs.GetString("max-size")
		n, err := parseSize(v)
		if err != nil {
			return nil, err
		}
		flags["max-size"] = n
	}

	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if quiet {
		flags["quiet"] = true
	}
	if language != "" {
		flags["lang"] = language
	}
	return flags, nil
}

func parseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid --max-size %q: %w", s, err)
	}
	return int64(n), nil
}

// criteria returns the configured filter, narrowed to the large preset when
// --large is set
func (a *app) criteria(cmd *cobra.Command) (filter.Criteria, error) {
	c := filter.FromConfig(&a.cfg.Filter)
	if large, _ := cmd.Flags().GetBool("large"); large {
		c = filter.SelectLarge(c)
	}
	if err := c.Validate(); err != nil {
		return filter.Criteria{}, errs.Wrap(errs.KindInvalidRequest, "invalid filter", err)
	}
	return c, nil
}

// filtersChanged reports whether any filter flag was given on the command line
func filtersChanged(cmd *cobra.Command) bool {
	for _, name := range []string{"min-width", "min-height", "type", "max-size", "large"} {
		if changed(cmd, name) {
			return true
		}
	}
	return false
}

// describe maps a pipeline error to its localized message
func (a *app) describe(err error, pageURL string) string {
	switch {
	case errors.Is(err, errs.ErrNoTarget):
		return a.msgs.T(i18n.NoTarget)
	case errors.Is(err, errs.ErrScanUnreachable):
		return a.msgs.T(i18n.ScanUnreachable, pageURL)
	case errors.Is(err, errs.ErrEmptySelection):
		return a.msgs.T(i18n.NoImagesSelected)
	case errors.Is(err, errs.ErrInvalidRequest):
		return a.msgs.T(i18n.InvalidRequest, err)
	case errors.Is(err, errs.ErrArchivePacking):
		return a.msgs.T(i18n.ArchiveFailed, err)
	default:
		return err.Error()
	}
}

// report prints err. Pre-flight failures are logged as warnings since no
// work was started.
func (a *app) report(err error, pageURL string) {
	msg := a.describe(err, pageURL)
	if errs.IsPreflight(err) {
		a.log.WithError(err).Warn("Aborted before any work started")
	} else {
		a.log.WithError(err).Error("Operation failed")
	}
	ui.PrintError(msg)
}
