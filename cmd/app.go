package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Tiliavir/gitlab-time-sync/internal/config"
	"github.com/Tiliavir/gitlab-time-sync/internal/extract"
	"github.com/Tiliavir/gitlab-time-sync/internal/hamster"
	"github.com/Tiliavir/gitlab-time-sync/internal/logging"
	"github.com/Tiliavir/gitlab-time-sync/internal/report"
	"github.com/Tiliavir/gitlab-time-sync/internal/timecalc"
)

// usageError marks bad input or configuration (exit 1). Everything else
// that stops a command exits 2.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// exitCode maps a command error to the process status.
func exitCode(err error) int {
	var (
		uerr usageError
		perr *timecalc.ParseError
		merr *config.MissingKeysError
	)
	switch {
	case err == nil:
		return 0
	case errors.As(err, &uerr), errors.As(err, &perr), errors.As(err, &merr),
		errors.Is(err, config.ErrConfigCreated):
		return 1
	default:
		return 2
	}
}

// app bundles what every command builds from the configuration.
type app struct {
	cfg       *config.Config
	log       *slog.Logger
	logCloser io.Closer
	resolver  *timecalc.Resolver
	extractor *extract.Extractor
	printer   *report.Printer
}

// newApp loads the configuration and builds the shared components. remote
// requires the GitLab settings to be present.
func newApp(remote bool) (*app, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, usageError{err}
	}

	path := configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, config.ErrConfigCreated) {
			return nil, err
		}
		return nil, usageError{err}
	}
	if dbPath != "" {
		cfg.Default.DB = dbPath
	}
	if err := cfg.Validate(remote); err != nil {
		return nil, err
	}

	log, closer, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		Verbose:    verbose,
	}, os.Stderr)
	if err != nil {
		return nil, usageError{fmt.Errorf("log.level: %w", err)}
	}
	slog.SetDefault(log)

	var ropts []timecalc.ResolverOption
	if cfg.Default.NaturalDates {
		ropts = append(ropts, timecalc.WithNaturalLanguage())
	}
	resolver, err := timecalc.NewResolver(cfg.Default.DateFormats, ropts...)
	if err != nil {
		closer.Close()
		return nil, usageError{fmt.Errorf("default.date_formats: %w", err)}
	}
	extractor, err := extract.New(cfg.Default.IssueIDRegexp)
	if err != nil {
		closer.Close()
		return nil, usageError{fmt.Errorf("default.issue_id_regexp: %w", err)}
	}

	log.Debug("configuration loaded", "path", cfg.Path, "db", cfg.Default.DB)
	return &app{
		cfg:       cfg,
		log:       log,
		logCloser: closer,
		resolver:  resolver,
		extractor: extractor,
		printer:   report.New(os.Stdout),
	}, nil
}

func (a *app) Close() error {
	return a.logCloser.Close()
}

// openStore opens the Hamster database named in the configuration.
func (a *app) openStore(opts ...hamster.Option) (*hamster.Store, error) {
	opts = append(opts, hamster.WithLogger(a.log))
	return hamster.Open(a.cfg.Default.DB, opts...)
}
