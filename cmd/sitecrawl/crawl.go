package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitecrawl/internal/config"
	"github.com/nao1215/sitecrawl/internal/crawler"
	"github.com/nao1215/sitecrawl/internal/database"
	"github.com/nao1215/sitecrawl/internal/fetch"
	"github.com/nao1215/sitecrawl/internal/log"
	"github.com/nao1215/sitecrawl/internal/model"
	"github.com/nao1215/sitecrawl/internal/parser"
	"github.com/nao1215/sitecrawl/internal/report"
	"github.com/nao1215/sitecrawl/internal/sink"
)

// stdoutPath selects standard output as the summary destination.
const stdoutPath = "-"

// dbTimeout bounds database bookkeeping that must run even after the crawl
// context is cancelled.
const dbTimeout = 10 * time.Second

// runCrawlCmd executes a crawl of args[0] into args[1].
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Nothing is created on disk until the configuration is valid.
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runCrawl(ctx, cfg, logger, cmd.OutOrStdout())
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags and positional
// arguments, and loads the configuration file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	if len(args) != 2 {
		return nil, fmt.Errorf("expected <domain> <output-file>, got %d argument(s)", len(args))
	}
	cfg.Domain = args[0]
	cfg.OutputFile = args[1]
	cfg.Verbose = getVerboseFlag(cmd)

	var err error

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.Parsers, err = cmd.Flags().GetInt("parsers")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size")
	if err != nil {
		return nil, err
	}

	cfg.IgnoreRobots, err = cmd.Flags().GetBool("ignore-robots")
	if err != nil {
		return nil, err
	}

	cfg.ProxyURL, err = cmd.Flags().GetString("proxy")
	if err != nil {
		return nil, err
	}

	cfg.SaveToDB, err = cmd.Flags().GetBool("db")
	if err != nil {
		return nil, err
	}

	cfg.DBDir, err = cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}

	cfg.SummaryFile, err = cmd.Flags().GetString("summary")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// A missing file is an error only when the user named it explicitly.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	return cfg, nil
}

// runCrawl wires the fetcher, parser pool and sinks for cfg, crawls the
// domain and writes the optional summary to the file named by cfg or to
// stdout. Extra fetch options are applied last.
//
// An interrupted crawl still closes its sinks, finishes the database run
// and writes the summary before the cancellation error is returned.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout io.Writer, fetchOpts ...fetch.Option) (err error) {
	site := cfg.SiteConfig()

	userAgent := cfg.UserAgent
	if site.UserAgent != "" {
		userAgent = site.UserAgent
	}

	opts := []fetch.Option{
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithProxy(cfg.ProxyURL),
		fetch.WithCookie(site.Cookie),
		fetch.WithHeaders(site.Headers),
		fetch.WithUserAgent(userAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithRespectRobots(!cfg.IgnoreRobots),
		fetch.WithLogger(logger),
	}
	client, err := fetch.New(cfg.Domain, append(opts, fetchOpts...)...)
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}

	pool := parser.NewPool(cfg.Domain,
		parser.WithWorkers(cfg.Parsers),
		parser.WithPoolLogger(logger),
	)
	defer func() {
		if closeErr := pool.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to stop parser pool: %w", closeErr)
		}
	}()

	output, err := sink.NewFileWriter(cfg.OutputFile, sink.WithLogger(logger))
	if err != nil {
		return err
	}
	writers := []sink.Writer{output}

	crawlOpts := []crawler.Option{
		crawler.WithLogger(logger),
		crawler.WithPathFilter(crawler.PathFilter{
			Ignore: site.IgnorePatterns,
			Follow: site.FollowPatterns,
		}),
	}

	var crawlDB *database.CrawlDB
	if cfg.SaveToDB {
		crawlDB, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			_ = output.Close()
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer func() {
			if closeErr := crawlDB.Close(); closeErr != nil {
				logger.Warn("failed to close database", "error", closeErr)
			}
		}()

		runID, startErr := crawlDB.StartRun(ctx, cfg.Domain, time.Now())
		if startErr != nil {
			_ = output.Close()
			return startErr
		}
		writers = append(writers, sink.NewAsync("database", crawlDB.Recorder(runID), sink.WithLogger(logger)))
		crawlOpts = append(crawlOpts, crawler.WithRunID(runID))
		logger.Debug("recording run", "run_id", runID, "database", crawlDB.Path())
	}

	writer := sink.NewMultiWriter(writers...)
	summary, crawlErr := crawler.New(cfg.Domain, client, pool, writer, crawlOpts...).Run(ctx)

	// Every accepted record is flushed before the run is finished.
	if closeErr := writer.Close(); closeErr != nil {
		return fmt.Errorf("failed to write crawl results: %w", closeErr)
	}

	if crawlDB != nil {
		dbCtx, dbCancel := context.WithTimeout(context.WithoutCancel(ctx), dbTimeout)
		finishErr := crawlDB.FinishRun(dbCtx, summary)
		dbCancel()
		if finishErr != nil {
			return finishErr
		}
	}

	if cfg.SummaryFile != "" {
		if err := writeSummary(cfg.SummaryFile, summary, stdout, cfg.Verbose); err != nil {
			return err
		}
	}

	if crawlErr != nil {
		if errors.Is(crawlErr, context.Canceled) {
			return fmt.Errorf("crawl interrupted after %d pages: %w", summary.Crawled, crawlErr)
		}
		return crawlErr
	}
	return nil
}

// writeSummary writes summary to path. The format follows the file
// extension; stdoutPath prints plain text to stdout.
func writeSummary(path string, summary *model.Summary, stdout io.Writer, verbose bool) error {
	if path == stdoutPath {
		_, err := report.NewSimpleWriter(stdout, report.WithVerbose(verbose)).Write(summary)
		return err
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create summary directory: %w", err)
		}
	}

	f, err := os.Create(path) //nolint:gosec // path is provided by the user
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}

	if _, err := report.NewFileWriter(path, f).Write(summary); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return f.Close()
}
