package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/nao1215/sitecrawl/internal/config"
	"github.com/nao1215/sitecrawl/internal/database"
)

// defaultRunsLimit is the number of runs listed when --limit is not given.
const defaultRunsLimit = 20

// NewRunsCmd creates the runs command.
func NewRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List crawl runs recorded with --db",
		Long: `List the crawl runs stored in the SQLite database, newest first.

When a run id is given, the pages recorded for that run are printed in the
same line format as the crawl output file, sorted by path.

Examples:
  # List the 20 most recent runs
  sitecrawl runs

  # List runs of one domain
  sitecrawl runs --domain example.com

  # Print the pages of a run
  sitecrawl runs 1b4e28ba-2fa1-11d2-883f-0016d3cca427`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRunsCmd,
	}

	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory holding the SQLite database")
	cmd.Flags().StringP("domain", "d", "",
		"Only list runs of this domain")
	cmd.Flags().IntP("limit", "n", defaultRunsLimit,
		"Maximum number of runs to list (0 for all)")

	return cmd
}

// runRunsCmd executes the runs command.
func runRunsCmd(cmd *cobra.Command, args []string) error {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	domain, err := cmd.Flags().GetString("domain")
	if err != nil {
		return err
	}
	if domain != "" {
		if domain, err = config.ValidateDomain(domain); err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	crawlDB, err := database.Open(dbDir, opts)
	if err != nil {
		return err
	}
	defer crawlDB.Close()

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		return printPages(cmd, crawlDB, args[0], out)
	}

	runs, err := crawlDB.ListRuns(cmd.Context(), domain, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}
	return writeRunsTable(out, runs)
}

// printPages writes the stored records of runID, one line each.
func printPages(cmd *cobra.Command, crawlDB *database.CrawlDB, runID string, out io.Writer) error {
	ctx := cmd.Context()

	if _, err := crawlDB.GetRun(ctx, runID); err != nil {
		if errors.Is(err, database.ErrRunNotFound) {
			return fmt.Errorf("no run with id %s in %s", runID, crawlDB.Path())
		}
		return err
	}

	records, err := crawlDB.GetPages(ctx, runID)
	if err != nil {
		return err
	}
	for _, record := range records {
		if _, err := fmt.Fprintln(out, record.Line()); err != nil {
			return err
		}
	}
	return nil
}

// writeRunsTable renders runs as a Markdown table.
func writeRunsTable(out io.Writer, runs []database.Run) error {
	rows := make([][]string, len(runs))
	for i, run := range runs {
		status := "completed"
		switch {
		case !run.Finished():
			status = "incomplete"
		case run.Cancelled:
			status = "interrupted"
		}

		rows[i] = []string{
			run.ID,
			run.Domain,
			run.StartedAt.Local().Format(time.DateTime),
			status,
			strconv.Itoa(run.Crawled),
			strconv.Itoa(run.NoContent),
			strconv.Itoa(run.LinksFound),
		}
	}

	return markdown.NewMarkdown(out).
		Table(markdown.TableSet{
			Header: []string{"Run ID", "Domain", "Started", "Status", "Crawled", "No content", "Links"},
			Rows:   rows,
		}).
		Build()
}
