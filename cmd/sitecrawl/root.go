package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitecrawl/internal/config"
)

// NewRootCmd creates the root command for sitecrawl.
// The root command itself runs a crawl; subcommands manage configuration
// and stored runs.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitecrawl <domain> <output-file>",
		Short: "Crawl every page of a single domain",
		Long: `sitecrawl crawls a website starting at https://<domain>/ and follows every
link that stays on the same host. For each HTML page it writes one line to
<output-file>: the page path followed by the paths it links to, comma separated.

robots.txt is honoured unless --ignore-robots is given, including Crawl-delay.

Examples:
  # Crawl example.com into links.txt
  sitecrawl example.com links.txt

  # Crawl through a SOCKS5 proxy with 8 parse workers
  sitecrawl --proxy socks5://127.0.0.1:1080 -p 8 example.com links.txt

  # Record the run in the local database and write a Markdown summary
  sitecrawl --db -s summary.md example.com links.txt`,
		Version:       getVersion(),
		Args:          cobra.ExactArgs(2),
		RunE:          runCrawlCmd,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Crawl behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().IntP("parsers", "p", config.DefaultParsers,
		"Number of HTML parse workers")
	cmd.Flags().StringP("user-agent", "u", config.DefaultUserAgent,
		"User-Agent header, also used to select the robots.txt group")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size in bytes")
	cmd.Flags().Bool("ignore-robots", false,
		"Do not fetch or honour robots.txt")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy URL (e.g., socks5://127.0.0.1:1080)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .sitecrawl in current or home directory)")

	// Run history and report flags
	cmd.Flags().Bool("db", false,
		"Record the run and its pages in the SQLite database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory holding the SQLite database")
	cmd.Flags().StringP("summary", "s", "",
		"Write a run summary to this path (.md, .json or .txt; '-' for stdout)")

	// Add subcommands
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewRunsCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
