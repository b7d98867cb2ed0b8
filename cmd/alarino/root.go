package main

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// Environment variables read by the CLI.
const (
	envAPIURL = "ALARINO_API_URL"
	envAPIKey = "ALARINO_API_KEY"

	defaultAPIURL = "http://127.0.0.1:3000"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	apiURL   string
	logLevel string
	timeout  time.Duration
	retries  int
}

func newRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "alarino",
		Short: "English to Yoruba dictionary in the terminal",
		Long: `alarino looks up English words in the Alarino dictionary and shows
their Yoruba translations, the word of the day and proverbs.

Examples:
  alarino translate hello             # Look up one word
  alarino daily-word --reveal         # Word of the day with its meaning
  alarino proverb                     # A random proverb
  alarino bulk-upload -f words.txt    # Dry-run a bulk upload
  alarino shell                       # Interactive session with history`,
		Version:      fmt.Sprintf("%s (commit %s, built %s)", version, gitCommit, buildTime),
		SilenceUsage: true,
	}
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	cmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", cmp.Or(os.Getenv(envAPIURL), defaultAPIURL),
		"Dictionary site origin serving /api (env "+envAPIURL+")")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "Per-request timeout")
	cmd.PersistentFlags().IntVar(&opts.retries, "retries", 2, "Retries for read-only requests that fail in transit")

	cmd.AddCommand(
		newTranslateCommand(opts),
		newDailyWordCommand(opts),
		newProverbCommand(opts),
		newBulkUploadCommand(opts),
		newShellCommand(opts),
	)

	return cmd
}
