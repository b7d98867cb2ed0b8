package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alarino/dictweb/internal/route"
)

func newTranslateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "translate <word>",
		Short: "Translate an English word to Yoruba",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			s, err := newSession(opts, out, route.HomePath)
			if err != nil {
				return err
			}
			defer s.close()

			word := strings.Join(args, " ")
			s.controller.SetInput(word)
			if err := waitSettled(cmd.Context(), s.controller.SubmitTranslation(word)); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(out, s.doc.Title())
			renderTranslation(out, s.controller.Snapshot())
			return nil
		},
	}
}

func newDailyWordCommand(opts *rootOptions) *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "daily-word",
		Short: "Show the word of the day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			s, err := newSession(opts, out, route.HomePath)
			if err != nil {
				return err
			}
			defer s.close()

			s.controller.LoadDailyWord(cmd.Context())
			if reveal {
				s.controller.ToggleDailyTranslationVisibility()
			}
			renderDailyWord(out, s.controller.Snapshot())
			return nil
		},
	}
	cmd.Flags().BoolVar(&reveal, "reveal", false, "Also show the English meaning")

	return cmd
}

func newProverbCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "proverb",
		Short: "Show a random Yoruba proverb",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			s, err := newSession(opts, out, route.HomePath)
			if err != nil {
				return err
			}
			defer s.close()

			s.controller.LoadRandomProverb(cmd.Context())
			renderProverb(out, s.controller.Snapshot())
			return nil
		},
	}
}

// bulkUploadOptions are the bulk-upload flags.
type bulkUploadOptions struct {
	file   string
	dryRun bool
	apiKey string
}

func newBulkUploadCommand(opts *rootOptions) *cobra.Command {
	upload := &bulkUploadOptions{}

	cmd := &cobra.Command{
		Use:   "bulk-upload",
		Short: "Upload english, yoruba word pairs (one per line)",
		Long: `bulk-upload sends newline separated word pairs to the admin endpoint.

Runs are dry runs unless --dry-run=false is given. The API key is sent as
a bearer token.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if upload.apiKey == "" {
				return fmt.Errorf("an API key is required (--api-key or %s)", envAPIKey)
			}

			textInput, err := readInput(cmd.InOrStdin(), upload.file)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			s, err := newSession(opts, out, route.AdminPath)
			if err != nil {
				return err
			}
			defer s.close()

			s.uploader.Submit(cmd.Context(), textInput, upload.dryRun, upload.apiKey)
			state := s.uploader.State()
			renderOutcome(out, state)
			if state.ErrorMessage != "" {
				return errors.New(state.ErrorMessage)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&upload.file, "file", "f", "-", "File with word pairs, - for stdin")
	cmd.Flags().BoolVar(&upload.dryRun, "dry-run", true, "Validate without saving")
	cmd.Flags().StringVar(&upload.apiKey, "api-key", os.Getenv(envAPIKey), "Admin API key (env "+envAPIKey+")")

	return cmd
}

func readInput(stdin io.Reader, file string) (string, error) {
	if file == "" || file == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", file, err)
	}
	return string(data), nil
}

// waitSettled waits for a submission or for ctx to end.
func waitSettled(ctx context.Context, done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
