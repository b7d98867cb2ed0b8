package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alarino/dictweb/internal/route"
	"github.com/alarino/dictweb/internal/viewstate"
)

const (
	shellPrompt = "alarino> "

	shellHelp = `Type a word to translate it. Commands:
  :open <word>   go to the page of a word
  :back          previous page
  :forward       next page
  :daily         show or hide the meaning of the word of the day
  :proverb       next proverb
  :add-word      add a new word
  :feedback      suggest a better translation
  :close         close the open form
  :where         current page and title
  :help          this help
  :quit          leave`
)

func newShellCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shell [word]",
		Short: "Interactive dictionary session with page history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			initial := route.HomePath
			if len(args) == 1 {
				initial = route.WordPath(args[0])
			}

			out := cmd.OutOrStdout()
			s, err := newSession(opts, out, initial)
			if err != nil {
				return err
			}
			defer s.close()

			return runShell(cmd.Context(), s, cmd.InOrStdin(), out)
		},
	}
}

func runShell(ctx context.Context, s *session, in io.Reader, out io.Writer) error {
	s.controller.Mount(ctx)
	if word, ok := route.ParseWordPath(s.history.Path()); ok {
		s.controller.InitializeFromRoute(word)
	}
	s.controller.Wait()

	snap := s.controller.Snapshot()
	renderDailyWord(out, snap)
	renderProverb(out, snap)
	_, _ = fmt.Fprintln(out, divider)
	renderTranslation(out, snap)

	scanner := bufio.NewScanner(in)
	for {
		_, _ = fmt.Fprint(out, shellPrompt)
		if !scanner.Scan() {
			_, _ = fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		if quit := dispatch(ctx, s, out, strings.TrimSpace(scanner.Text())); quit {
			return nil
		}
	}
}

// dispatch runs one shell line and reports whether the session should end.
func dispatch(ctx context.Context, s *session, out io.Writer, line string) bool {
	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch command {
	case "":
		return false
	case ":q", ":quit", ":exit":
		return true
	case ":help":
		_, _ = fmt.Fprintln(out, shellHelp)
	case ":back":
		if !s.history.Back() {
			_, _ = fmt.Fprintln(out, "No earlier page.")
			return false
		}
		showPage(s, out)
	case ":forward":
		if !s.history.Forward() {
			_, _ = fmt.Fprintln(out, "No later page.")
			return false
		}
		showPage(s, out)
	case ":open":
		if arg == "" {
			_, _ = fmt.Fprintln(out, "Usage: :open <word>")
			return false
		}
		s.history.Push(route.WordPath(arg))
		s.controller.InitializeFromRoute(arg)
		showPage(s, out)
	case ":daily":
		s.controller.ToggleDailyTranslationVisibility()
		renderDailyWord(out, s.controller.Snapshot())
	case ":proverb":
		s.controller.LoadRandomProverb(ctx)
		renderProverb(out, s.controller.Snapshot())
	case ":add-word", ":feedback":
		kind := viewstate.ModalKind(strings.TrimPrefix(command, ":"))
		if err := s.controller.OpenModal(kind); err != nil {
			_, _ = fmt.Fprintln(out, err)
			return false
		}
		renderModal(out, kind)
	case ":close":
		s.controller.CloseModal()
	case ":where":
		_, _ = fmt.Fprintf(out, "%s\n%s\n", s.history.Path(), s.doc.Title())
	default:
		if strings.HasPrefix(command, ":") {
			_, _ = fmt.Fprintf(out, "Unknown command %s. Type :help for help.\n", command)
			return false
		}
		s.controller.SetInput(line)
		s.controller.SubmitTranslation(line)
		showPage(s, out)
	}
	return false
}

// showPage waits for pending lookups and prints the translation panel.
func showPage(s *session, out io.Writer) {
	s.controller.Wait()
	renderTranslation(out, s.controller.Snapshot())
}
