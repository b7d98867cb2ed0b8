package main

import (
	"fmt"
	"io"

	"github.com/alarino/dictweb/internal/admin"
	"github.com/alarino/dictweb/internal/viewstate"
)

const divider = "----------------------------------------"

func renderTranslation(w io.Writer, snap viewstate.Snapshot) {
	view := snap.View

	marker := ""
	if snap.Highlighted {
		marker = "» "
	}
	label := "(English)"
	if view.IsExample() {
		label = "(example)"
	}

	_, _ = fmt.Fprintf(w, "%s%s %s\n", marker, view.ActiveWord, label)
	if view.IsLoading {
		_, _ = fmt.Fprintln(w, "  translating...")
		return
	}
	for _, line := range view.DisplayLines() {
		_, _ = fmt.Fprintf(w, "  %s\n", line)
	}
	if view.ErrorDescription != "" {
		_, _ = fmt.Fprintf(w, "  %s\n", view.ErrorDescription)
	}
}

func renderDailyWord(w io.Writer, snap viewstate.Snapshot) {
	if snap.DailyTranslationVisible {
		_, _ = fmt.Fprintf(w, "Word of the day: %s (%s)\n", snap.DailyWord.Yoruba, snap.DailyWord.English)
		return
	}
	_, _ = fmt.Fprintf(w, "Word of the day: %s\n", snap.DailyWord.Yoruba)
}

func renderProverb(w io.Writer, snap viewstate.Snapshot) {
	if snap.ProverbLoading {
		_, _ = fmt.Fprintln(w, "Proverb: loading...")
		return
	}
	_, _ = fmt.Fprintf(w, "Proverb: %s\n  %s\n", snap.Proverb.Yoruba, snap.Proverb.English)
}

func renderModal(w io.Writer, kind viewstate.ModalKind) {
	modal, ok := viewstate.LookupModal(kind)
	if !ok {
		return
	}
	_, _ = fmt.Fprintf(w, "%s\n  %s\n  (:close to dismiss)\n", modal.Title, modal.FormURL)
}

func renderOutcome(w io.Writer, state admin.State) {
	outcome := state.Outcome

	_, _ = fmt.Fprintf(w, "Total: %d\nSuccessful: %d\nFailed: %d\nRun mode: %s\n",
		outcome.Total(), outcome.Successful(), outcome.Failed(), outcome.RunMode())

	if len(outcome.SuccessfulPairs) > 0 {
		_, _ = fmt.Fprintln(w, "Uploaded:")
		for _, pair := range outcome.SuccessfulPairs {
			_, _ = fmt.Fprintf(w, "  %s -> %s\n", pair.English, pair.Yoruba)
		}
	}
	if len(outcome.FailedPairs) > 0 {
		_, _ = fmt.Fprintln(w, "Failed:")
		for _, failed := range outcome.FailedPairs {
			_, _ = fmt.Fprintf(w, "  %s: %s\n", failed.Line, failed.Reason)
		}
	} else {
		_, _ = fmt.Fprintln(w, "No failed uploads.")
	}
}
