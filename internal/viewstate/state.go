package viewstate

import (
	"slices"
	"strings"
	"time"
)

// Seeded content shown before anything has been loaded.
const (
	DefaultWord = "liaison"

	NoTranslationLine     = "(no translation found)"
	NotFoundDescription   = "We're still learning this word. Try another translation."
	ConnectionDescription = "Please check your connection and try again."

	DefaultHighlightDuration = 1600 * time.Millisecond
)

// DefaultLines is the translation shown for DefaultWord.
var DefaultLines = []string{"alárìnọ̀ n."}

// DefaultDailyWord is shown until the word of the day loads.
var DefaultDailyWord = DailyWord{Yoruba: "ìfẹ́", English: "love"}

// DefaultProverb is shown until a proverb loads.
var DefaultProverb = Proverb{
	Yoruba:  "Bí ojú kò bá rí, ẹnu kì í sọ nǹkan.",
	English: "If the eye does not see, the mouth says nothing.",
}

// Phase is the route synchronization state.
type Phase int

// Phases.
const (
	PhaseIdle Phase = iota
	PhaseSubmitting
	PhaseSettled
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// ViewState is the translation panel.
type ViewState struct {
	InputText        string
	ActiveWord       string
	TranslationLines []string
	ErrorDescription string
	IsLoading        bool
}

// DisplayLines returns the translation lines trimmed, without blank ones.
func (v ViewState) DisplayLines() []string {
	lines := make([]string, 0, len(v.TranslationLines))
	for _, line := range v.TranslationLines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

// IsExample reports whether the panel still shows the seeded example.
func (v ViewState) IsExample() bool {
	return v.ActiveWord == DefaultWord
}

func (v ViewState) clone() ViewState {
	v.TranslationLines = slices.Clone(v.TranslationLines)
	return v
}

// DailyWord is the word of the day.
type DailyWord struct {
	Yoruba  string
	English string
}

// Proverb is a yoruba proverb with its english rendering.
type Proverb struct {
	Yoruba  string
	English string
}

// Snapshot is a copy of the whole controller state. Version increases with
// every change.
type Snapshot struct {
	Version                 uint64
	View                    ViewState
	Phase                   Phase
	DailyWord               DailyWord
	DailyTranslationVisible bool
	Proverb                 Proverb
	ProverbLoading          bool
	ActiveModal             ModalKind
	Highlighted             bool
}

func initialSnapshot() Snapshot {
	return Snapshot{
		View: ViewState{
			ActiveWord:       DefaultWord,
			TranslationLines: slices.Clone(DefaultLines),
		},
		Phase:     PhaseIdle,
		DailyWord: DefaultDailyWord,
		Proverb:   DefaultProverb,
	}
}

func (s Snapshot) clone() Snapshot {
	s.View = s.View.clone()
	return s
}
