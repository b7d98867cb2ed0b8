package viewstate

import "errors"

// ModalKind identifies a contribution modal. The zero value means no modal.
type ModalKind string

// Modal kinds.
const (
	ModalNone     ModalKind = ""
	ModalAddWord  ModalKind = "add-word"
	ModalFeedback ModalKind = "feedback"
)

// ErrUnknownModal is returned by OpenModal for an unsupported kind.
var ErrUnknownModal = errors.New("unknown modal kind")

// Modal describes the contribution form a modal embeds.
type Modal struct {
	Kind    ModalKind
	Title   string
	FormURL string
}

var modals = map[ModalKind]Modal{
	ModalAddWord: {
		Kind:    ModalAddWord,
		Title:   "Add a New Word",
		FormURL: "https://docs.google.com/forms/d/e/1FAIpQLSe3MXuVbp-Iq9wegVzC9HRWxhA7-aBKNqgo4OZrSJ5akvEIOQ/viewform?embedded=true",
	},
	ModalFeedback: {
		Kind:    ModalFeedback,
		Title:   "Suggest a Better Translation",
		FormURL: "https://docs.google.com/forms/d/e/1FAIpQLScIVjG45qeyq85rZgJNldl-UDlqcMaZ2hCXt-l_mFX8ryY5VQ/viewform?embedded=true",
	},
}

// LookupModal returns the modal for kind.
func LookupModal(kind ModalKind) (Modal, bool) {
	m, ok := modals[kind]
	return m, ok
}
