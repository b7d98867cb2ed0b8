package document

import (
	"strings"
	"sync"

	"github.com/alarino/dictweb/internal/text"
)

// Page titles.
const (
	SiteTitle       = "Alarino Dictionary"
	wordTitleSuffix = " in Yoruba | " + SiteTitle
)

// WordPageTitle returns the title for the page of word. The word keeps its
// casing apart from the first letter.
func WordPageTitle(word string) string {
	trimmed := strings.TrimSpace(word)
	if trimmed == "" {
		return SiteTitle
	}
	return text.Capitalize(trimmed) + wordTitleSuffix
}

// Document bundles the shared scroll lock with a stack of title leases.
// The visible title is the most recently pushed one that is still held.
type Document struct {
	ScrollLock *ScrollLock

	mu     sync.Mutex
	base   string
	titles []titleEntry
	nextID uint64
}

type titleEntry struct {
	id    uint64
	title string
}

// New creates a Document whose title falls back to base.
func New(base string, opts ...ScrollLockOption) *Document {
	if base == "" {
		base = SiteTitle
	}
	return &Document{
		ScrollLock: NewScrollLock(opts...),
		base:       base,
	}
}

// Title returns the visible title.
func (d *Document) Title() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n := len(d.titles); n > 0 {
		return d.titles[n-1].title
	}
	return d.base
}

// PushTitle makes title visible and returns a func that removes it again.
// Releasing out of order removes only that entry.
func (d *Document) PushTitle(title string) func() {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.titles = append(d.titles, titleEntry{id: id, title: title})
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			for i, entry := range d.titles {
				if entry.id == id {
					d.titles = append(d.titles[:i], d.titles[i+1:]...)
					return
				}
			}
		})
	}
}
