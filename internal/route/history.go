package route

import "sync"

// PopStateListener is notified with the new current path after Back or Forward.
type PopStateListener func(path string)

// History is an in-memory navigation stack. It is safe for concurrent use.
// Listeners run synchronously on the goroutine that moved the history,
// after the internal lock has been released.
type History struct {
	mu        sync.Mutex
	entries   []string
	index     int
	listeners map[uint64]PopStateListener
	nextID    uint64
}

// NewHistory creates a history whose only entry is initial.
func NewHistory(initial string) *History {
	if initial == "" {
		initial = HomePath
	}
	return &History{
		entries:   []string{initial},
		listeners: make(map[uint64]PopStateListener),
	}
}

// Path returns the current path.
func (h *History) Path() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.index]
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Push adds a new entry after the current one and drops any forward entries.
func (h *History) Push(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries[:h.index+1], path)
	h.index = len(h.entries) - 1
}

// Replace overwrites the current entry. It never grows the stack and does
// not notify listeners.
func (h *History) Replace(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[h.index] = path
}

// Back moves one entry back and notifies listeners. It reports false when
// already at the first entry.
func (h *History) Back() bool {
	return h.move(-1)
}

// Forward moves one entry forward and notifies listeners. It reports false
// when already at the last entry.
func (h *History) Forward() bool {
	return h.move(1)
}

// OnPopState registers listener and returns a func that removes it.
// Calling the returned func more than once is harmless.
func (h *History) OnPopState(listener PopStateListener) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = listener
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners, id)
			h.mu.Unlock()
		})
	}
}

func (h *History) move(delta int) bool {
	h.mu.Lock()
	next := h.index + delta
	if next < 0 || next >= len(h.entries) {
		h.mu.Unlock()
		return false
	}
	h.index = next
	path := h.entries[next]
	listeners := make([]PopStateListener, 0, len(h.listeners))
	for _, l := range h.listeners {
		listeners = append(listeners, l)
	}
	h.mu.Unlock()

	for _, l := range listeners {
		l(path)
	}
	return true
}
