package document

import "sync"

// ScrollLock suppresses background scrolling while at least one lease is held.
type ScrollLock struct {
	mu       sync.Mutex
	holders  map[uint64]string
	nextID   uint64
	onChange func(locked bool)
}

// ScrollLockOption configures a ScrollLock.
type ScrollLockOption func(*ScrollLock)

// WithOnChange registers fn to be called when the lock flips between locked
// and unlocked. fn runs with the lock's mutex released.
func WithOnChange(fn func(locked bool)) ScrollLockOption {
	return func(l *ScrollLock) {
		l.onChange = fn
	}
}

// NewScrollLock creates an unlocked ScrollLock.
func NewScrollLock(opts ...ScrollLockOption) *ScrollLock {
	l := &ScrollLock{holders: make(map[uint64]string)}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire takes a lease for owner. owner is informational only.
func (l *ScrollLock) Acquire(owner string) *Lease {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.holders[id] = owner
	flipped := len(l.holders) == 1
	l.mu.Unlock()

	if flipped {
		l.notify(true)
	}
	return &Lease{lock: l, id: id}
}

// Locked reports whether any lease is held.
func (l *ScrollLock) Locked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.holders) > 0
}

// Holders returns the number of outstanding leases.
func (l *ScrollLock) Holders() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.holders)
}

func (l *ScrollLock) release(id uint64) {
	l.mu.Lock()
	if _, ok := l.holders[id]; !ok {
		l.mu.Unlock()
		return
	}
	delete(l.holders, id)
	flipped := len(l.holders) == 0
	l.mu.Unlock()

	if flipped {
		l.notify(false)
	}
}

func (l *ScrollLock) notify(locked bool) {
	if l.onChange != nil {
		l.onChange(locked)
	}
}

// Lease is one hold on a ScrollLock.
type Lease struct {
	lock *ScrollLock
	id   uint64
	once sync.Once
}

// Release gives the lease back. Only the first call has an effect.
func (le *Lease) Release() {
	if le == nil {
		return
	}
	le.once.Do(func() {
		le.lock.release(le.id)
	})
}
