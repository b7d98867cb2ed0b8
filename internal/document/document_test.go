package document

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScrollLock_AcquireRelease(t *testing.T) {
	t.Parallel()

	lock := NewScrollLock()
	assert.False(t, lock.Locked())

	lease := lock.Acquire("modal")
	assert.True(t, lock.Locked())
	assert.Equal(t, 1, lock.Holders())

	lease.Release()
	assert.False(t, lock.Locked())
}

func TestScrollLock_ReleaseIsIdempotent(t *testing.T) {
	t.Parallel()

	lock := NewScrollLock()
	first := lock.Acquire("modal")
	second := lock.Acquire("menu")

	first.Release()
	first.Release()
	assert.True(t, lock.Locked(), "second holder keeps the lock")

	second.Release()
	assert.False(t, lock.Locked())

	var nilLease *Lease
	assert.NotPanics(t, nilLease.Release)
}

func TestScrollLock_OnChangeFiresOnFlipOnly(t *testing.T) {
	t.Parallel()

	var changes []bool
	lock := NewScrollLock(WithOnChange(func(locked bool) {
		changes = append(changes, locked)
	}))

	a := lock.Acquire("a")
	b := lock.Acquire("b")
	a.Release()
	b.Release()
	b.Release()

	assert.Equal(t, []bool{true, false}, changes)
}

func TestScrollLock_Concurrent(t *testing.T) {
	t.Parallel()

	lock := NewScrollLock()
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lease := lock.Acquire("worker")
			defer lease.Release()
			lease.Release()
		}()
	}
	wg.Wait()

	assert.False(t, lock.Locked())
	assert.Equal(t, 0, lock.Holders())
}

func TestWordPageTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		word string
		want string
	}{
		{word: "", want: "Alarino Dictionary"},
		{word: "   ", want: "Alarino Dictionary"},
		{word: "hello", want: "Hello in Yoruba | Alarino Dictionary"},
		{word: " LOVE ", want: "LOVE in Yoruba | Alarino Dictionary"},
		{word: "good morning", want: "Good morning in Yoruba | Alarino Dictionary"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, WordPageTitle(tt.word), tt.word)
	}
}

func TestDocument_PushTitle(t *testing.T) {
	t.Parallel()

	doc := New("")
	assert.Equal(t, SiteTitle, doc.Title())

	releaseWord := doc.PushTitle("Hello in Yoruba | Alarino Dictionary")
	releaseModal := doc.PushTitle("Add a word")
	assert.Equal(t, "Add a word", doc.Title())

	releaseWord()
	assert.Equal(t, "Add a word", doc.Title())

	releaseModal()
	releaseModal()
	assert.Equal(t, SiteTitle, doc.Title())
}

func TestDocument_SharesScrollLock(t *testing.T) {
	t.Parallel()

	var locked bool
	doc := New("Home", WithOnChange(func(l bool) { locked = l }))

	lease := doc.ScrollLock.Acquire("modal")
	assert.True(t, locked)
	lease.Release()
	assert.False(t, locked)
	assert.Equal(t, "Home", doc.Title())
}
