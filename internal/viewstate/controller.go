package viewstate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alarino/dictweb/internal/api"
	"github.com/alarino/dictweb/internal/document"
	"github.com/alarino/dictweb/internal/observability"
	"github.com/alarino/dictweb/internal/route"
	"github.com/alarino/dictweb/internal/text"
)

// Backend is the part of the API client the controller calls.
type Backend interface {
	Translate(ctx context.Context, req api.TranslationRequest) (api.Translation, error)
	DailyWord(ctx context.Context) (api.DailyWord, error)
	RandomProverb(ctx context.Context) (api.Proverb, error)
}

// Focuser draws attention to the translation panel.
type Focuser interface {
	ScrollIntoView()
	Highlight(d time.Duration)
}

// PopStateSource delivers history navigation events.
type PopStateSource interface {
	OnPopState(listener route.PopStateListener) func()
}

// Listener receives a snapshot after every state change. Listeners run on
// the goroutine that made the change; when completions race, deliveries may
// arrive out of order and the highest Version is the current one.
type Listener func(Snapshot)

// Controller is the translation view-state controller.
type Controller struct {
	backend          Backend
	nav              route.Navigator
	logger           observability.Logger
	doc              *document.Document
	focuser          Focuser
	popState         PopStateSource
	onTranslated     func(word string)
	cancelSuperseded bool
	highlightFor     time.Duration

	// routeMu serializes route and title updates of settled translations.
	routeMu sync.Mutex

	mu             sync.Mutex
	state          Snapshot
	seq            uint64
	cancelLatest   context.CancelFunc
	proverbLoads   int
	ctx            context.Context
	cancel         context.CancelFunc
	mounted        bool
	unmounted      bool
	modalLease     *document.Lease
	releaseTitle   func()
	unsubscribePop func()
	highlightTimer *time.Timer
	listeners      map[uint64]Listener
	nextListenerID uint64

	wg sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithDocument sets the document whose scroll lock and title the controller leases.
func WithDocument(doc *document.Document) Option {
	return func(c *Controller) {
		c.doc = doc
	}
}

// WithFocuser sets the collaborator that receives the highlight affordance.
func WithFocuser(f Focuser) Option {
	return func(c *Controller) {
		c.focuser = f
	}
}

// WithPopState subscribes the controller to history navigation while mounted.
func WithPopState(source PopStateSource) Option {
	return func(c *Controller) {
		c.popState = source
	}
}

// WithOnTranslated registers fn to be called with the word of every applied
// successful translation.
func WithOnTranslated(fn func(word string)) Option {
	return func(c *Controller) {
		c.onTranslated = fn
	}
}

// WithCancelSuperseded cancels the context of an in-flight translation as
// soon as a newer one is submitted.
func WithCancelSuperseded(enabled bool) Option {
	return func(c *Controller) {
		c.cancelSuperseded = enabled
	}
}

// WithHighlightDuration sets how long the translation panel stays highlighted.
func WithHighlightDuration(d time.Duration) Option {
	return func(c *Controller) {
		c.highlightFor = d
	}
}

// New creates a controller seeded with the example word and default side content.
func New(backend Backend, nav route.Navigator, opts ...Option) *Controller {
	c := &Controller{
		backend:      backend,
		nav:          nav,
		logger:       observability.NopLogger(),
		highlightFor: DefaultHighlightDuration,
		state:        initialSnapshot(),
		listeners:    make(map[uint64]Listener),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ctx, c.cancel = context.Background(), func() {}
	return c
}

// Mount attaches the controller to ctx, subscribes to history navigation
// and starts the word of the day and proverb loads in the background.
// Calls after the first are no-ops.
func (c *Controller) Mount(ctx context.Context) {
	c.mu.Lock()
	if c.mounted || c.unmounted {
		c.mu.Unlock()
		return
	}
	c.mounted = true
	c.ctx, c.cancel = context.WithCancel(ctx)
	mountCtx := c.ctx
	c.wg.Add(2)
	c.mu.Unlock()

	if c.popState != nil {
		unsubscribe := c.popState.OnPopState(c.handlePopState)
		c.mu.Lock()
		c.unsubscribePop = unsubscribe
		c.mu.Unlock()
	}

	go func() {
		defer c.wg.Done()
		c.LoadDailyWord(mountCtx)
	}()
	go func() {
		defer c.wg.Done()
		c.LoadRandomProverb(mountCtx)
	}()
}

// Unmount releases every held resource: the modal scroll-lock lease, the
// title lease, the history subscription and the highlight timer. In-flight
// requests are cancelled and their completions discarded. Unmount is
// idempotent.
func (c *Controller) Unmount() {
	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return
	}
	c.unmounted = true
	c.cancel()

	lease := c.modalLease
	c.modalLease = nil
	releaseTitle := c.releaseTitle
	c.releaseTitle = nil
	unsubscribe := c.unsubscribePop
	c.unsubscribePop = nil
	if c.highlightTimer != nil {
		c.highlightTimer.Stop()
		c.highlightTimer = nil
	}
	c.state.ActiveModal = ModalNone
	c.state.Highlighted = false
	c.mu.Unlock()

	lease.Release()
	if releaseTitle != nil {
		releaseTitle()
	}
	if unsubscribe != nil {
		unsubscribe()
	}
}

// Wait blocks until every background request started so far has settled.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// DisplayLines returns the current translation lines ready for display.
func (c *Controller) DisplayLines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.View.DisplayLines()
}

// Subscribe registers l and returns a func that removes it.
func (c *Controller) Subscribe(l Listener) func() {
	c.mu.Lock()
	id := c.nextListenerID
	c.nextListenerID++
	c.listeners[id] = l
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

// SetInput replaces the input text.
func (c *Controller) SetInput(input string) {
	c.update(func(s *Snapshot) {
		s.View.InputText = input
	})
}

// SubmitTranslation looks up rawWord. Blank input is ignored. Otherwise the
// state switches to loading before SubmitTranslation returns and the lookup
// runs in the background. The returned channel is closed once the lookup
// has settled, whether its result was applied or discarded.
func (c *Controller) SubmitTranslation(rawWord string) <-chan struct{} {
	done := make(chan struct{})

	normalized := text.Normalize(rawWord)
	if normalized == "" {
		close(done)
		return done
	}

	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		close(done)
		return done
	}
	c.seq++
	seq := c.seq
	if c.cancelSuperseded && c.cancelLatest != nil {
		c.cancelLatest()
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.cancelLatest = cancel
	c.state.View.IsLoading = true
	c.state.Phase = PhaseSubmitting
	c.wg.Add(1)
	snap, listeners := c.commitLocked()
	c.mu.Unlock()

	c.publish(snap, listeners)

	go func() {
		defer c.wg.Done()
		defer close(done)
		defer cancel()

		result, err := c.backend.Translate(ctx, api.NewTranslationRequest(normalized))
		c.completeTranslation(seq, normalized, result, err)
	}()

	return done
}

// InitializeFromRoute seeds the input with word, draws attention to the
// translation panel and submits word. A blank word is ignored.
func (c *Controller) InitializeFromRoute(word string) <-chan struct{} {
	if text.IsBlank(word) {
		done := make(chan struct{})
		close(done)
		return done
	}

	c.SetInput(word)
	c.focus()
	return c.SubmitTranslation(word)
}

// LoadDailyWord fetches the word of the day. Failures keep the current
// content and are only logged.
func (c *Controller) LoadDailyWord(ctx context.Context) {
	word, err := c.backend.DailyWord(ctx)
	if err != nil {
		c.logSideContentFailure("daily word", err)
		return
	}

	c.update(func(s *Snapshot) {
		s.DailyWord = DailyWord{Yoruba: word.YorubaWord, English: word.EnglishWord}
	})
}

// LoadRandomProverb fetches a new proverb. ProverbLoading is set while any
// proverb load is in flight. Failures keep the current proverb and are only
// logged.
func (c *Controller) LoadRandomProverb(ctx context.Context) {
	c.update(func(s *Snapshot) {
		c.proverbLoads++
		s.ProverbLoading = true
	})

	proverb, err := c.backend.RandomProverb(ctx)
	if err != nil {
		c.logSideContentFailure("proverb", err)
	}

	c.update(func(s *Snapshot) {
		if err == nil {
			s.Proverb = Proverb{Yoruba: proverb.YorubaText, English: proverb.EnglishText}
		}
		c.proverbLoads--
		s.ProverbLoading = c.proverbLoads > 0
	})
}

// ToggleDailyTranslationVisibility flips whether the english meaning of the
// word of the day is shown.
func (c *Controller) ToggleDailyTranslationVisibility() {
	c.update(func(s *Snapshot) {
		s.DailyTranslationVisible = !s.DailyTranslationVisible
	})
}

// OpenModal opens the contribution modal of kind and suppresses background
// scrolling until it is closed or the controller is unmounted. Switching
// between modals keeps the same lease.
func (c *Controller) OpenModal(kind ModalKind) error {
	if _, ok := LookupModal(kind); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownModal, kind)
	}

	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return nil
	}
	if c.modalLease == nil && c.doc != nil {
		c.modalLease = c.doc.ScrollLock.Acquire("modal:" + string(kind))
	}
	c.state.ActiveModal = kind
	snap, listeners := c.commitLocked()
	c.mu.Unlock()

	c.publish(snap, listeners)
	return nil
}

// CloseModal closes the open modal, if any, and releases its scroll lock.
func (c *Controller) CloseModal() {
	c.mu.Lock()
	if c.state.ActiveModal == ModalNone && c.modalLease == nil {
		c.mu.Unlock()
		return
	}
	lease := c.modalLease
	c.modalLease = nil
	c.state.ActiveModal = ModalNone
	snap, listeners := c.commitLocked()
	c.mu.Unlock()

	lease.Release()
	c.publish(snap, listeners)
}

func (c *Controller) completeTranslation(seq uint64, normalized string, result api.Translation, err error) {
	c.mu.Lock()
	if seq != c.seq || c.unmounted {
		c.mu.Unlock()
		c.logger.Debug("discarding superseded translation",
			observability.String("word", normalized),
			observability.Uint64("seq", seq),
		)
		return
	}

	if err == nil && len(result.Lines) == 0 {
		err = &api.APIError{Status: 404}
	}

	if err != nil {
		c.state.View = ViewState{
			InputText:        c.state.View.InputText,
			ActiveWord:       normalized,
			TranslationLines: []string{NoTranslationLine},
			ErrorDescription: failureDescription(err),
		}
		c.state.Phase = PhaseSettled
		snap, listeners := c.commitLocked()
		c.mu.Unlock()

		c.logger.Info("translation failed",
			observability.String("word", normalized),
			observability.Error(err),
		)
		c.publish(snap, listeners)
		return
	}

	word := text.Normalize(result.SourceWord)
	if word == "" {
		word = normalized
	}
	c.state.View = ViewState{
		InputText:        c.state.View.InputText,
		ActiveWord:       word,
		TranslationLines: append([]string(nil), result.Lines...),
	}
	c.state.Phase = PhaseSettled
	snap, listeners := c.commitLocked()
	c.mu.Unlock()

	if c.syncRoute(seq, word) {
		c.publish(snap, listeners)
	}
}

// syncRoute replaces the current route with the word page unless it is
// already showing it, then leases the matching title and reports the word.
// It does nothing and returns false once a newer submission has started.
func (c *Controller) syncRoute(seq uint64, word string) bool {
	c.routeMu.Lock()
	defer c.routeMu.Unlock()

	if c.nav != nil {
		target := route.WordPath(word)
		current := c.nav.Path()
		if !c.isLatest(seq) {
			return false
		}
		if current != target {
			c.nav.Replace(target)
		}
	} else if !c.isLatest(seq) {
		return false
	}

	if c.doc != nil {
		c.leaseTitle(word)
	}
	if c.onTranslated != nil {
		c.onTranslated(word)
	}
	return true
}

func (c *Controller) isLatest(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return seq == c.seq && !c.unmounted
}

func (c *Controller) leaseTitle(word string) {
	release := c.doc.PushTitle(document.WordPageTitle(word))

	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		release()
		return
	}
	previous := c.releaseTitle
	c.releaseTitle = release
	c.mu.Unlock()

	if previous != nil {
		previous()
	}
}

func (c *Controller) handlePopState(path string) {
	word, ok := route.ParseWordPath(path)
	if !ok || text.IsBlank(word) {
		return
	}
	c.SetInput(word)
	c.SubmitTranslation(word)
}

func (c *Controller) focus() {
	if c.focuser != nil {
		c.focuser.ScrollIntoView()
		c.focuser.Highlight(c.highlightFor)
	}

	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return
	}
	if c.highlightTimer != nil {
		c.highlightTimer.Stop()
	}
	c.state.Highlighted = true
	c.highlightTimer = time.AfterFunc(c.highlightFor, func() {
		c.update(func(s *Snapshot) {
			s.Highlighted = false
		})
	})
	snap, listeners := c.commitLocked()
	c.mu.Unlock()

	c.publish(snap, listeners)
}

func (c *Controller) logSideContentFailure(what string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	c.logger.Warn("failed to load side content",
		observability.String("content", what),
		observability.Error(err),
	)
}

// update applies fn under the lock and notifies listeners.
func (c *Controller) update(fn func(s *Snapshot)) {
	c.mu.Lock()
	fn(&c.state)
	snap, listeners := c.commitLocked()
	c.mu.Unlock()

	c.publish(snap, listeners)
}

// commitLocked bumps the version and returns what publish needs.
// c.mu must be held.
func (c *Controller) commitLocked() (Snapshot, []Listener) {
	c.state.Version++
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	return c.state.clone(), listeners
}

func (c *Controller) publish(snap Snapshot, listeners []Listener) {
	for _, l := range listeners {
		l(snap)
	}
}

func failureDescription(err error) string {
	if msg := api.MessageOf(err); msg != "" {
		return msg
	}
	if api.IsNotFound(err) {
		return NotFoundDescription
	}
	return ConnectionDescription
}
