package chat

import (
	"sync"
	"time"
)

const (
	// revealBudget is the total time a reveal aims for; per-rune delay is
	// derived from it and clamped so short texts still animate and long
	// answers stay time-bounded.
	revealBudget   = 1500 * time.Millisecond
	minRevealDelay = 20 * time.Millisecond
	maxRevealDelay = 50 * time.Millisecond

	// StoppedSuffix is appended to the committed text of a reveal that was
	// interrupted by Stop.
	StoppedSuffix = " [berhenti mengetik]"
)

// reveal is one in-flight character-by-character animation.
type reveal struct {
	fullText  string
	prefix    string
	done      chan struct{}
	cancelled bool
}

// Animator reveals system entry text incrementally. Each reveal runs on its
// own cancellable handle; the committed transcript text is always either the
// full source text (natural completion) or the full text plus StoppedSuffix
// (interrupted), never a partial prefix.
type Animator struct {
	mu      sync.Mutex
	log     *MessageLog
	reveals map[string]*reveal
}

// NewAnimator returns an Animator committing final text into log.
func NewAnimator(log *MessageLog) *Animator {
	return &Animator{
		log:     log,
		reveals: make(map[string]*reveal),
	}
}

// revealDelay computes the per-rune delay for text.
func revealDelay(text string) time.Duration {
	n := len([]rune(text))
	if n == 0 {
		return minRevealDelay
	}
	d := revealBudget / time.Duration(n)
	if d < minRevealDelay {
		return minRevealDelay
	}
	if d > maxRevealDelay {
		return maxRevealDelay
	}
	return d
}

// Reveal starts animating text for the entry with the given id. A reveal
// already active for that id is cancelled first. onComplete fires exactly
// once, after the full text has been committed back into the log, and only
// on natural completion.
func (a *Animator) Reveal(id, text string, onComplete func()) {
	a.mu.Lock()
	if prior, ok := a.reveals[id]; ok {
		prior.cancelled = true
		close(prior.done)
	}
	rv := &reveal{
		fullText: text,
		done:     make(chan struct{}),
	}
	a.reveals[id] = rv
	a.mu.Unlock()

	go a.run(id, rv, onComplete)
}

func (a *Animator) run(id string, rv *reveal, onComplete func()) {
	runes := []rune(rv.fullText)
	tick := time.NewTicker(revealDelay(rv.fullText))
	defer tick.Stop()

	for i := range runes {
		select {
		case <-rv.done:
			return
		case <-tick.C:
		}
		a.mu.Lock()
		if rv.cancelled {
			a.mu.Unlock()
			return
		}
		rv.prefix = string(runes[:i+1])
		a.mu.Unlock()
	}

	a.mu.Lock()
	if rv.cancelled {
		a.mu.Unlock()
		return
	}
	delete(a.reveals, id)
	a.mu.Unlock()

	a.log.Patch(id, func(e *ChatEntry) {
		e.Text = rv.fullText
		e.IsLoading = false
	})
	if onComplete != nil {
		onComplete()
	}
}

// Stop cancels every in-flight reveal and commits each interrupted entry's
// full source text suffixed with the stopped marker.
func (a *Animator) Stop() {
	a.mu.Lock()
	stopped := make(map[string]*reveal, len(a.reveals))
	for id, rv := range a.reveals {
		rv.cancelled = true
		close(rv.done)
		stopped[id] = rv
	}
	a.reveals = make(map[string]*reveal)
	a.mu.Unlock()

	for id, rv := range stopped {
		a.log.Patch(id, func(e *ChatEntry) {
			e.Text = rv.fullText + StoppedSuffix
			e.IsLoading = false
		})
	}
}

// Busy reports whether any reveal is in flight.
func (a *Animator) Busy() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.reveals) > 0
}

// Frames returns the current partially revealed text keyed by entry id.
func (a *Animator) Frames() map[string]string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]string, len(a.reveals))
	for id, rv := range a.reveals {
		out[id] = rv.prefix
	}
	return out
}
