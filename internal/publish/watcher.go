// Package publish tracks one in-flight publication checkout per couple.
// After a checkout preference is created the couple pays in the
// provider's window; this package polls the payment status server-side
// until the page is live, the payment fails, or the attempt ceiling is
// reached. The poll is modeled as an explicit state machine so every
// transition has a named trigger: timer tick, manual re-check, or the
// content of a status response.
package publish

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/invitame/wedding-invitation-service/internal/model"
)

// State of a publication checkout.
type State string

const (
	StateIdle       State = "idle"       // no checkout in flight
	StateChecking   State = "checking"   // a status request is running right now
	StateInitiated  State = "initiated"  // preference created, no verdict yet
	StatePending    State = "pending"    // provider reports the payment unpaid
	StateProcessing State = "processing" // payment approved or in process, page not yet confirmed live
	StateSuccess    State = "success"    // page published, terminal
	StateFailed     State = "failed"     // payment rejected or cancelled, terminal
	StateTimeout    State = "timeout"    // attempt ceiling reached, terminal until manual re-check
)

// Terminal reports whether s stops the automatic poll.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateFailed || s == StateTimeout
}

// Defaults per the product's checkout UX: a check every five seconds,
// twelve attempts, roughly a minute of automatic polling.
const (
	DefaultInterval    = 5 * time.Second
	DefaultMaxAttempts = 12
)

// CheckResult is what one status check observed.
type CheckResult struct {
	PaymentStatus string // provider vocabulary: approved, pending, in_process, rejected, cancelled
	Published     bool   // whether the landing page is confirmed live
}

// CheckFunc performs one status check. It owns the side effect of
// triggering the publish action when the payment is approved but the
// page is not live yet; the watcher only reads the result.
type CheckFunc func(ctx context.Context) (CheckResult, error)

// Watcher drives the poll loop for a single checkout.
type Watcher struct {
	check       CheckFunc
	interval    time.Duration
	maxAttempts int
	log         zerolog.Logger

	kick chan struct{} // requests an immediate check from the running loop

	mu       sync.Mutex
	state    State
	attempts int
	running  bool
}

// Option adjusts a Watcher. Tests shorten the interval.
type Option func(*Watcher)

// WithInterval overrides the tick interval.
func WithInterval(d time.Duration) Option {
	return func(w *Watcher) { w.interval = d }
}

// WithMaxAttempts overrides the attempt ceiling.
func WithMaxAttempts(n int) Option {
	return func(w *Watcher) { w.maxAttempts = n }
}

// NewWatcher builds a watcher in the initiated state; Start launches
// the poll loop.
func NewWatcher(check CheckFunc, log zerolog.Logger, opts ...Option) *Watcher {
	w := &Watcher{
		check:       check,
		interval:    DefaultInterval,
		maxAttempts: DefaultMaxAttempts,
		log:         log,
		kick:        make(chan struct{}, 1),
		state:       StateInitiated,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// State returns the current state.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Attempts returns how many checks have run since the counter was last
// reset.
func (w *Watcher) Attempts() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.attempts
}

// Start launches the poll loop unless one is already running.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running || w.state.Terminal() {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()
	go w.run(ctx)
}

func (w *Watcher) run(ctx context.Context) {
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-w.kick:
		}
		if w.step(ctx) {
			return
		}
	}
}

// Kick requests an immediate check from the running loop without
// blocking. It is a no-op when no loop is running, so it is safe to
// call from read paths (the server-side analog of the client
// re-checking when its window regains focus).
func (w *Watcher) Kick() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

// Recheck runs one immediate check on behalf of the user's "I already
// paid" action. When the prior state was failed or timeout the attempt
// counter resets and, unless the check itself lands terminal, the
// automatic poll resumes. A running loop owns the check cadence, so in
// that case the request is handed to it through the kick channel rather
// than run concurrently, which would spend two attempts at once.
func (w *Watcher) Recheck(ctx context.Context) State {
	w.mu.Lock()
	prior := w.state
	if prior == StateFailed || prior == StateTimeout {
		w.attempts = 0
	}
	running := w.running
	w.mu.Unlock()

	if running {
		w.Kick()
		return w.State()
	}
	if !w.step(ctx) {
		w.Start(ctx)
	}
	return w.State()
}

// step runs one check and applies the resulting transition. It returns
// true when the watcher reached a terminal state. Every check passes
// through checking first; no transition skips it.
func (w *Watcher) step(ctx context.Context) bool {
	w.mu.Lock()
	w.state = StateChecking
	w.mu.Unlock()

	res, err := w.check(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	switch {
	case err != nil:
		// a failed check spends an attempt; the poll itself is the retry
		w.log.Warn().Err(err).Int("attempt", w.attempts+1).Msg("publish status check failed")
		return w.spend(StatePending)
	case res.Published:
		w.state = StateSuccess
		return true
	case res.PaymentStatus == model.PaymentRejected || res.PaymentStatus == model.PaymentCancelled:
		w.state = StateFailed
		return true
	case res.PaymentStatus == model.PaymentApproved || res.PaymentStatus == model.PaymentInProcess:
		// approved but unpublished: the check func has already kicked off
		// the publish action; keep polling until the page reads live
		return w.spend(StateProcessing)
	default:
		return w.spend(StatePending)
	}
}

// spend consumes one attempt and moves to next, or to timeout when the
// ceiling is reached. Caller holds the mutex.
func (w *Watcher) spend(next State) bool {
	w.attempts++
	if w.attempts >= w.maxAttempts {
		w.state = StateTimeout
		return true
	}
	w.state = next
	return false
}

// Registry keeps at most one watcher per couple.
type Registry struct {
	mu       sync.Mutex
	watchers map[uint64]*Watcher
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{watchers: make(map[uint64]*Watcher)}
}

// Set stores the watcher for a user, replacing any previous one.
func (r *Registry) Set(userID uint64, w *Watcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watchers[userID] = w
}

// Get returns the user's watcher, or nil when no checkout is in flight.
func (r *Registry) Get(userID uint64) *Watcher {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.watchers[userID]
}

// Remove drops the user's watcher.
func (r *Registry) Remove(userID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.watchers, userID)
}
