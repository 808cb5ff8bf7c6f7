package resilience

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrOpen is returned without calling through while a breaker is open.
	ErrOpen = errors.New("circuit breaker is open")
	// ErrProbeLimit is returned when a half-open breaker already has all
	// its probe calls in flight.
	ErrProbeLimit = errors.New("circuit breaker probe limit reached")
)

// State is a breaker state.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures a Breaker. Zero values take defaults.
type Settings struct {
	// Probes is the number of calls allowed while half-open, and the
	// number of consecutive successes that close the breaker again.
	Probes uint32
	// Window clears the closed-state counts periodically.
	Window time.Duration
	// Cooldown is how long the breaker stays open.
	Cooldown time.Duration
	// Trip decides, after a failure while closed, whether to open.
	Trip func(Counts) bool
	// OnStateChange observes transitions.
	OnStateChange func(name string, from, to State)
}

// Counts are the call statistics of the current window.
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// ConsecutiveFailures returns a Trip function opening after n failures in a row.
func ConsecutiveFailures(n uint32) func(Counts) bool {
	return func(c Counts) bool { return c.ConsecutiveFailures >= n }
}

// Breaker is a three-state circuit breaker.
type Breaker struct {
	name string
	cfg  Settings

	mu     sync.Mutex
	state  State
	counts Counts
	// deadline ends the closed window or the open cooldown; it doubles
	// as the generation stamp of in-flight calls.
	deadline time.Time
	now      func() time.Time
}

// New creates a closed breaker.
func New(name string, cfg Settings) *Breaker {
	if cfg.Probes == 0 {
		cfg.Probes = 1
	}
	if cfg.Window == 0 {
		cfg.Window = time.Minute
	}
	if cfg.Cooldown == 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.Trip == nil {
		cfg.Trip = ConsecutiveFailures(5)
	}
	b := &Breaker{name: name, cfg: cfg, now: time.Now}
	b.deadline = b.now().Add(cfg.Window)
	return b
}

func (b *Breaker) Name() string { return b.name }

// State returns the current state, applying any due transition.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	state, _ := b.refresh(b.now())
	return state
}

// Counts returns a copy of the current counts.
func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts
}

// Do runs fn through b. A failure is any non-nil error.
func Do[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	gen, err := b.admit()
	if err != nil {
		return zero, err
	}

	done := false
	defer func() {
		if !done {
			b.record(gen, false)
		}
	}()

	v, err := fn()
	done = true
	b.record(gen, err == nil)
	return v, err
}

func (b *Breaker) admit() (time.Time, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, gen := b.refresh(b.now())
	switch {
	case state == StateOpen:
		return gen, ErrOpen
	case state == StateHalfOpen && b.counts.Requests >= b.cfg.Probes:
		return gen, ErrProbeLimit
	}
	b.counts.Requests++
	return gen, nil
}

func (b *Breaker) record(gen time.Time, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	state, cur := b.refresh(now)
	if !cur.Equal(gen) {
		return
	}

	if ok {
		b.counts.TotalSuccesses++
		b.counts.ConsecutiveSuccesses++
		b.counts.ConsecutiveFailures = 0
		if state == StateHalfOpen && b.counts.ConsecutiveSuccesses >= b.cfg.Probes {
			b.transition(StateClosed, now)
		}
		return
	}

	b.counts.TotalFailures++
	b.counts.ConsecutiveFailures++
	b.counts.ConsecutiveSuccesses = 0
	if state == StateHalfOpen || b.cfg.Trip(b.counts) {
		b.transition(StateOpen, now)
	}
}

func (b *Breaker) refresh(now time.Time) (State, time.Time) {
	switch b.state {
	case StateClosed:
		if now.After(b.deadline) {
			b.counts = Counts{}
			b.deadline = now.Add(b.cfg.Window)
		}
	case StateOpen:
		if now.After(b.deadline) {
			b.transition(StateHalfOpen, now)
		}
	}
	return b.state, b.deadline
}

func (b *Breaker) transition(to State, now time.Time) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	b.counts = Counts{}

	switch to {
	case StateClosed:
		b.deadline = now.Add(b.cfg.Window)
	case StateOpen:
		b.deadline = now.Add(b.cfg.Cooldown)
	case StateHalfOpen:
		b.deadline = time.Time{}
	}

	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(b.name, from, to)
	}
}
