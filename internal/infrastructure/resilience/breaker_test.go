package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFailed = errors.New("failed")

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(cfg Settings) (*Breaker, *clock) {
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := New("test", cfg)
	b.now = c.now
	b.deadline = c.now().Add(b.cfg.Window)
	return b, c
}

func call(b *Breaker, ok bool) error {
	_, err := Do(b, func() (string, error) {
		if ok {
			return "ok", nil
		}
		return "", errFailed
	})
	return err
}

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Settings
		requests []bool
		want     State
	}{
		{
			name:     "stays closed on successes",
			cfg:      Settings{Trip: ConsecutiveFailures(1)},
			requests: []bool{true, true, true},
			want:     StateClosed,
		},
		{
			name:     "opens after consecutive failures",
			cfg:      Settings{Trip: ConsecutiveFailures(3)},
			requests: []bool{false, false, false},
			want:     StateOpen,
		},
		{
			name:     "success resets the failure run",
			cfg:      Settings{Trip: ConsecutiveFailures(3)},
			requests: []bool{false, false, true, false, false},
			want:     StateClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := newTestBreaker(tt.cfg)
			for _, ok := range tt.requests {
				_ = call(b, ok)
			}
			assert.Equal(t, tt.want, b.State())
		})
	}
}

func TestBreakerCounts(t *testing.T) {
	b, _ := newTestBreaker(Settings{})

	require.NoError(t, call(b, true))
	counts := b.Counts()
	assert.Equal(t, uint32(1), counts.Requests)
	assert.Equal(t, uint32(1), counts.TotalSuccesses)
	assert.Equal(t, uint32(1), counts.ConsecutiveSuccesses)

	assert.ErrorIs(t, call(b, false), errFailed)
	counts = b.Counts()
	assert.Equal(t, uint32(2), counts.Requests)
	assert.Equal(t, uint32(1), counts.TotalFailures)
	assert.Equal(t, uint32(1), counts.ConsecutiveFailures)
	assert.Equal(t, uint32(0), counts.ConsecutiveSuccesses)
}

func TestBreakerWindowClearsCounts(t *testing.T) {
	b, c := newTestBreaker(Settings{Window: time.Second, Trip: ConsecutiveFailures(2)})

	_ = call(b, false)
	c.advance(2 * time.Second)
	_ = call(b, false)
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, uint32(1), b.Counts().ConsecutiveFailures)
}

func TestBreakerOpenRejects(t *testing.T) {
	b, _ := newTestBreaker(Settings{Trip: ConsecutiveFailures(2)})
	_ = call(b, false)
	_ = call(b, false)
	require.Equal(t, StateOpen, b.State())

	called := false
	_, err := Do(b, func() (int, error) {
		called = true
		return 1, nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestBreakerHalfOpen(t *testing.T) {
	b, c := newTestBreaker(Settings{Probes: 2, Cooldown: time.Minute, Trip: ConsecutiveFailures(1)})
	_ = call(b, false)
	require.Equal(t, StateOpen, b.State())

	c.advance(time.Minute + time.Second)
	assert.Equal(t, StateHalfOpen, b.State())

	require.NoError(t, call(b, true))
	assert.Equal(t, StateHalfOpen, b.State())
	require.NoError(t, call(b, true))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	var transitions []string
	b, c := newTestBreaker(Settings{
		Cooldown: time.Minute,
		Trip:     ConsecutiveFailures(1),
		OnStateChange: func(_ string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	_ = call(b, false)
	c.advance(2 * time.Minute)
	_ = call(b, false)

	assert.Equal(t, StateOpen, b.State())
	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->open"}, transitions)
}

func TestBreakerPanicCountsAsFailure(t *testing.T) {
	b, _ := newTestBreaker(Settings{Trip: ConsecutiveFailures(1)})
	assert.Panics(t, func() {
		_, _ = Do(b, func() (int, error) { panic("boom") })
	})
	assert.Equal(t, StateOpen, b.State())
}

func TestHosts(t *testing.T) {
	hosts := NewHosts(Settings{Trip: ConsecutiveFailures(1)})

	a := hosts.For("http://A.example/page")
	assert.Same(t, a, hosts.For("http://a.example/other"))
	assert.NotSame(t, a, hosts.For("http://b.example/"))

	_ = call(a, false)
	states := hosts.States()
	assert.Equal(t, StateOpen, states["a.example"])
	assert.Equal(t, StateClosed, states["b.example"])

	assert.Equal(t, "not a url", HostOf("not a url"))
}
