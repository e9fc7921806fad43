package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFail = errors.New("fail")

func run(b *Breaker, outcomes ...bool) {
	for _, ok := range outcomes {
		_ = b.Execute(func() error {
			if ok {
				return nil
			}
			return errFail
		})
	}
}

func TestBreakerStateTransitions(t *testing.T) {
	tripAt3 := func(c Counts) bool { return c.ConsecutiveFailures >= 3 }

	tests := []struct {
		name          string
		settings      Settings
		requests      []bool // true = success, false = failure
		expectedState State
	}{
		{
			name:          "stays closed on successes",
			settings:      Settings{Timeout: time.Minute},
			requests:      []bool{true, true, true},
			expectedState: StateClosed,
		},
		{
			name:          "opens after consecutive failures",
			settings:      Settings{Timeout: time.Minute, ReadyToTrip: tripAt3},
			requests:      []bool{false, false, false},
			expectedState: StateOpen,
		},
		{
			name:          "success resets consecutive failures",
			settings:      Settings{Timeout: time.Minute, ReadyToTrip: tripAt3},
			requests:      []bool{false, false, true, false, false},
			expectedState: StateClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("test", tt.settings)
			run(b, tt.requests...)
			assert.Equal(t, tt.expectedState, b.State())
		})
	}
}

func TestBreakerOpenRejects(t *testing.T) {
	b := New("test", Settings{Timeout: time.Minute, ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 }})
	run(b, false)
	require.Equal(t, StateOpen, b.State())

	called := false
	err := b.Execute(func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	now := time.Now()
	b := New("test", Settings{
		MaxRequests: 2,
		Timeout:     time.Second,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
	})
	b.now = func() time.Time { return now }

	run(b, false)
	require.Equal(t, StateOpen, b.State())

	now = now.Add(2 * time.Second)
	assert.Equal(t, StateHalfOpen, b.State())

	run(b, true)
	assert.Equal(t, StateHalfOpen, b.State())
	run(b, true)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	b := New("test", Settings{
		Timeout:     time.Second,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
	})
	b.now = func() time.Time { return now }

	run(b, false)
	now = now.Add(2 * time.Second)
	require.Equal(t, StateHalfOpen, b.State())

	run(b, false)
	assert.Equal(t, StateOpen, b.State())
}

func TestBreakerCallbacks(t *testing.T) {
	var transitions []string
	b := New("hook", Settings{
		Timeout:     time.Minute,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 2 },
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, name+":"+from.String()+"->"+to.String())
		},
	})

	run(b, false, false)
	assert.Equal(t, []string{"hook:closed->open"}, transitions)
}

func TestBreakerPanicCountsAsFailure(t *testing.T) {
	b := New("test", Settings{Timeout: time.Minute})

	assert.Panics(t, func() {
		_ = b.Execute(func() error { panic("boom") })
	})
	assert.Equal(t, uint32(1), b.Counts().TotalFailures)
}

func TestSetReusesBreakers(t *testing.T) {
	s := NewSet(Settings{})
	a := s.Get("https://a.example.com")
	assert.Same(t, a, s.Get("https://a.example.com"))
	assert.NotSame(t, a, s.Get("https://b.example.com"))
	assert.Equal(t, "https://a.example.com", a.Name())
}
