package resilience

import (
	"errors"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestCircuitBreaker_Lifecycle(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:        "gemini",
		MaxFailures: 2,
		Timeout:     time.Minute,
		OnStateChange: func(_ string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})
	cb.now = clock.now

	fail := errors.New("503")
	_ = cb.Execute(func() error { return fail })
	if cb.State() != StateClosed {
		t.Fatalf("one failure should keep the circuit closed")
	}
	_ = cb.Execute(func() error { return fail })
	if cb.State() != StateOpen {
		t.Fatalf("expected open after max failures, got %s", cb.State())
	}
	if err := cb.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}

	clock.advance(time.Minute)
	if cb.State() != StateHalfOpen {
		t.Fatalf("expected half-open after timeout, got %s", cb.State())
	}
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("probe failed: %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("expected closed after successful probe, got %s", cb.State())
	}

	want := []string{"closed->open", "open->half-open", "half-open->closed"}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v", transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %s, want %s", i, transitions[i], want[i])
		}
	}
}

func TestCircuitBreaker_ReopensOnFailedProbe(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Second})
	cb.now = clock.now

	_ = cb.Execute(func() error { return errors.New("x") })
	clock.advance(time.Second)
	_ = cb.Execute(func() error { return errors.New("still down") })
	if cb.State() != StateOpen {
		t.Errorf("expected open after failed probe, got %s", cb.State())
	}
}

func TestCircuitBreaker_IsFailureFilter(t *testing.T) {
	ignored := errors.New("client error")
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures: 1,
		IsFailure:   func(err error) bool { return err != nil && !errors.Is(err, ignored) },
	})
	_ = cb.Execute(func() error { return ignored })
	if cb.State() != StateClosed {
		t.Errorf("filtered errors should not trip the breaker")
	}
}

func TestCircuitBreaker_HalfOpenLimitsProbes(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Second})
	cb.now = clock.now

	_ = cb.Execute(func() error { return errors.New("x") })
	clock.advance(time.Second)

	var second error
	_ = cb.Execute(func() error {
		second = cb.Execute(func() error { return nil })
		return nil
	})
	if !errors.Is(second, ErrCircuitOpen) {
		t.Errorf("second concurrent probe = %v, want ErrCircuitOpen", second)
	}
	if cb.State() != StateClosed {
		t.Errorf("expected closed after probe, got %s", cb.State())
	}
}

func TestCircuitBreaker_StaleResultIgnored(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1})
	_ = cb.Execute(func() error {
		cb.Reset()
		return errors.New("from before reset")
	})
	if cb.State() != StateClosed {
		t.Errorf("a call started before Reset should not trip the breaker, got %s", cb.State())
	}
}

func TestState_String(t *testing.T) {
	if StateHalfOpen.String() != "half-open" || State(9).String() != "unknown" {
		t.Error("unexpected state names")
	}
}
