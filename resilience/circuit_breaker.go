package resilience

import (
	"errors"
	"sync"
	"time"
)

// State is a circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

var stateNames = [...]string{"closed", "open", "half-open"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig configures a CircuitBreaker. Zero fields take
// DefaultCircuitBreakerConfig values.
type CircuitBreakerConfig struct {
	Name string `yaml:"name" mapstructure:"name"`
	// MaxFailures consecutive failures open the circuit.
	MaxFailures int `yaml:"max_failures" mapstructure:"max_failures"`
	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// HalfOpenMaxCalls probes must succeed to close the circuit again.
	HalfOpenMaxCalls int `yaml:"half_open_max_calls" mapstructure:"half_open_max_calls"`
	// IsFailure reports whether err counts against the upstream.
	// Defaults to err != nil.
	IsFailure     func(err error) bool              `yaml:"-" mapstructure:"-"`
	OnStateChange func(name string, from, to State) `yaml:"-" mapstructure:"-"`
}

func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxFailures:      5,
		Timeout:          30 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

// counts tracks outcomes within one generation. A generation ends on
// every state change, so results of calls started before the change are
// dropped.
type counts struct {
	inflight    int
	successes   int
	consecutive int
}

// CircuitBreaker fails fast once an upstream keeps failing.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig
	now func() time.Time

	mu         sync.Mutex
	state      State
	generation uint64
	counts     counts
	expiry     time.Time
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	d := DefaultCircuitBreakerConfig(cfg.Name)
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = d.MaxFailures
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = d.Timeout
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = d.HalfOpenMaxCalls
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(err error) bool { return err != nil }
	}
	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

// Execute runs fn unless the circuit rejects the call, in which case it
// returns ErrCircuitOpen without calling fn.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	gen, err := cb.before()
	if err != nil {
		return err
	}
	err = fn()
	cb.after(gen, cb.cfg.IsFailure(err))
	return err
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.refresh(cb.now())
	return cb.state
}

// Reset closes the circuit.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.setState(StateClosed, cb.now())
	cb.generation++
	cb.counts = counts{}
}

func (cb *CircuitBreaker) before() (uint64, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.refresh(cb.now())
	switch cb.state {
	case StateOpen:
		return cb.generation, ErrCircuitOpen
	case StateHalfOpen:
		if cb.counts.inflight >= cb.cfg.HalfOpenMaxCalls {
			return cb.generation, ErrCircuitOpen
		}
	}
	cb.counts.inflight++
	return cb.generation, nil
}

func (cb *CircuitBreaker) after(gen uint64, failed bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()
	cb.refresh(now)
	if gen != cb.generation {
		return
	}
	c := &cb.counts
	if failed {
		c.consecutive++
		if cb.state == StateHalfOpen || c.consecutive >= cb.cfg.MaxFailures {
			cb.setState(StateOpen, now)
		}
		return
	}
	c.consecutive = 0
	c.successes++
	if cb.state == StateHalfOpen && c.successes >= cb.cfg.HalfOpenMaxCalls {
		cb.setState(StateClosed, now)
	}
}

// refresh moves an open circuit to half-open once its timeout passed.
func (cb *CircuitBreaker) refresh(now time.Time) {
	if cb.state == StateOpen && !now.Before(cb.expiry) {
		cb.setState(StateHalfOpen, now)
	}
}

func (cb *CircuitBreaker) setState(to State, now time.Time) {
	if cb.state == to {
		return
	}
	from := cb.state
	cb.state = to
	cb.generation++
	cb.counts = counts{}
	cb.expiry = time.Time{}
	if to == StateOpen {
		cb.expiry = now.Add(cb.cfg.Timeout)
	}
	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.cfg.Name, from, to)
	}
}
