// Package resilience guards outbound calls to the PDF renderer with a
// circuit breaker so a down Gotenberg cannot stall bill downloads.
package resilience

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ErrOpenCircuit is returned when the breaker refuses a call.
var ErrOpenCircuit = errors.New("resilience: circuit open")

// State enumerates breaker states.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

var (
	breakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "breaker_state",
			Help: "Current breaker state: 0=closed,1=open,2=half-open",
		},
		[]string{"target"},
	)
	breakerOpenedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "breaker_open_total",
			Help: "Number of times a breaker transitioned into open state",
		},
		[]string{"target"},
	)
)

func init() {
	prometheus.MustRegister(breakerState, breakerOpenedTotal)
}

// Breaker is a failure-ratio circuit breaker. It opens after the observed
// failure ratio over a minimum number of requests exceeds the threshold and
// probes again once the open window elapses.
type Breaker struct {
	mu           sync.Mutex
	state        State
	minRequests  int
	failureRatio float64
	openFor      time.Duration
	target       string

	requests int
	failures int
	openedAt time.Time
}

// NewBreaker constructs a Breaker.
func NewBreaker(minRequests int, failureRatio float64, openFor time.Duration) *Breaker {
	if minRequests <= 0 {
		minRequests = 5
	}
	if failureRatio <= 0 || failureRatio > 1 {
		failureRatio = 0.5
	}
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	return &Breaker{
		minRequests:  minRequests,
		failureRatio: failureRatio,
		openFor:      openFor,
		target:       "default",
	}
}

// WithTarget labels breaker metrics with the downstream name.
func (b *Breaker) WithTarget(target string) *Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	if target != "" {
		b.target = target
	}
	return b
}

// Allow reports whether a call may proceed.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case StateOpen:
		if time.Since(b.openedAt) >= b.openFor {
			b.setState(StateHalfOpen)
			return true
		}
		return false
	default:
		return true
	}
}

// Report records a call outcome.
func (b *Breaker) Report(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		if success {
			b.reset()
			b.setState(StateClosed)
		} else {
			b.openedAt = time.Now()
			b.setState(StateOpen)
		}
		return
	}

	b.requests++
	if !success {
		b.failures++
	}
	if b.requests >= b.minRequests && float64(b.failures)/float64(b.requests) >= b.failureRatio {
		b.openedAt = time.Now()
		b.setState(StateOpen)
		breakerOpenedTotal.WithLabelValues(b.target).Inc()
		b.reset()
	}
}

// StateNow returns the current breaker state.
func (b *Breaker) StateNow() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) reset() {
	b.requests = 0
	b.failures = 0
}

func (b *Breaker) setState(next State) {
	b.state = next
	breakerState.WithLabelValues(b.target).Set(float64(next))
}

// Backoff computes exponential backoff with jitter for the given attempt.
func Backoff(base time.Duration, attempt int, jitterPct float64) time.Duration {
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	if attempt < 1 {
		attempt = 1
	}
	d := base << uint(attempt-1)
	if jitterPct > 0 {
		jitter := float64(d) * jitterPct / 100
		d += time.Duration(rand.Float64() * jitter)
	}
	return d
}
