package mentor

import (
	"errors"
	"sync"
	"time"
)

// BreakerState is the three-state machine guarding the generative path.
type BreakerState string

const (
	StateClosed   BreakerState = "CLOSED"
	StateOpen     BreakerState = "OPEN"
	StateHalfOpen BreakerState = "HALF_OPEN"
)

// ErrBreakerOpen is returned by Call when the breaker short-circuits.
var ErrBreakerOpen = errors.New("breaker_open")

// CircuitBreaker implements the state machine from the design: CLOSED
// executes calls and counts consecutive failures; OPEN short-circuits
// until a recovery timeout elapses; HALF_OPEN admits a bounded number of
// probe calls to decide whether to close or re-open.
type CircuitBreaker struct {
	mu sync.Mutex

	failureThreshold int
	recoveryTimeout  time.Duration
	probeRequired    int
	probeCapacity    int

	state               BreakerState
	consecutiveFailures int
	probeSuccesses      int
	probesInFlight      int
	openedAt            time.Time
	startedAt           time.Time
}

// NewCircuitBreaker constructs a breaker from Config, starting CLOSED.
func NewCircuitBreaker(cfg Config) *CircuitBreaker {
	return &CircuitBreaker{
		failureThreshold: cfg.BreakerFailureThreshold,
		recoveryTimeout:  cfg.breakerRecovery(),
		probeRequired:    cfg.BreakerProbeRequired,
		probeCapacity:    cfg.BreakerProbeCapacity,
		state:            StateClosed,
		startedAt:        time.Now(),
	}
}

// admit decides whether a call may proceed right now, transitioning
// OPEN -> HALF_OPEN when the recovery timeout has elapsed.
func (b *CircuitBreaker) admit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(b.openedAt) >= b.recoveryTimeout {
			b.state = StateHalfOpen
			b.probeSuccesses = 0
			b.probesInFlight = 0
		} else {
			return false
		}
		fallthrough
	case StateHalfOpen:
		if b.probesInFlight >= b.probeCapacity {
			return false
		}
		b.probesInFlight++
		return true
	}
	return false
}

func (b *CircuitBreaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.consecutiveFailures = 0
	case StateHalfOpen:
		b.probeSuccesses++
		b.probesInFlight--
		if b.probeSuccesses >= b.probeRequired {
			b.state = StateClosed
			b.consecutiveFailures = 0
			b.probeSuccesses = 0
			b.probesInFlight = 0
		}
	}
}

func (b *CircuitBreaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.consecutiveFailures++
		if b.consecutiveFailures >= b.failureThreshold {
			b.state = StateOpen
			b.openedAt = time.Now()
		}
	case StateHalfOpen:
		b.probesInFlight--
		b.state = StateOpen
		b.openedAt = time.Now()
		b.probeSuccesses = 0
	}
}

// Call executes fn if the breaker admits it. A timeout or error from fn
// counts as a failure; a short-circuit returns ErrBreakerOpen without
// invoking fn at all.
func (b *CircuitBreaker) Call(fn func() error) error {
	if !b.admit() {
		return ErrBreakerOpen
	}
	err := fn()
	if err != nil {
		b.recordFailure()
		return err
	}
	b.recordSuccess()
	return nil
}

// BreakerStatus reports state, failure count, and uptime.
type BreakerStatus struct {
	State               BreakerState
	ConsecutiveFailures int
	UptimeSeconds       float64
}

func (b *CircuitBreaker) Status() BreakerStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BreakerStatus{
		State:               b.state,
		ConsecutiveFailures: b.consecutiveFailures,
		UptimeSeconds:       time.Since(b.startedAt).Seconds(),
	}
}
