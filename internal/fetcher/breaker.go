package fetcher

import (
	"context"
	"errors"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned while a host's breaker is open.
var ErrCircuitOpen = eris.New("fetcher: circuit open")

// Circuit states.
const (
	CircuitClosed   = "closed"
	CircuitOpen     = "open"
	CircuitHalfOpen = "half-open"
)

// BreakerOptions configures Guard.
type BreakerOptions struct {
	// FailureThreshold is the number of consecutive failures that opens a
	// host's circuit. Default: 5.
	FailureThreshold int
	// ResetTimeout is how long a circuit stays open before one probe is let
	// through. Default: 60s.
	ResetTimeout time.Duration
}

type breaker struct {
	state    string
	failures int
	openedAt time.Time
}

// Guarded wraps a Fetcher with one circuit breaker per host, so a dead
// source fails fast instead of retrying on every reload.
type Guarded struct {
	next  Fetcher
	opts  BreakerOptions
	mu    sync.Mutex
	hosts map[string]*breaker
	now   func() time.Time
}

// Guard wraps next with per-host circuit breakers.
func Guard(next Fetcher, opts BreakerOptions) *Guarded {
	if opts.FailureThreshold <= 0 {
		opts.FailureThreshold = 5
	}
	if opts.ResetTimeout <= 0 {
		opts.ResetTimeout = 60 * time.Second
	}
	return &Guarded{next: next, opts: opts, hosts: map[string]*breaker{}, now: time.Now}
}

// Download implements Fetcher.
func (g *Guarded) Download(ctx context.Context, uri string) (io.ReadCloser, error) {
	host := hostOf(uri)
	if err := g.allow(host); err != nil {
		return nil, err
	}

	rc, err := g.next.Download(ctx, uri)
	// Cancellation says nothing about the host.
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) && ctx.Err() != nil {
		g.release(host)
		return nil, err
	}
	g.record(host, err)
	return rc, err
}

// State returns the circuit state for host.
func (g *Guarded) State(host string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	b, ok := g.hosts[host]
	if !ok {
		return CircuitClosed
	}
	if b.state == CircuitOpen && g.now().Sub(b.openedAt) >= g.opts.ResetTimeout {
		return CircuitHalfOpen
	}
	return b.state
}

func (g *Guarded) allow(host string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	b := g.breaker(host)
	switch b.state {
	case CircuitOpen:
		if g.now().Sub(b.openedAt) < g.opts.ResetTimeout {
			return eris.Wrapf(ErrCircuitOpen, "host %s", host)
		}
		b.state = CircuitHalfOpen
		return nil
	case CircuitHalfOpen:
		// One probe at a time.
		return eris.Wrapf(ErrCircuitOpen, "host %s (probe in flight)", host)
	default:
		return nil
	}
}

// release undoes allow without recording a result.
func (g *Guarded) release(host string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if b := g.breaker(host); b.state == CircuitHalfOpen {
		b.state = CircuitOpen
	}
}

func (g *Guarded) record(host string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	b := g.breaker(host)
	if err == nil {
		if b.state != CircuitClosed {
			zap.L().Info("fetcher: circuit closed", zap.String("component", "fetcher"), zap.String("host", host))
		}
		b.state = CircuitClosed
		b.failures = 0
		return
	}

	b.failures++
	if b.state == CircuitHalfOpen || b.failures >= g.opts.FailureThreshold {
		if b.state != CircuitOpen {
			zap.L().Warn("fetcher: circuit opened",
				zap.String("component", "fetcher"),
				zap.String("host", host),
				zap.Int("failures", b.failures),
				zap.Error(err),
			)
		}
		b.state = CircuitOpen
		b.openedAt = g.now()
	}
}

func (g *Guarded) breaker(host string) *breaker {
	b, ok := g.hosts[host]
	if !ok {
		b = &breaker{state: CircuitClosed}
		g.hosts[host] = b
	}
	return b
}

func hostOf(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Host == "" {
		return uri
	}
	return u.Host
}
