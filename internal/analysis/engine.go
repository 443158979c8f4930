// Package analysis serves coverage summaries for the current dataset
// snapshot, caching by (snapshot version, radius) and cancelling work that a
// newer request from the same session has made obsolete.
package analysis

import (
	"context"
	"errors"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/coverage-cli/internal/coverage"
	"github.com/sells-group/coverage-cli/internal/dataset"
)

// Errors returned by Engine.
var (
	ErrRadiusOutOfRange = eris.New("analysis: radius out of range")
	ErrNoSnapshot       = eris.New("analysis: no dataset loaded")
	ErrSuperseded       = eris.New("analysis: superseded by a newer request")
)

// Options configures an Engine.
type Options struct {
	MaxRadiusKM  float64
	BubbleMinM   float64
	BubbleExtraM float64
}

// Recorder receives engine metrics. *metrics.Collector satisfies it.
type Recorder interface {
	ObserveComputation(outcome string, elapsed time.Duration)
	CacheHit(hit bool)
	IncSuperseded()
}

type nopRecorder struct{}

func (nopRecorder) ObserveComputation(string, time.Duration) {}
func (nopRecorder) CacheHit(bool) {}
func (nopRecorder) IncSuperseded() {}

// Summary is the ranked coverage of one snapshot at one radius. Sizes and
// Tiers are aligned with Results.
type Summary struct {
	Version    uuid.UUID
	RadiusKM   float64
	Results    []coverage.Result
	Sizes      []float64
	Tiers      []string
	MaxWeight  int64
	ComputedAt time.Time
	Cached     bool
}

// Engine computes summaries against the holder's current snapshot.
type Engine struct {
	holder *dataset.Holder
	cache  *ResultCache
	opts   Options
	rec    Recorder
	group  singleflight.Group

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	cancel context.CancelFunc
}

// NewEngine creates an Engine and purges its cache whenever the holder
// publishes a new snapshot. rec may be nil.
func NewEngine(holder *dataset.Holder, cache *ResultCache, opts Options, rec Recorder) *Engine {
	if rec == nil {
		rec = nopRecorder{}
	}
	if cache == nil {
		cache = NewResultCache(64, 0)
	}
	if opts.BubbleMinM == 0 && opts.BubbleExtraM == 0 {
		opts.BubbleMinM = coverage.DefaultBubbleMinM
		opts.BubbleExtraM = coverage.DefaultBubbleExtraM
	}
	e := &Engine{
		holder:   holder,
		cache:    cache,
		opts:     opts,
		rec:      rec,
		sessions: make(map[string]*session),
	}
	holder.Subscribe(func(s *dataset.Snapshot) {
		cache.Purge()
		zap.L().Info("analysis: result cache purged for new snapshot",
			zap.String("component", "analysis"),
			zap.String("version", s.Version.String()),
		)
	})
	return e
}

// Cache returns the engine's result cache.
func (e *Engine) Cache() *ResultCache { return e.cache }

// ValidateRadius checks r against [0, MaxRadiusKM].
func (e *Engine) ValidateRadius(r float64) error {
	if math.IsNaN(r) || math.IsInf(r, 0) || r < 0 || (e.opts.MaxRadiusKM > 0 && r > e.opts.MaxRadiusKM) {
		return eris.Wrapf(ErrRadiusOutOfRange, "radius %v km not in [0, %v]", r, e.opts.MaxRadiusKM)
	}
	return nil
}

// Coverage returns the ranked summary for radiusKM. A non-empty session makes
// the call supersede any in-flight call from the same session; the older call
// returns ErrSuperseded. Identical concurrent computations are shared.
func (e *Engine) Coverage(ctx context.Context, sessionID string, radiusKM float64) (*Summary, error) {
	if err := e.ValidateRadius(radiusKM); err != nil {
		return nil, err
	}
	snap := e.holder.Current()
	if snap == nil {
		return nil, ErrNoSnapshot
	}

	if s := e.cache.Get(snap.Version, radiusKM); s != nil {
		e.rec.CacheHit(true)
		hit := *s
		hit.Cached = true
		return &hit, nil
	}
	e.rec.CacheHit(false)

	ctx, done := e.begin(ctx, sessionID)
	defer done()

	key := snap.Version.String() + "|" + strconv.FormatFloat(radiusKM+0, 'g', -1, 64)
	for {
		ch := e.group.DoChan(key, func() (any, error) {
			return e.compute(ctx, snap, radiusKM)
		})

		select {
		case <-ctx.Done():
			return nil, e.cancelled(ctx)
		case res := <-ch:
			if res.Err == nil {
				return res.Val.(*Summary), nil
			}
			// The shared computation belonged to a caller that was cancelled.
			if isCancellation(res.Err) && ctx.Err() == nil {
				continue
			}
			if isCancellation(res.Err) {
				return nil, e.cancelled(ctx)
			}
			return nil, res.Err
		}
	}
}

// begin registers a session call, cancelling the previous one.
func (e *Engine) begin(ctx context.Context, sessionID string) (context.Context, func()) {
	if sessionID == "" {
		return ctx, func() {}
	}
	ctx, cancel := context.WithCancelCause(ctx)
	own := &session{cancel: func() { cancel(ErrSuperseded) }}

	e.mu.Lock()
	if prev, ok := e.sessions[sessionID]; ok {
		prev.cancel()
		e.rec.IncSuperseded()
	}
	e.sessions[sessionID] = own
	e.mu.Unlock()

	return ctx, func() {
		e.mu.Lock()
		if e.sessions[sessionID] == own {
			delete(e.sessions, sessionID)
		}
		e.mu.Unlock()
		cancel(nil)
	}
}

func (e *Engine) cancelled(ctx context.Context) error {
	if cause := context.Cause(ctx); errors.Is(cause, ErrSuperseded) {
		return ErrSuperseded
	}
	return eris.Wrap(ctx.Err(), "analysis: coverage cancelled")
}

func (e *Engine) compute(ctx context.Context, snap *dataset.Snapshot, radiusKM float64) (*Summary, error) {
	start := time.Now()
	results, err := coverage.ComputeContext(ctx, snap.Locations, snap.Index, radiusKM)
	if err != nil {
		e.rec.ObserveComputation("cancelled", time.Since(start))
		return nil, err
	}

	ranked := coverage.Rank(results)
	s := &Summary{
		Version:    snap.Version,
		RadiusKM:   radiusKM,
		Results:    ranked,
		Sizes:      coverage.BubbleSizes(ranked, e.opts.BubbleMinM, e.opts.BubbleExtraM),
		Tiers:      coverage.ClassifyAll(ranked),
		MaxWeight:  coverage.MaxWeight(ranked),
		ComputedAt: time.Now().UTC(),
	}
	elapsed := time.Since(start)
	e.rec.ObserveComputation("ok", elapsed)

	// A snapshot published meanwhile has already purged the cache.
	if cur := e.holder.Current(); cur != nil && cur.Version == snap.Version {
		e.cache.Put(snap.Version, radiusKM, s)
	}

	zap.L().Debug("analysis: coverage computed",
		zap.String("component", "analysis"),
		zap.Float64("radius_km", radiusKM),
		zap.Int("locations", len(ranked)),
		zap.Duration("elapsed", elapsed),
	)
	return s, nil
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// SweepPoint aggregates one radius of a sweep.
type SweepPoint struct {
	RadiusKM    float64 `json:"radius_km"`
	TotalWeight int64   `json:"total_weight"`
	MaxWeight   int64   `json:"max_weight"`
	Covered     int     `json:"covered_locations"`
	Locations   int     `json:"locations"`
}

// Sweep computes coverage at every radius in radii.
func (e *Engine) Sweep(ctx context.Context, radii []float64) ([]SweepPoint, error) {
	out := make([]SweepPoint, 0, len(radii))
	for _, r := range radii {
		s, err := e.Coverage(ctx, "", r)
		if err != nil {
			return nil, err
		}
		p := SweepPoint{RadiusKM: r, MaxWeight: s.MaxWeight, Locations: len(s.Results)}
		for _, res := range s.Results {
			p.TotalWeight = coverage.AddWeight(p.TotalWeight, res.TotalWeight)
			if res.TotalWeight > 0 {
				p.Covered++
			}
		}
		out = append(out, p)
	}
	return out, nil
}

// Radii returns from, from+step, ... up to and including to (within a small
// tolerance).
func Radii(from, to, step float64) ([]float64, error) {
	if step <= 0 || math.IsNaN(step) {
		return nil, eris.New("analysis: sweep step must be > 0")
	}
	if from > to {
		return nil, eris.Errorf("analysis: sweep start %v is after end %v", from, to)
	}
	var out []float64
	for i := 0; ; i++ {
		r := from + float64(i)*step
		if r > to+step*1e-9 {
			break
		}
		out = append(out, math.Min(r, to))
	}
	return out, nil
}
