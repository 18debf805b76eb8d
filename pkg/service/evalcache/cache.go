package evalcache

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
	"github.com/secmon-lab/themis/pkg/utils/metrics"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultTTL is how long a computed evaluation stays servable
	DefaultTTL = 15 * time.Minute

	// DefaultTimeout bounds a single evaluation computation
	DefaultTimeout = 30 * time.Second
)

// ComputeFunc produces an evaluation result. It must honor ctx cancellation.
type ComputeFunc func(ctx context.Context) (*model.Evaluation, error)

// Cache deduplicates and memoizes framework evaluations.
//
// At most one computation per fingerprint runs at a time: concurrent callers
// for the same fingerprint share the in-flight result, and the in-flight
// marker clears when the computation returns, whether it succeeded, failed,
// timed out or was canceled. Computation runs under the initiating caller's
// context, so waiters that outlive a canceled initiator receive
// ErrEvaluationCancelled and may retry.
type Cache struct {
	store   Store
	ttl     time.Duration
	timeout time.Duration
	flight  singleflight.Group
	metrics *metrics.Metrics
	now     func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
	shared atomic.Int64
}

type Option func(*Cache)

// WithTTL overrides the entry lifetime
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithTimeout overrides the per-computation timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Cache) {
		c.timeout = timeout
	}
}

// WithMetrics wires Prometheus collectors
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// WithClock replaces the time source for tests
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

func New(store Store, opts ...Option) *Cache {
	c := &Cache{
		store:   store,
		ttl:     DefaultTTL,
		timeout: DefaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCompute returns the cached evaluation for the target, computing it
// through fn on a miss. Waiting on an in-flight computation is interrupted
// by ctx with ErrEvaluationCancelled while the computation itself keeps
// running for the remaining waiters.
func (c *Cache) GetOrCompute(ctx context.Context, orgID int64, code types.FrameworkCode, version int, fn ComputeFunc) (*model.Evaluation, error) {
	fp := model.NewFingerprint(orgID, code, version)
	key := entryKey(code, orgID, fp)

	cached, err := c.lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		c.hits.Add(1)
		c.metrics.RecordCacheHit()
		return cached, nil
	}

	c.misses.Add(1)
	c.metrics.RecordCacheMiss()

	ch := c.flight.DoChan(key, func() (interface{}, error) {
		return c.compute(ctx, key, fp, fn)
	})

	select {
	case <-ctx.Done():
		return nil, goerr.Wrap(model.ErrEvaluationCancelled, "canceled while waiting for evaluation",
			goerr.V(model.OrgIDKey, orgID), goerr.V(model.FrameworkKey, code))
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.shared.Add(1)
			c.metrics.RecordCacheShared()
		}
		return res.Val.(*model.Evaluation).Clone(), nil
	}
}

func (c *Cache) lookup(ctx context.Context, key string) (*model.Evaluation, error) {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var evaluation model.Evaluation
	if err := json.Unmarshal(raw, &evaluation); err != nil {
		return nil, goerr.Wrap(err, "broken cache entry", goerr.V("key", key))
	}

	return &evaluation, nil
}

func (c *Cache) compute(ctx context.Context, key string, fp model.Fingerprint, fn ComputeFunc) (*model.Evaluation, error) {
	// A racing caller may have stored the result between this caller's miss
	// and the flight starting.
	cached, err := c.lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return cached, nil
	}

	computeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := c.now()
	evaluation, err := fn(computeCtx)
	elapsed := c.now().Sub(started)
	if err != nil {
		switch {
		case errors.Is(computeCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
			c.metrics.RecordEvaluation(metrics.ResultTimeout, elapsed)
			return nil, goerr.Wrap(model.ErrEvaluationTimeout, "evaluation did not finish in time",
				goerr.V("timeout", c.timeout), goerr.V("fingerprint", fp.String()))
		case computeCtx.Err() != nil:
			c.metrics.RecordEvaluation(metrics.ResultCancelled, elapsed)
			return nil, goerr.Wrap(model.ErrEvaluationCancelled, "evaluation canceled",
				goerr.V("fingerprint", fp.String()))
		default:
			c.metrics.RecordEvaluation(metrics.ResultFailed, elapsed)
			return nil, err
		}
	}

	raw, err := json.Marshal(evaluation)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal evaluation", goerr.V("fingerprint", fp.String()))
	}
	if err := c.store.Put(ctx, key, raw, c.ttl); err != nil {
		return nil, err
	}

	c.metrics.RecordEvaluation(metrics.ResultOK, elapsed)
	return evaluation, nil
}

// Invalidate removes all cached results for one (organization, framework)
// pair across every framework version
func (c *Cache) Invalidate(ctx context.Context, orgID int64, code types.FrameworkCode) (int, error) {
	removed, err := c.store.DeletePrefix(ctx, pairPrefix(code, orgID))
	if err != nil {
		return 0, err
	}

	c.metrics.RecordCacheEvictions(removed)
	return removed, nil
}

// InvalidateFramework removes all cached results for a framework across
// every organization. Used when a framework definition changes version.
func (c *Cache) InvalidateFramework(ctx context.Context, code types.FrameworkCode) (int, error) {
	removed, err := c.store.DeletePrefix(ctx, frameworkPrefix(code))
	if err != nil {
		return 0, err
	}

	c.metrics.RecordCacheEvictions(removed)
	return removed, nil
}

// Sweep reclaims expired entries from the backing store
func (c *Cache) Sweep(ctx context.Context) (int, error) {
	removed, err := c.store.Sweep(ctx)
	if err != nil {
		return 0, err
	}

	c.metrics.RecordCacheEvictions(removed)
	return removed, nil
}

// Stats is a snapshot of cache effectiveness counters
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Shared int64 `json:"shared"`
}

func (c *Cache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Shared: c.shared.Load(),
	}
}

func (c *Cache) Close() error {
	return c.store.Close()
}
