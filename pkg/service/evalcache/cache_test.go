package evalcache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
	"github.com/secmon-lab/themis/pkg/service/evalcache"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testEvaluation(orgID int64, code types.FrameworkCode, version int, score float64) *model.Evaluation {
	return &model.Evaluation{
		Fingerprint:      model.NewFingerprint(orgID, code, version),
		OrgID:            orgID,
		FrameworkCode:    code,
		FrameworkVersion: version,
		Score:            score,
		TotalWeight:      10,
		SatisfiedWeight:  score / 10,
		EvaluatedAt:      time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCache_GetOrComputeMemoizes(t *testing.T) {
	ctx := context.Background()
	cache := evalcache.New(evalcache.NewMemoryStore())
	defer cache.Close()

	var calls atomic.Int64
	fn := func(ctx context.Context) (*model.Evaluation, error) {
		calls.Add(1)
		return testEvaluation(1, "nca-ecc", 1, 85.5), nil
	}

	first, err := cache.GetOrCompute(ctx, 1, "nca-ecc", 1, fn)
	gt.NoError(t, err)
	gt.V(t, first.Score).Equal(85.5)
	gt.V(t, calls.Load()).Equal(int64(1))

	second, err := cache.GetOrCompute(ctx, 1, "nca-ecc", 1, fn)
	gt.NoError(t, err)
	gt.V(t, second.Score).Equal(85.5)
	gt.V(t, calls.Load()).Equal(int64(1))

	stats := cache.Stats()
	gt.V(t, stats.Misses).Equal(int64(1))
	gt.V(t, stats.Hits).Equal(int64(1))
}

func TestCache_ConcurrentCallersComputeOnce(t *testing.T) {
	ctx := context.Background()
	cache := evalcache.New(evalcache.NewMemoryStore())
	defer cache.Close()

	const callers = 20

	var calls atomic.Int64
	started := make(chan struct{})
	release := make(chan struct{})
	fn := func(ctx context.Context) (*model.Evaluation, error) {
		calls.Add(1)
		<-release
		return testEvaluation(1, "nca-ecc", 1, 72.0), nil
	}

	var wg sync.WaitGroup
	results := make([]*model.Evaluation, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-started
			results[i], errs[i] = cache.GetOrCompute(ctx, 1, "nca-ecc", 1, fn)
		}(i)
	}

	close(started)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		gt.NoError(t, errs[i])
		gt.V(t, results[i].Score).Equal(72.0)
	}
	gt.V(t, calls.Load()).Equal(int64(1))
}

func TestCache_DistinctTargetsComputeSeparately(t *testing.T) {
	ctx := context.Background()
	cache := evalcache.New(evalcache.NewMemoryStore())
	defer cache.Close()

	var calls atomic.Int64
	compute := func(orgID int64, version int) evalcache.ComputeFunc {
		return func(ctx context.Context) (*model.Evaluation, error) {
			calls.Add(1)
			return testEvaluation(orgID, "nca-ecc", version, 50), nil
		}
	}

	_, err := cache.GetOrCompute(ctx, 1, "nca-ecc", 1, compute(1, 1))
	gt.NoError(t, err)
	_, err = cache.GetOrCompute(ctx, 2, "nca-ecc", 1, compute(2, 1))
	gt.NoError(t, err)

	// A version bump is a separate target even for the same pair
	_, err = cache.GetOrCompute(ctx, 1, "nca-ecc", 2, compute(1, 2))
	gt.NoError(t, err)

	gt.V(t, calls.Load()).Equal(int64(3))
}

func TestCache_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := evalcache.NewMemoryStore(evalcache.WithMemoryClock(clock.Now))
	cache := evalcache.New(store,
		evalcache.WithTTL(10*time.Minute),
		evalcache.WithClock(clock.Now))
	defer cache.Close()

	var calls atomic.Int64
	fn := func(ctx context.Context) (*model.Evaluation, error) {
		calls.Add(1)
		return testEvaluation(1, "nca-ecc", 1, 61.25), nil
	}

	_, err := cache.GetOrCompute(ctx, 1, "nca-ecc", 1, fn)
	gt.NoError(t, err)
	gt.V(t, calls.Load()).Equal(int64(1))

	clock.Advance(5 * time.Minute)
	_, err = cache.GetOrCompute(ctx, 1, "nca-ecc", 1, fn)
	gt.NoError(t, err)
	gt.V(t, calls.Load()).Equal(int64(1))

	clock.Advance(6 * time.Minute)
	result, err := cache.GetOrCompute(ctx, 1, "nca-ecc", 1, fn)
	gt.NoError(t, err)
	gt.V(t, result.Score).Equal(61.25)
	gt.V(t, calls.Load()).Equal(int64(2))
}

func TestCache_ComputeErrorIsNotCached(t *testing.T) {
	ctx := context.Background()
	cache := evalcache.New(evalcache.NewMemoryStore())
	defer cache.Close()

	var calls atomic.Int64
	fail := true
	fn := func(ctx context.Context) (*model.Evaluation, error) {
		calls.Add(1)
		if fail {
			return nil, goerr.New("collaborator unreachable")
		}
		return testEvaluation(1, "nca-ecc", 1, 44), nil
	}

	_, err := cache.GetOrCompute(ctx, 1, "nca-ecc", 1, fn)
	gt.Error(t, err)
	gt.V(t, calls.Load()).Equal(int64(1))

	// The failure must not be memoized: the next call recomputes
	fail = false
	result, err := cache.GetOrCompute(ctx, 1, "nca-ecc", 1, fn)
	gt.NoError(t, err)
	gt.V(t, result.Score).Equal(44.0)
	gt.V(t, calls.Load()).Equal(int64(2))
}

func TestCache_ComputeTimeout(t *testing.T) {
	ctx := context.Background()
	cache := evalcache.New(evalcache.NewMemoryStore(),
		evalcache.WithTimeout(30*time.Millisecond))
	defer cache.Close()

	fn := func(ctx context.Context) (*model.Evaluation, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	_, err := cache.GetOrCompute(ctx, 1, "nca-ecc", 1, fn)
	gt.Error(t, err)
	gt.B(t, errors.Is(err, model.ErrEvaluationTimeout)).True()
	gt.B(t, errors.Is(err, model.ErrEvaluationCancelled)).False()
}

func TestCache_WaiterCancellation(t *testing.T) {
	cache := evalcache.New(evalcache.NewMemoryStore())
	defer cache.Close()

	release := make(chan struct{})
	defer close(release)

	fn := func(ctx context.Context) (*model.Evaluation, error) {
		select {
		case <-release:
			return testEvaluation(1, "nca-ecc", 1, 33), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := cache.GetOrCompute(ctx, 1, "nca-ecc", 1, fn)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		gt.Error(t, err)
		gt.B(t, errors.Is(err, model.ErrEvaluationCancelled)).True()
	case <-time.After(time.Second):
		t.Fatal("caller did not return after cancellation")
	}

	// A fresh caller is not poisoned by the canceled attempt
	result, err := cache.GetOrCompute(context.Background(), 1, "nca-ecc", 1,
		func(ctx context.Context) (*model.Evaluation, error) {
			return testEvaluation(1, "nca-ecc", 1, 33), nil
		})
	gt.NoError(t, err)
	gt.V(t, result.Score).Equal(33.0)
}

func TestCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	cache := evalcache.New(evalcache.NewMemoryStore())
	defer cache.Close()

	var calls atomic.Int64
	compute := func(orgID int64, code types.FrameworkCode) evalcache.ComputeFunc {
		return func(ctx context.Context) (*model.Evaluation, error) {
			calls.Add(1)
			return testEvaluation(orgID, code, 1, 50), nil
		}
	}

	_, err := cache.GetOrCompute(ctx, 1, "nca-ecc", 1, compute(1, "nca-ecc"))
	gt.NoError(t, err)
	_, err = cache.GetOrCompute(ctx, 2, "nca-ecc", 1, compute(2, "nca-ecc"))
	gt.NoError(t, err)
	_, err = cache.GetOrCompute(ctx, 1, "iso-27001", 1, compute(1, "iso-27001"))
	gt.NoError(t, err)
	gt.V(t, calls.Load()).Equal(int64(3))

	// Dropping one pair leaves the other organization and framework alone
	removed, err := cache.Invalidate(ctx, 1, "nca-ecc")
	gt.NoError(t, err)
	gt.V(t, removed).Equal(1)

	_, err = cache.GetOrCompute(ctx, 1, "nca-ecc", 1, compute(1, "nca-ecc"))
	gt.NoError(t, err)
	gt.V(t, calls.Load()).Equal(int64(4))

	_, err = cache.GetOrCompute(ctx, 2, "nca-ecc", 1, compute(2, "nca-ecc"))
	gt.NoError(t, err)
	gt.V(t, calls.Load()).Equal(int64(4))
}

func TestCache_InvalidateFramework(t *testing.T) {
	ctx := context.Background()
	cache := evalcache.New(evalcache.NewMemoryStore())
	defer cache.Close()

	compute := func(orgID int64, code types.FrameworkCode) evalcache.ComputeFunc {
		return func(ctx context.Context) (*model.Evaluation, error) {
			return testEvaluation(orgID, code, 1, 50), nil
		}
	}

	for orgID := int64(1); orgID <= 3; orgID++ {
		_, err := cache.GetOrCompute(ctx, orgID, "nca-ecc", 1, compute(orgID, "nca-ecc"))
		gt.NoError(t, err)
	}
	_, err := cache.GetOrCompute(ctx, 1, "iso-27001", 1, compute(1, "iso-27001"))
	gt.NoError(t, err)

	removed, err := cache.InvalidateFramework(ctx, "nca-ecc")
	gt.NoError(t, err)
	gt.V(t, removed).Equal(3)

	removed, err = cache.InvalidateFramework(ctx, "iso-27001")
	gt.NoError(t, err)
	gt.V(t, removed).Equal(1)
}

func TestCache_Sweep(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := evalcache.NewMemoryStore(evalcache.WithMemoryClock(clock.Now))
	cache := evalcache.New(store,
		evalcache.WithTTL(time.Minute),
		evalcache.WithClock(clock.Now))
	defer cache.Close()

	for orgID := int64(1); orgID <= 2; orgID++ {
		_, err := cache.GetOrCompute(ctx, orgID, "nca-ecc", 1,
			func(ctx context.Context) (*model.Evaluation, error) {
				return testEvaluation(orgID, "nca-ecc", 1, 10), nil
			})
		gt.NoError(t, err)
	}
	gt.V(t, store.Len()).Equal(2)

	// Nothing has expired yet
	removed, err := cache.Sweep(ctx)
	gt.NoError(t, err)
	gt.V(t, removed).Equal(0)

	clock.Advance(2 * time.Minute)
	removed, err = cache.Sweep(ctx)
	gt.NoError(t, err)
	gt.V(t, removed).Equal(2)
	gt.V(t, store.Len()).Equal(0)
}

func TestCache_ResultIsCopied(t *testing.T) {
	ctx := context.Background()
	cache := evalcache.New(evalcache.NewMemoryStore())
	defer cache.Close()

	fn := func(ctx context.Context) (*model.Evaluation, error) {
		return testEvaluation(1, "nca-ecc", 1, 80), nil
	}

	first, err := cache.GetOrCompute(ctx, 1, "nca-ecc", 1, fn)
	gt.NoError(t, err)
	first.Score = 0

	second, err := cache.GetOrCompute(ctx, 1, "nca-ecc", 1, fn)
	gt.NoError(t, err)
	gt.V(t, second.Score).Equal(80.0)
}
