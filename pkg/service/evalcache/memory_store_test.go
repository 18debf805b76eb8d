package evalcache_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/themis/pkg/service/evalcache"
)

func TestMemoryStore_PutGet(t *testing.T) {
	ctx := context.Background()
	store := evalcache.NewMemoryStore()
	defer store.Close()

	_, ok, err := store.Get(ctx, "eval/nca-ecc/1/abc")
	gt.NoError(t, err)
	gt.B(t, ok).False()

	gt.NoError(t, store.Put(ctx, "eval/nca-ecc/1/abc", []byte("payload"), time.Minute))

	value, ok, err := store.Get(ctx, "eval/nca-ecc/1/abc")
	gt.NoError(t, err)
	gt.B(t, ok).True()
	gt.S(t, string(value)).Equal("payload")

	// The returned slice is a copy
	value[0] = 'X'
	again, ok, err := store.Get(ctx, "eval/nca-ecc/1/abc")
	gt.NoError(t, err)
	gt.B(t, ok).True()
	gt.S(t, string(again)).Equal("payload")
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := evalcache.NewMemoryStore(evalcache.WithMemoryClock(clock.Now))
	defer store.Close()

	gt.NoError(t, store.Put(ctx, "k", []byte("v"), time.Minute))

	clock.Advance(59 * time.Second)
	_, ok, err := store.Get(ctx, "k")
	gt.NoError(t, err)
	gt.B(t, ok).True()

	// At exactly the TTL boundary the entry is gone
	clock.Advance(time.Second)
	_, ok, err = store.Get(ctx, "k")
	gt.NoError(t, err)
	gt.B(t, ok).False()

	// Expired entries linger until swept
	gt.V(t, store.Len()).Equal(1)

	removed, err := store.Sweep(ctx)
	gt.NoError(t, err)
	gt.V(t, removed).Equal(1)
	gt.V(t, store.Len()).Equal(0)
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := evalcache.NewMemoryStore()
	defer store.Close()

	gt.NoError(t, store.Put(ctx, "k", []byte("v"), time.Minute))
	gt.NoError(t, store.Delete(ctx, "k"))

	_, ok, err := store.Get(ctx, "k")
	gt.NoError(t, err)
	gt.B(t, ok).False()

	// Deleting an absent key is not an error
	gt.NoError(t, store.Delete(ctx, "missing"))
}

func TestMemoryStore_DeletePrefix(t *testing.T) {
	ctx := context.Background()
	store := evalcache.NewMemoryStore()
	defer store.Close()

	keys := []string{
		"eval/nca-ecc/1/aaa",
		"eval/nca-ecc/1/bbb",
		"eval/nca-ecc/2/ccc",
		"eval/iso-27001/1/ddd",
	}
	for _, key := range keys {
		gt.NoError(t, store.Put(ctx, key, []byte("v"), time.Minute))
	}

	removed, err := store.DeletePrefix(ctx, "eval/nca-ecc/1/")
	gt.NoError(t, err)
	gt.V(t, removed).Equal(2)
	gt.V(t, store.Len()).Equal(2)

	removed, err = store.DeletePrefix(ctx, "eval/nca-ecc/")
	gt.NoError(t, err)
	gt.V(t, removed).Equal(1)

	_, ok, err := store.Get(ctx, "eval/iso-27001/1/ddd")
	gt.NoError(t, err)
	gt.B(t, ok).True()
}
