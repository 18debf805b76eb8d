package keylock_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/secmon-lab/themis/pkg/utils/keylock"
)

func TestLockSerializesSameKey(t *testing.T) {
	kl := keylock.New()

	var inFlight int32
	var overlapped atomic.Bool
	var count int

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			unlock := kl.Lock("assessment:1")
			defer unlock()

			if atomic.AddInt32(&inFlight, 1) != 1 {
				overlapped.Store(true)
			}
			count++
			atomic.AddInt32(&inFlight, -1)
		}()
	}
	wg.Wait()

	if overlapped.Load() {
		t.Error("expected holders of the same key to be serialized")
	}
	if count != 50 {
		t.Errorf("expected count=50, got %d", count)
	}
}

func TestLockDistinctKeysAreIndependent(t *testing.T) {
	kl := keylock.New()

	unlockA := kl.Lock("assessment:1")
	defer unlockA()

	acquired := make(chan struct{})
	go func() {
		unlockB := kl.Lock("assessment:2")
		defer unlockB()
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("expected distinct keys not to contend")
	}
}

func TestLockReleaseAllowsReacquisition(t *testing.T) {
	kl := keylock.New()

	unlock := kl.Lock("risk:7")
	unlock()

	done := make(chan struct{})
	go func() {
		again := kl.Lock("risk:7")
		again()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected released key to be reacquirable")
	}
}
