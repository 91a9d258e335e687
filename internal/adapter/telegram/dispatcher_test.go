package telegram

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDispatcherKeepsOrderPerKey(t *testing.T) {
	d := NewDispatcher(nil)

	var mu sync.Mutex
	got := map[int64][]int{}
	for i := 0; i < 50; i++ {
		for _, key := range []int64{1, 2, 3} {
			i, key := i, key
			d.Submit(key, func() {
				mu.Lock()
				got[key] = append(got[key], i)
				mu.Unlock()
			})
		}
	}
	d.Wait()

	for _, key := range []int64{1, 2, 3} {
		assert.Len(t, got[key], 50)
		for i, v := range got[key] {
			assert.Equal(t, i, v, "key %d out of order", key)
		}
	}
	assert.Equal(t, 0, d.Active(), "workers exit once drained")
}

func TestDispatcherSerialisesOneKey(t *testing.T) {
	d := NewDispatcher(nil)

	var running, overlaps int32
	for i := 0; i < 20; i++ {
		d.Submit(7, func() {
			if atomic.AddInt32(&running, 1) > 1 {
				atomic.AddInt32(&overlaps, 1)
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&running, -1)
		})
	}
	d.Wait()
	assert.Zero(t, atomic.LoadInt32(&overlaps))
}

func TestDispatcherRunsKeysConcurrently(t *testing.T) {
	d := NewDispatcher(nil)

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	d.Submit(1, func() { <-release })
	d.Submit(2, func() { started <- struct{}{} })

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("a blocked key stalled another key")
	}
	close(release)
	d.Wait()
}

func TestDispatcherSurvivesPanics(t *testing.T) {
	d := NewDispatcher(slog.New(slog.NewTextHandler(io.Discard, nil)))

	var ran atomic.Bool
	d.Submit(1, func() { panic("boom") })
	d.Submit(1, func() { ran.Store(true) })
	d.Wait()
	assert.True(t, ran.Load())
}
