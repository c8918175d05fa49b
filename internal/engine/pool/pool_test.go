package pool_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/engine/pool"
)

func TestPool_RunsEveryItem(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		p := pool.New(3, 10, func(_ context.Context, n int) error {
			if n%2 == 1 {
				return errors.New("odd")
			}
			return nil
		})
		p.Start(context.Background())

		for i := range 10 {
			p.Submit(i)
		}

		failed := 0
		seen := make(map[int]bool)
		for range 10 {
			res := <-p.Results()
			seen[res.Item] = true
			if res.Err != nil {
				failed++
			}
		}
		p.Shutdown()

		assert.Len(t, seen, 10)
		assert.Equal(t, 5, failed)
	})
}

func TestPool_ConcurrencyBound(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		const workers = 4
		var running, peak atomic.Int32

		p := pool.New(workers, 20, func(_ context.Context, _ int) error {
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(time.Second)
			running.Add(-1)
			return nil
		})
		p.Start(context.Background())

		for i := range 20 {
			p.Submit(i)
		}
		for range 20 {
			<-p.Results()
		}
		p.Shutdown()

		assert.Equal(t, int32(workers), peak.Load())
	})
}

func TestPool_PanicBecomesResult(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		p := pool.New(1, 1, func(_ context.Context, _ string) error {
			panic("boom")
		})
		p.Start(context.Background())
		p.Submit("a.o")

		res := <-p.Results()
		p.Shutdown()

		assert.Equal(t, "a.o", res.Item)
		require.ErrorContains(t, res.Err, domain.ErrActionPanicked.Error())
	})
}

func TestPool_ShutdownRunsQueuedItems(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var ran atomic.Int32
		p := pool.New(2, 5, func(_ context.Context, _ int) error {
			ran.Add(1)
			return nil
		})
		p.Start(context.Background())
		for i := range 5 {
			p.Submit(i)
		}
		p.Shutdown()
		p.Shutdown()

		assert.Equal(t, int32(5), ran.Load())
		assert.Len(t, p.Results(), 5)
	})
}

func TestPool_ContextReachesRun(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		p := pool.New(1, 1, func(ctx context.Context, _ int) error {
			<-ctx.Done()
			return ctx.Err()
		})
		p.Start(ctx)
		p.Submit(1)

		synctest.Wait()
		cancel()

		res := <-p.Results()
		p.Shutdown()
		require.ErrorIs(t, res.Err, context.Canceled)
	})
}

func TestPool_Size(t *testing.T) {
	assert.Equal(t, 1, pool.New(0, 0, func(context.Context, int) error { return nil }).Size())
	assert.Equal(t, 8, pool.New(8, 1, func(context.Context, int) error { return nil }).Size())
}
