package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	txcontext "provenance/pkg/platform/tx"
)

type mapTier struct {
	mu   sync.Mutex
	data map[string]string
}

func newMapTier() *mapTier { return &mapTier{data: map[string]string{}} }

func (m *mapTier) Get(_ context.Context, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *mapTier) Set(_ context.Context, key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

func TestReadThrough(t *testing.T) {
	ctx := context.Background()

	t.Run("caches positive results in every tier", func(t *testing.T) {
		local, shared := NewLocal(time.Minute), newMapTier()
		rt := NewReadThrough(local, shared)
		loads := 0
		load := func(context.Context) (string, error) { loads++; return "Mike", nil }

		for range 3 {
			v, err := rt.Get(ctx, "name:0xabc", load)
			require.NoError(t, err)
			assert.Equal(t, "Mike", v)
		}
		assert.Equal(t, 1, loads)
		v, ok := shared.Get(ctx, "name:0xabc")
		assert.True(t, ok)
		assert.Equal(t, "Mike", v)
	})

	t.Run("never caches absence", func(t *testing.T) {
		rt := NewReadThrough(NewLocal(time.Minute))
		loads := 0
		load := func(context.Context) (string, error) { loads++; return "", nil }

		for range 2 {
			v, err := rt.Get(ctx, "name:0xdef", load)
			require.NoError(t, err)
			assert.Empty(t, v)
		}
		assert.Equal(t, 2, loads)
	})

	t.Run("backfills faster tiers from a slower hit", func(t *testing.T) {
		local, shared := newMapTier(), newMapTier()
		shared.Set(ctx, "id:mike", "0xabc")
		rt := NewReadThrough(local, shared)

		v, err := rt.Get(ctx, "id:mike", func(context.Context) (string, error) {
			t.Fatal("load must not run on a cache hit")
			return "", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "0xabc", v)
		got, ok := local.Get(ctx, "id:mike")
		assert.True(t, ok)
		assert.Equal(t, "0xabc", got)
	})

	t.Run("propagates load errors", func(t *testing.T) {
		rt := NewReadThrough(NewLocal(time.Minute))
		boom := errors.New("store down")
		_, err := rt.Get(ctx, "k", func(context.Context) (string, error) { return "", boom })
		assert.ErrorIs(t, err, boom)
	})

	t.Run("bypasses the cache inside a unit of work", func(t *testing.T) {
		local := newMapTier()
		rt := NewReadThrough(local)
		runner := txcontext.NewLockRunner()

		require.NoError(t, runner.RunInTx(ctx, func(ctx context.Context) error {
			_, err := rt.Get(ctx, "name:0x1", func(context.Context) (string, error) { return "Uncommitted", nil })
			return err
		}))
		_, ok := local.Get(ctx, "name:0x1")
		assert.False(t, ok)
	})

	t.Run("coalesces concurrent misses", func(t *testing.T) {
		rt := NewReadThrough(NewLocal(time.Minute))
		var loads atomic.Int32
		release := make(chan struct{})
		load := func(context.Context) (string, error) {
			loads.Add(1)
			<-release
			return "Mike", nil
		}

		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := rt.Get(ctx, "name:0xfeed", load)
				assert.NoError(t, err)
				assert.Equal(t, "Mike", v)
			}()
		}
		time.Sleep(20 * time.Millisecond)
		close(release)
		wg.Wait()
		assert.LessOrEqual(t, loads.Load(), int32(10))
		assert.GreaterOrEqual(t, loads.Load(), int32(1))
	})
}
