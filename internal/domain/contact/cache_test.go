package contact_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rpggio/calldesk/internal/domain/contact"
	"github.com/stretchr/testify/require"
)

func TestCache_LoadsOnce(t *testing.T) {
	ctx := context.Background()
	cache := contact.NewCache()

	var loads atomic.Int32
	load := func(context.Context) ([]contact.Contact, error) {
		loads.Add(1)
		return []contact.Contact{{ID: "c1"}}, nil
	}

	for i := 0; i < 3; i++ {
		rows, err := cache.GetOrLoad(ctx, load)
		require.NoError(t, err)
		require.Len(t, rows, 1)
	}
	require.Equal(t, int32(1), loads.Load())

	cache.Invalidate()
	_, err := cache.GetOrLoad(ctx, load)
	require.NoError(t, err)
	require.Equal(t, int32(2), loads.Load())
}

func TestCache_ErrorLeavesCacheEmpty(t *testing.T) {
	ctx := context.Background()
	cache := contact.NewCache()

	boom := errors.New("disk gone")
	_, err := cache.GetOrLoad(ctx, func(context.Context) ([]contact.Contact, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	loaded := false
	_, err = cache.GetOrLoad(ctx, func(context.Context) ([]contact.Contact, error) {
		loaded = true
		return nil, nil
	})
	require.NoError(t, err)
	require.True(t, loaded, "a failed load must not be cached")
}

func TestCache_StaleLoadIsNotInstalled(t *testing.T) {
	ctx := context.Background()
	cache := contact.NewCache()

	started := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		rows, err := cache.GetOrLoad(ctx, func(context.Context) ([]contact.Contact, error) {
			close(started)
			<-release
			return []contact.Contact{{ID: "before-write"}}, nil
		})
		require.NoError(t, err)
		require.Equal(t, "before-write", rows[0].ID)
	}()

	<-started
	cache.Invalidate()
	close(release)
	wg.Wait()

	// A load that overlapped an invalidation is not cached.
	rows, err := cache.GetOrLoad(ctx, func(context.Context) ([]contact.Contact, error) {
		return []contact.Contact{{ID: "after-write"}}, nil
	})
	require.NoError(t, err)
	require.Equal(t, "after-write", rows[0].ID)

	rows, err = cache.GetOrLoad(ctx, failLoad(t))
	require.NoError(t, err)
	require.Equal(t, "after-write", rows[0].ID)
}

func failLoad(t *testing.T) contact.LoadFunc {
	return func(context.Context) ([]contact.Contact, error) {
		t.Error("unexpected load")
		return nil, errors.New("unexpected load")
	}
}

func TestCache_ConcurrentColdReadsShareLoad(t *testing.T) {
	ctx := context.Background()
	cache := contact.NewCache()

	var loads atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) ([]contact.Contact, error) {
		loads.Add(1)
		<-release
		return []contact.Contact{{ID: "c1"}}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.GetOrLoad(ctx, load)
			require.NoError(t, err)
		}()
	}
	require.Eventually(t, func() bool { return loads.Load() >= 1 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	require.LessOrEqual(t, loads.Load(), int32(8))

	rows, err := cache.GetOrLoad(ctx, failLoad(t))
	require.NoError(t, err)
	require.Equal(t, "c1", rows[0].ID)
}
