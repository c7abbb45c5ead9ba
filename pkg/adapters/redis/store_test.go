package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canopyhq/canopy/pkg/adapters/redis"
	"github.com/canopyhq/canopy/pkg/domain"
	"github.com/canopyhq/canopy/pkg/ports"
)

func newTestStore(t *testing.T, opts ...redis.Option) (*redis.Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	return redis.NewFromClient(client, opts...), mr
}

func TestRedisStore_Contract(t *testing.T) {
	store, _ := newTestStore(t)
	ports.RunStoreContract(t, store)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	store, mr := newTestStore(t, redis.WithTTL(1*time.Second))
	ctx := context.Background()

	rec := &ports.RunRecord{
		RunID:  "run-ttl",
		Paused: true,
		Messages: []domain.Message{
			{ID: "m1", Role: domain.RoleUser, Content: "hello"},
		},
	}
	require.NoError(t, store.Save(ctx, "run-ttl", rec))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, "run-ttl")

	// miniredis expires keys on a virtual clock.
	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, "run-ttl")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)

	// Index pruning scores against time.Now(), so the wall clock has to
	// pass the TTL too.
	time.Sleep(1200 * time.Millisecond)

	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ids, "run-ttl")
}

func TestRedisStore_PrefixIsolation(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	a := redis.NewFromClient(client, redis.WithPrefix("tenant-a:run:"))
	b := redis.NewFromClient(client, redis.WithPrefix("tenant-b:run:"))
	ctx := context.Background()

	require.NoError(t, a.Save(ctx, "run-1", &ports.RunRecord{RunID: "run-1"}))

	_, err = b.Load(ctx, "run-1")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)

	loaded, err := a.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", loaded.RunID)
}
