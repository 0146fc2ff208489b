package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"chargeroute/backend/services/optimizer-service/internal/metrics"
	"chargeroute/backend/services/optimizer-service/internal/models"
)

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	defer s.Close()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	now = now.Add(2 * time.Minute)
	_, ok, _ = s.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())

	s.removeExpired()
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStoreCloseTwice(t *testing.T) {
	s := NewMemoryStore(0)
	assert.NotPanics(t, func() {
		s.Close()
		s.Close()
	})
}

type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	ttl  time.Duration
	err  error
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.data[key] = string(value.([]byte))
	f.ttl = expiration
	return redis.NewStatusResult("OK", nil)
}

func TestRedisStorePrefixesAndMisses(t *testing.T) {
	fake := &fakeRedis{data: map[string]string{}}
	s := &RedisStore{client: fake, prefix: DefaultKeyPrefix, ttl: 30 * time.Second}
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "a", []byte(`{"x":1}`)))
	assert.Contains(t, fake.data, "optimizer:a")
	assert.Equal(t, 30*time.Second, fake.ttl)

	v, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"x":1}`, string(v))

	fake.err = errors.New("connection refused")
	_, _, err = s.Get(ctx, "a")
	assert.ErrorContains(t, err, "connection refused")
}

type countingStations struct {
	mu       sync.Mutex
	calls    int
	stations []models.Station
	err      error
}

func (c *countingStations) FetchStationsNear(ctx context.Context, lat, lon float64) ([]models.Station, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.stations, c.err
}

func TestCachedStationsHitsAfterFirstSuccess(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := metrics.New(reg)
	require.NoError(t, err)

	store := NewMemoryStore(time.Minute)
	defer store.Close()

	title := "Centro"
	next := &countingStations{stations: []models.Station{{ID: models.NumericIdentifier(5), AddressInfo: models.AddressInfo{Title: title}}}}
	c := NewCachedStations(next, store, rec, zaptest.NewLogger(t))

	ctx := context.Background()
	first, err := c.FetchStationsNear(ctx, -23.550001, -46.63)
	require.NoError(t, err)
	second, err := c.FetchStationsNear(ctx, -23.55, -46.630002)
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, first, second)
	assert.Equal(t, "5", second[0].ID.String())

	count, err := testutil.GatherAndCount(reg, "optimizer_cache_lookups_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCachedStationsSkipsFailuresAndEmptyResults(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	defer store.Close()

	next := &countingStations{err: errors.New("upstream down")}
	c := NewCachedStations(next, store, nil, nil)
	ctx := context.Background()

	_, err := c.FetchStationsNear(ctx, 1, 1)
	require.Error(t, err)
	assert.Zero(t, store.Len())

	next.err = nil
	_, err = c.FetchStationsNear(ctx, 1, 1)
	require.NoError(t, err)
	assert.Zero(t, store.Len())
	assert.Equal(t, 2, next.calls)
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("redis down")
}

func (brokenStore) Set(context.Context, string, []byte) error { return errors.New("redis down") }

type fakeRecords struct {
	calls int
	rec   models.Record
}

func (f *fakeRecords) FetchRecord(ctx context.Context, table, id, idColumn string) (models.Record, error) {
	f.calls++
	return f.rec, nil
}

func TestCachedRecordsTreatsStoreFailureAsMiss(t *testing.T) {
	next := &fakeRecords{rec: models.Record{"priorizacao_parametro1": "Tempo"}}
	c := NewCachedRecords(next, brokenStore{}, nil, zaptest.NewLogger(t))

	for i := 0; i < 2; i++ {
		rec, err := c.FetchRecord(context.Background(), "users", "1", "id")
		require.NoError(t, err)
		assert.Equal(t, "Tempo", rec["priorizacao_parametro1"])
	}
	assert.Equal(t, 2, next.calls)
}

func TestCachedRecordsKeysOnLookupArguments(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	defer store.Close()

	next := &fakeRecords{rec: models.Record{"id": 1}}
	c := NewCachedRecords(next, store, nil, nil)
	ctx := context.Background()

	_, _ = c.FetchRecord(ctx, "users", "1", "id")
	_, _ = c.FetchRecord(ctx, "users", "1", "id")
	_, _ = c.FetchRecord(ctx, "veiculos_detalhes_completos", "1", "veiculo_id")
	assert.Equal(t, 2, next.calls)
	assert.NotEqual(t, RecordsKey("users", "1", "id"), RecordsKey("users", "1", "veiculo_id"))
}

func TestCachedRecordsSkipsEmptyRecord(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	defer store.Close()

	next := &fakeRecords{rec: models.Record{}}
	c := NewCachedRecords(next, store, nil, nil)
	ctx := context.Background()

	rec, err := c.FetchRecord(ctx, "users", "9", "id")
	require.NoError(t, err)
	assert.Empty(t, rec)
	_, ok, err := store.Get(ctx, RecordsKey("users", "9", "id"))
	require.NoError(t, err)
	assert.False(t, ok)

	next.rec = models.Record{"priorizacao_parametro1": "Tempo"}
	rec, err = c.FetchRecord(ctx, "users", "9", "id")
	require.NoError(t, err)
	assert.Equal(t, "Tempo", rec["priorizacao_parametro1"])
	assert.Equal(t, 2, next.calls)
}
