package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gauthierbraillon/reelscout/internal/scrape"
)

func request(target string) scrape.Request {
	return scrape.Request{
		Method:      scrape.MethodHashtag,
		Target:      target,
		Feed:        scrape.FeedAuto,
		MaxItems:    20,
		MaxRequests: 5,
		MaxAgeDays:  30,
	}
}

func TestKey_IgnoresDebugAndTargetCase(t *testing.T) {
	req := request("Travel")
	debug := req
	debug.Debug = true

	assert.Equal(t, Key("instagram", req), Key("instagram", debug), "debug should not split the cache")
	assert.Equal(t, Key("instagram", req), Key("instagram", request("travel")))
	assert.NotEqual(t, Key("instagram", req), Key("tiktok", req))
	assert.NotEqual(t, Key("instagram", req), Key("instagram", req.WithMaxItems(21)))

	floor := req
	floor.MinComments = 1
	assert.NotEqual(t, Key("instagram", req), Key("instagram", floor))
}

func TestMemory_ExpiresEntries(t *testing.T) {
	m, err := NewMemory(10)
	require.NoError(t, err)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	clock = clock.Add(time.Minute)
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok, "entries should expire after their ttl")
	assert.Zero(t, m.Len(), "expired entries should be dropped on read")
}

func TestMemory_EvictsLeastRecentlyUsed(t *testing.T) {
	m, err := NewMemory(2)
	require.NoError(t, err)
	ctx := context.Background()

	_ = m.Set(ctx, "a", []byte("1"), time.Hour)
	_ = m.Set(ctx, "b", []byte("2"), time.Hour)
	_, _, _ = m.Get(ctx, "a")
	_ = m.Set(ctx, "c", []byte("3"), time.Hour)

	_, okA, _ := m.Get(ctx, "a")
	_, okB, _ := m.Get(ctx, "b")
	assert.True(t, okA)
	assert.False(t, okB, "the least recently used entry should be evicted")
}

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	store := NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedis_RoundTripAndExpiry(t *testing.T) {
	store, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.Set(ctx, "k", []byte(`{"rows":[]}`), 5*time.Minute))

	assert.True(t, mr.Exists("reelscout:k"), "keys should be namespaced")
	got, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"rows":[]}`, string(got))

	mr.FastForward(5 * time.Minute)
	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "redis should drop the entry after the ttl")
}

func TestRedis_UnreachableServerIsAnError(t *testing.T) {
	store, mr := newTestRedis(t)
	mr.Close()

	_, _, err := store.Get(context.Background(), "k")

	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	store, err := Open(Options{Backend: "none"})
	require.NoError(t, err)
	assert.Nil(t, store)

	store, err = Open(Options{Backend: "memory", MaxEntries: 4})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, store)

	_, err = Open(Options{Backend: "redis"})
	assert.Error(t, err, "redis needs a url")

	_, err = Open(Options{Backend: "memcached"})
	assert.Error(t, err)
}

type countingService struct {
	calls        int
	profileCalls int
	err          error
}

func (s *countingService) Provider() string { return "instagram" }

func (s *countingService) RunSingleTarget(_ context.Context, req scrape.Request) (*scrape.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &scrape.Result{
		Rows: []scrape.Row{{ID: "abc", Username: "u", Engagement: 9, Discovery: req.Discovery()}},
		Meta: scrape.Meta{Endpoint: "ep", Fetched: 3, Kept: 1, Requests: 1, FallbackUsed: true},
	}, nil
}

func (s *countingService) FetchFullProfile(_ context.Context, username string, _ bool) (*scrape.ProfileSummary, error) {
	s.profileCalls++
	return &scrape.ProfileSummary{Profile: scrape.Profile{Username: username, Followers: 5}, PostsCount: 2}, nil
}

func TestRunner_ServesRepeatsFromCache(t *testing.T) {
	svc := &countingService{}
	m, _ := NewMemory(10)
	r := NewRunner(svc, m, 0, nil)
	ctx := context.Background()

	first, err := r.RunSingleTarget(ctx, request("dogs"))
	require.NoError(t, err)
	second, err := r.RunSingleTarget(ctx, request("dogs"))
	require.NoError(t, err)

	assert.Equal(t, 1, svc.calls, "the second identical request should not reach the provider")
	assert.Equal(t, first.Rows, second.Rows)
	assert.Equal(t, first.Meta, second.Meta)

	_, err = r.RunSingleTarget(ctx, request("cats"))
	require.NoError(t, err)
	assert.Equal(t, 2, svc.calls)
}

func TestRunner_CachedLabelsIgnoreTargetCase(t *testing.T) {
	svc := &countingService{}
	m, _ := NewMemory(10)
	r := NewRunner(svc, m, time.Minute, nil)
	ctx := context.Background()

	first, err := r.RunSingleTarget(ctx, request("dogs"))
	require.NoError(t, err)
	second, err := r.RunSingleTarget(ctx, request("Dogs"))
	require.NoError(t, err)

	assert.Equal(t, 1, svc.calls)
	assert.Equal(t, "#dogs", first.Rows[0].Discovery)
	assert.Equal(t, "#dogs", second.Rows[0].Discovery, "a cached result should not carry another caller's casing")

	out := (&scrape.Aggregator{Runner: r}).Run(ctx, request(""), []string{"DOGS"})
	require.Len(t, out.Rows, 1)
	assert.Equal(t, out.Rows[0].Discovery, out.Rows[0].Target, "the batch tag should match the row label")
	assert.Equal(t, 1, svc.calls)
}

func TestRunner_DoesNotCacheFailures(t *testing.T) {
	svc := &countingService{err: errors.New("boom")}
	m, _ := NewMemory(10)
	r := NewRunner(svc, m, time.Minute, nil)

	_, err1 := r.RunSingleTarget(context.Background(), request("dogs"))
	_, err2 := r.RunSingleTarget(context.Background(), request("dogs"))

	assert.Error(t, err1)
	assert.Error(t, err2)
	assert.Equal(t, 2, svc.calls, "failures should be retried, not cached")
	assert.Zero(t, m.Len())
}

func TestRunner_CachesProfiles(t *testing.T) {
	svc := &countingService{}
	store, _ := newTestRedis(t)
	r := NewRunner(svc, store, time.Minute, nil)

	_, err := r.FetchFullProfile(context.Background(), "NASA", false)
	require.NoError(t, err)
	summary, err := r.FetchFullProfile(context.Background(), "nasa", false)
	require.NoError(t, err)

	assert.Equal(t, 1, svc.profileCalls)
	assert.Equal(t, int64(5), summary.Profile.Followers)
}

func TestRunner_WorksInsideBatch(t *testing.T) {
	svc := &countingService{}
	m, _ := NewMemory(10)
	agg := &scrape.Aggregator{Runner: NewRunner(svc, m, time.Minute, nil)}

	agg.Run(context.Background(), request(""), []string{"a", "b"})
	out := agg.Run(context.Background(), request(""), []string{"b", "c"})

	assert.Equal(t, 3, svc.calls, "batch targets should be cached one by one")
	assert.Len(t, out.Rows, 2)
	assert.Equal(t, "#b", out.Rows[0].Target)
}
