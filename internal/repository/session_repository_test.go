package repository

import (
	"context"
	"errors"
	"path"
	"sort"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/adminkit/internal/models"
	appErrors "github.com/noah-isme/adminkit/pkg/errors"
)

// fakeRedis implements the handful of commands the session store issues.
type fakeRedis struct {
	redis.Cmdable
	data map[string][]byte
	ttl  map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string][]byte{}, ttl: map[string]time.Duration{}}
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.data[key] = value.([]byte)
	f.ttl[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

// Scan returns every matching key in a single page.
func (f *fakeRedis) Scan(_ context.Context, _ uint64, match string, _ int64) *redis.ScanCmd {
	var keys []string
	for k := range f.data {
		if ok, _ := path.Match(match, k); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return redis.NewScanCmdResult(keys, 0, nil)
}

func TestSessionRoundTrip(t *testing.T) {
	rdb := newFakeRedis()
	repo := NewSessionRepository(rdb)
	ctx := context.Background()

	session := &models.Session{
		ID:        "abc",
		UserID:    7,
		Username:  "alice",
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().Add(time.Hour).UTC(),
	}
	require.NoError(t, repo.Save(ctx, session))
	assert.Contains(t, rdb.data, "session:abc")
	assert.InDelta(t, time.Hour.Seconds(), rdb.ttl["session:abc"].Seconds(), 5)

	got, err := repo.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, "alice", got.Username)

	require.NoError(t, repo.Delete(ctx, "abc"))
	_, err = repo.Get(ctx, "abc")
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))

	assert.NoError(t, repo.Delete(ctx, "abc"))
}

func TestSessionSaveRejectsExpired(t *testing.T) {
	repo := NewSessionRepository(newFakeRedis())
	err := repo.Save(context.Background(), &models.Session{ID: "old", ExpiresAt: time.Now().Add(-time.Minute)})
	assert.Error(t, err)
}

func TestSessionDeleteForUser(t *testing.T) {
	rdb := newFakeRedis()
	repo := NewSessionRepository(rdb)
	ctx := context.Background()
	expires := time.Now().Add(time.Hour).UTC()

	for _, session := range []*models.Session{
		{ID: "a1", UserID: 7, Username: "alice", ExpiresAt: expires},
		{ID: "a2", UserID: 7, Username: "alice", ExpiresAt: expires},
		{ID: "b1", UserID: 8, Username: "bob", ExpiresAt: expires},
	} {
		require.NoError(t, repo.Save(ctx, session))
	}
	rdb.data["session:broken"] = []byte("{")
	rdb.data["other:a3"] = []byte(`{"id":"a3","user_id":7}`)

	removed, err := repo.DeleteForUser(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	for _, id := range []string{"a1", "a2"} {
		_, err := repo.Get(ctx, id)
		assert.True(t, errors.Is(err, appErrors.ErrCacheMiss), id)
	}
	bob, err := repo.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, int64(8), bob.UserID)
	assert.Contains(t, rdb.data, "session:broken")
	assert.Contains(t, rdb.data, "other:a3")

	removed, err = repo.DeleteForUser(ctx, 42)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
