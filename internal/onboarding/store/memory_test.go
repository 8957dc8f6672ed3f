package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kycflow/pkg/platform/sentinel"
)

func TestInMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore(time.Hour)

	_, err := s.Get(ctx, "s1", "identity")
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	require.NoError(t, s.Put(ctx, "s1", "identity", []byte(`{"userId":1}`)))
	require.NoError(t, s.Put(ctx, "s1", "step:about", []byte(`{}`)))
	require.NoError(t, s.Put(ctx, "s2", "identity", []byte(`{"userId":2}`)))

	got, err := s.Get(ctx, "s1", "identity")
	require.NoError(t, err)
	assert.JSONEq(t, `{"userId":1}`, string(got))

	all, err := s.GetAll(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, s.Delete(ctx, "s1"))
	all, err = s.GetAll(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = s.Get(ctx, "s2", "identity")
	assert.NoError(t, err, "sessions are isolated")
}

func TestInMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore(time.Hour)
	value := []byte("abc")
	require.NoError(t, s.Put(ctx, "s1", "k", value))
	value[0] = 'x'

	got, err := s.Get(ctx, "s1", "k")
	require.NoError(t, err)
	got[1] = 'y'

	again, err := s.Get(ctx, "s1", "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestInMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewInMemoryStore(30*time.Minute, WithClock(func() time.Time { return now }))

	require.NoError(t, s.Put(ctx, "s1", "identity", []byte("v")))
	now = now.Add(29 * time.Minute)
	_, err := s.Get(ctx, "s1", "identity")
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "s1", "step:about", []byte("v")))
	now = now.Add(29 * time.Minute)
	_, err = s.Get(ctx, "s1", "identity")
	require.NoError(t, err, "a write refreshes the whole session")

	now = now.Add(time.Minute)
	_, err = s.Get(ctx, "s1", "identity")
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	require.NoError(t, s.Put(ctx, "s1", "identity", []byte("fresh")))
	all, err := s.GetAll(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"identity": []byte("fresh")}, all, "expired keys do not survive a new write")
}
