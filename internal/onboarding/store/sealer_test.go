package store

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kycflow/pkg/platform/sentinel"
)

func testSealer(t *testing.T) *Sealer {
	t.Helper()
	sealer, err := NewSealer(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)
	return sealer
}

func TestNewSealerRejectsShortKey(t *testing.T) {
	_, err := NewSealer([]byte("short"))
	assert.Error(t, err)
}

func TestSealerRoundTrip(t *testing.T) {
	sealer := testSealer(t)
	sealed, err := sealer.Seal("s1", "identity", []byte(`{"token":"t1"}`))
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "t1")

	opened, err := sealer.Open("s1", "identity", sealed)
	require.NoError(t, err)
	assert.Equal(t, `{"token":"t1"}`, string(opened))
}

func TestSealerBindsSlot(t *testing.T) {
	sealer := testSealer(t)
	sealed, err := sealer.Seal("s1", "identity", []byte("v"))
	require.NoError(t, err)

	_, err = sealer.Open("s2", "identity", sealed)
	assert.ErrorIs(t, err, sentinel.ErrCorrupt)
	_, err = sealer.Open("s1", "step:about", sealed)
	assert.ErrorIs(t, err, sentinel.ErrCorrupt)
	_, err = sealer.Open("s1", "identity", []byte{1, 2})
	assert.ErrorIs(t, err, sentinel.ErrCorrupt)
}

func TestSealedStore(t *testing.T) {
	ctx := context.Background()
	inner := NewInMemoryStore(time.Hour)
	s := NewSealedStore(inner, testSealer(t))

	require.NoError(t, s.Put(ctx, "s1", "identity", []byte("secret")))

	raw, err := inner.Get(ctx, "s1", "identity")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", string(raw))

	got, err := s.Get(ctx, "s1", "identity")
	require.NoError(t, err)
	assert.Equal(t, "secret", string(got))

	all, err := s.GetAll(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "secret", string(all["identity"]))

	_, err = s.Get(ctx, "s1", "missing")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
