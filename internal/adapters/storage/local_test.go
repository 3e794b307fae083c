package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jcheng510/ai-erp-system-sub004/internal/core"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestPutAndGetRoundTrip(t *testing.T) {
	store := newTestStore(t)

	key, err := store.Put("gm-1/inv.pdf", []byte("pdf bytes"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "gm-1/inv.pdf", key)

	data, err := store.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf bytes"), data)
}

func TestPutGeneratesKeyWhenEmpty(t *testing.T) {
	store := newTestStore(t)

	key, err := store.Put("", []byte("x"), "text/plain")
	require.NoError(t, err)
	assert.NotEmpty(t, key)

	data, err := store.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), data)
}

func TestPutSanitizesUnsafeCharacters(t *testing.T) {
	store := newTestStore(t)

	key, err := store.Put("gm-1/inv #1 (final).pdf", []byte("x"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "gm-1/inv__1__final_.pdf", key)
}

func TestGetMissingKeyReturnsNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get("nope/missing.pdf")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestTraversalKeyIsRejected(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get("../outside.pdf")
	assert.ErrorIs(t, err, ErrPathTraversal)

	_, err = store.Put("a/../../outside.pdf", []byte("x"), "")
	assert.ErrorIs(t, err, ErrPathTraversal)
}
