package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreSaveAndOpen(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	err = store.Save(ctx, "audio/test.mp3", strings.NewReader("hello"), 5, "audio/mpeg")
	require.NoError(t, err)

	object, err := store.Open(ctx, "audio/test.mp3")
	require.NoError(t, err)
	defer object.Close()

	data, err := io.ReadAll(object)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestLocalStoreOpenMissing(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Open(context.Background(), "audio/missing.mp3")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStoreRejectsEscapingPaths(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, path := range []string{"../outside.txt", "audio/../../outside.txt", "/etc/passwd", "."} {
		err := store.Save(ctx, path, strings.NewReader("x"), 1, "")
		assert.Error(t, err, path)

		_, err = store.Open(ctx, path)
		assert.Error(t, err, path)
	}
}
