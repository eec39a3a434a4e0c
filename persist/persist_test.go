package persist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStoreSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	require.NoError(t, store.Save(ctx, "k", []byte("v")))

	v, ok, err := store.Load(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v)
}

func TestMemStoreLoadMissingKeyIsNotAnError(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	v, ok, err := store.Load(ctx, "missing")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)
}

type engineState struct {
	RelativePosition float32 `json:"relative_position"`
}

func TestSaveJSONLoadJSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	require.NoError(t, SaveJSON(ctx, store, "list-1", engineState{RelativePosition: 0.75}))

	var got engineState
	ok, err := LoadJSON(ctx, store, "list-1", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 0.75, got.RelativePosition, 1e-6)
}

func TestLoadJSONMissingKeyReturnsFalseNoError(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	var got engineState
	ok, err := LoadJSON(ctx, store, "absent", &got)
	assert.NoError(t, err)
	assert.False(t, ok)
}
