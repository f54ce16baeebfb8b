package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID    string `json:"id"`
	Owner string `json:"owner"`
	Size  int    `json:"size"`
}

func (w *widget) Kind() string      { return "Widget" }
func (w *widget) Key() string       { return w.ID }
func (w *widget) ParentKey() string { return w.Owner }

func TestRepository_LoadMissingReturnsNil(t *testing.T) {
	repo := NewRepository[widget](NewMemory())

	w, err := repo.Load(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestRepository_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository[widget](NewMemory())

	require.NoError(t, repo.Save(ctx, &widget{ID: "a", Owner: "o", Size: 3}))
	w, err := repo.Load(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, 3, w.Size)

	ok, err := repo.Exists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRepository_ChildrenKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository[widget](NewMemory())

	for _, id := range []string{"z", "b", "m"} {
		require.NoError(t, repo.Save(ctx, &widget{ID: id, Owner: "p"}))
	}
	require.NoError(t, repo.Save(ctx, &widget{ID: "x", Owner: "other"}))

	// updating an existing record must not move it to the end
	require.NoError(t, repo.Save(ctx, &widget{ID: "z", Owner: "p", Size: 9}))

	children, err := repo.ChildrenOf(ctx, "p")
	require.NoError(t, err)
	require.Len(t, children, 3)
	assert.Equal(t, "z", children[0].ID)
	assert.Equal(t, 9, children[0].Size)
	assert.Equal(t, "b", children[1].ID)
	assert.Equal(t, "m", children[2].ID)
}

func TestRepository_Remove(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository[widget](NewMemory())

	require.NoError(t, repo.Save(ctx, &widget{ID: "a"}))
	require.NoError(t, repo.Remove(ctx, "a"))
	require.NoError(t, repo.Remove(ctx, "a"))

	w, err := repo.Load(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestMemory_RunInTxRollsBack(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	repo := NewRepository[widget](mem)
	require.NoError(t, repo.Save(ctx, &widget{ID: "kept"}))

	boom := errors.New("boom")
	err := mem.RunInTx(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.Save(ctx, &widget{ID: "dropped"}))
		require.NoError(t, repo.Remove(ctx, "kept"))
		return mem.RunInTx(ctx, func(context.Context) error { return boom })
	})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, 1, mem.Count("Widget"))
	w, err := repo.Load(ctx, "kept")
	require.NoError(t, err)
	assert.NotNil(t, w)
}
