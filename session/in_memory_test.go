package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentloop/agentloop/core"
)

func TestInMemoryStoreLazyGet(t *testing.T) {
	store := NewInMemoryStore()

	sess, err := store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", sess.ID)
	assert.Equal(t, core.StatusIdle, sess.GetStatus())
}

func TestInMemoryStoreSaveAndReload(t *testing.T) {
	store := NewInMemoryStore()

	sess, err := store.Get("s1")
	require.NoError(t, err)
	sess.AppendMessage(core.NewUserMessage("hello"))
	sess.SetStatus(core.StatusCompleted)
	require.NoError(t, store.Save(sess))

	reloaded, err := store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Len())
	assert.Equal(t, core.StatusCompleted, reloaded.GetStatus())
}

func TestInMemoryStoreReturnsClones(t *testing.T) {
	store := NewInMemoryStore()

	first, err := store.Get("s1")
	require.NoError(t, err)
	first.AppendMessage(core.NewUserMessage("not saved"))

	// Without Save the mutation stays on the caller's clone.
	second, err := store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, 0, second.Len())
}

func TestInMemoryStoreCreateOverwrites(t *testing.T) {
	store := NewInMemoryStore()

	sess, err := store.Get("s1")
	require.NoError(t, err)
	sess.AppendMessage(core.NewUserMessage("old"))
	require.NoError(t, store.Save(sess))

	fresh, err := store.Create("s1")
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.Len())
}
