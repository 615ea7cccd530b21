package runner

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentloop/agentloop/agent"
	"github.com/agentloop/agentloop/core"
	"github.com/agentloop/agentloop/model"
	"github.com/agentloop/agentloop/session"
)

func TestRunnerRunPersistsTranscript(t *testing.T) {
	backend := model.NewMockBackend()
	store := session.NewInMemoryStore()
	r := New(agent.New(backend), func(o *Options) {
		o.Store = store
	})

	sess, err := r.Run(context.Background(), "s1", "hello")
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, sess.GetStatus())
	assert.Equal(t, 2, sess.Len())

	// The transcript survived the invocation and grows on the next one.
	sess, err = r.Run(context.Background(), "s1", "again")
	require.NoError(t, err)
	assert.Equal(t, 4, sess.Len())

	stored, err := store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, 4, stored.Len())
}

func TestRunnerStream(t *testing.T) {
	backend := model.NewMockBackend()
	backend.EnqueueStream(
		model.TextDeltaEvent{Text: "streamed "},
		model.TextDeltaEvent{Text: "answer"},
		model.FinishEvent{Reason: model.FinishStop},
	)
	r := New(agent.New(backend))

	sess, err := r.Stream(context.Background(), "s1", "hello")
	require.NoError(t, err)
	last, ok := sess.LastMessage()
	require.True(t, ok)
	assert.Equal(t, "streamed answer", last.Text())
}

func TestRunnerFailedRunStillReturnsSnapshot(t *testing.T) {
	backend := model.NewMockBackend()
	backend.FailWith(errors.New("backend down"))
	store := session.NewInMemoryStore()
	r := New(agent.New(backend), func(o *Options) {
		o.Store = store
	})

	sess, err := r.Run(context.Background(), "s1", "hello")
	require.Error(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, core.StatusError, sess.GetStatus())
	assert.Equal(t, 1, sess.Len())

	// The failed transcript is persisted too.
	stored, err := store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusError, stored.GetStatus())
	assert.Equal(t, 1, stored.Len())
}

func TestRunnerSerializesSameSession(t *testing.T) {
	backend := model.NewMockBackend()
	store := session.NewInMemoryStore()
	r := New(agent.New(backend), func(o *Options) {
		o.Store = store
	})

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Run(context.Background(), "shared", "hi")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Each run appended exactly one user and one assistant message.
	stored, err := store.Get("shared")
	require.NoError(t, err)
	assert.Equal(t, 2*n, stored.Len())
}
