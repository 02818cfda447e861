package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubDeliversInOrder(t *testing.T) {
	hub := NewHub(nil)

	var calls []string
	hub.Subscribe("t", func(m Message) { calls = append(calls, "first:"+m.Data.(string)) })
	hub.Subscribe("t", func(m Message) { calls = append(calls, "second:"+m.Data.(string)) })
	hub.Subscribe("other", func(Message) { calls = append(calls, "other") })

	hub.Publish("t", "x")

	assert.Equal(t, []string{"first:x", "second:x"}, calls)
}

func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub(nil)

	count := 0
	unsubscribe := hub.Subscribe("t", func(Message) { count++ })
	keep := hub.Subscribe("t", func(Message) {})
	defer keep()

	hub.Publish("t", nil)
	unsubscribe()
	unsubscribe()
	hub.Publish("t", nil)

	assert.Equal(t, 1, count)
	assert.Equal(t, 1, hub.Subscribers("t"))
}

func TestHubHandlerMayUnsubscribeDuringDispatch(t *testing.T) {
	hub := NewHub(nil)

	var unsubscribe func()
	calls := 0
	unsubscribe = hub.Subscribe("t", func(Message) {
		calls++
		unsubscribe()
	})

	hub.Publish("t", nil)
	hub.Publish("t", nil)
	assert.Equal(t, 1, calls)
	assert.Zero(t, hub.Subscribers("t"))
}

func TestDecodeWorkspaceChanged(t *testing.T) {
	t.Run("from bridge map", func(t *testing.T) {
		data := map[string]any{
			"name":    "workspace",
			"publish": map[string]any{"path": "/proj1/a.js"},
		}
		ev, err := Decode[WorkspaceChanged](data)
		require.NoError(t, err)
		assert.Equal(t, "workspace", ev.WorkspaceName)
		require.NotNil(t, ev.Publish)
		assert.Equal(t, "/proj1/a.js", ev.Publish.Path)
		assert.False(t, ev.Publish.Workspace)
	})

	t.Run("from value", func(t *testing.T) {
		ev, err := Decode[WorkspaceChanged](WorkspaceChanged{WorkspaceName: "w"})
		require.NoError(t, err)
		assert.Equal(t, "w", ev.WorkspaceName)
		assert.Nil(t, ev.Publish)
	})

	t.Run("from pointer", func(t *testing.T) {
		ev, err := Decode[WorkspaceChanged](&WorkspaceChanged{WorkspaceName: "p"})
		require.NoError(t, err)
		assert.Equal(t, "p", ev.WorkspaceName)
	})

	t.Run("nil payload", func(t *testing.T) {
		_, err := Decode[WorkspaceChanged](nil)
		assert.Error(t, err)
	})

	t.Run("wrong shape", func(t *testing.T) {
		_, err := Decode[WorkspaceChanged]([]int{1, 2})
		assert.Error(t, err)
	})
}

func TestContextMenuNodeID(t *testing.T) {
	assert.Equal(t, "abc", ContextMenuCommand{Data: "abc"}.NodeID())
	assert.Equal(t, "def", ContextMenuCommand{Data: map[string]any{"id": "def"}}.NodeID())
	assert.Equal(t, "", ContextMenuCommand{Data: 42}.NodeID())
	assert.Equal(t, "", ContextMenuCommand{}.NodeID())

	cmd, err := Decode[ContextMenuCommand](map[string]any{"itemId": "showDiff", "data": map[string]any{"id": "n1"}})
	require.NoError(t, err)
	assert.Equal(t, "showDiff", cmd.ItemID)
	assert.Equal(t, "n1", cmd.NodeID())
}
