package signal

import (
	"encoding/json"
	"testing"

	"github.com/dkeye/watchparty/internal/core"
	"github.com/dkeye/watchparty/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registered(h *Hub, id domain.ConnectionID, buffer int) *WsSignalConn {
	c := newWsSignalConn(id, "", nil, buffer)
	h.Register(c)
	return c
}

func TestHub_SendQueuesJSON(t *testing.T) {
	h := NewHub()
	c := registered(h, "a", 4)

	require.NoError(t, h.Send("a", core.NewEvent(core.EventViewerCountChanged, core.ViewerCountPayload{Count: 3})))

	var got map[string]any
	require.NoError(t, json.Unmarshal(<-c.send, &got))
	assert.Equal(t, "ViewerCountChanged", got["type"])
	assert.Equal(t, map[string]any{"count": float64(3)}, got["data"])
}

func TestHub_SendErrors(t *testing.T) {
	h := NewHub()
	c := registered(h, "a", 1)

	assert.ErrorIs(t, h.Send("ghost", core.NewEvent(core.EventPong, nil)), core.ErrUnknownConn)

	require.NoError(t, h.Send("a", core.NewEvent(core.EventPong, nil)))
	assert.ErrorIs(t, h.Send("a", core.NewEvent(core.EventPong, nil)), core.ErrBackpressure)

	c.Close()
	assert.ErrorIs(t, h.Send("a", core.NewEvent(core.EventPong, nil)), core.ErrConnClosed)
}

func TestHub_Groups(t *testing.T) {
	h := NewHub()
	registered(h, "a", 1)
	registered(h, "b", 1)

	h.AddToGroup("a", "ABC234")
	h.AddToGroup("b", "ABC234")
	h.AddToGroup("ghost", "ABC234")
	assert.ElementsMatch(t, []domain.ConnectionID{"a", "b"}, h.GroupMembers("ABC234"))

	h.RemoveFromGroup("a", "ABC234")
	assert.Equal(t, []domain.ConnectionID{"b"}, h.GroupMembers("ABC234"))

	h.Unregister("b")
	assert.Empty(t, h.GroupMembers("ABC234"))
	assert.Equal(t, 1, h.Len())
}

func TestHub_CloseIsIdempotent(t *testing.T) {
	h := NewHub()
	c := registered(h, "a", 1)

	h.Close("a")
	h.Close("a")
	h.CloseAll()

	_, open := <-c.send
	assert.False(t, open)
}
