package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastWithoutClientsIsNoop(t *testing.T) {
	hub := NewHub()
	assert.NotPanics(t, func() {
		hub.Broadcast(Event{Type: "work_order_updated", ID: 1, Action: "update"})
	})
}

func TestEventWireFormat(t *testing.T) {
	data, err := json.Marshal(Event{Type: "work_order_created", ID: 42, Action: "create"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"work_order_created","id":42,"action":"create"}`, string(data))
}
