package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	event, err := Decode(`{"event":"room_delete_requested","payload":{"room_id":"12"}}`)
	require.NoError(t, err)
	assert.Equal(t, TypeRoomDeleteRequested, event.Type)

	var payload RoomDeleteRequestedPayload
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	assert.Equal(t, "12", payload.RoomID)
}

func TestDecodeRejectsBadEnvelopes(t *testing.T) {
	for _, in := range []string{`not json`, `{"payload":{}}`, `[]`} {
		_, err := Decode(in)
		assert.Error(t, err, in)
	}
}
