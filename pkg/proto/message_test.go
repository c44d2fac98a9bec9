package proto

import (
	"encoding/json"
	"errors"
	"testing"

	"ctchen222/DrawSync/internal/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomIDAcceptsStringsAndNumbers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  RoomID
	}{
		{name: "number", input: `{"type":"join_room","room_id":42}`, want: "42"},
		{name: "string", input: `{"type":"join_room","room_id":"abc"}`, want: "abc"},
		{name: "null", input: `{"type":"join_room","room_id":null}`, want: ""},
		{name: "missing", input: `{"type":"join_room"}`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msg ClientMessage
			require.NoError(t, json.Unmarshal([]byte(tt.input), &msg))
			assert.Equal(t, tt.want, msg.RoomID)
		})
	}

	var msg ClientMessage
	assert.Error(t, json.Unmarshal([]byte(`{"type":"join_room","room_id":[1]}`), &msg))
}

func TestWordAssignedRedaction(t *testing.T) {
	drawer := NewWordAssigned("ice cream", "alice", true)
	assert.Equal(t, "ice cream", drawer.Word)

	guesser := NewWordAssigned("ice cream", "alice", false)
	assert.Equal(t, "_________", guesser.Word)
	assert.Equal(t, "alice is drawing!", guesser.Message)
}

func TestErrorMessageCarriesCode(t *testing.T) {
	msg := NewErrorMessage(game.ErrNotEnoughPlayers)
	assert.Equal(t, TypeError, msg.Type)
	assert.Equal(t, game.CodeNotEnoughPlayers, msg.Code)

	data, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"error","code":"NotEnoughPlayers","message":"Need at least 2 players to start"}`, string(data))

	assert.Equal(t, game.CodeTransportError, NewErrorMessage(errors.New("eof")).Code)
}

func TestGameEndedScoresKeyedByUser(t *testing.T) {
	data, err := json.Marshal(NewGameEnded(map[int64]int{7: 250}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"game_ended","final_scores":{"7":250},"message":"Game ended!"}`, string(data))
}
