package proto

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Inbound message types.
const (
	TypeAuthenticate = "authenticate"
	TypeJoinRoom     = "join_room"
	TypeLeaveRoom    = "leave_room"
	TypeDeleteRoom   = "delete_room"
	TypeReady        = "ready"
	TypeStartGame    = "start_game"
	TypeDraw         = "draw"
	TypeChatMessage  = "chat_message"
	TypeGuessWord    = "guess_word"
	TypeSkipTurn     = "skip_turn"
	TypeClearCanvas  = "clear_canvas"
)

// RoomID accepts both JSON strings and numbers, since the HTTP API hands
// out numeric room ids while browser clients often send them as strings.
type RoomID string

func (id *RoomID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = RoomID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return err
	}
	*id = RoomID(n.String())
	return nil
}

// ClientMessage is a single newline-delimited JSON object sent by a client.
// Only Type is mandatory on every message; per-type fields are checked by
// the dispatcher.
type ClientMessage struct {
	Type string `json:"type" validate:"required"`

	Token  string `json:"token,omitempty"`
	RoomID RoomID `json:"room_id,omitempty"`
	Ready  bool   `json:"ready,omitempty"`

	X            *float64 `json:"x,omitempty"`
	Y            *float64 `json:"y,omitempty"`
	IsDrawing    bool     `json:"is_drawing,omitempty"`
	IsFirstPoint bool     `json:"is_first_point,omitempty"`
	Color        string   `json:"color,omitempty"`
	BrushSize    *float64 `json:"brush_size,omitempty"`
	Timestamp    *float64 `json:"timestamp,omitempty"`

	Message string `json:"message,omitempty"`
	Guess   string `json:"guess,omitempty"`
}
