package proto

import (
	"fmt"

	"ctchen222/DrawSync/internal/game"
)

// Outbound message types.
const (
	TypeAuthenticated      = "authenticated"
	TypeRoomJoined         = "room_joined"
	TypePlayerJoined       = "player_joined"
	TypePlayerLeft         = "player_left"
	TypePlayerDisconnected = "player_disconnected"
	TypePlayerReconnected  = "player_reconnected"
	TypePlayerReady        = "player_ready"
	TypeGameStarted        = "game_started"
	TypeGameState          = "game_state"
	TypeRoundStarted       = "round_started"
	TypeWordAssigned       = "word_assigned"
	TypeDrawData           = "draw_data"
	TypeCorrectGuess       = "correct_guess"
	TypeTimeUpdate         = "time_update"
	TypeRoundEnded         = "round_ended"
	TypeGameEnded          = "game_ended"
	TypeCanvasCleared      = "canvas_cleared"
	TypeRoomDeleted        = "room_deleted"
	TypeError              = "error"
)

// PlayerView is the public projection of a player in a roster.
type PlayerView struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Score    int    `json:"score"`
	Ready    bool   `json:"ready"`
}

type AuthenticatedMessage struct {
	Type     string `json:"type"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

func NewAuthenticated(userID int64, username string) *AuthenticatedMessage {
	return &AuthenticatedMessage{Type: TypeAuthenticated, UserID: userID, Username: username}
}

type RoomJoinedMessage struct {
	Type    string       `json:"type"`
	RoomID  string       `json:"room_id"`
	Players []PlayerView `json:"players"`
}

func NewRoomJoined(roomID string, players []PlayerView) *RoomJoinedMessage {
	return &RoomJoinedMessage{Type: TypeRoomJoined, RoomID: roomID, Players: players}
}

// PlayerMessage is shared by player_joined, player_left, player_disconnected
// and player_reconnected.
type PlayerMessage struct {
	Type     string `json:"type"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

func NewPlayerMessage(msgType string, userID int64, username string) *PlayerMessage {
	return &PlayerMessage{Type: msgType, UserID: userID, Username: username}
}

type PlayerReadyMessage struct {
	Type     string `json:"type"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Ready    bool   `json:"ready"`
}

func NewPlayerReady(userID int64, username string, ready bool) *PlayerReadyMessage {
	return &PlayerReadyMessage{Type: TypePlayerReady, UserID: userID, Username: username, Ready: ready}
}

type GameStartedMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

func NewGameStarted(roomID string) *GameStartedMessage {
	return &GameStartedMessage{Type: TypeGameStarted, RoomID: roomID}
}

// GameStateMessage is the private snapshot sent to a player joining a game
// in progress. Word is masked unless the recipient is the drawer.
type GameStateMessage struct {
	Type          string       `json:"type"`
	CurrentRound  int          `json:"current_round"`
	MaxRounds     int          `json:"max_rounds"`
	TimeRemaining int          `json:"time_remaining"`
	GameStarted   bool         `json:"game_started"`
	Players       []PlayerView `json:"players"`
	Word          string       `json:"word"`
	IsDrawer      bool         `json:"is_drawer"`
}

type RoundStartedMessage struct {
	Type          string `json:"type"`
	Round         int    `json:"round"`
	Drawer        string `json:"drawer"`
	TimeRemaining int    `json:"time_remaining"`
}

func NewRoundStarted(round int, drawer string, timeRemaining int) *RoundStartedMessage {
	return &RoundStartedMessage{Type: TypeRoundStarted, Round: round, Drawer: drawer, TimeRemaining: timeRemaining}
}

type WordAssignedMessage struct {
	Type    string `json:"type"`
	Word    string `json:"word"`
	Message string `json:"message"`
}

// NewWordAssigned builds the per-recipient word message: the drawer gets the
// literal word, everyone else its mask.
func NewWordAssigned(word, drawer string, isDrawer bool) *WordAssignedMessage {
	if isDrawer {
		return &WordAssignedMessage{Type: TypeWordAssigned, Word: word, Message: fmt.Sprintf("Your turn to draw! Word: %s", word)}
	}
	return &WordAssignedMessage{Type: TypeWordAssigned, Word: game.Mask(word), Message: fmt.Sprintf("%s is drawing!", drawer)}
}

type DrawDataMessage struct {
	Type string      `json:"type"`
	Data game.Stroke `json:"data"`
}

func NewDrawData(s game.Stroke) *DrawDataMessage {
	return &DrawDataMessage{Type: TypeDrawData, Data: s}
}

type ChatMessage struct {
	Type      string  `json:"type"`
	UserID    int64   `json:"user_id"`
	Username  string  `json:"username"`
	Message   string  `json:"message"`
	Timestamp float64 `json:"timestamp"`
}

func NewChatMessage(userID int64, username, message string, timestamp float64) *ChatMessage {
	return &ChatMessage{Type: TypeChatMessage, UserID: userID, Username: username, Message: message, Timestamp: timestamp}
}

type CorrectGuessMessage struct {
	Type     string `json:"type"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Word     string `json:"word"`
	Message  string `json:"message"`
}

func NewCorrectGuess(userID int64, username, word string) *CorrectGuessMessage {
	return &CorrectGuessMessage{
		Type:     TypeCorrectGuess,
		UserID:   userID,
		Username: username,
		Word:     word,
		Message:  fmt.Sprintf("%s guessed the word correctly!", username),
	}
}

type TimeUpdateMessage struct {
	Type          string `json:"type"`
	TimeRemaining int    `json:"time_remaining"`
}

func NewTimeUpdate(remaining int) *TimeUpdateMessage {
	return &TimeUpdateMessage{Type: TypeTimeUpdate, TimeRemaining: remaining}
}

type RoundEndedMessage struct {
	Type  string `json:"type"`
	Round int    `json:"round"`
	Word  string `json:"word"`
}

func NewRoundEnded(round int, word string) *RoundEndedMessage {
	return &RoundEndedMessage{Type: TypeRoundEnded, Round: round, Word: word}
}

type GameEndedMessage struct {
	Type        string        `json:"type"`
	FinalScores map[int64]int `json:"final_scores"`
	Message     string        `json:"message"`
}

func NewGameEnded(scores map[int64]int) *GameEndedMessage {
	return &GameEndedMessage{Type: TypeGameEnded, FinalScores: scores, Message: "Game ended!"}
}

type CanvasClearedMessage struct {
	Type     string `json:"type"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

func NewCanvasCleared(userID int64, username string) *CanvasClearedMessage {
	return &CanvasClearedMessage{Type: TypeCanvasCleared, UserID: userID, Username: username}
}

type RoomDeletedMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewRoomDeleted() *RoomDeletedMessage {
	return &RoomDeletedMessage{Type: TypeRoomDeleted, Message: "Room has been deleted"}
}

type ErrorMessage struct {
	Type    string    `json:"type"`
	Code    game.Code `json:"code"`
	Message string    `json:"message"`
}

// NewErrorMessage renders err for the offending connection.
func NewErrorMessage(err error) *ErrorMessage {
	return &ErrorMessage{Type: TypeError, Code: game.CodeOf(err), Message: err.Error()}
}
