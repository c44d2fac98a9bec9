package game

import "errors"

// Code identifies a class of engine error on the wire.
type Code string

const (
	CodeNotAuthenticated Code = "NotAuthenticated"
	CodeInvalidToken     Code = "InvalidToken"
	CodeRoomNotFound     Code = "RoomNotFound"
	CodeRoomFull         Code = "RoomFull"
	CodeNotEnoughPlayers Code = "NotEnoughPlayers"
	CodeNotYourTurn      Code = "NotYourTurn"
	CodeAlreadyGuessed   Code = "AlreadyGuessed"
	CodeMalformedMessage Code = "MalformedMessage"
	CodeTransportError   Code = "TransportError"
	CodeGameInProgress   Code = "GameInProgress"
	CodeNotRoomOwner     Code = "NotRoomOwner"
	CodeNotInRoom        Code = "NotInRoom"
	CodeUnknownType      Code = "UnknownType"
)

// Error is a domain error reported to clients as an error message.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error carrying the same code, so wrapped or re-worded
// errors still compare equal to the sentinels below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy of the sentinel with a custom message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Message: msg}
}

var (
	ErrNotAuthenticated = &Error{Code: CodeNotAuthenticated, Message: "Authentication required"}
	ErrInvalidToken     = &Error{Code: CodeInvalidToken, Message: "Invalid token"}
	ErrRoomNotFound     = &Error{Code: CodeRoomNotFound, Message: "Room not found"}
	ErrRoomFull         = &Error{Code: CodeRoomFull, Message: "Room is full"}
	ErrNotEnoughPlayers = &Error{Code: CodeNotEnoughPlayers, Message: "Need at least 2 players to start"}
	ErrNotYourTurn      = &Error{Code: CodeNotYourTurn, Message: "It is not your turn"}
	ErrAlreadyGuessed   = &Error{Code: CodeAlreadyGuessed, Message: "Already guessed"}
	ErrMalformedMessage = &Error{Code: CodeMalformedMessage, Message: "Malformed message"}
	ErrTransport        = &Error{Code: CodeTransportError, Message: "Transport error"}
	ErrGameInProgress   = &Error{Code: CodeGameInProgress, Message: "Game already started"}
	ErrNotRoomOwner     = &Error{Code: CodeNotRoomOwner, Message: "Only the room owner can do that"}
	ErrNotInRoom        = &Error{Code: CodeNotInRoom, Message: "Not in a room"}
	ErrUnknownType      = &Error{Code: CodeUnknownType, Message: "Unknown message type"}
)

// CodeOf extracts the code of a domain error, or CodeTransportError for
// anything else.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeTransportError
}
