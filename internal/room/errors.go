package room

import "errors"

// Client-facing failures. Every one of these ends up as a roomError message
// to the offending sender, so the texts are written for humans.
var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomFull       = errors.New("room is full")
	ErrGameInProgress = errors.New("game already in progress")
	ErrThemeMismatch  = errors.New("room uses a different theme")
	ErrNotHost        = errors.New("only the host can do that")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrNotInRoom      = errors.New("you are not in this room")
	ErrInvalid        = errors.New("invalid request")
	ErrCodeSpace      = errors.New("could not allocate a room code")
)
