package ws

import (
	"memory-match/internal/game"
	"memory-match/internal/room"
)

// Session is what the hub needs from the room manager. Keeping this on the
// consumer side avoids a ws -> room -> ws cycle.
type Session interface {
	CreateRoom(connID, name string, setup room.Config) (*room.Room, error)
	Join(roomID, connID, name, theme string) error
	Leave(roomID, connID string) error
	Disconnect(connID string)
	StartGame(roomID, connID string, deck []game.Card, layout *room.Layout, theme, difficulty string) error
	FlipCard(roomID, connID string, cardIndex int) error
	ResetGame(roomID, connID string) error
	SetDifficulty(roomID, connID, difficulty string) error
	SendMessage(roomID, connID, text string) error
	AvailableRooms() []room.Summary
}
