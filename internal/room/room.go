package room

import (
	"time"

	"memory-match/internal/game"
)

const MaxPlayers = 4

type Player struct {
	ConnID string `json:"id"`
	Name   string `json:"name"`
	IsHost bool   `json:"isHost"`
	Score  int    `json:"score"`
	Moves  int    `json:"movesMade"`
}

type Layout struct {
	Cols int `json:"cols"`
	Rows int `json:"rows"`
}

// Config is the host-controlled room setup. Theme and difficulty are set at
// creation and mutable by the host while the room is still waiting.
type Config struct {
	Theme      string  `json:"theme"`
	Difficulty string  `json:"difficulty"`
	Layout     *Layout `json:"layout,omitempty"`
}

type ChatMessage struct {
	From   string    `json:"from"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sentAt"`
}

type Room struct {
	ID         string        `json:"id"`
	HostConnID string        `json:"hostId"`
	Players    []Player      `json:"players"`
	Config     Config        `json:"config"`
	State      game.State    `json:"state"`
	Messages   []ChatMessage `json:"messages"`
	CreatedAt  time.Time     `json:"createdAt"`

	// Epoch is bumped on start, reset and delete. A deferred resolution
	// callback captures it at schedule time and no-ops on mismatch.
	Epoch uint64 `json:"-"`
}

// playerIndex returns the seat of connID, or -1.
func (r *Room) playerIndex(connID string) int {
	for i := range r.Players {
		if r.Players[i].ConnID == connID {
			return i
		}
	}
	return -1
}

// Summary is the lobby directory projection of a joinable room.
type Summary struct {
	ID          string `json:"id"`
	HostName    string `json:"hostName"`
	PlayerCount int    `json:"playerCount"`
	MaxPlayers  int    `json:"maxPlayers"`
	Difficulty  string `json:"difficulty"`
	Theme       string `json:"theme"`
}

// Store is the registry backing the manager. Implementations are expected to
// be safe for concurrent use.
type Store interface {
	GetRoom(id string) (*Room, bool)
	SaveRoom(r *Room)
	DeleteRoom(id string)
	Rooms() []*Room
}
