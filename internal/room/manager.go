package room

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"memory-match/internal/config"
	"memory-match/internal/game"
)

// Manager owns every live room. All mutation runs under one mutex, so each
// inbound event is handled run-to-completion; the only deferred work is the
// match-resolution timer, which re-locks and re-validates before applying.
type Manager struct {
	mu    sync.Mutex
	store Store
	cfg   config.Config
	bc    Broadcaster
}

func NewManager(s Store, cfg config.Config) *Manager {
	return &Manager{store: s, cfg: cfg}
}

func (m *Manager) SetBroadcaster(bc Broadcaster) {
	m.bc = bc
}

func validDifficulty(d string) bool {
	switch d {
	case "easy", "medium", "hard":
		return true
	}
	return false
}

// CreateRoom allocates a code, inserts a waiting room with the creator as
// host, and announces the new lobby entry to everyone.
func (m *Manager) CreateRoom(connID, name string, setup Config) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if name == "" {
		return nil, fmt.Errorf("%w: player name required", ErrInvalid)
	}
	if setup.Difficulty == "" {
		setup.Difficulty = "medium"
	}
	if !validDifficulty(setup.Difficulty) {
		return nil, fmt.Errorf("%w: unknown difficulty %q", ErrInvalid, setup.Difficulty)
	}

	code, err := m.allocateCode()
	if err != nil {
		return nil, err
	}

	r := &Room{
		ID:         code,
		HostConnID: connID,
		Config:     setup,
		State:      game.NewState(),
		Messages:   []ChatMessage{},
		CreatedAt:  time.Now(),
		Players: []Player{
			{ConnID: connID, Name: name, IsHost: true},
		},
	}
	m.store.SaveRoom(r)
	log.Printf("room %s created by %s (%s)", r.ID, name, connID)

	m.joinTransport(r.ID, connID)
	m.send(connID, EventRoomCreated, gin.H{"room": r})
	m.pushLobby()
	return r, nil
}

// Join appends a non-host player. The joiner's snapshot carries the room's
// authoritative config so its client reconciles theme from the server, not
// from its own guess.
func (m *Manager) Join(roomID, connID, name, theme string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.store.GetRoom(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	if name == "" {
		return fmt.Errorf("%w: player name required", ErrInvalid)
	}
	if r.playerIndex(connID) >= 0 {
		return fmt.Errorf("%w: already in room", ErrInvalid)
	}
	if len(r.Players) >= MaxPlayers {
		return ErrRoomFull
	}
	if r.State.Status != game.StatusWaiting {
		return ErrGameInProgress
	}
	if r.Config.Theme != "" && theme != "" && theme != r.Config.Theme {
		return ErrThemeMismatch
	}

	p := Player{ConnID: connID, Name: name}
	r.Players = append(r.Players, p)
	m.store.SaveRoom(r)
	log.Printf("room %s: %s joined (%d/%d)", r.ID, name, len(r.Players), MaxPlayers)

	m.joinTransport(r.ID, connID)
	m.broadcast(r.ID, EventPlayerJoined, gin.H{"player": p, "players": r.Players})
	m.send(connID, EventRoomJoined, gin.H{"room": r})
	m.pushLobby()
	return nil
}

// Leave removes the sender from the room, if present.
func (m *Manager) Leave(roomID, connID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.store.GetRoom(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	if !m.leaveLocked(r, connID) {
		return ErrNotInRoom
	}
	return nil
}

// Disconnect applies Leave to every room containing the connection. A
// connection belongs to at most one room by construction; the scan is
// defensive.
func (m *Manager) Disconnect(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.store.Rooms() {
		if r.playerIndex(connID) >= 0 {
			m.leaveLocked(r, connID)
		}
	}
}

// leaveLocked removes connID from r, reassigning host and clamping the turn
// pointer. Caller holds the lock.
func (m *Manager) leaveLocked(r *Room, connID string) bool {
	idx := r.playerIndex(connID)
	if idx < 0 {
		return false
	}
	wasHost := r.Players[idx].IsHost
	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)
	m.leaveTransport(r.ID, connID)
	log.Printf("room %s: %s left (%d remain)", r.ID, connID, len(r.Players))

	if len(r.Players) == 0 {
		m.deleteLocked(r)
		m.pushLobby()
		return true
	}

	if wasHost {
		// Earliest remaining player inherits the host seat.
		r.Players[0].IsHost = true
		r.HostConnID = r.Players[0].ConnID
	}

	// Keep the turn pointer on the same logical player where possible: a
	// departure before the pointer shifts it down by one, and a departing
	// turn-holder is clamped rather than skipped.
	if idx < r.State.Turn {
		r.State.Turn--
	}
	r.State.Turn %= len(r.Players)

	m.store.SaveRoom(r)
	m.broadcast(r.ID, EventPlayerLeft, gin.H{
		"players": r.Players,
		"hostId":  r.HostConnID,
		"state":   r.State,
	})
	m.pushLobby()
	return true
}

func (m *Manager) deleteLocked(r *Room) {
	r.Epoch++
	m.store.DeleteRoom(r.ID)
	log.Printf("room %s deleted", r.ID)
}

// StartGame installs the host-supplied deck as sent. Only its shape is
// validated; arrangement and pairing are trusted under the cooperative
// model.
func (m *Manager) StartGame(roomID, connID string, deck []game.Card, layout *Layout, theme, difficulty string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.store.GetRoom(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	if connID != r.HostConnID {
		return ErrNotHost
	}
	if difficulty != "" && !validDifficulty(difficulty) {
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalid, difficulty)
	}

	if err := r.State.Start(deck); err != nil {
		if errors.Is(err, game.ErrNotWaiting) {
			return ErrGameInProgress
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if theme != "" && theme != r.Config.Theme {
		r.Config.Theme = theme
	}
	if difficulty != "" && difficulty != r.Config.Difficulty {
		r.Config.Difficulty = difficulty
	}
	if layout != nil {
		r.Config.Layout = layout
	}

	r.Epoch++
	m.store.SaveRoom(r)
	log.Printf("room %s: game started with %d cards", r.ID, len(deck))

	m.broadcast(r.ID, EventGameStarted, gin.H{
		"state":   r.State,
		"config":  r.Config,
		"players": r.Players,
	})
	m.pushLobby()
	return nil
}

// FlipCard handles one cardClick. Duplicate, already-matched and
// resolution-pending clicks are silent no-ops; wrong-turn clicks are
// rejected.
func (m *Manager) FlipCard(roomID, connID string, cardIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.store.GetRoom(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	if r.State.Status != game.StatusPlaying {
		return nil
	}
	pidx := r.playerIndex(connID)
	if pidx < 0 {
		return ErrNotInRoom
	}
	if pidx != r.State.Turn {
		return ErrNotYourTurn
	}
	if !r.State.CanFlip(cardIndex) {
		return nil
	}

	if err := r.State.Flip(cardIndex); err != nil {
		return nil
	}
	r.Players[pidx].Moves++
	m.store.SaveRoom(r)

	m.broadcast(r.ID, EventCardFlipped, gin.H{
		"cardIndex":   cardIndex,
		"playerIndex": pidx,
		"state":       r.State,
		"players":     r.Players,
	})

	if r.State.ResolutionPending() {
		// Give every client the reveal window before match/flip-back.
		epoch := r.Epoch
		time.AfterFunc(m.cfg.ResolveDelay, func() {
			m.resolve(roomID, epoch)
		})
	}
	return nil
}

// resolve applies the deferred match decision. The room may have been reset
// or deleted while the timer ran, so everything is re-checked under the
// lock; a stale epoch makes this a no-op.
func (m *Manager) resolve(roomID string, epoch uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.store.GetRoom(roomID)
	if !ok || r.Epoch != epoch || !r.State.ResolutionPending() {
		return
	}

	out, ok := r.State.Resolve(len(r.Players))
	if !ok {
		return
	}
	if out.Matched && out.ByPlayer < len(r.Players) {
		r.Players[out.ByPlayer].Score++
	}
	m.store.SaveRoom(r)

	if out.Finished {
		log.Printf("room %s: game over", r.ID)
		m.broadcast(r.ID, EventGameOver, gin.H{
			"state":   r.State,
			"players": r.Players,
		})
		return
	}
	m.broadcast(r.ID, EventTurnUpdate, gin.H{
		"outcome": out,
		"state":   r.State,
		"players": r.Players,
	})
}

// ResetGame returns the room to the lobby phase keeping its code and
// membership, so "play again" needs no re-join.
func (m *Manager) ResetGame(roomID, connID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.store.GetRoom(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	if connID != r.HostConnID {
		return ErrNotHost
	}

	r.State.Reset()
	for i := range r.Players {
		r.Players[i].Score = 0
		r.Players[i].Moves = 0
	}
	r.Epoch++
	m.store.SaveRoom(r)
	log.Printf("room %s: reset by host", r.ID)

	m.broadcast(r.ID, EventGameReset, gin.H{
		"state":   r.State,
		"players": r.Players,
	})
	m.pushLobby()
	return nil
}

// SetDifficulty is the host's pre-start config change. Difficulty shows in
// the lobby listing, so the feed is refreshed too.
func (m *Manager) SetDifficulty(roomID, connID, difficulty string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.store.GetRoom(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	if connID != r.HostConnID {
		return ErrNotHost
	}
	if r.State.Status != game.StatusWaiting {
		return ErrGameInProgress
	}
	if !validDifficulty(difficulty) {
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalid, difficulty)
	}

	r.Config.Difficulty = difficulty
	m.store.SaveRoom(r)
	m.broadcast(r.ID, EventRoomUpdated, gin.H{"config": r.Config})
	m.pushLobby()
	return nil
}

// SendMessage appends to the room chat.
func (m *Manager) SendMessage(roomID, connID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.store.GetRoom(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	idx := r.playerIndex(connID)
	if idx < 0 {
		return ErrNotInRoom
	}
	if text == "" {
		return fmt.Errorf("%w: empty message", ErrInvalid)
	}

	msg := ChatMessage{From: r.Players[idx].Name, Text: text, SentAt: time.Now()}
	r.Messages = append(r.Messages, msg)
	m.store.SaveRoom(r)

	m.broadcast(r.ID, EventNewMessage, gin.H{"message": msg})
	return nil
}

// Lookup returns the room by code.
func (m *Manager) Lookup(id string) (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.GetRoom(id)
}

// AvailableRooms is the lobby directory: waiting rooms with a free seat.
func (m *Manager) AvailableRooms() []Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.availableLocked()
}

func (m *Manager) availableLocked() []Summary {
	rooms := m.store.Rooms()
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].CreatedAt.Equal(rooms[j].CreatedAt) {
			return rooms[i].ID < rooms[j].ID
		}
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})

	out := []Summary{}
	for _, r := range rooms {
		if r.State.Status != game.StatusWaiting || len(r.Players) >= MaxPlayers {
			continue
		}
		hostName := ""
		for i := range r.Players {
			if r.Players[i].IsHost {
				hostName = r.Players[i].Name
				break
			}
		}
		out = append(out, Summary{
			ID:          r.ID,
			HostName:    hostName,
			PlayerCount: len(r.Players),
			MaxPlayers:  MaxPlayers,
			Difficulty:  r.Config.Difficulty,
			Theme:       r.Config.Theme,
		})
	}
	return out
}

// SweepStale reclaims empty rooms and rooms older than maxAge. This is the
// only garbage collection; there is no reference counting.
func (m *Manager) SweepStale(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for _, r := range m.store.Rooms() {
		if len(r.Players) == 0 || time.Since(r.CreatedAt) > maxAge {
			m.deleteLocked(r)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("sweep: removed %d stale room(s)", removed)
		m.pushLobby()
	}
	return removed
}

// StartSweeper runs the stale sweep on a fixed interval until ctx is done.
func (m *Manager) StartSweeper(ctx context.Context) {
	go func() {
		t := time.NewTicker(m.cfg.SweepInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				m.SweepStale(m.cfg.RoomMaxAge)
			}
		}
	}()
}

func (m *Manager) pushLobby() {
	m.broadcastAll(EventRoomList, gin.H{"rooms": m.availableLocked()})
}

func (m *Manager) broadcast(roomID, event string, data interface{}) {
	if m.bc != nil {
		m.bc.Broadcast(roomID, event, data)
	}
}

func (m *Manager) send(connID, event string, data interface{}) {
	if m.bc != nil {
		m.bc.Send(connID, event, data)
	}
}

func (m *Manager) broadcastAll(event string, data interface{}) {
	if m.bc != nil {
		m.bc.BroadcastAll(event, data)
	}
}

func (m *Manager) joinTransport(roomID, connID string) {
	if m.bc != nil {
		m.bc.JoinRoom(roomID, connID)
	}
}

func (m *Manager) leaveTransport(roomID, connID string) {
	if m.bc != nil {
		m.bc.LeaveRoom(roomID, connID)
	}
}

const letters = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func (m *Manager) allocateCode() (string, error) {
	for attempt := 0; attempt < 32; attempt++ {
		code := randCode(m.cfg.CodeLength)
		if _, taken := m.store.GetRoom(code); !taken {
			return code, nil
		}
	}
	return "", ErrCodeSpace
}

func randCode(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}
