package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"memory-match/internal/game"
	"memory-match/internal/room"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins
	},
}

// client is one live connection. The write mutex serializes replies,
// broadcasts and pings, which can come from different goroutines.
type client struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(event string, data interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(gin.H{"event": event, "data": data})
}

func (c *client) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Hub owns the connection registry and the room scoping of connections. It
// implements room.Broadcaster; all game decisions live in the Session.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	rooms   map[string]map[string]struct{}
	session Session
}

func NewHub(session Session) *Hub {
	return &Hub{
		clients: map[string]*client{},
		rooms:   map[string]map[string]struct{}{},
		session: session,
	}
}

// HandleWS upgrades the request, mints the connection identity and runs the
// read loop until the peer goes away. A dropped connection is treated as
// leaveRoom for every room containing it.
func (h *Hub) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}

	cl := &client{id: uuid.NewString(), conn: conn}
	h.mu.Lock()
	h.clients[cl.id] = cl
	h.mu.Unlock()
	log.Printf("ws connected: %s", cl.id)

	_ = cl.write("connected", gin.H{"id": cl.id})

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go h.pingLoop(cl, done)

	defer func() {
		close(done)
		h.drop(cl)
		h.session.Disconnect(cl.id)
		log.Printf("ws disconnected: %s", cl.id)
	}()

	for {
		var env struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws read error: %v", err)
			}
			return
		}
		h.dispatch(cl, env.Event, env.Data)
	}
}

func (h *Hub) pingLoop(cl *client, done <-chan struct{}) {
	t := time.NewTicker(pingPeriod)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			if err := cl.ping(); err != nil {
				return
			}
		}
	}
}

func (h *Hub) drop(cl *client) {
	h.mu.Lock()
	delete(h.clients, cl.id)
	for _, members := range h.rooms {
		delete(members, cl.id)
	}
	h.mu.Unlock()
	_ = cl.conn.Close()
}

func (h *Hub) dispatch(cl *client, event string, data json.RawMessage) {
	switch event {
	case "createRoom":
		var p struct {
			PlayerName string `json:"playerName"`
			Difficulty string `json:"difficulty"`
			Theme      string `json:"theme"`
		}
		if !h.decode(cl, data, &p) {
			return
		}
		if _, err := h.session.CreateRoom(cl.id, p.PlayerName, room.Config{
			Theme:      p.Theme,
			Difficulty: p.Difficulty,
		}); err != nil {
			h.sendError(cl, err)
		}

	case "joinRoom":
		var p struct {
			RoomID     string `json:"roomId"`
			PlayerName string `json:"playerName"`
			Theme      string `json:"theme"`
		}
		if !h.decode(cl, data, &p) {
			return
		}
		if err := h.session.Join(p.RoomID, cl.id, p.PlayerName, p.Theme); err != nil {
			h.sendError(cl, err)
		}

	case "leaveRoom":
		var p struct {
			RoomID string `json:"roomId"`
		}
		if !h.decode(cl, data, &p) {
			return
		}
		if err := h.session.Leave(p.RoomID, cl.id); err != nil {
			h.sendError(cl, err)
		}

	case "startGame":
		var p struct {
			RoomID       string       `json:"roomId"`
			Cards        []game.Card  `json:"cards"`
			LayoutConfig *room.Layout `json:"layoutConfig"`
			Theme        string       `json:"theme"`
			Difficulty   string       `json:"difficulty"`
		}
		if !h.decode(cl, data, &p) {
			return
		}
		if err := h.session.StartGame(p.RoomID, cl.id, p.Cards, p.LayoutConfig, p.Theme, p.Difficulty); err != nil {
			h.sendError(cl, err)
		}

	case "cardClick":
		var p struct {
			RoomID    string `json:"roomId"`
			CardIndex int    `json:"cardIndex"`
		}
		if !h.decode(cl, data, &p) {
			return
		}
		if err := h.session.FlipCard(p.RoomID, cl.id, p.CardIndex); err != nil {
			h.sendError(cl, err)
		}

	case "playAgain":
		var p struct {
			RoomID string `json:"roomId"`
		}
		if !h.decode(cl, data, &p) {
			return
		}
		if err := h.session.ResetGame(p.RoomID, cl.id); err != nil {
			h.sendError(cl, err)
		}

	case "setDifficulty":
		var p struct {
			RoomID     string `json:"roomId"`
			Difficulty string `json:"difficulty"`
		}
		if !h.decode(cl, data, &p) {
			return
		}
		if err := h.session.SetDifficulty(p.RoomID, cl.id, p.Difficulty); err != nil {
			h.sendError(cl, err)
		}

	case "sendMessage":
		var p struct {
			RoomID string `json:"roomId"`
			Text   string `json:"text"`
		}
		if !h.decode(cl, data, &p) {
			return
		}
		if err := h.session.SendMessage(p.RoomID, cl.id, p.Text); err != nil {
			h.sendError(cl, err)
		}

	case "getRooms":
		_ = cl.write(room.EventRoomList, gin.H{"rooms": h.session.AvailableRooms()})

	default:
		log.Printf("ws %s: unknown event %q", cl.id, event)
	}
}

func (h *Hub) decode(cl *client, data json.RawMessage, v interface{}) bool {
	if len(data) == 0 {
		h.sendErrorText(cl, "missing payload")
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		h.sendErrorText(cl, "malformed payload")
		return false
	}
	return true
}

func (h *Hub) sendError(cl *client, err error) {
	_ = cl.write(room.EventRoomError, gin.H{"message": err.Error()})
}

func (h *Hub) sendErrorText(cl *client, msg string) {
	_ = cl.write(room.EventRoomError, gin.H{"message": msg})
}

// Broadcast sends event to every connection joined to roomID. Connections
// that fail to take the write are dropped; their read loops then run the
// normal disconnect path.
func (h *Hub) Broadcast(roomID, event string, data interface{}) {
	for _, cl := range h.members(roomID) {
		if err := cl.write(event, data); err != nil {
			log.Printf("ws %s: write failed: %v", cl.id, err)
			_ = cl.conn.Close()
		}
	}
}

// Send addresses one connection by id.
func (h *Hub) Send(connID, event string, data interface{}) {
	h.mu.RLock()
	cl, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	if err := cl.write(event, data); err != nil {
		log.Printf("ws %s: write failed: %v", cl.id, err)
		_ = cl.conn.Close()
	}
}

// BroadcastAll reaches every live connection, used for lobby updates.
func (h *Hub) BroadcastAll(event string, data interface{}) {
	h.mu.RLock()
	all := make([]*client, 0, len(h.clients))
	for _, cl := range h.clients {
		all = append(all, cl)
	}
	h.mu.RUnlock()

	for _, cl := range all {
		if err := cl.write(event, data); err != nil {
			log.Printf("ws %s: write failed: %v", cl.id, err)
			_ = cl.conn.Close()
		}
	}
}

func (h *Hub) JoinRoom(roomID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = map[string]struct{}{}
	}
	h.rooms[roomID][connID] = struct{}{}
}

func (h *Hub) LeaveRoom(roomID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[roomID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

func (h *Hub) members(roomID string) []*client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*client, 0, len(h.rooms[roomID]))
	for id := range h.rooms[roomID] {
		if cl, ok := h.clients[id]; ok {
			out = append(out, cl)
		}
	}
	return out
}
