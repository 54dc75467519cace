package room

// Broadcaster is the outbound side of the transport. The ws hub implements
// it; tests use a recording fake.
type Broadcaster interface {
	// Broadcast sends an event to every connection joined to the room.
	Broadcast(roomID, event string, data interface{})
	// Send addresses a single connection.
	Send(connID, event string, data interface{})
	// BroadcastAll reaches every live connection, joined or not.
	BroadcastAll(event string, data interface{})
	// JoinRoom and LeaveRoom keep the transport's room scoping in step
	// with membership.
	JoinRoom(roomID, connID string)
	LeaveRoom(roomID, connID string)
}
