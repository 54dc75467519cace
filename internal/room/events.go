package room

// Outbound event names, shared with the ws layer.
const (
	EventRoomCreated = "roomCreated"
	EventRoomJoined  = "roomJoined"
	EventRoomList    = "roomList"
	EventRoomError   = "roomError"
	EventRoomUpdated = "roomUpdated"

	EventPlayerJoined = "playerJoined"
	EventPlayerLeft   = "playerLeft"

	EventGameStarted = "gameStarted"
	EventCardFlipped = "cardFlipped"
	EventTurnUpdate  = "turnUpdate"
	EventGameOver    = "gameOver"
	EventGameReset   = "gameReset"

	EventNewMessage = "newMessage"
)
