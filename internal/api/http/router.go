package http

import (
	"memory-match/internal/api/ws"
	"memory-match/internal/config"
	"memory-match/internal/room"

	"github.com/gin-gonic/gin"
)

func NewRouter(rm *room.Manager, hub *ws.Hub, cfg config.Config) *gin.Engine {
	r := gin.Default()

	// WebSocket surface: every game mutation goes through here
	r.GET("/ws", hub.HandleWS)

	// --- READ-ONLY ROOM ENDPOINTS ---
	r.GET("/rooms", ListRoomsHandler(rm))
	r.GET("/rooms/:id/qr", RoomQRHandler(rm, cfg))

	// --- OPS ENDPOINTS ---
	r.GET("/healthz", HealthHandler())
	r.GET("/version", VersionHandler())

	return r
}
