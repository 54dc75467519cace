package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"memory-match/internal/config"
	"memory-match/internal/room"
)

const Version = "1.0.0"

// @Summary List joinable rooms
// @Description Lobby directory: waiting rooms with a free seat
// @Tags Room
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /rooms [get]
func ListRoomsHandler(rm *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": rm.AvailableRooms()})
	}
}

// @Summary Room join link as QR code
// @Description PNG QR of the join URL, for handing a room code to tablemates
// @Tags Room
// @Produce png
// @Param id path string true "Room code"
// @Success 200 {file} binary
// @Router /rooms/{id}/qr [get]
func RoomQRHandler(rm *room.Manager, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if _, ok := rm.Lookup(id); !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		link := fmt.Sprintf("%s/?join=%s", cfg.PublicURL, id)
		png, err := qrcode.Encode(link, qrcode.Medium, 256)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "qr encoding failed"})
			return
		}
		c.Data(http.StatusOK, "image/png", png)
	}
}

// @Summary Liveness check
// @Tags Ops
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /healthz [get]
func HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// @Summary Server version
// @Tags Ops
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /version [get]
func VersionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": Version})
	}
}
