package controller

import (
	"log/slog"
	"net/http"

	"ctchen222/DrawSync/internal/api/response"
	"ctchen222/DrawSync/internal/api/service"
	"ctchen222/DrawSync/internal/events"
	"ctchen222/DrawSync/internal/room"

	"github.com/gin-gonic/gin"
)

// RoomDirectory lists the rooms hosted by this server.
type RoomDirectory interface {
	Rooms() []room.Summary
	Lookup(id string) (room.Summary, bool)
}

// RoomController serves the live room list and room deletion.
type RoomController struct {
	rooms     RoomDirectory
	publisher service.EventPublisher
}

func NewRoomController(rooms RoomDirectory, publisher service.EventPublisher) *RoomController {
	return &RoomController{rooms: rooms, publisher: publisher}
}

// List handles GET /api/rooms.
func (rc *RoomController) List(c *gin.Context) {
	rooms := rc.rooms.Rooms()
	if rooms == nil {
		rooms = []room.Summary{}
	}
	response.SuccessResponse(c, gin.H{"list": rooms})
}

// Delete handles DELETE /api/rooms/:id. Only the room owner may delete it.
// Deletion happens asynchronously on whichever server hosts the room.
func (rc *RoomController) Delete(c *gin.Context) {
	userID := c.GetInt64(userIDKey)
	roomID := c.Param("id")

	summary, ok := rc.rooms.Lookup(roomID)
	if !ok {
		response.ErrorResponse(c, http.StatusNotFound, "room not found")
		return
	}
	if summary.OwnerID != userID {
		response.ErrorResponse(c, http.StatusForbidden, "only the room owner can delete the room")
		return
	}

	payload := events.RoomDeleteRequestedPayload{RoomID: roomID, RequestedBy: userID}
	if err := rc.publisher.Publish(c.Request.Context(), events.TypeRoomDeleteRequested, payload); err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to request room deletion", "room.id", roomID, "error", err)
		response.ErrorResponse(c, http.StatusInternalServerError, "failed to delete room")
		return
	}
	c.JSON(http.StatusAccepted, response.NewResponse(true, http.StatusAccepted, gin.H{"room_id": roomID}))
}
