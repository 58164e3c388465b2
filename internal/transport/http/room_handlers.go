package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/chatter-hq/chatter-server/internal/store"
)

// RoomHandlers provides HTTP handlers for room directory endpoints.
type RoomHandlers struct {
	store store.Store
	log   *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(st store.Store, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		store: st,
		log:   logger,
	}
}

// CreateRoomRequest represents the create room request body.
type CreateRoomRequest struct {
	StaffOnly bool `json:"staff_only"`
}

// UpdateRoomRequest represents the update room request body. Only the
// staff_only flag of a room may be edited.
type UpdateRoomRequest struct {
	StaffOnly *bool `json:"staff_only" binding:"required"`
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	ID        string `json:"id"`
	StaffOnly bool   `json:"staff_only"`
	CreatedAt string `json:"created_at"`
}

func roomResponse(room *store.Room) RoomResponse {
	return RoomResponse{
		ID:        room.ID,
		StaffOnly: room.StaffOnly,
		CreatedAt: room.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// CreateRoom handles room creation. Staff only.
// POST /api/rooms
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create room request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	room, err := h.store.CreateRoom(c.Request.Context(), req.StaffOnly)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to create room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("room_id", room.ID).Bool("staff_only", room.StaffOnly).Msg("room created")
	c.JSON(http.StatusCreated, roomResponse(room))
}

// ListRooms handles listing all rooms.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms, err := h.store.ListRooms(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list rooms")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]RoomResponse, 0, len(rooms))
	for i := range rooms {
		response = append(response, roomResponse(&rooms[i]))
	}
	c.JSON(http.StatusOK, response)
}

// UpdateRoom toggles the staff_only flag of a room. Staff only.
// PATCH /api/rooms/:id
func (h *RoomHandlers) UpdateRoom(c *gin.Context) {
	roomID := c.Param("id")

	var req UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid update room request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	err := h.store.SetRoomStaffOnly(c.Request.Context(), roomID, *req.StaffOnly)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("room_id", roomID).Msg("failed to update room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	room, err := h.store.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		h.log.Error().Err(err).Str("room_id", roomID).Msg("failed to reload room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("room_id", roomID).Bool("staff_only", room.StaffOnly).Msg("room updated")
	c.JSON(http.StatusOK, roomResponse(room))
}
