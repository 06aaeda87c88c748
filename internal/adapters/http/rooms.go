package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"collabide/server/internal/app"
	"collabide/server/internal/domain"
)

type RoomHandlers struct {
	Access *app.AccessController
}

type joinRoomRequest struct {
	RoomID   string `json:"room_id"`
	Password string `json:"password"`
	UserID   string `json:"user_id"`
}

func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	id, password, err := h.Access.CreateRoom(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("create room")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to create room"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"room_id": id, "password": password})
}

// JoinRoom is the pre-flight admission check the frontend runs before it
// opens the collaboration socket. The socket handshake re-evaluates the
// same admission, so passing here grants nothing durable.
func (h *RoomHandlers) JoinRoom(c *gin.Context) {
	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RoomID == "" || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "missing room_id or user_id"})
		return
	}

	adm, err := h.Access.EvaluateJoin(c.Request.Context(), domain.RoomID(req.RoomID), domain.ParticipantID(req.UserID), req.Password)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("room", req.RoomID).Msg("join room")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to evaluate join"})
		return
	}

	if adm.Admitted() {
		c.JSON(http.StatusOK, gin.H{"message": "Joined room", "is_host": adm == domain.AdmittedHost})
		return
	}
	switch adm {
	case domain.AdmissionNotFound:
		c.JSON(http.StatusNotFound, gin.H{"detail": "Room not found"})
	case domain.AdmissionPasswordRequired:
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Password required"})
	default:
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid password"})
	}
}
