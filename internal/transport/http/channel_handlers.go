package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/dmarkhas/relaychat-server/internal/store"
)

// ChannelHandlers provides HTTP handlers for channel management endpoints.
type ChannelHandlers struct {
	store store.Store
	log   *zerolog.Logger
}

// NewChannelHandlers creates a new channel handlers instance.
func NewChannelHandlers(st store.Store, logger *zerolog.Logger) *ChannelHandlers {
	return &ChannelHandlers{
		store: st,
		log:   logger,
	}
}

// CreateChannelRequest represents the create channel request body.
type CreateChannelRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=64"`
	Description string `json:"description"`
}

// ChannelResponse represents a channel in API responses.
type ChannelResponse struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	CreatedAt   string         `json:"created_at"`
	MemberCount int            `json:"member_count"`
	Members     []UserResponse `json:"members,omitempty"`
}

func channelResponse(ch *store.Channel) ChannelResponse {
	return ChannelResponse{
		ID:          ch.ID,
		Name:        ch.Name,
		Description: ch.Description,
		CreatedAt:   ch.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		MemberCount: ch.MemberCount,
	}
}

func channelIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid channel id"})
		return 0, false
	}
	return id, true
}

// CreateChannel handles channel creation. The creator is auto-joined.
// POST /api/channels
func (h *ChannelHandlers) CreateChannel(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req CreateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create channel request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "name required"})
		return
	}

	channel, err := h.store.CreateChannel(c.Request.Context(), req.Name, req.Description, userID)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			c.JSON(http.StatusConflict, ErrorResponse{Error: "channel name already exists"})
			return
		}
		h.log.Error().Err(err).Str("channel_name", req.Name).Msg("failed to create channel")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("channel_id", channel.ID).Int64("user_id", userID).Msg("channel created")
	c.JSON(http.StatusCreated, channelResponse(channel))
}

// ListChannels handles listing all channels with member counts.
// GET /api/channels
func (h *ChannelHandlers) ListChannels(c *gin.Context) {
	channels, err := h.store.ListChannels(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list channels")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]ChannelResponse, 0, len(channels))
	for _, ch := range channels {
		response = append(response, channelResponse(ch))
	}
	c.JSON(http.StatusOK, response)
}

// ListJoinedChannels handles listing channels the caller is a member of.
// GET /api/channels/joined
func (h *ChannelHandlers) ListJoinedChannels(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	channels, err := h.store.ListJoinedChannels(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to list joined channels")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]ChannelResponse, 0, len(channels))
	for _, ch := range channels {
		response = append(response, channelResponse(ch))
	}
	c.JSON(http.StatusOK, response)
}

// GetChannel handles fetching one channel with its member list.
// GET /api/channels/:id
func (h *ChannelHandlers) GetChannel(c *gin.Context) {
	channelID, ok := channelIDParam(c, "id")
	if !ok {
		return
	}

	channel, err := h.store.GetChannel(c.Request.Context(), channelID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "channel not found"})
			return
		}
		h.log.Error().Err(err).Int64("channel_id", channelID).Msg("failed to get channel")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	members, err := h.store.ListMembers(c.Request.Context(), channelID)
	if err != nil {
		h.log.Error().Err(err).Int64("channel_id", channelID).Msg("failed to list members")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := channelResponse(channel)
	response.Members = make([]UserResponse, 0, len(members))
	for _, m := range members {
		response.Members = append(response.Members, userResponse(m))
	}
	c.JSON(http.StatusOK, response)
}

// JoinChannel adds the caller to a channel's durable membership. Idempotent.
// POST /api/channels/:id/join
func (h *ChannelHandlers) JoinChannel(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}
	channelID, ok := channelIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := h.store.GetChannel(c.Request.Context(), channelID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "channel not found"})
			return
		}
		h.log.Error().Err(err).Int64("channel_id", channelID).Msg("failed to get channel")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	if err := h.store.AddMember(c.Request.Context(), channelID, userID); err != nil {
		h.log.Error().Err(err).Int64("channel_id", channelID).Int64("user_id", userID).Msg("failed to join channel")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "joined channel"})
}

// LeaveChannel removes the caller from a channel's durable membership. Idempotent.
// POST /api/channels/:id/leave
func (h *ChannelHandlers) LeaveChannel(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}
	channelID, ok := channelIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.store.RemoveMember(c.Request.Context(), channelID, userID); err != nil {
		h.log.Error().Err(err).Int64("channel_id", channelID).Int64("user_id", userID).Msg("failed to leave channel")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "left channel"})
}
