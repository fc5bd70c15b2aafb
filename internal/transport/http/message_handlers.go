package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/dmarkhas/relaychat-server/internal/core"
	"github.com/dmarkhas/relaychat-server/internal/proto"
)

// MessageHandlers provides HTTP handlers for history and the REST
// message-create fallback.
type MessageHandlers struct {
	paginator *core.Paginator
	pipeline  *core.Pipeline
	log       *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(paginator *core.Paginator, pipeline *core.Pipeline, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		paginator: paginator,
		pipeline:  pipeline,
		log:       logger,
	}
}

// HistoryResponse is one page of messages, oldest to newest. NextCursor is
// the created_at of the oldest message, or null for an empty page.
type HistoryResponse struct {
	Messages   []proto.MessagePayload `json:"messages"`
	NextCursor *time.Time             `json:"nextCursor"`
}

// CreateMessageRequest represents the create message request body.
type CreateMessageRequest struct {
	Content string `json:"content"`
}

// CreatedMessageResponse is the raw created record, mirroring what the
// store assigned.
type CreatedMessageResponse struct {
	ID        int64     `json:"id"`
	ChannelID int64     `json:"channel_id"`
	UserID    int64     `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// GetHistory serves backward-cursor pagination over a channel's messages.
// GET /api/messages/:channelId?cursor&limit
func (h *MessageHandlers) GetHistory(c *gin.Context) {
	channelID, ok := channelIDParam(c, "channelId")
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = parsed
	}

	var cursor *time.Time
	if raw := c.Query("cursor"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid cursor"})
			return
		}
		cursor = &parsed
	}

	page, err := h.paginator.Page(c.Request.Context(), channelID, cursor, limit)
	if err != nil {
		h.log.Error().Err(err).Int64("channel_id", channelID).Msg("failed to fetch history")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := HistoryResponse{
		Messages:   make([]proto.MessagePayload, 0, len(page.Messages)),
		NextCursor: page.NextCursor,
	}
	for _, msg := range page.Messages {
		response.Messages = append(response.Messages, messagePayload(msg))
	}
	c.JSON(http.StatusOK, response)
}

// CreateMessage persists a message through the shared ingest pipeline.
// Non-socket fallback; no fan-out happens on this path.
// POST /api/messages/:channelId
func (h *MessageHandlers) CreateMessage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}
	channelID, ok := channelIDParam(c, "channelId")
	if !ok {
		return
	}

	var req CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "content required"})
		return
	}

	msg, err := h.pipeline.Submit(c.Request.Context(), channelID, userID, req.Content)
	if err != nil {
		if errors.Is(err, core.ErrEmptyContent) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "content required"})
			return
		}
		h.log.Error().Err(err).Int64("channel_id", channelID).Msg("failed to create message")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, CreatedMessageResponse{
		ID:        msg.ID,
		ChannelID: msg.ChannelID,
		UserID:    msg.UserID,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	})
}
