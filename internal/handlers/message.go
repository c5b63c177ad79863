package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"course-chat-service/internal/messaging"
	"course-chat-service/internal/models"
	"course-chat-service/internal/repositories"
)

// MessageHandler exposes the chat REST surface. All routes sit behind the
// auth middleware, which places the resolved user on the context.
type MessageHandler struct {
	service messaging.Service
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(service messaging.Service) *MessageHandler {
	return &MessageHandler{service: service}
}

// GetContacts returns the counterparts the caller may currently message.
func (h *MessageHandler) GetContacts(c *gin.Context) {
	users, err := h.service.Contacts(c.Request.Context(), actorFromContext(c))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, users)
}

// GetChatPartners returns counterparts with an existing or eligible
// conversation.
func (h *MessageHandler) GetChatPartners(c *gin.Context) {
	users, err := h.service.ChatPartners(c.Request.Context(), actorFromContext(c))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, users)
}

// GetHistory returns the ordered message history with a counterpart.
func (h *MessageHandler) GetHistory(c *gin.Context) {
	otherID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	msgs, err := h.service.History(c.Request.Context(), actorFromContext(c), otherID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// SendMessage persists a message to a counterpart and returns the created
// record with its stable id.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	receiverID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req struct {
		Text  string `json:"text"`
		Image string `json:"image"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.service.Send(c.Request.Context(), actorFromContext(c), receiverID, req.Text, req.Image)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func actorFromContext(c *gin.Context) models.User {
	if val, ok := c.Get("user"); ok {
		if user, ok := val.(models.User); ok {
			return user
		}
	}
	return models.User{}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, messaging.ErrSelfChat), errors.Is(err, repositories.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, messaging.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, repositories.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, messaging.ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
