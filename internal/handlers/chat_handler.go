package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gruhabuddy/backend/internal/services"
)

// ChatSender forwards a user message to the chat service.
type ChatSender interface {
	Send(ctx context.Context, message string) (*services.ChatReply, error)
}

type ChatHandler struct {
	chatService ChatSender
}

func NewChatHandler(chatService ChatSender) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Chat proxies a message to the chat service
// POST /chat
// Body: {"message": "..."}
func (h *ChatHandler) Chat(c *gin.Context) {
	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	reply, err := h.chatService.Send(c.Request.Context(), req.Message)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, reply)
}
