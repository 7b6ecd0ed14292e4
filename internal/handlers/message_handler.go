package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"talkwave/internal/models"
	"talkwave/internal/services"
)

type MessageHandler struct {
	messageService *services.MessageService
}

func NewMessageHandler(messageService *services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// @Summary      Send message
// @Description  Appends a message to a chat and updates its latest-message pointer
// @Tags         Messages
// @Accept       json
// @Produce      json
// @Param        message  body      models.SendMessageRequest  true  "Message payload"
// @Success      201      {object}  models.MessageResponse
// @Failure      400      {object}  map[string]string
// @Router       /messages/send [post]
func (h *MessageHandler) Send(c *gin.Context) {
	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	senderID, _ := currentUserID(c)

	msg, err := h.messageService.Send(c.Request.Context(), senderID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *MessageHandler) List(c *gin.Context) {
	msgs, err := h.messageService.List(c.Request.Context(), c.Param("chatId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}
