package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"talkwave/internal/models"
	"talkwave/internal/services"
)

type ChatHandler struct {
	chatService *services.ChatService
}

func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// @Summary      Access private chat
// @Description  Returns the 1:1 chat with the given user, creating it when absent
// @Tags         Chats
// @Accept       json
// @Produce      json
// @Param        body  body      map[string]string  true  "{\"userId\": \"...\"}"
// @Success      200   {object}  models.ChatResponse
// @Failure      400   {object}  map[string]string
// @Router       /chat [post]
func (h *ChatHandler) AccessChat(c *gin.Context) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, _ := currentUserID(c)

	chat, err := h.chatService.AccessChat(c.Request.Context(), userID, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

func (h *ChatHandler) ListChats(c *gin.Context) {
	userID, _ := currentUserID(c)
	chats, err := h.chatService.ListChats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chats)
}

func (h *ChatHandler) ListGroups(c *gin.Context) {
	chats, err := h.chatService.ListGroups(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chats)
}

func (h *ChatHandler) CreateGroup(c *gin.Context) {
	var req models.GroupChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name == "" || req.Users == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": services.ErrMissingFields.Error()})
		return
	}
	// Clients send the member list as a JSON-encoded array string.
	var userIDs []string
	if err := json.Unmarshal([]byte(req.Users), &userIDs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "users must be a JSON array of user ids"})
		return
	}
	creatorID, _ := currentUserID(c)

	chat, err := h.chatService.CreateGroup(c.Request.Context(), creatorID, req.Name, userIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

func (h *ChatHandler) RenameGroup(c *gin.Context) {
	var req models.RenameGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	chat, err := h.chatService.RenameGroup(c.Request.Context(), req.ChatID, req.ChatName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

func (h *ChatHandler) AddToGroup(c *gin.Context) {
	var req models.GroupMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	chat, err := h.chatService.AddToGroup(c.Request.Context(), req.ChatID, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

func (h *ChatHandler) RemoveFromGroup(c *gin.Context) {
	var req models.GroupMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	chat, err := h.chatService.RemoveFromGroup(c.Request.Context(), req.ChatID, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

func (h *ChatHandler) JoinChat(c *gin.Context) {
	var req models.SelfMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, _ := currentUserID(c)

	chat, err := h.chatService.JoinChat(c.Request.Context(), req.ChatID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

func (h *ChatHandler) LeaveChat(c *gin.Context) {
	var req models.SelfMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, _ := currentUserID(c)

	chat, err := h.chatService.LeaveChat(c.Request.Context(), req.ChatID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

func (h *ChatHandler) DeleteGroup(c *gin.Context) {
	if err := h.chatService.DeleteGroup(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Group deleted"})
}
