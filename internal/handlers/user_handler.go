package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"talkwave/internal/models"
	"talkwave/internal/services"
)

type UserHandler struct {
	userService *services.UserService
	authService *services.AuthService
}

func NewUserHandler(userService *services.UserService, authService *services.AuthService) *UserHandler {
	return &UserHandler{userService: userService, authService: authService}
}

// @Summary      Sign up
// @Description  Registers a new user and returns a bearer token
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        signup  body      models.SignupRequest  true  "Signup payload"
// @Success      201     {object}  map[string]interface{}
// @Failure      400     {object}  map[string]string
// @Router       /user/signup [post]
func (h *UserHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.Signup(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := h.authService.GenerateToken(user.ID.Hex())
	if err != nil {
		log.Printf("[users][signup] sign token failed for user %s: %v", user.ID.Hex(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":  user,
		"token": token,
	})
}

func (h *UserHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := h.authService.GenerateToken(user.ID.Hex())
	if err != nil {
		log.Printf("[users][login] sign token failed for user %s: %v", user.ID.Hex(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  user,
		"token": token,
	})
}

// Logout is stateless; the client discards its token.
func (h *UserHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful!"})
}

// Search lists users matching ?search= by name or email, excluding the
// caller.
func (h *UserHandler) Search(c *gin.Context) {
	userID, _ := currentUserID(c)
	users, err := h.userService.Search(c.Request.Context(), c.Query("search"), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"name":    user.Name,
		"email":   user.Email,
		"isAdmin": user.IsAdmin,
		"pic":     user.Pic,
	})
}
