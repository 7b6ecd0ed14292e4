package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"talkwave/internal/handlers"
	"talkwave/internal/middleware"
	"talkwave/internal/realtime"
	"talkwave/internal/services"
)

func SetupRoutes(
	r *gin.Engine,
	userHandler *handlers.UserHandler,
	chatHandler *handlers.ChatHandler,
	messageHandler *handlers.MessageHandler,
	hub *realtime.Hub,
	authService *services.AuthService,
	userService *services.UserService,
) *gin.Engine {

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().Format(time.RFC3339)})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// The relay performs no authorization of its own.
	r.GET("/ws", func(c *gin.Context) {
		realtime.ServeWS(hub, c.Writer, c.Request)
	})

	// ---- public
	user := r.Group("/user")
	{
		user.POST("/signup", userHandler.Signup)
		user.POST("/login", userHandler.Login)
		user.POST("/logout", userHandler.Logout)
	}

	// ---- protected
	auth := middleware.AuthMiddleware(authService, userService)
	admin := middleware.RequireAdmin()

	user.GET("/all", auth, userHandler.Search)
	user.GET("/me", auth, userHandler.Me)

	chat := r.Group("/chat", auth)
	{
		chat.POST("", chatHandler.AccessChat)
		chat.GET("", chatHandler.ListChats)
		chat.GET("/all", chatHandler.ListGroups)
		chat.POST("/group", admin, chatHandler.CreateGroup)
		chat.PUT("/rename", admin, chatHandler.RenameGroup)
		chat.PUT("/add", admin, chatHandler.AddToGroup)
		chat.PUT("/remove", admin, chatHandler.RemoveFromGroup)
		chat.PUT("/addself", chatHandler.JoinChat)
		chat.PUT("/removeSelf", chatHandler.LeaveChat)
		chat.DELETE("/group/:id", admin, chatHandler.DeleteGroup)
	}

	messages := r.Group("/messages", auth)
	{
		messages.GET("/all/:chatId", messageHandler.List)
		messages.POST("/send", messageHandler.Send)
	}

	return r
}
