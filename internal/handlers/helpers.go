package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"talkwave/internal/middleware"
	"talkwave/internal/models"
	"talkwave/internal/services"
)

func currentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(middleware.ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	v, ok := c.Get(middleware.ContextUserIDKey)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, ok := v.(primitive.ObjectID)
	return id, ok
}

// respondError translates service errors into the HTTP taxonomy; anything
// unrecognized is a store/runtime failure surfaced verbatim as 500.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrMissingFields),
		errors.Is(err, services.ErrInvalidID),
		errors.Is(err, services.ErrNotEnoughUsers),
		errors.Is(err, services.ErrAlreadyMember),
		errors.Is(err, services.ErrNotAMember),
		errors.Is(err, services.ErrNotAGroupChat),
		errors.Is(err, services.ErrContentRequired),
		errors.Is(err, services.ErrUserExists):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidPassword),
		errors.Is(err, services.ErrInvalidToken):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrChatNotFound),
		errors.Is(err, services.ErrUserNotFound):
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
