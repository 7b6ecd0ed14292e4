package repositories

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"talkwave/internal/models"
)

// ErrNotFound is returned when an id or filter resolves to no document.
var ErrNotFound = errors.New("document not found")

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	Search(ctx context.Context, keyword string, exclude primitive.ObjectID) ([]models.User, error)
}

type ChatRepository interface {
	Create(ctx context.Context, chat *models.Chat) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error)
	// FindPrivateChat resolves the non-group chat containing both members.
	FindPrivateChat(ctx context.Context, a, b primitive.ObjectID) (*models.Chat, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Chat, error)
	ListGroups(ctx context.Context) ([]models.Chat, error)
	Rename(ctx context.Context, id primitive.ObjectID, name string) (*models.Chat, error)
	// AddUser appends without dedup ($push); RemoveUser is a no-op for
	// absent members ($pull). Both fail only when the chat is missing.
	AddUser(ctx context.Context, id, userID primitive.ObjectID) (*models.Chat, error)
	RemoveUser(ctx context.Context, id, userID primitive.ObjectID) (*models.Chat, error)
	// AddUserIfAbsent and RemoveUserIfPresent are conditional single-document
	// updates; the bool reports whether the membership condition matched.
	AddUserIfAbsent(ctx context.Context, id, userID primitive.ObjectID) (bool, error)
	RemoveUserIfPresent(ctx context.Context, id, userID primitive.ObjectID) (bool, error)
	SetLatestMessage(ctx context.Context, id, messageID primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	ListByChat(ctx context.Context, chatID primitive.ObjectID) ([]models.Message, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Message, error)
}
