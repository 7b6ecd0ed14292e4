package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Message struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Sender    primitive.ObjectID `bson:"sender" json:"sender"`
	Content   string             `bson:"content" json:"content"`
	Chat      primitive.ObjectID `bson:"chat" json:"chat"`
	FileURL   string             `bson:"fileUrl,omitempty" json:"fileUrl,omitempty"`
	FileType  string             `bson:"fileType,omitempty" json:"fileType,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// MessageResponse is a message with sender and parent chat resolved. The
// embedded chat carries populated members so the relay can fan the payload
// out without another store lookup.
type MessageResponse struct {
	ID        primitive.ObjectID `json:"_id"`
	Sender    UserSummary        `json:"sender"`
	Content   string             `json:"content"`
	Chat      ChatResponse       `json:"chat"`
	FileURL   string             `json:"fileUrl,omitempty"`
	FileType  string             `json:"fileType,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
}

type SendMessageRequest struct {
	Content  string `json:"content"`
	ChatID   string `json:"chatId"`
	FileURL  string `json:"fileUrl"`
	FileType string `json:"fileType"`
}
