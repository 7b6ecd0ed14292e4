package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultPrivateChatName is the placeholder name stored on non-group chats;
// clients render the other member's name instead.
const DefaultPrivateChatName = "sender"

type Chat struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	ChatName      string               `bson:"chatName" json:"chatName"`
	IsGroupChat   bool                 `bson:"isGroupChat" json:"isGroupChat"`
	Users         []primitive.ObjectID `bson:"users" json:"users"`
	LatestMessage primitive.ObjectID   `bson:"latestMessage,omitempty" json:"latestMessage,omitempty"`
	GroupAdmin    primitive.ObjectID   `bson:"groupAdmin,omitempty" json:"groupAdmin,omitempty"`
	CreatedAt     time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt" json:"updatedAt"`
}

func (c *Chat) HasMember(id primitive.ObjectID) bool {
	for _, u := range c.Users {
		if u == id {
			return true
		}
	}
	return false
}

// ChatResponse is a chat with its references resolved: member profiles,
// group admin and the latest message with its sender.
type ChatResponse struct {
	ID            primitive.ObjectID `json:"_id"`
	ChatName      string             `json:"chatName"`
	IsGroupChat   bool               `json:"isGroupChat"`
	Users         []UserSummary      `json:"users"`
	GroupAdmin    *UserSummary       `json:"groupAdmin,omitempty"`
	LatestMessage *LatestMessage     `json:"latestMessage,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// LatestMessage is the cached most-recent message embedded in a chat
// response, sender resolved.
type LatestMessage struct {
	ID        primitive.ObjectID `json:"_id"`
	Sender    UserSummary        `json:"sender"`
	Content   string             `json:"content"`
	FileURL   string             `json:"fileUrl,omitempty"`
	FileType  string             `json:"fileType,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
}

type GroupChatRequest struct {
	Name  string `json:"name"`
	Users string `json:"users"` // JSON array of user ids, as the clients send it
}

type RenameGroupRequest struct {
	ChatID   string `json:"chatId"`
	ChatName string `json:"chatName"`
}

type GroupMemberRequest struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

type SelfMemberRequest struct {
	ChatID string `json:"chatId"`
}
