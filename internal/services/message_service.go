package services

import (
	"context"
	"errors"
	"log"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"talkwave/internal/models"
	"talkwave/internal/repositories"
)

var ErrContentRequired = errors.New("content or a file is required")

// MessageService appends messages to a chat and keeps the chat's
// latest-message pointer current.
type MessageService struct {
	messages repositories.MessageRepository
	chats    repositories.ChatRepository
	users    repositories.UserRepository
}

func NewMessageService(messages repositories.MessageRepository, chats repositories.ChatRepository, users repositories.UserRepository) *MessageService {
	return &MessageService{messages: messages, chats: chats, users: users}
}

// Send persists the message, resolves sender and parent chat for the
// response, then moves the chat's latest-message pointer. The create and
// the pointer update are two independent writes; a crash in between leaves
// the pointer stale. Sender membership in the chat is not checked.
func (s *MessageService) Send(ctx context.Context, senderID primitive.ObjectID, req models.SendMessageRequest) (*models.MessageResponse, error) {
	if req.Content == "" && req.FileURL == "" {
		return nil, ErrContentRequired
	}
	chatID, err := primitive.ObjectIDFromHex(req.ChatID)
	if err != nil {
		return nil, ErrInvalidID
	}

	msg := &models.Message{
		Sender:   senderID,
		Content:  req.Content,
		Chat:     chatID,
		FileURL:  req.FileURL,
		FileType: req.FileType,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}

	resp, err := s.resolve(ctx, *msg)
	if err != nil {
		return nil, err
	}

	if err := s.chats.SetLatestMessage(ctx, chatID, msg.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// Message was posted against a chat id that never resolved;
			// keep it, the original accepts posts into unknown chats.
			log.Printf("[messages][send] latest-message update skipped, chat %s not found", chatID.Hex())
			return resp, nil
		}
		return nil, err
	}
	return resp, nil
}

// List returns every message of a chat in storage order, senders and chat
// resolved. No pagination.
func (s *MessageService) List(ctx context.Context, chatIDHex string) ([]models.MessageResponse, error) {
	chatID, err := primitive.ObjectIDFromHex(chatIDHex)
	if err != nil {
		return nil, ErrInvalidID
	}
	msgs, err := s.messages.ListByChat(ctx, chatID)
	if err != nil {
		return nil, err
	}

	chat, users, err := s.chatAndSenders(ctx, chatID, msgs)
	if err != nil {
		return nil, err
	}

	out := make([]models.MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, buildMessageResponse(m, users, chat))
	}
	return out, nil
}

func (s *MessageService) resolve(ctx context.Context, msg models.Message) (*models.MessageResponse, error) {
	chat, users, err := s.chatAndSenders(ctx, msg.Chat, []models.Message{msg})
	if err != nil {
		return nil, err
	}
	resp := buildMessageResponse(msg, users, chat)
	return &resp, nil
}

// chatAndSenders loads the parent chat with its member profiles plus the
// profiles of every sender in the batch.
func (s *MessageService) chatAndSenders(ctx context.Context, chatID primitive.ObjectID, msgs []models.Message) (*models.ChatResponse, map[primitive.ObjectID]models.UserSummary, error) {
	userSet := make(map[primitive.ObjectID]struct{})
	for _, m := range msgs {
		userSet[m.Sender] = struct{}{}
	}

	var chatResp *models.ChatResponse
	chat, err := s.chats.FindByID(ctx, chatID)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		// chat stays nil in the response, mirroring an unresolved ref
	case err != nil:
		return nil, nil, err
	default:
		for _, u := range chat.Users {
			userSet[u] = struct{}{}
		}
		chatResp = &models.ChatResponse{
			ID:          chat.ID,
			ChatName:    chat.ChatName,
			IsGroupChat: chat.IsGroupChat,
			CreatedAt:   chat.CreatedAt,
			UpdatedAt:   chat.UpdatedAt,
		}
	}

	ids := make([]primitive.ObjectID, 0, len(userSet))
	for id := range userSet {
		ids = append(ids, id)
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[primitive.ObjectID]models.UserSummary, len(users))
	for i := range users {
		byID[users[i].ID] = users[i].Summary()
	}

	if chatResp != nil {
		for _, u := range chat.Users {
			if summary, ok := byID[u]; ok {
				chatResp.Users = append(chatResp.Users, summary)
			}
		}
	}
	return chatResp, byID, nil
}

func buildMessageResponse(m models.Message, users map[primitive.ObjectID]models.UserSummary, chat *models.ChatResponse) models.MessageResponse {
	resp := models.MessageResponse{
		ID:        m.ID,
		Sender:    users[m.Sender],
		Content:   m.Content,
		FileURL:   m.FileURL,
		FileType:  m.FileType,
		CreatedAt: m.CreatedAt,
	}
	if chat != nil {
		resp.Chat = *chat
	}
	return resp
}
