package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"talkwave/internal/models"
	"talkwave/internal/repositories"
)

var (
	ErrMissingFields  = errors.New("please fill all the fields")
	ErrInvalidID      = errors.New("invalid id format")
	ErrChatNotFound   = errors.New("chat not found")
	ErrNotAGroupChat  = errors.New("chat is not a group chat")
	ErrNotEnoughUsers = errors.New("at least 2 members are required to form a group chat")
	ErrAlreadyMember  = errors.New("user is already a member of this chat")
	ErrNotAMember     = errors.New("user is not a member of this chat")
)

// ChatService resolves and mutates chats: private chat lookup/creation,
// group membership and the population of member/admin/latest-message
// references for responses.
type ChatService struct {
	chats    repositories.ChatRepository
	users    repositories.UserRepository
	messages repositories.MessageRepository
}

func NewChatService(chats repositories.ChatRepository, users repositories.UserRepository, messages repositories.MessageRepository) *ChatService {
	return &ChatService{chats: chats, users: users, messages: messages}
}

// AccessChat returns the private chat between the requester and the other
// user, creating it when absent. The lookup and the create are two separate
// store calls; concurrent first contacts can still race.
func (s *ChatService) AccessChat(ctx context.Context, requesterID primitive.ObjectID, otherID string) (*models.ChatResponse, error) {
	if otherID == "" {
		return nil, ErrMissingFields
	}
	other, err := primitive.ObjectIDFromHex(otherID)
	if err != nil {
		return nil, ErrInvalidID
	}

	chat, err := s.chats.FindPrivateChat(ctx, requesterID, other)
	if err == nil {
		return s.populateOne(ctx, chat)
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	chat = &models.Chat{
		ChatName:    models.DefaultPrivateChatName,
		IsGroupChat: false,
		Users:       []primitive.ObjectID{requesterID, other},
	}
	if err := s.chats.Create(ctx, chat); err != nil {
		return nil, err
	}
	return s.populateOne(ctx, chat)
}

func (s *ChatService) ListChats(ctx context.Context, userID primitive.ObjectID) ([]models.ChatResponse, error) {
	chats, err := s.chats.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, chats)
}

// ListGroups returns every group chat, including ones the caller is not a
// member of; backs the discover-groups view.
func (s *ChatService) ListGroups(ctx context.Context) ([]models.ChatResponse, error) {
	chats, err := s.chats.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, chats)
}

func (s *ChatService) CreateGroup(ctx context.Context, creatorID primitive.ObjectID, name string, userIDs []string) (*models.ChatResponse, error) {
	if name == "" || len(userIDs) == 0 {
		return nil, ErrMissingFields
	}
	members := make([]primitive.ObjectID, 0, len(userIDs)+1)
	for _, raw := range userIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return nil, ErrInvalidID
		}
		members = append(members, id)
	}
	members = append(members, creatorID)

	distinct := make(map[primitive.ObjectID]struct{}, len(members))
	for _, id := range members {
		distinct[id] = struct{}{}
	}
	if len(distinct) < 2 {
		return nil, ErrNotEnoughUsers
	}

	chat := &models.Chat{
		ChatName:    name,
		IsGroupChat: true,
		Users:       members,
		GroupAdmin:  creatorID,
	}
	if err := s.chats.Create(ctx, chat); err != nil {
		return nil, err
	}
	return s.populateOne(ctx, chat)
}

func (s *ChatService) RenameGroup(ctx context.Context, chatID, name string) (*models.ChatResponse, error) {
	if chatID == "" || name == "" {
		return nil, ErrMissingFields
	}
	id, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return nil, ErrInvalidID
	}
	chat, err := s.chats.Rename(ctx, id, name)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.populateOne(ctx, chat)
}

// AddToGroup appends without deduplication and RemoveFromGroup removes all
// occurrences, succeeding even when the member was absent. Both only fail
// when the chat id does not resolve.
func (s *ChatService) AddToGroup(ctx context.Context, chatID, userID string) (*models.ChatResponse, error) {
	id, uid, err := parseMemberIDs(chatID, userID)
	if err != nil {
		return nil, err
	}
	chat, err := s.chats.AddUser(ctx, id, uid)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.populateOne(ctx, chat)
}

func (s *ChatService) RemoveFromGroup(ctx context.Context, chatID, userID string) (*models.ChatResponse, error) {
	id, uid, err := parseMemberIDs(chatID, userID)
	if err != nil {
		return nil, err
	}
	chat, err := s.chats.RemoveUser(ctx, id, uid)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.populateOne(ctx, chat)
}

func parseMemberIDs(chatID, userID string) (primitive.ObjectID, primitive.ObjectID, error) {
	if chatID == "" || userID == "" {
		return primitive.NilObjectID, primitive.NilObjectID, ErrMissingFields
	}
	id, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, ErrInvalidID
	}
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, ErrInvalidID
	}
	return id, uid, nil
}

// JoinChat is the caller-initiated join. Membership is re-checked inside the
// store update, so two concurrent joins cannot both take effect.
func (s *ChatService) JoinChat(ctx context.Context, chatID string, callerID primitive.ObjectID) (*models.ChatResponse, error) {
	if chatID == "" {
		return nil, ErrMissingFields
	}
	id, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return nil, ErrInvalidID
	}
	chat, err := s.chats.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, err
	}
	if chat.HasMember(callerID) {
		return nil, ErrAlreadyMember
	}
	ok, err := s.chats.AddUserIfAbsent(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyMember
	}
	chat, err = s.chats.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.populateOne(ctx, chat)
}

func (s *ChatService) LeaveChat(ctx context.Context, chatID string, callerID primitive.ObjectID) (*models.ChatResponse, error) {
	if chatID == "" {
		return nil, ErrMissingFields
	}
	id, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return nil, ErrInvalidID
	}
	chat, err := s.chats.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, err
	}
	if !chat.HasMember(callerID) {
		return nil, ErrNotAMember
	}
	ok, err := s.chats.RemoveUserIfPresent(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotAMember
	}
	chat, err = s.chats.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.populateOne(ctx, chat)
}

// DeleteGroup removes the chat record only; messages referencing it are left
// in place.
func (s *ChatService) DeleteGroup(ctx context.Context, chatID string) error {
	id, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return ErrInvalidID
	}
	chat, err := s.chats.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrChatNotFound
	}
	if err != nil {
		return err
	}
	if !chat.IsGroupChat {
		return ErrNotAGroupChat
	}
	if err := s.chats.Delete(ctx, id); errors.Is(err, repositories.ErrNotFound) {
		return ErrChatNotFound
	} else if err != nil {
		return err
	}
	return nil
}

func (s *ChatService) populateOne(ctx context.Context, chat *models.Chat) (*models.ChatResponse, error) {
	out, err := s.populate(ctx, []models.Chat{*chat})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// populate resolves member profiles, group admins and latest messages (with
// their senders) for a batch of chats in three fetches.
func (s *ChatService) populate(ctx context.Context, chats []models.Chat) ([]models.ChatResponse, error) {
	userSet := make(map[primitive.ObjectID]struct{})
	var msgIDs []primitive.ObjectID
	for _, c := range chats {
		for _, u := range c.Users {
			userSet[u] = struct{}{}
		}
		if !c.GroupAdmin.IsZero() {
			userSet[c.GroupAdmin] = struct{}{}
		}
		if !c.LatestMessage.IsZero() {
			msgIDs = append(msgIDs, c.LatestMessage)
		}
	}

	msgs, err := s.messages.FindByIDs(ctx, msgIDs)
	if err != nil {
		return nil, err
	}
	msgByID := make(map[primitive.ObjectID]models.Message, len(msgs))
	for _, m := range msgs {
		msgByID[m.ID] = m
		userSet[m.Sender] = struct{}{}
	}

	userIDs := make([]primitive.ObjectID, 0, len(userSet))
	for id := range userSet {
		userIDs = append(userIDs, id)
	}
	users, err := s.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	userByID := make(map[primitive.ObjectID]models.UserSummary, len(users))
	for i := range users {
		userByID[users[i].ID] = users[i].Summary()
	}

	out := make([]models.ChatResponse, 0, len(chats))
	for _, c := range chats {
		resp := models.ChatResponse{
			ID:          c.ID,
			ChatName:    c.ChatName,
			IsGroupChat: c.IsGroupChat,
			CreatedAt:   c.CreatedAt,
			UpdatedAt:   c.UpdatedAt,
		}
		for _, u := range c.Users {
			if summary, ok := userByID[u]; ok {
				resp.Users = append(resp.Users, summary)
			}
		}
		if !c.GroupAdmin.IsZero() {
			if summary, ok := userByID[c.GroupAdmin]; ok {
				resp.GroupAdmin = &summary
			}
		}
		if m, ok := msgByID[c.LatestMessage]; ok {
			resp.LatestMessage = &models.LatestMessage{
				ID:        m.ID,
				Sender:    userByID[m.Sender],
				Content:   m.Content,
				FileURL:   m.FileURL,
				FileType:  m.FileType,
				CreatedAt: m.CreatedAt,
			}
		}
		out = append(out, resp)
	}
	return out, nil
}
