package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"talkwave/internal/models"
)

// In-memory implementations of the repository interfaces. Used when no
// Mongo URI is configured and as fixtures by the test suite. Every method
// copies on the way out so callers never alias the stored documents.

type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]*models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[primitive.ObjectID]*models.User)}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *MemoryUserRepository) Search(_ context.Context, keyword string, exclude primitive.ObjectID) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kw := strings.ToLower(keyword)
	var out []models.User
	for _, u := range r.users {
		if u.ID == exclude {
			continue
		}
		if kw != "" &&
			!strings.Contains(strings.ToLower(u.Name), kw) &&
			!strings.Contains(strings.ToLower(u.Email), kw) {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type MemoryChatRepository struct {
	mu    sync.RWMutex
	chats map[primitive.ObjectID]*models.Chat
}

func NewMemoryChatRepository() *MemoryChatRepository {
	return &MemoryChatRepository{chats: make(map[primitive.ObjectID]*models.Chat)}
}

func copyChat(c *models.Chat) *models.Chat {
	cp := *c
	cp.Users = append([]primitive.ObjectID(nil), c.Users...)
	return &cp
}

func (r *MemoryChatRepository) Create(_ context.Context, chat *models.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if chat.ID.IsZero() {
		chat.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	chat.CreatedAt = now
	chat.UpdatedAt = now
	r.chats[chat.ID] = copyChat(chat)
	return nil
}

func (r *MemoryChatRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.chats[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyChat(c), nil
}

func (r *MemoryChatRepository) FindPrivateChat(_ context.Context, a, b primitive.ObjectID) (*models.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.chats {
		if !c.IsGroupChat && c.HasMember(a) && c.HasMember(b) {
			return copyChat(c), nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryChatRepository) ListForUser(_ context.Context, userID primitive.ObjectID) ([]models.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Chat
	for _, c := range r.chats {
		if c.HasMember(userID) {
			out = append(out, *copyChat(c))
		}
	}
	sortChatsByUpdated(out)
	return out, nil
}

func (r *MemoryChatRepository) ListGroups(_ context.Context) ([]models.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Chat
	for _, c := range r.chats {
		if c.IsGroupChat {
			out = append(out, *copyChat(c))
		}
	}
	sortChatsByUpdated(out)
	return out, nil
}

func sortChatsByUpdated(chats []models.Chat) {
	sort.Slice(chats, func(i, j int) bool {
		if !chats[i].UpdatedAt.Equal(chats[j].UpdatedAt) {
			return chats[i].UpdatedAt.After(chats[j].UpdatedAt)
		}
		return chats[i].ID.Hex() > chats[j].ID.Hex()
	})
}

func (r *MemoryChatRepository) Rename(_ context.Context, id primitive.ObjectID, name string) (*models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[id]
	if !ok {
		return nil, ErrNotFound
	}
	c.ChatName = name
	c.UpdatedAt = time.Now().UTC()
	return copyChat(c), nil
}

func (r *MemoryChatRepository) AddUser(_ context.Context, id, userID primitive.ObjectID) (*models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[id]
	if !ok {
		return nil, ErrNotFound
	}
	c.Users = append(c.Users, userID)
	c.UpdatedAt = time.Now().UTC()
	return copyChat(c), nil
}

func (r *MemoryChatRepository) RemoveUser(_ context.Context, id, userID primitive.ObjectID) (*models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[id]
	if !ok {
		return nil, ErrNotFound
	}
	c.Users = pullMember(c.Users, userID)
	c.UpdatedAt = time.Now().UTC()
	return copyChat(c), nil
}

func pullMember(users []primitive.ObjectID, userID primitive.ObjectID) []primitive.ObjectID {
	out := users[:0]
	for _, u := range users {
		if u != userID {
			out = append(out, u)
		}
	}
	return out
}

func (r *MemoryChatRepository) AddUserIfAbsent(_ context.Context, id, userID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[id]
	if !ok || c.HasMember(userID) {
		return false, nil
	}
	c.Users = append(c.Users, userID)
	c.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *MemoryChatRepository) RemoveUserIfPresent(_ context.Context, id, userID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[id]
	if !ok || !c.HasMember(userID) {
		return false, nil
	}
	c.Users = pullMember(c.Users, userID)
	c.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *MemoryChatRepository) SetLatestMessage(_ context.Context, id, messageID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[id]
	if !ok {
		return ErrNotFound
	}
	c.LatestMessage = messageID
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryChatRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.chats[id]; !ok {
		return ErrNotFound
	}
	delete(r.chats, id)
	return nil
}

type MemoryMessageRepository struct {
	mu       sync.RWMutex
	messages []models.Message
	byID     map[primitive.ObjectID]int
}

func NewMemoryMessageRepository() *MemoryMessageRepository {
	return &MemoryMessageRepository{byID: make(map[primitive.ObjectID]int)}
}

func (r *MemoryMessageRepository) Create(_ context.Context, msg *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	msg.CreatedAt = now
	msg.UpdatedAt = now
	r.byID[msg.ID] = len(r.messages)
	r.messages = append(r.messages, *msg)
	return nil
}

func (r *MemoryMessageRepository) ListByChat(_ context.Context, chatID primitive.ObjectID) ([]models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Message
	for _, m := range r.messages {
		if m.Chat == chatID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *MemoryMessageRepository) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Message
	for _, id := range ids {
		if i, ok := r.byID[id]; ok {
			out = append(out, r.messages[i])
		}
	}
	return out, nil
}
