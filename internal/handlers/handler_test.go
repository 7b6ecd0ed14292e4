package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"talkwave/internal/handlers"
	"talkwave/internal/models"
	"talkwave/internal/realtime"
	"talkwave/internal/repositories"
	"talkwave/internal/routes"
	"talkwave/internal/services"
)

type testAPI struct {
	router *gin.Engine
	users  *repositories.MemoryUserRepository
	chats  *repositories.MemoryChatRepository
	auth   *services.AuthService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := repositories.NewMemoryUserRepository()
	chats := repositories.NewMemoryChatRepository()
	messages := repositories.NewMemoryMessageRepository()

	authService := services.NewAuthService("test-secret", time.Hour)
	userService := services.NewUserService(users, services.NewNoopEmailService())
	chatService := services.NewChatService(chats, users, messages)
	messageService := services.NewMessageService(messages, chats, users)

	router := routes.SetupRoutes(
		gin.New(),
		handlers.NewUserHandler(userService, authService),
		handlers.NewChatHandler(chatService),
		handlers.NewMessageHandler(messageService),
		realtime.NewHub(),
		authService,
		userService,
	)
	return &testAPI{router: router, users: users, chats: chats, auth: authService}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// seedUser creates a user straight in the store so the fixture can mint
// admins, then issues a token for it.
func (a *testAPI) seedUser(t *testing.T, name string, admin bool) (*models.User, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := &models.User{
		Name:     name,
		Email:    name + "@example.com",
		Password: string(hash),
		Pic:      models.DefaultAvatarURL,
		IsAdmin:  admin,
	}
	if err := a.users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	token, err := a.auth.GenerateToken(user.ID.Hex())
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return user, token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestAuthRequired(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/chat", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", w.Code)
	}
	var body map[string]string
	decode(t, w, &body)
	if body["error"] != "Not authorized, no token provided!" {
		t.Errorf("no token error = %q", body["error"])
	}

	w = api.do(t, http.MethodGet, "/chat", "garbage", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", w.Code)
	}
	decode(t, w, &body)
	if body["error"] != "Not authorized, token failed!" {
		t.Errorf("bad token error = %q", body["error"])
	}
}

func TestSignupAndLoginFlow(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/user/signup", "", gin.H{
		"name": "alice", "email": "alice@example.com", "password": "s3cret",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body %s", w.Code, w.Body.String())
	}
	var signup struct {
		Token string         `json:"token"`
		User  map[string]any `json:"user"`
	}
	decode(t, w, &signup)
	if signup.Token == "" {
		t.Errorf("signup returned no token")
	}
	if _, leaked := signup.User["password"]; leaked {
		t.Errorf("password field in signup response")
	}

	w = api.do(t, http.MethodPost, "/user/signup", "", gin.H{
		"name": "alice2", "email": "alice@example.com", "password": "x",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("duplicate signup status = %d, want 400", w.Code)
	}

	w = api.do(t, http.MethodPost, "/user/login", "", gin.H{"email": "alice@example.com", "password": "s3cret"})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d", w.Code)
	}
	w = api.do(t, http.MethodPost, "/user/login", "", gin.H{"email": "alice@example.com", "password": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want 401", w.Code)
	}
	w = api.do(t, http.MethodPost, "/user/login", "", gin.H{"email": "nobody@example.com", "password": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown email status = %d, want 404", w.Code)
	}

	w = api.do(t, http.MethodGet, "/user/me", signup.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me status = %d", w.Code)
	}
	var me map[string]any
	decode(t, w, &me)
	if me["email"] != "alice@example.com" || me["isAdmin"] != false {
		t.Errorf("me = %v", me)
	}
}

func TestAdminGatingOnGroupMutations(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.seedUser(t, "root", true)
	member, memberToken := api.seedUser(t, "bob", false)
	other, _ := api.seedUser(t, "carol", false)

	w := api.do(t, http.MethodPost, "/chat/group", memberToken, gin.H{
		"name":  "plans",
		"users": fmt.Sprintf(`["%s"]`, other.ID.Hex()),
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-admin create group status = %d, want 403", w.Code)
	}
	var body map[string]string
	decode(t, w, &body)
	if body["error"] != "Admin privileges required." {
		t.Errorf("forbidden error = %q", body["error"])
	}

	w = api.do(t, http.MethodPost, "/chat/group", adminToken, gin.H{
		"name":  "plans",
		"users": fmt.Sprintf(`["%s","%s"]`, member.ID.Hex(), other.ID.Hex()),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("admin create group status = %d, body %s", w.Code, w.Body.String())
	}
	var group models.ChatResponse
	decode(t, w, &group)
	if !group.IsGroupChat || len(group.Users) != 3 {
		t.Fatalf("group = %+v", group)
	}

	w = api.do(t, http.MethodPut, "/chat/rename", memberToken, gin.H{
		"chatId": group.ID, "chatName": "weekend plans",
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("non-admin rename status = %d, want 403", w.Code)
	}

	w = api.do(t, http.MethodPut, "/chat/rename", adminToken, gin.H{
		"chatId": group.ID, "chatName": "weekend plans",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("rename status = %d, body %s", w.Code, w.Body.String())
	}
	decode(t, w, &group)
	if group.ChatName != "weekend plans" {
		t.Errorf("chatName = %q", group.ChatName)
	}
}

func TestSelfJoinAndDelete(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.seedUser(t, "root", true)
	member, _ := api.seedUser(t, "bob", false)
	_, joinerToken := api.seedUser(t, "carol", false)

	w := api.do(t, http.MethodPost, "/chat/group", adminToken, gin.H{
		"name":  "open room",
		"users": fmt.Sprintf(`["%s"]`, member.ID.Hex()),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create group status = %d, body %s", w.Code, w.Body.String())
	}
	var group models.ChatResponse
	decode(t, w, &group)

	w = api.do(t, http.MethodPut, "/chat/addself", joinerToken, gin.H{"chatId": group.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("join status = %d, body %s", w.Code, w.Body.String())
	}
	w = api.do(t, http.MethodPut, "/chat/addself", joinerToken, gin.H{"chatId": group.ID})
	if w.Code != http.StatusBadRequest {
		t.Errorf("double join status = %d, want 400", w.Code)
	}
	w = api.do(t, http.MethodPut, "/chat/removeSelf", joinerToken, gin.H{"chatId": group.ID})
	if w.Code != http.StatusOK {
		t.Errorf("leave status = %d", w.Code)
	}

	w = api.do(t, http.MethodDelete, "/chat/group/ffffffffffffffffffffffff", adminToken, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("delete missing group status = %d, want 404", w.Code)
	}

	// A private chat cannot be deleted through the group endpoint.
	w = api.do(t, http.MethodPost, "/chat", adminToken, gin.H{"userId": member.ID.Hex()})
	if w.Code != http.StatusOK {
		t.Fatalf("access chat status = %d, body %s", w.Code, w.Body.String())
	}
	var private models.ChatResponse
	decode(t, w, &private)
	w = api.do(t, http.MethodDelete, "/chat/group/"+private.ID.Hex(), adminToken, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("delete private chat status = %d, want 400", w.Code)
	}

	w = api.do(t, http.MethodDelete, "/chat/group/"+group.ID.Hex(), adminToken, nil)
	if w.Code != http.StatusOK {
		t.Errorf("delete group status = %d", w.Code)
	}
}

func TestSendAndListMessages(t *testing.T) {
	api := newTestAPI(t)
	_, aliceToken := api.seedUser(t, "alice", false)
	bob, bobToken := api.seedUser(t, "bob", false)

	w := api.do(t, http.MethodPost, "/chat", aliceToken, gin.H{"userId": bob.ID.Hex()})
	if w.Code != http.StatusOK {
		t.Fatalf("access chat status = %d, body %s", w.Code, w.Body.String())
	}
	var chat models.ChatResponse
	decode(t, w, &chat)

	w = api.do(t, http.MethodPost, "/messages/send", aliceToken, gin.H{
		"content": "hello", "chatId": chat.ID,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("send status = %d, body %s", w.Code, w.Body.String())
	}
	var sent models.MessageResponse
	decode(t, w, &sent)
	if sent.Content != "hello" || sent.Sender.Name != "alice" {
		t.Errorf("sent = %+v", sent)
	}

	w = api.do(t, http.MethodPost, "/messages/send", aliceToken, gin.H{"chatId": chat.ID})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty send status = %d, want 400", w.Code)
	}

	w = api.do(t, http.MethodGet, "/messages/all/"+chat.ID.Hex(), bobToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var history []models.MessageResponse
	decode(t, w, &history)
	if len(history) != 1 || history[0].Content != "hello" {
		t.Errorf("history = %+v", history)
	}
}
