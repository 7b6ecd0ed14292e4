package services

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"talkwave/internal/models"
	"talkwave/internal/repositories"
)

type messageFixture struct {
	*chatFixture
	svc *MessageService
}

func newMessageFixture(t *testing.T) *messageFixture {
	t.Helper()
	cf := newChatFixture(t)
	return &messageFixture{
		chatFixture: cf,
		svc:         NewMessageService(cf.messages, cf.chats, cf.users),
	}
}

func TestSendResolvesAndMovesLatestPointer(t *testing.T) {
	f := newMessageFixture(t)
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")
	ctx := context.Background()

	chat, err := f.chatFixture.svc.AccessChat(ctx, alice.ID, bob.ID.Hex())
	if err != nil {
		t.Fatalf("access chat: %v", err)
	}

	sent, err := f.svc.Send(ctx, alice.ID, models.SendMessageRequest{Content: "hello", ChatID: chat.ID.Hex()})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if sent.Content != "hello" {
		t.Errorf("content = %q", sent.Content)
	}
	if sent.Sender.Name != "alice" {
		t.Errorf("sender not resolved: %+v", sent.Sender)
	}
	if len(sent.Chat.Users) != 2 {
		t.Errorf("chat members not populated: %d", len(sent.Chat.Users))
	}

	msgs, err := f.svc.List(ctx, chat.ID.Hex())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "hello" {
		t.Fatalf("listed messages = %+v", msgs)
	}
	if msgs[0].Sender.Name != "alice" {
		t.Errorf("listed sender not resolved")
	}

	stored, err := f.chats.FindByID(ctx, chat.ID)
	if err != nil {
		t.Fatalf("reload chat: %v", err)
	}
	if stored.LatestMessage != sent.ID {
		t.Errorf("latest-message pointer = %s, want %s", stored.LatestMessage.Hex(), sent.ID.Hex())
	}

	// The latest message surfaces, sender resolved, in the chat list.
	chats, err := f.chatFixture.svc.ListChats(ctx, bob.ID)
	if err != nil {
		t.Fatalf("list chats: %v", err)
	}
	if len(chats) != 1 || chats[0].LatestMessage == nil {
		t.Fatalf("latest message not populated in chat list")
	}
	if chats[0].LatestMessage.Sender.Name != "alice" {
		t.Errorf("latest message sender not resolved")
	}
}

func TestSendValidation(t *testing.T) {
	f := newMessageFixture(t)
	alice := f.addUser(t, "alice")
	ctx := context.Background()

	if _, err := f.svc.Send(ctx, alice.ID, models.SendMessageRequest{ChatID: primitive.NewObjectID().Hex()}); !errors.Is(err, ErrContentRequired) {
		t.Errorf("empty message: got %v, want ErrContentRequired", err)
	}
	if _, err := f.svc.Send(ctx, alice.ID, models.SendMessageRequest{Content: "hi", ChatID: "nope"}); !errors.Is(err, ErrInvalidID) {
		t.Errorf("malformed chat id: got %v, want ErrInvalidID", err)
	}
	if _, err := f.svc.List(ctx, "nope"); !errors.Is(err, ErrInvalidID) {
		t.Errorf("malformed chat id on list: got %v, want ErrInvalidID", err)
	}
}

func TestSendAttachmentOnly(t *testing.T) {
	f := newMessageFixture(t)
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")
	ctx := context.Background()

	chat, err := f.chatFixture.svc.AccessChat(ctx, alice.ID, bob.ID.Hex())
	if err != nil {
		t.Fatalf("access chat: %v", err)
	}

	sent, err := f.svc.Send(ctx, alice.ID, models.SendMessageRequest{
		ChatID:   chat.ID.Hex(),
		FileURL:  "/uploads/pic.png",
		FileType: "image/png",
	})
	if err != nil {
		t.Fatalf("send attachment: %v", err)
	}
	if sent.FileURL != "/uploads/pic.png" || sent.FileType != "image/png" {
		t.Errorf("attachment fields lost: %+v", sent)
	}
}

// Posting into an id that resolves to no chat is accepted; only the
// latest-message update is skipped.
func TestSendIntoUnknownChatID(t *testing.T) {
	f := newMessageFixture(t)
	alice := f.addUser(t, "alice")
	ctx := context.Background()

	ghost := primitive.NewObjectID()
	sent, err := f.svc.Send(ctx, alice.ID, models.SendMessageRequest{Content: "into the void", ChatID: ghost.Hex()})
	if err != nil {
		t.Fatalf("send into unknown chat: %v", err)
	}
	if sent.Sender.Name != "alice" {
		t.Errorf("sender not resolved")
	}

	msgs, err := f.svc.List(ctx, ghost.Hex())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 1 {
		t.Errorf("message not stored: %d", len(msgs))
	}

	if _, err := f.chats.FindByID(ctx, ghost); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("chat materialized unexpectedly")
	}
}
