package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"talkwave/internal/models"
)

type mongoChatRepository struct {
	coll *mongo.Collection
}

func NewChatRepository(db *mongo.Database) ChatRepository {
	return &mongoChatRepository{coll: db.Collection(chatsCollection)}
}

func (r *mongoChatRepository) Create(ctx context.Context, chat *models.Chat) error {
	now := time.Now().UTC()
	chat.CreatedAt = now
	chat.UpdatedAt = now
	res, err := r.coll.InsertOne(ctx, chat)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		chat.ID = oid
	}
	return nil
}

func (r *mongoChatRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error) {
	var chat models.Chat
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&chat)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// FindPrivateChat: non-group chats hold exactly two members, so matching
// both ids is equivalent to matching the member set.
func (r *mongoChatRepository) FindPrivateChat(ctx context.Context, a, b primitive.ObjectID) (*models.Chat, error) {
	filter := bson.M{
		"isGroupChat": false,
		"users":       bson.M{"$all": bson.A{a, b}},
	}
	var chat models.Chat
	err := r.coll.FindOne(ctx, filter).Decode(&chat)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *mongoChatRepository) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Chat, error) {
	return r.list(ctx, bson.M{"users": userID})
}

func (r *mongoChatRepository) ListGroups(ctx context.Context) ([]models.Chat, error) {
	return r.list(ctx, bson.M{"isGroupChat": true})
}

func (r *mongoChatRepository) list(ctx context.Context, filter bson.M) ([]models.Chat, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var chats []models.Chat
	if err := cur.All(ctx, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

func (r *mongoChatRepository) Rename(ctx context.Context, id primitive.ObjectID, name string) (*models.Chat, error) {
	update := bson.M{"$set": bson.M{"chatName": name, "updatedAt": time.Now().UTC()}}
	return r.findAndUpdate(ctx, bson.M{"_id": id}, update)
}

func (r *mongoChatRepository) AddUser(ctx context.Context, id, userID primitive.ObjectID) (*models.Chat, error) {
	update := bson.M{
		"$push": bson.M{"users": userID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	return r.findAndUpdate(ctx, bson.M{"_id": id}, update)
}

func (r *mongoChatRepository) RemoveUser(ctx context.Context, id, userID primitive.ObjectID) (*models.Chat, error) {
	update := bson.M{
		"$pull": bson.M{"users": userID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	return r.findAndUpdate(ctx, bson.M{"_id": id}, update)
}

func (r *mongoChatRepository) findAndUpdate(ctx context.Context, filter, update bson.M) (*models.Chat, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var chat models.Chat
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&chat)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// AddUserIfAbsent guards the membership array in the update filter itself,
// so two concurrent joins cannot both succeed.
func (r *mongoChatRepository) AddUserIfAbsent(ctx context.Context, id, userID primitive.ObjectID) (bool, error) {
	filter := bson.M{"_id": id, "users": bson.M{"$ne": userID}}
	update := bson.M{
		"$push": bson.M{"users": userID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (r *mongoChatRepository) RemoveUserIfPresent(ctx context.Context, id, userID primitive.ObjectID) (bool, error) {
	filter := bson.M{"_id": id, "users": userID}
	update := bson.M{
		"$pull": bson.M{"users": userID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (r *mongoChatRepository) SetLatestMessage(ctx context.Context, id, messageID primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{"latestMessage": messageID, "updatedAt": time.Now().UTC()}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoChatRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
