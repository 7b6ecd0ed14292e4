package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"talkwave/internal/models"
)

type mongoMessageRepository struct {
	coll *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) MessageRepository {
	return &mongoMessageRepository{coll: db.Collection(messagesCollection)}
}

func (r *mongoMessageRepository) Create(ctx context.Context, msg *models.Message) error {
	now := time.Now().UTC()
	msg.CreatedAt = now
	msg.UpdatedAt = now
	res, err := r.coll.InsertOne(ctx, msg)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		msg.ID = oid
	}
	return nil
}

func (r *mongoMessageRepository) ListByChat(ctx context.Context, chatID primitive.ObjectID) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{"chat": chatID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var messages []models.Message
	if err := cur.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *mongoMessageRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Message, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var messages []models.Message
	if err := cur.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}
