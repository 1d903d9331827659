package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/peckin/peckin/backend/go-services/internal/profiles"
	"github.com/segmentio/ksuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo stores each named collection in the Mongo collection of the same
// name. The record body is kept under "data" so owner metadata never mixes
// with client fields.
type MongoRepo struct {
	db *mongo.Database
}

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{db: db}
}

type mongoRecord struct {
	ID        string    `bson:"_id"`
	OwnerID   string    `bson:"ownerId"`
	Data      bson.Raw  `bson:"data"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// decodeData turns the stored BSON body back into plain JSON values.
func decodeData(raw bson.Raw) (map[string]interface{}, error) {
	if len(raw) == 0 {
		return map[string]interface{}{}, nil
	}
	b, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return nil, err
	}
	out := map[string]interface{}{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *MongoRepo) Get(ctx context.Context, collection, id string) (*profiles.Record, error) {
	var mr mongoRecord
	err := m.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&mr)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	data, err := decodeData(mr.Data)
	if err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return &profiles.Record{
		Collection: collection,
		ID:         mr.ID,
		OwnerID:    mr.OwnerID,
		Data:       data,
		CreatedAt:  mr.CreatedAt,
		UpdatedAt:  mr.UpdatedAt,
	}, nil
}

func (m *MongoRepo) Create(ctx context.Context, rec *profiles.Record) (string, error) {
	rec.ID = ksuid.New().String()
	if err := m.Put(ctx, rec); err != nil {
		return "", err
	}
	return rec.ID, nil
}

// Put replaces the record body at (collection, id), creating it if needed.
func (m *MongoRepo) Put(ctx context.Context, rec *profiles.Record) error {
	body, err := bson.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", rec.Collection, rec.ID, err)
	}
	now := time.Now().UTC()
	upd := bson.M{
		"$set": bson.M{
			"ownerId":   rec.OwnerID,
			"data":      bson.Raw(body),
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	_, err = m.db.Collection(rec.Collection).UpdateOne(ctx, bson.M{"_id": rec.ID}, upd, options.Update().SetUpsert(true))
	if err != nil {
		return err
	}
	rec.UpdatedAt = now
	return nil
}
