package credstore

import (
	"context"
	"errors"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoDatabase   = "tonebot"
	mongoCollection = "auth"
	mongoDocumentID = "credentials"
)

type credentialDocument struct {
	ID   string `bson:"_id"`
	Blob []byte `bson:"blob"`
}

// MongoStore keeps the whole credential blob in one document,
// upserted on every refresh.
type MongoStore struct {
	collection *mongo.Collection
	log        *slog.Logger
}

func NewMongoStore(client *mongo.Client, log *slog.Logger) *MongoStore {
	return &MongoStore{
		collection: client.Database(mongoDatabase).Collection(mongoCollection),
		log:        log,
	}
}

func (s *MongoStore) Load(ctx context.Context) ([]byte, error) {
	var doc credentialDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": mongoDocumentID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		s.log.Info("No stored credentials in mongo, a fresh pairing will be required")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.Blob, nil
}

func (s *MongoStore) Save(ctx context.Context, blob []byte) error {
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": mongoDocumentID},
		bson.M{"$set": bson.M{"blob": blob}},
		options.Update().SetUpsert(true),
	)
	return err
}
