package membership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoChecker looks participants up in the chats collection written by the REST API.
// A chat document stores its members as ObjectIDs in "participants".
type MongoChecker struct {
	client     *mongo.Client
	collection *mongo.Collection
	timeout    time.Duration
	logger     *slog.Logger
}

type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// NewMongoChecker connects lazily; the first query surfaces an unreachable server.
func NewMongoChecker(ctx context.Context, logger *slog.Logger, cfg MongoConfig) (*MongoChecker, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo uri must not be empty")
	}
	if cfg.Collection == "" {
		cfg.Collection = "chats"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	return &MongoChecker{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		timeout:    cfg.Timeout,
		logger:     logger.With(slog.String("component", "membership_mongo")),
	}, nil
}

var _ Checker = (*MongoChecker)(nil)

func (m *MongoChecker) IsParticipant(ctx context.Context, chatID, userID string) (bool, error) {
	chatOID, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		m.logger.Debug("Chat id is not an ObjectID", slog.String("chatID", chatID))
		return false, nil
	}
	userOID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		m.logger.Debug("User id is not an ObjectID", slog.String("userID", userID))
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	filter := bson.M{
		"_id":          chatOID,
		"participants": bson.M{"$in": bson.A{userOID}},
	}
	count, err := m.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("participant lookup for chat '%s': %w", chatID, err)
	}
	return count > 0, nil
}

// Close disconnects the underlying client.
func (m *MongoChecker) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
