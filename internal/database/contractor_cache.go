package repository

import (
	"context"
	"errors"
	"time"

	"IzdatBot/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// cachedContractor wraps a sheet row with the time it was fetched.
type cachedContractor struct {
	Contractor entity.Contractor `bson:"contractor"`
	FetchedAt  time.Time         `bson:"fetched_at"`
}

// CacheContractor upserts a contractor snapshot keyed by sheet id.
func (m *MongoDB) CacheContractor(ctx context.Context, c *entity.Contractor) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(contractorsCollection)

	filter := bson.D{{Key: "contractor.id", Value: c.ID}}
	update := bson.D{{Key: "$set", Value: cachedContractor{
		Contractor: *c,
		FetchedAt:  time.Now(),
	}}}
	opts := options.Update().SetUpsert(true)

	_, err = collection.UpdateOne(ctx, filter, update, opts)
	return err
}

// CachedContractorByTelegram returns a snapshot no older than maxAge, or
// entity.ErrContractorNotFound when the cache cannot answer.
func (m *MongoDB) CachedContractorByTelegram(ctx context.Context, telegramID string, maxAge time.Duration) (*entity.Contractor, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(contractorsCollection)
	filter := bson.D{{Key: "contractor.telegram", Value: telegramID}}

	var cached cachedContractor
	err = collection.FindOne(ctx, filter).Decode(&cached)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entity.ErrContractorNotFound
		}
		return nil, err
	}
	if time.Since(cached.FetchedAt) > maxAge {
		return nil, entity.ErrContractorNotFound
	}

	return &cached.Contractor, nil
}

// DropCachedContractor invalidates a snapshot after a write-through.
func (m *MongoDB) DropCachedContractor(ctx context.Context, contractorID string) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(contractorsCollection)
	_, err = collection.DeleteOne(ctx, bson.D{{Key: "contractor.id", Value: contractorID}})
	return err
}
