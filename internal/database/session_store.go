package repository

import (
	"context"
	"errors"
	"time"

	"IzdatBot/bot/flow"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SessionStore implements flow.Store on MongoDB. Optimistic concurrency is
// enforced by filtering on the version a writer observed: creates insert
// against a unique user_id index, updates match {user_id, version}.
type SessionStore struct {
	db *MongoDB
}

// NewSessionStore wraps the shared client. EnsureSessionIndexes must have
// been called once at startup.
func NewSessionStore(db *MongoDB) *SessionStore {
	return &SessionStore{db: db}
}

// EnsureSessionIndexes creates the unique user_id index creates rely on.
func (m *MongoDB) EnsureSessionIndexes(ctx context.Context) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(sessionsCollection)
	_, err = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *SessionStore) Get(ctx context.Context, userID string) (*flow.Session, error) {
	connection, err := s.db.connect()
	if err != nil {
		return nil, err
	}
	defer s.db.disconnect(connection)

	collection := connection.Database(s.db.database).Collection(sessionsCollection)
	filter := bson.D{{Key: "user_id", Value: userID}}

	var sess flow.Session
	err = collection.FindOne(ctx, filter).Decode(&sess)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, flow.ErrSessionNotFound
		}
		return nil, err
	}

	return &sess, nil
}

func (s *SessionStore) Put(ctx context.Context, sess *flow.Session, expectedVersion int64) error {
	connection, err := s.db.connect()
	if err != nil {
		return err
	}
	defer s.db.disconnect(connection)

	collection := connection.Database(s.db.database).Collection(sessionsCollection)

	if sess.UpdatedAt.IsZero() {
		sess.UpdatedAt = time.Now()
	}

	if expectedVersion == 0 {
		_, err = collection.InsertOne(ctx, sess)
		if mongo.IsDuplicateKeyError(err) {
			return flow.ErrVersionConflict
		}
		return err
	}

	filter := bson.D{
		{Key: "user_id", Value: sess.UserID},
		{Key: "version", Value: expectedVersion},
	}
	update := bson.D{{Key: "$set", Value: sess}}

	res, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return flow.ErrVersionConflict
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, userID string) error {
	connection, err := s.db.connect()
	if err != nil {
		return err
	}
	defer s.db.disconnect(connection)

	collection := connection.Database(s.db.database).Collection(sessionsCollection)
	filter := bson.D{{Key: "user_id", Value: userID}}

	_, err = collection.DeleteOne(ctx, filter)
	return err
}

// ExpireOlderThan deletes sessions idle past the cutoff. The updated_at
// filter doubles as the concurrency guard: a session touched by a dispatch
// after the sweep computed its cutoff no longer matches.
func (s *SessionStore) ExpireOlderThan(ctx context.Context, age time.Duration) (int, error) {
	connection, err := s.db.connect()
	if err != nil {
		return 0, err
	}
	defer s.db.disconnect(connection)

	collection := connection.Database(s.db.database).Collection(sessionsCollection)
	cutoff := time.Now().Add(-age)
	filter := bson.D{{Key: "updated_at", Value: bson.D{{Key: "$lt", Value: cutoff}}}}

	res, err := collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int(res.DeletedCount), nil
}
