package session

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"avm_wallet/internal/model"
)

type (
	SessionRepo struct {
		collection *mongo.Collection
	}
)

func NewSessionRepo(db *mongo.Database) *SessionRepo {
	return &SessionRepo{
		collection: db.Collection("sessions"),
	}
}

// liveFilter excludes expired sessions; an expired session is treated as
// absent, never silently returned.
func liveFilter(now time.Time) bson.M {
	return bson.M{
		"$or": bson.A{
			bson.M{"expiresAt": bson.M{"$exists": false}},
			bson.M{"expiresAt": nil},
			bson.M{"expiresAt": bson.M{"$gt": now}},
		},
	}
}

func (r *SessionRepo) FindByHostAndNetwork(ctx context.Context, host, genesisHash string) (*model.Session, error) {
	filter := bson.M{
		"host":        host,
		"genesisHash": genesisHash,
		"$and":        bson.A{liveFilter(time.Now())},
	}

	var session model.Session
	err := r.collection.FindOne(ctx, filter).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &session, nil
}

func (r *SessionRepo) ListByHost(ctx context.Context, host string) ([]*model.Session, error) {
	filter := bson.M{
		"host": host,
		"$and": bson.A{liveFilter(time.Now())},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []*model.Session
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}

	return sessions, nil
}

// Upsert replaces any existing grant for the same (host, genesisHash);
// re-authorizing never appends to the old address set.
func (r *SessionRepo) Upsert(ctx context.Context, session *model.Session) error {
	filter := bson.M{
		"host":        session.Host,
		"genesisHash": session.GenesisHash,
	}

	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, filter, session, opts)
	return err
}

func (r *SessionRepo) Remove(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// RemoveByHostAndNetwork removes every session of host, narrowed to one
// network when genesisHash is non-empty. Returns the removed session ids.
func (r *SessionRepo) RemoveByHostAndNetwork(ctx context.Context, host, genesisHash string) ([]string, error) {
	filter := bson.M{"host": host}
	if genesisHash != "" {
		filter["genesisHash"] = genesisHash
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []*model.Session
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(sessions))
	for _, session := range sessions {
		ids = append(ids, session.ID)
	}

	if _, err := r.collection.DeleteMany(ctx, filter); err != nil {
		return nil, err
	}

	return ids, nil
}
