package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/civicbeacon/reputation-system/internal/core/domain"
)

const collectionVotes = "votes"

// VoteRepository persists votes with a single live record per
// (citizen_id, entity_id) pair, enforced by a unique compound index.
type VoteRepository struct {
	col *mongo.Collection
}

func NewVoteRepository(db *mongo.Database) *VoteRepository {
	return &VoteRepository{col: db.Collection(collectionVotes)}
}

// Upsert atomically replaces the vote for its key, inserting when absent.
// The conditional write on the unique index guarantees no duplicate or
// partial state under concurrent submissions; last writer wins.
func (r *VoteRepository) Upsert(ctx context.Context, v *domain.Vote) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"citizen_id": v.CitizenID, "entity_id": v.EntityID}
	res, err := r.col.ReplaceOne(ctx, filter, v, options.Replace().SetUpsert(true))
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// FindByCitizenEntity returns the live vote for the pair, including
// shadow-filtered votes.
func (r *VoteRepository) FindByCitizenEntity(ctx context.Context, citizenID, entityID string) (*domain.Vote, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var v domain.Vote
	err := r.col.FindOne(ctx, bson.M{"citizen_id": citizenID, "entity_id": entityID}).Decode(&v)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrVoteNotFound
		}
		return nil, err
	}
	return &v, nil
}

// ListByEntity returns the votes on an entity, optionally restricted to
// counted ones.
func (r *VoteRepository) ListByEntity(ctx context.Context, entityID string, countedOnly bool) ([]*domain.Vote, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"entity_id": entityID}
	if countedOnly {
		filter["is_counted"] = true
	}

	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var votes []*domain.Vote
	if err := cur.All(ctx, &votes); err != nil {
		return nil, err
	}
	return votes, nil
}

// EnsureIndexes creates the unique key index backing the upsert invariant.
func (r *VoteRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "citizen_id", Value: 1}, {Key: "entity_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "entity_id", Value: 1}, {Key: "is_counted", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
