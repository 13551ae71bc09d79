package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/civicbeacon/reputation-system/internal/core/domain"
)

const collectionEntities = "entities"

// EntityRepository persists the evaluated public entities.
type EntityRepository struct {
	col *mongo.Collection
}

func NewEntityRepository(db *mongo.Database) *EntityRepository {
	return &EntityRepository{col: db.Collection(collectionEntities)}
}

func (r *EntityRepository) FindByID(ctx context.Context, id string) (*domain.Entity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var e domain.Entity
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&e)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrEntityNotFound
		}
		return nil, err
	}
	return &e, nil
}

// ListByType returns all active entities of one type.
func (r *EntityRepository) ListByType(ctx context.Context, t domain.EntityType) ([]*domain.Entity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"type": string(t), "is_active": true})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var entities []*domain.Entity
	if err := cur.All(ctx, &entities); err != nil {
		return nil, err
	}
	return entities, nil
}

// UpdateReputation writes the recomputed aggregate snapshot for an entity.
func (r *EntityRepository) UpdateReputation(ctx context.Context, entityID string, score float64, totalReviews int) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"reputation_score": score,
		"total_reviews":    totalReviews,
		"updated_at":       time.Now().UTC(),
	}}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": entityID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrEntityNotFound
	}
	return nil
}

// EnsureIndexes creates the listing index.
func (r *EntityRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "is_active", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
