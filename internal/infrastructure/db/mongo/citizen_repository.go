package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/civicbeacon/reputation-system/internal/core/domain"
)

const collectionCitizens = "citizens"

// CitizenRepository persists citizen records. Citizens are never hard-deleted;
// deactivation flips is_active.
type CitizenRepository struct {
	col *mongo.Collection
}

func NewCitizenRepository(db *mongo.Database) *CitizenRepository {
	return &CitizenRepository{col: db.Collection(collectionCitizens)}
}

// Create inserts a new citizen document and returns it with the generated ID.
func (r *CitizenRepository) Create(ctx context.Context, c *domain.Citizen) (*domain.Citizen, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if c.ID == "" {
		c.ID = primitive.NewObjectID().Hex()
	}

	if _, err := r.col.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrCitizenExists
		}
		return nil, err
	}
	return c, nil
}

func (r *CitizenRepository) FindByID(ctx context.Context, id string) (*domain.Citizen, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *CitizenRepository) FindByUsername(ctx context.Context, username string) (*domain.Citizen, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *CitizenRepository) FindByCredentialHash(ctx context.Context, hash string) (*domain.Citizen, error) {
	return r.findOne(ctx, bson.M{"credential_hash": hash})
}

// Update overwrites the citizen document.
func (r *CitizenRepository) Update(ctx context.Context, c *domain.Citizen) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrCitizenNotFound
	}
	return nil
}

// ListActive returns all citizens that have not been soft-deleted.
func (r *CitizenRepository) ListActive(ctx context.Context) ([]*domain.Citizen, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"is_active": true})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var citizens []*domain.Citizen
	if err := cur.All(ctx, &citizens); err != nil {
		return nil, err
	}
	return citizens, nil
}

func (r *CitizenRepository) findOne(ctx context.Context, filter bson.M) (*domain.Citizen, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var c domain.Citizen
	err := r.col.FindOne(ctx, filter).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCitizenNotFound
		}
		return nil, err
	}
	return &c, nil
}

// EnsureIndexes creates the uniqueness indexes for account and credential
// lookups. The credential hash is sparse: most citizens have none.
func (r *CitizenRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "credential_hash", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
