package ports

import (
	"context"

	"github.com/civicbeacon/reputation-system/internal/core/domain"
)

// VoteRepository defines persistence operations for votes. The backing store
// must guarantee at most one live vote per (citizen_id, entity_id) pair.
type VoteRepository interface {
	// Upsert atomically inserts or fully overwrites the vote for its
	// (citizen_id, entity_id) key. It reports whether a prior vote existed.
	Upsert(ctx context.Context, v *domain.Vote) (wasUpdated bool, err error)
	// FindByCitizenEntity retrieves the live vote for the pair, including
	// shadow-filtered votes (the author always sees their own vote).
	FindByCitizenEntity(ctx context.Context, citizenID, entityID string) (*domain.Vote, error)
	// ListByEntity returns the votes on an entity. When countedOnly is true,
	// shadow-filtered votes are excluded; this is the only view the ranking
	// recomputation may read.
	ListByEntity(ctx context.Context, entityID string, countedOnly bool) ([]*domain.Vote, error)
}

// CitizenRepository defines persistence operations for citizens.
type CitizenRepository interface {
	Create(ctx context.Context, c *domain.Citizen) (*domain.Citizen, error)
	FindByID(ctx context.Context, id string) (*domain.Citizen, error)
	FindByUsername(ctx context.Context, username string) (*domain.Citizen, error)
	// FindByCredentialHash looks up a citizen by verified-credential hash,
	// used to reject duplicate identities.
	FindByCredentialHash(ctx context.Context, hash string) (*domain.Citizen, error)
	Update(ctx context.Context, c *domain.Citizen) error
	// ListActive returns all active citizens (soft-deleted ones excluded).
	ListActive(ctx context.Context) ([]*domain.Citizen, error)
}

// EntityRepository defines persistence operations for evaluated entities.
type EntityRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Entity, error)
	ListByType(ctx context.Context, t domain.EntityType) ([]*domain.Entity, error)
	// UpdateReputation writes the recomputed aggregate for an entity. Only the
	// ranking recomputation pass calls this.
	UpdateReputation(ctx context.Context, entityID string, score float64, totalReviews int) error
}

// AuditSink is the append-only audit trail. Implementations support insert
// only; callers must treat write failures as non-fatal.
type AuditSink interface {
	Insert(ctx context.Context, ev *domain.AuditEvent) error
}
