package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/civicbeacon/reputation-system/internal/core/domain"
	"github.com/civicbeacon/reputation-system/internal/core/ports"
)

const collectionAuditEvents = "audit_events"

// AuditRepository implements the append-only audit trail. The collection only
// ever sees inserts; there is no update or delete path.
type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) ports.AuditSink {
	return &AuditRepository{col: db.Collection(collectionAuditEvents)}
}

// Insert appends one immutable audit event.
func (r *AuditRepository) Insert(ctx context.Context, ev *domain.AuditEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, ev)
	return err
}
