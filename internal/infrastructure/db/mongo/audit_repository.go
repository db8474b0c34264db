package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dicegame/dice-api/internal/core/domain"
)

const collectionAudit = "audit_events"

// AuditRepository appends audit events to the audit_events collection.
type AuditRepository struct {
	col     *mongo.Collection
	timeout time.Duration
}

func NewAuditRepository(db *mongo.Database, timeout time.Duration) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionAudit), timeout: opTimeout(timeout)}
}

// Insert persists a single audit event.
func (r *AuditRepository) Insert(ctx context.Context, e *domain.AuditEvent) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	doc := bson.M{
		"_id":       e.ID,
		"action":    string(e.Action),
		"actor_id":  e.ActorID,
		"target_id": e.TargetID,
		"at":        e.At.UTC(),
	}
	if len(e.Details) > 0 {
		doc["details"] = e.Details
	}

	_, err := r.col.InsertOne(ctx, doc)
	return classify("insert audit event", err)
}

// EnsureIndexes creates lookup indexes by actor and by target.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "actor_id", Value: 1}, {Key: "at", Value: -1}}},
		{Keys: bson.D{{Key: "target_id", Value: 1}, {Key: "at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return classify("ensure audit indexes", err)
}
