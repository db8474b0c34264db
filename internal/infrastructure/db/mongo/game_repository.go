package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dicegame/dice-api/internal/core/domain"
)

const collectionGames = "games"

// GameRepository implements ports.GameRepository on the games collection.
// With softDelete set, deletions stamp deleted_at instead of removing the
// document, and stamped documents are invisible to every read.
type GameRepository struct {
	col        *mongo.Collection
	timeout    time.Duration
	softDelete bool
}

func NewGameRepository(db *mongo.Database, timeout time.Duration, softDelete bool) *GameRepository {
	return &GameRepository{
		col:        db.Collection(collectionGames),
		timeout:    opTimeout(timeout),
		softDelete: softDelete,
	}
}

type gameDocument struct {
	ID        string     `bson:"_id"`
	OwnerID   string     `bson:"owner_id"`
	Payload   bson.M     `bson:"payload"`
	CreatedAt time.Time  `bson:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at"`
	DeletedAt *time.Time `bson:"deleted_at,omitempty"`
}

func (d gameDocument) toDomain() *domain.Game {
	payload := map[string]any(d.Payload)
	if payload == nil {
		payload = map[string]any{}
	}
	return &domain.Game{
		ID:        d.ID,
		OwnerID:   d.OwnerID,
		Payload:   payload,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
		DeletedAt: d.DeletedAt,
	}
}

// live restricts filter to documents that are not soft-deleted.
func live(filter bson.M) bson.M {
	filter["deleted_at"] = bson.M{"$exists": false}
	return filter
}

func (r *GameRepository) Create(ctx context.Context, g *domain.Game) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	doc := gameDocument{
		ID:        g.ID,
		OwnerID:   g.OwnerID,
		Payload:   bson.M(g.Payload),
		CreatedAt: g.CreatedAt.UTC(),
		UpdatedAt: g.UpdatedAt.UTC(),
	}
	if doc.Payload == nil {
		doc.Payload = bson.M{}
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return classify("insert game", err)
	}
	return nil
}

func (r *GameRepository) FindByID(ctx context.Context, id string) (*domain.Game, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc gameDocument
	if err := r.col.FindOne(ctx, live(bson.M{"_id": id})).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrGameNotFound
		}
		return nil, classify("find game", err)
	}
	return doc.toDomain(), nil
}

// ListByOwner returns the owner's games, newest first.
func (r *GameRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Game, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.col.Find(ctx, live(bson.M{"owner_id": ownerID}), opts)
	if err != nil {
		return nil, classify("list games", err)
	}

	var docs []gameDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, classify("decode games", err)
	}

	games := make([]*domain.Game, 0, len(docs))
	for _, d := range docs {
		games = append(games, d.toDomain())
	}
	return games, nil
}

// Update merges patch into the payload field by field. The owner is part of
// the filter so a concurrent ownership change cannot be overwritten.
func (r *GameRepository) Update(ctx context.Context, id, ownerID string, patch map[string]any, at time.Time) (*domain.Game, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	set := bson.M{"updated_at": at.UTC()}
	for k, v := range patch {
		set["payload."+k] = v
	}

	filter := live(bson.M{"_id": id, "owner_id": ownerID})
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc gameDocument
	if err := r.col.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrGameNotFound
		}
		return nil, classify("update game", err)
	}
	return doc.toDomain(), nil
}

func (r *GameRepository) Delete(ctx context.Context, id, ownerID string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := live(bson.M{"_id": id, "owner_id": ownerID})

	if r.softDelete {
		res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"deleted_at": at.UTC(), "updated_at": at.UTC()}})
		if err != nil {
			return classify("soft delete game", err)
		}
		if res.MatchedCount == 0 {
			return domain.ErrGameNotFound
		}
		return nil
	}

	res, err := r.col.DeleteOne(ctx, filter)
	if err != nil {
		return classify("delete game", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrGameNotFound
	}
	return nil
}

// DeleteByOwner removes every live game of ownerID and reports how many.
func (r *GameRepository) DeleteByOwner(ctx context.Context, ownerID string, at time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := live(bson.M{"owner_id": ownerID})

	if r.softDelete {
		res, err := r.col.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"deleted_at": at.UTC(), "updated_at": at.UTC()}})
		if err != nil {
			return 0, classify("soft delete games", err)
		}
		return res.ModifiedCount, nil
	}

	res, err := r.col.DeleteMany(ctx, filter)
	if err != nil {
		return 0, classify("delete games", err)
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates the owner listing index.
func (r *GameRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return classify("ensure game indexes", err)
}
