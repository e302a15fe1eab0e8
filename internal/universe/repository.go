package universe

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/apperr"
)

const collectionName = "universes"

// Repository persists universe documents in MongoDB. Saves use optimistic
// concurrency: the document's version field must match what was loaded, and
// every successful save increments it.
type Repository struct {
	col *mongo.Collection
	log zerolog.Logger
}

// NewRepository creates a repository on the given database.
func NewRepository(db *mongo.Database, log zerolog.Logger) *Repository {
	return &Repository{
		col: db.Collection(collectionName),
		log: log.With().Str("component", "universe_repo").Logger(),
	}
}

// EnsureIndexes creates the owner lookup index. Call once at startup.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "ownerId", Value: 1}},
	})
	if err != nil {
		return apperr.Wrap(apperr.KindPersistence, err, "creating universe indexes")
	}
	return nil
}

// Create inserts a new universe document.
func (r *Repository) Create(ctx context.Context, u *Universe) error {
	if _, err := r.col.InsertOne(ctx, u); err != nil {
		return apperr.Wrap(apperr.KindPersistence, err, "inserting universe")
	}
	return nil
}

// Get loads a universe by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Universe, error) {
	var u Universe
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("universe %s not found", id)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, err, "loading universe %s", id)
	}
	return &u, nil
}

// ListByOwner returns all universes owned by the given user, newest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Universe, error) {
	cur, err := r.col.Find(ctx, bson.M{"ownerId": ownerID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, err, "listing universes")
	}
	defer cur.Close(ctx)

	var out []*Universe
	for cur.Next(ctx) {
		var u Universe
		if err := cur.Decode(&u); err != nil {
			return nil, apperr.Wrap(apperr.KindPersistence, err, "decoding universe")
		}
		out = append(out, &u)
	}
	if err := cur.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, err, "iterating universes")
	}
	return out, nil
}

// Delete removes a universe. The owner check is part of the filter so a
// non-owner delete reads as not found.
func (r *Repository) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "ownerId": ownerID})
	if err != nil {
		return apperr.Wrap(apperr.KindPersistence, err, "deleting universe %s", id)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("universe %s not found", id)
	}
	return nil
}

// ListAnomalyHeavy returns ids of running universes carrying at least
// threshold anomalies. Used by the background cleanup sweeper.
func (r *Repository) ListAnomalyHeavy(ctx context.Context, threshold int) ([]uuid.UUID, error) {
	filter := bson.M{
		"status": StatusRunning,
		"anomalies." + strconv.Itoa(threshold-1): bson.M{"$exists": true},
	}
	cur, err := r.col.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, err, "listing anomaly-heavy universes")
	}
	defer cur.Close(ctx)

	var ids []uuid.UUID
	for cur.Next(ctx) {
		var doc struct {
			ID uuid.UUID `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, apperr.Wrap(apperr.KindPersistence, err, "decoding universe id")
		}
		ids = append(ids, doc.ID)
	}
	return ids, cur.Err()
}

// Save replaces the document if and only if the stored version matches the
// loaded one, then bumps the in-memory version to match. A version mismatch
// is a write conflict; transient errors are retried once.
func (r *Repository) Save(ctx context.Context, u *Universe) error {
	loaded := u.Version
	u.Version = loaded + 1
	u.LastModified = time.Now().UTC()

	filter := bson.M{"_id": u.ID, "version": loaded}
	res, err := r.col.ReplaceOne(ctx, filter, u)
	if err != nil {
		// One retry covers a dropped connection; the CAS filter makes the
		// retry safe if the first write actually landed.
		r.log.Warn().Err(err).Str("universe", u.ID.String()).Msg("save failed, retrying once")
		res, err = r.col.ReplaceOne(ctx, filter, u)
	}
	if err != nil {
		u.Version = loaded
		return apperr.Wrap(apperr.KindPersistence, err, "saving universe %s", u.ID)
	}
	if res.MatchedCount == 0 {
		u.Version = loaded
		return apperr.New(apperr.KindPersistence, "write conflict on universe %s (version %d)", u.ID, loaded)
	}
	return nil
}
