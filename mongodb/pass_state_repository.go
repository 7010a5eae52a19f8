package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/walletgate/origo/domain"
	serrors "github.com/walletgate/origo/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// PassStateRepository implements domain.StateStore on MongoDB.
type PassStateRepository struct {
	coll *mongo.Collection
}

func NewPassStateRepository(db *mongo.Database) domain.StateStore {
	return &PassStateRepository{coll: db.Collection(PassStatesCollection)}
}

// Apply commits the state only when it is not older than the stored one.
// The guarded upsert makes the compare-and-write a single server-side step:
// when a newer document exists the filter misses and the attempted insert
// trips the _id unique index, which reports the write as stale.
func (r *PassStateRepository) Apply(ctx context.Context, state domain.PassState) (bool, error) {
	filter := bson.M{
		"_id":        state.PassID,
		"updated_at": bson.M{"$lte": state.UpdatedAt},
	}
	update := bson.M{"$set": bson.M{
		"status":     state.Status,
		"user_id":    state.UserID,
		"updated_at": state.UpdatedAt,
	}}

	_, err := r.coll.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("apply pass state for %s: %w", state.PassID, err)
	}
	return true, nil
}

// Get implements domain.StateStore.Get.
func (r *PassStateRepository) Get(ctx context.Context, passID string) (*domain.PassState, error) {
	var state domain.PassState
	err := r.coll.FindOne(ctx, bson.M{"_id": passID}).Decode(&state)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, serrors.NewNotFound("pass_state", passID)
	}
	if err != nil {
		return nil, fmt.Errorf("get pass state for %s: %w", passID, err)
	}
	return &state, nil
}
