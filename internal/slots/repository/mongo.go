package repository

import (
	"context"
	"errors"
	"expertconnect/pkg/config"
	"expertconnect/pkg/model"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Expert_slots"
)

// expertSlotsDocument is one document per expert with its slots embedded, so a
// single-document update is the atomic unit for every slot transition.
type expertSlotsDocument struct {
	ExpertID  string       `bson:"_id"`
	Slots     []model.Slot `bson:"slots"`
	CreatedAt time.Time    `bson:"created_at"`
	UpdatedAt time.Time    `bson:"updated_at"`
}

type mongoSlotRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoSlotRepository(cfg *config.Config) SlotRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSlotRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

// swap matches the expert document only if it holds the slot in the from state
// with the expected owner; the positional operator then rewrites that same
// array element. A free slot has no owner field.
func (r *mongoSlotRepository) swap(ctx context.Context, key model.SlotKey, from, to model.SlotState, fromOwner, toOwner string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	match := bson.M{
		"date":  key.Date,
		"time":  key.TimeLabel,
		"state": from,
		"owner": ownerFilter(fromOwner),
	}
	set := bson.M{
		"slots.$.state": to,
		"updated_at":    time.Now().UTC(),
	}
	update := bson.M{"$set": set}
	if toOwner != "" {
		set["slots.$.owner"] = toOwner
	} else {
		update["$unset"] = bson.M{"slots.$.owner": ""}
	}

	filter := bson.M{
		"_id":   key.ExpertID,
		"slots": bson.M{"$elemMatch": match},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to update slot %s: %w", key, err)
	}
	return result.ModifiedCount == 1, nil
}

// ownerFilter treats an empty owner as an absent field, which is how free
// slots and slots seeded as reserved are stored.
func ownerFilter(owner string) any {
	if owner == "" {
		return bson.M{"$in": bson.A{nil, ""}}
	}
	return owner
}

func (r *mongoSlotRepository) TryReserve(ctx context.Context, key model.SlotKey, owner string) (bool, error) {
	return r.swap(ctx, key, model.SlotFree, model.SlotReserved, "", owner)
}

func (r *mongoSlotRepository) Release(ctx context.Context, key model.SlotKey, owner string) (bool, error) {
	return r.swap(ctx, key, model.SlotReserved, model.SlotFree, owner, "")
}

func (r *mongoSlotRepository) ListByExpert(ctx context.Context, expertID, date string) ([]model.Slot, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var doc expertSlotsDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": expertID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []model.Slot{}, nil
		}
		return nil, fmt.Errorf("failed to find slots: %w", err)
	}

	slots := make([]model.Slot, 0, len(doc.Slots))
	for _, s := range doc.Slots {
		if date != "" && s.Date != date {
			continue
		}
		s.ExpertID = expertID
		slots = append(slots, s)
	}
	sortSlots(slots)
	return slots, nil
}

// Upsert makes sure each expert document exists, then pushes only the slots
// the document does not already hold.
func (r *mongoSlotRepository) Upsert(ctx context.Context, slots []model.Slot) (int, error) {
	if len(slots) == 0 {
		return 0, nil
	}

	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	var ensure, push []mongo.WriteModel
	seenExperts := make(map[string]struct{})

	for _, s := range slots {
		if err := validateKey(s.Key()); err != nil {
			return 0, err
		}
		state := s.State
		if state == "" {
			state = model.SlotFree
		}

		if _, ok := seenExperts[s.ExpertID]; !ok {
			seenExperts[s.ExpertID] = struct{}{}
			ensure = append(ensure, mongo.NewUpdateOneModel().
				SetFilter(bson.M{"_id": s.ExpertID}).
				SetUpdate(bson.M{"$setOnInsert": bson.M{
					"slots":      bson.A{},
					"created_at": now,
					"updated_at": now,
				}}).
				SetUpsert(true))
		}

		push = append(push, mongo.NewUpdateOneModel().
			SetFilter(bson.M{
				"_id": s.ExpertID,
				"slots": bson.M{"$not": bson.M{"$elemMatch": bson.M{
					"date": s.Date,
					"time": s.TimeLabel,
				}}},
			}).
			SetUpdate(bson.M{
				"$push": bson.M{"slots": bson.M{
					"date":  s.Date,
					"time":  s.TimeLabel,
					"state": state,
				}},
				"$set": bson.M{"updated_at": now},
			}))
	}

	if _, err := r.collection.BulkWrite(ctx, ensure, options.BulkWrite().SetOrdered(false)); err != nil {
		return 0, fmt.Errorf("failed to create expert slot documents: %w", err)
	}

	// Ordered so a repeated key within one batch is pushed once.
	result, err := r.collection.BulkWrite(ctx, push, options.BulkWrite().SetOrdered(true))
	if err != nil {
		return 0, fmt.Errorf("failed to insert slots: %w", err)
	}
	return int(result.ModifiedCount), nil
}
