package mongo

import (
	"testing"

	bookingsrepo "expertconnect/internal/bookings/repository"
	slotsrepo "expertconnect/internal/slots/repository"

	"go.mongodb.org/mongo-driver/bson"
)

func TestCollections(t *testing.T) {
	defs := Collections()

	for _, name := range []string{slotsrepo.CollectionName, bookingsrepo.CollectionName} {
		def, ok := defs[name]
		if !ok {
			t.Fatalf("collection %s is not migrated", name)
		}
		if def.Validator == nil {
			t.Errorf("collection %s has no validator", name)
		}
		if len(def.Indexes) == 0 {
			t.Errorf("collection %s has no indexes", name)
		}
	}
}

func TestBookingsIndexes_ActiveSlotIsPartialUnique(t *testing.T) {
	var found bool
	for _, idx := range BookingsIndexes {
		if idx.Options == nil || idx.Options.Name == nil || *idx.Options.Name != bookingsrepo.ActiveSlotIndexName {
			continue
		}
		found = true

		if idx.Options.Unique == nil || !*idx.Options.Unique {
			t.Error("active slot index must be unique")
		}
		filter, ok := idx.Options.PartialFilterExpression.(bson.M)
		if !ok || filter["active"] != true {
			t.Errorf("active slot index must only cover active bookings, got %v", idx.Options.PartialFilterExpression)
		}
		keys := idx.Keys.(bson.D)
		if len(keys) != 3 || keys[0].Key != "expert_id" || keys[1].Key != "date" || keys[2].Key != "time" {
			t.Errorf("unexpected index keys %v", keys)
		}
	}
	if !found {
		t.Fatalf("index %s not defined", bookingsrepo.ActiveSlotIndexName)
	}
}
