package repository_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	bookingserrors "expertconnect/internal/bookings/errors"
	"expertconnect/internal/bookings/repository"
	mongoMigration "expertconnect/internal/migrations/mongo"
	"expertconnect/pkg/client"
	"expertconnect/pkg/config"
	"expertconnect/pkg/logger"
	"expertconnect/pkg/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const envTestMongoURI = "TEST_MONGO_URI"

func TestLedgerSuite_Memory(t *testing.T) {
	runLedgerSuite(t, repository.NewMemoryBookingRepository())
}

func TestLedgerSuite_Mongo(t *testing.T) {
	uri := os.Getenv(envTestMongoURI)
	if uri == "" {
		t.Skip(envTestMongoURI + " not set")
	}
	ctx := context.Background()
	mc, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)

	dbName := "expertconnect_test_" + uuid.NewString()[:8]
	t.Cleanup(func() {
		_ = mc.Database(dbName).Drop(context.Background())
		_ = mc.Disconnect(context.Background())
	})
	require.NoError(t, mongoMigration.RunMigration(ctx, mc.Database(dbName), logger.Discard()))

	cfg := &config.Config{
		MongoDatabaseName: dbName,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      5 * time.Second,
		Log:               logger.Discard(),
		Client:            &client.Client{Mongo: mc},
	}
	runLedgerSuite(t, repository.NewMongoBookingRepository(cfg))
}

// runLedgerSuite checks the one-active-booking-per-slot rule every ledger must enforce.
func runLedgerSuite(t *testing.T, repo repository.BookingRepository) {
	ctx := context.Background()
	booking := func(expertID, email string) *model.Booking {
		return &model.Booking{
			ExpertID:  expertID,
			Date:      "2024-06-01",
			TimeLabel: "10:00",
			Contact:   model.Contact{Name: "Jane Doe", Email: email, Phone: "+16502530000"},
		}
	}
	newExpert := func() string { return "expert-" + uuid.NewString()[:8] }

	t.Run("second active booking is a duplicate", func(t *testing.T) {
		e := newExpert()
		first, err := repo.Insert(ctx, booking(e, "a@example.com"))
		require.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed, first.Status)

		_, err = repo.Insert(ctx, booking(e, "b@example.com"))
		assert.ErrorIs(t, err, bookingserrors.ErrDuplicateBooking)
	})

	t.Run("cancelled booking frees the triple", func(t *testing.T) {
		e := newExpert()
		first, err := repo.Insert(ctx, booking(e, "a@example.com"))
		require.NoError(t, err)

		_, err = repo.CompareAndSetStatus(ctx, first.ID, model.StatusConfirmed, model.StatusCancelled)
		require.NoError(t, err)

		second, err := repo.Insert(ctx, booking(e, "b@example.com"))
		require.NoError(t, err)

		_, err = repo.SetStatus(ctx, first.ID, model.StatusConfirmed)
		assert.ErrorIs(t, err, bookingserrors.ErrDuplicateBooking, "reactivation must not create a second active booking")

		got, err := repo.FindByID(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed, got.Status)
	})

	t.Run("guarded status change", func(t *testing.T) {
		b, err := repo.Insert(ctx, booking(newExpert(), "a@example.com"))
		require.NoError(t, err)

		_, err = repo.CompareAndSetStatus(ctx, b.ID, model.StatusPending, model.StatusCancelled)
		assert.ErrorIs(t, err, bookingserrors.ErrStatusChanged)

		_, err = repo.CompareAndSetStatus(ctx, "missing-"+uuid.NewString(), model.StatusConfirmed, model.StatusCancelled)
		assert.ErrorIs(t, err, bookingserrors.ErrNotFound)

		updated, err := repo.CompareAndSetStatus(ctx, b.ID, model.StatusConfirmed, model.StatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, model.StatusCompleted, updated.Status)
		assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))
	})

	t.Run("concurrent inserts have one winner", func(t *testing.T) {
		e := newExpert()
		var wins, dups atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.Insert(ctx, booking(e, "a@example.com"))
				switch {
				case err == nil:
					wins.Add(1)
				case errors.Is(err, bookingserrors.ErrDuplicateBooking):
					dups.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load())
		assert.Equal(t, int32(19), dups.Load())
	})

	t.Run("find by email newest first", func(t *testing.T) {
		email := uuid.NewString()[:8] + "@example.com"
		older, err := repo.Insert(ctx, booking(newExpert(), email))
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
		newer, err := repo.Insert(ctx, booking(newExpert(), email))
		require.NoError(t, err)

		got, err := repo.FindByEmail(ctx, email)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, newer.ID, got[0].ID)
		assert.Equal(t, older.ID, got[1].ID)
	})
}
