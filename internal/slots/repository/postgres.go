package repository

import (
	"context"
	"expertconnect/pkg/model"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const slotsSchema = `
CREATE TABLE IF NOT EXISTS slots (
	expert_id  TEXT        NOT NULL,
	date       TEXT        NOT NULL,
	time_label TEXT        NOT NULL,
	state      TEXT        NOT NULL DEFAULT 'free' CHECK (state IN ('free', 'reserved')),
	owner      TEXT        NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (expert_id, date, time_label)
)`

const slotsOwnerColumn = `ALTER TABLE slots ADD COLUMN IF NOT EXISTS owner TEXT NOT NULL DEFAULT ''`

// postgresSlotRepository relies on a conditional UPDATE: the row lock taken by
// the first writer makes a concurrent UPDATE re-check state after it commits.
type postgresSlotRepository struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresSlotRepository(db *pgxpool.Pool, timeout time.Duration) SlotRepository {
	return &postgresSlotRepository{db: db, timeout: timeout}
}

// EnsurePostgresSchema creates the slots table when it does not exist.
func EnsurePostgresSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, slotsSchema); err != nil {
		return fmt.Errorf("create slots table: %w", err)
	}
	if _, err := db.Exec(ctx, slotsOwnerColumn); err != nil {
		return fmt.Errorf("add slots owner column: %w", err)
	}
	return nil
}

func (r *postgresSlotRepository) swap(ctx context.Context, key model.SlotKey, from, to model.SlotState, fromOwner, toOwner string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	tag, err := r.db.Exec(ctx,
		`UPDATE slots SET state = $4, owner = $6, updated_at = now()
		 WHERE expert_id = $1 AND date = $2 AND time_label = $3 AND state = $5 AND owner = $7`,
		key.ExpertID, key.Date, key.TimeLabel, string(to), string(from), toOwner, fromOwner,
	)
	if err != nil {
		return false, fmt.Errorf("update slot %s: %w", key, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *postgresSlotRepository) TryReserve(ctx context.Context, key model.SlotKey, owner string) (bool, error) {
	return r.swap(ctx, key, model.SlotFree, model.SlotReserved, "", owner)
}

func (r *postgresSlotRepository) Release(ctx context.Context, key model.SlotKey, owner string) (bool, error) {
	return r.swap(ctx, key, model.SlotReserved, model.SlotFree, owner, "")
}

func (r *postgresSlotRepository) ListByExpert(ctx context.Context, expertID, date string) ([]model.Slot, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.Query(ctx,
		`SELECT date, time_label, state, owner FROM slots
		 WHERE expert_id = $1 AND ($2 = '' OR date = $2)
		 ORDER BY date, time_label`,
		expertID, date,
	)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	slots := []model.Slot{}
	for rows.Next() {
		s := model.Slot{ExpertID: expertID}
		var state string
		if err := rows.Scan(&s.Date, &s.TimeLabel, &state, &s.Owner); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		s.State = model.SlotState(state)
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

func (r *postgresSlotRepository) Upsert(ctx context.Context, slots []model.Slot) (int, error) {
	if len(slots) == 0 {
		return 0, nil
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	batch := &pgx.Batch{}
	for _, s := range slots {
		if err := validateKey(s.Key()); err != nil {
			return 0, err
		}
		state := s.State
		if state == "" {
			state = model.SlotFree
		}
		owner := ""
		if state == model.SlotReserved {
			owner = s.Owner
		}
		batch.Queue(
			`INSERT INTO slots (expert_id, date, time_label, state, owner)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (expert_id, date, time_label) DO NOTHING`,
			s.ExpertID, s.Date, s.TimeLabel, string(state), owner,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	created := 0
	for range slots {
		tag, err := results.Exec()
		if err != nil {
			return created, fmt.Errorf("insert slot: %w", err)
		}
		created += int(tag.RowsAffected())
	}
	return created, nil
}
