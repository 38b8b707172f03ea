package repository

import (
	"context"
	slotserrors "expertconnect/internal/slots/errors"
	"expertconnect/pkg/model"
	"sort"
	"time"
)

// SlotRepository owns slot state. TryReserve is the only way a slot becomes
// reserved and must be indivisible per key: of any set of concurrent calls for
// the same free slot exactly one returns true.
type SlotRepository interface {
	// TryReserve flips key from free to reserved and records owner as the
	// holder. It returns false when the slot does not exist, the expert is
	// unknown, or the slot is already reserved.
	TryReserve(ctx context.Context, key model.SlotKey, owner string) (bool, error)
	// Release flips key from reserved to free only while owner still holds it.
	// It returns false when the slot does not exist, is free, or is held by
	// another owner, so releasing after an uncertain TryReserve is always safe.
	Release(ctx context.Context, key model.SlotKey, owner string) (bool, error)
	// ListByExpert returns an expert's slots ordered by date and time. An empty
	// date returns every date.
	ListByExpert(ctx context.Context, expertID, date string) ([]model.Slot, error)
	// Upsert creates missing slots and reports how many were created. Existing
	// slots keep their state.
	Upsert(ctx context.Context, slots []model.Slot) (int, error)
}

func validateKey(key model.SlotKey) error {
	if key.ExpertID == "" || key.Date == "" || key.TimeLabel == "" {
		return slotserrors.ErrIncompleteKey
	}
	return nil
}

func sortSlots(slots []model.Slot) {
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Date != slots[j].Date {
			return slots[i].Date < slots[j].Date
		}
		return slots[i].TimeLabel < slots[j].TimeLabel
	})
}

// withTimeout bounds ctx by timeout without extending an earlier deadline.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}
	return context.WithTimeout(ctx, timeout)
}
