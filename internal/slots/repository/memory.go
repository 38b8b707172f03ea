package repository

import (
	"context"
	"expertconnect/pkg/model"
	"sync"
)

type slotCell struct {
	date  string
	label string
}

type slotHold struct {
	state model.SlotState
	owner string
}

type expertSlots struct {
	mu    sync.Mutex
	slots map[slotCell]slotHold
}

// memorySlotRepository keeps one lock per expert. Reservations for different
// experts never contend.
type memorySlotRepository struct {
	mu      sync.RWMutex
	experts map[string]*expertSlots
}

func NewMemorySlotRepository() SlotRepository {
	return &memorySlotRepository{
		experts: make(map[string]*expertSlots),
	}
}

func (r *memorySlotRepository) expert(expertID string) *expertSlots {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.experts[expertID]
}

func (r *memorySlotRepository) swap(key model.SlotKey, from, to slotHold) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	e := r.expert(key.ExpertID)
	if e == nil {
		return false, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	cell := slotCell{date: key.Date, label: key.TimeLabel}
	held, ok := e.slots[cell]
	if !ok || held != from {
		return false, nil
	}
	e.slots[cell] = to
	return true, nil
}

func (r *memorySlotRepository) TryReserve(ctx context.Context, key model.SlotKey, owner string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return r.swap(key, slotHold{state: model.SlotFree}, slotHold{state: model.SlotReserved, owner: owner})
}

func (r *memorySlotRepository) Release(ctx context.Context, key model.SlotKey, owner string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return r.swap(key, slotHold{state: model.SlotReserved, owner: owner}, slotHold{state: model.SlotFree})
}

func (r *memorySlotRepository) ListByExpert(ctx context.Context, expertID, date string) ([]model.Slot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e := r.expert(expertID)
	if e == nil {
		return []model.Slot{}, nil
	}

	e.mu.Lock()
	slots := make([]model.Slot, 0, len(e.slots))
	for cell, held := range e.slots {
		if date != "" && cell.date != date {
			continue
		}
		slots = append(slots, model.Slot{
			ExpertID:  expertID,
			Date:      cell.date,
			TimeLabel: cell.label,
			State:     held.state,
			Owner:     held.owner,
		})
	}
	e.mu.Unlock()

	sortSlots(slots)
	return slots, nil
}

func (r *memorySlotRepository) Upsert(ctx context.Context, slots []model.Slot) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	created := 0
	for _, s := range slots {
		if err := validateKey(s.Key()); err != nil {
			return created, err
		}

		e := r.getOrCreate(s.ExpertID)
		e.mu.Lock()
		cell := slotCell{date: s.Date, label: s.TimeLabel}
		if _, exists := e.slots[cell]; !exists {
			state := s.State
			if state == "" {
				state = model.SlotFree
			}
			held := slotHold{state: state}
			if state == model.SlotReserved {
				held.owner = s.Owner
			}
			e.slots[cell] = held
			created++
		}
		e.mu.Unlock()
	}
	return created, nil
}

func (r *memorySlotRepository) getOrCreate(expertID string) *expertSlots {
	if e := r.expert(expertID); e != nil {
		return e
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.experts[expertID]; ok {
		return e
	}
	e := &expertSlots{slots: make(map[slotCell]slotHold)}
	r.experts[expertID] = e
	return e
}
