package events

import (
	"context"
	"errors"
	"expertconnect/pkg/logger"
	"expertconnect/pkg/model"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(expertID, label string, state model.SlotState) model.ReservationEvent {
	return model.NewReservationEvent(model.SlotKey{ExpertID: expertID, Date: "2024-06-01", TimeLabel: label}, state, "")
}

func receive(t *testing.T, sub *Subscription) model.ReservationEvent {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "subscription closed unexpectedly")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return model.ReservationEvent{}
	}
}

func TestBus_DeliversToAllSubscribers(t *testing.T) {
	bus := NewBus()
	a := bus.Subscribe(4)
	b := bus.Subscribe(4)

	require.NoError(t, bus.Publish(context.Background(), event("e1", "10:00", model.SlotReserved)))

	assert.Equal(t, "10:00", receive(t, a).TimeLabel)
	assert.Equal(t, "10:00", receive(t, b).TimeLabel)
}

func TestBus_NoReplay(t *testing.T) {
	bus := NewBus()
	require.NoError(t, bus.Publish(context.Background(), event("e1", "09:00", model.SlotReserved)))

	late := bus.Subscribe(4)
	require.NoError(t, bus.Publish(context.Background(), event("e1", "10:00", model.SlotReserved)))

	assert.Equal(t, "10:00", receive(t, late).TimeLabel)
	select {
	case ev := <-late.Events():
		t.Fatalf("unexpected extra event %+v", ev)
	default:
	}
}

func TestBus_SlowSubscriberNeverBlocksPublisher(t *testing.T) {
	bus := NewBus()
	slow := bus.Subscribe(2)
	fast := bus.Subscribe(100)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			_ = bus.Publish(context.Background(), event("e1", time.Duration(i).String(), model.SlotReserved))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	assert.Equal(t, uint64(48), slow.Dropped())
	assert.Equal(t, uint64(0), fast.Dropped())
	assert.Equal(t, uint64(48), bus.Dropped())

	// Oldest events were dropped, so the slow subscriber holds the last two.
	assert.Equal(t, time.Duration(48).String(), receive(t, slow).TimeLabel)
	assert.Equal(t, time.Duration(49).String(), receive(t, slow).TimeLabel)
}

func TestBus_PerSubscriberOrder(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(10)

	states := []model.SlotState{model.SlotReserved, model.SlotFree, model.SlotReserved}
	for _, s := range states {
		require.NoError(t, bus.Publish(context.Background(), event("e1", "10:00", s)))
	}

	for _, want := range states {
		assert.Equal(t, want, receive(t, sub).NewState)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(4)
	require.Equal(t, 1, bus.SubscriberCount())

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, bus.SubscriberCount())

	_, ok := <-sub.Events()
	assert.False(t, ok, "events channel should be closed")

	assert.NoError(t, bus.Publish(context.Background(), event("e1", "10:00", model.SlotReserved)))
}

func TestBus_ForExpertFilter(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(4, ForExpert("e2"))

	require.NoError(t, bus.Publish(context.Background(), event("e1", "10:00", model.SlotReserved)))
	require.NoError(t, bus.Publish(context.Background(), event("e2", "11:00", model.SlotReserved)))

	ev := receive(t, sub)
	assert.Equal(t, "e2", ev.ExpertID)
}

func TestBus_Close(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(4)

	bus.Close()

	_, ok := <-sub.Events()
	assert.False(t, ok)

	after := bus.Subscribe(4)
	_, ok = <-after.Events()
	assert.False(t, ok, "subscribing to a closed bus yields a closed subscription")
}

func TestBus_ConcurrentPublishSubscribe(t *testing.T) {
	bus := NewBus()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = bus.Publish(context.Background(), event("e1", "10:00", model.SlotReserved))
			}
		}()
		go func() {
			defer wg.Done()
			sub := bus.Subscribe(1)
			time.Sleep(time.Millisecond)
			sub.Close()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, bus.SubscriberCount())
}

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(context.Context, model.ReservationEvent) error {
	f.calls++
	return errors.New("sink down")
}

func TestMultiPublisher_SwallowsSinkErrors(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(4)
	failing := &failingPublisher{}

	multi := NewMultiPublisher(logger.Discard(), failing, bus)
	require.NoError(t, multi.Publish(context.Background(), event("e1", "10:00", model.SlotReserved)))

	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, "10:00", receive(t, sub).TimeLabel)
}
