package notifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEvent(t *testing.T, name, owner string, payload any) Event {
	t.Helper()
	ev, err := NewEvent(name, owner, payload)
	require.NoError(t, err)
	return ev
}

func TestNewEvent(t *testing.T) {
	ev := mustEvent(t, ExpenseDeleted, "user-1", Deleted{ID: "abc"})
	assert.Equal(t, ExpenseDeleted, ev.Name)
	assert.Equal(t, "user-1", ev.Owner)
	assert.JSONEq(t, `{"id":"abc"}`, string(ev.Data))

	_, err := NewEvent(ExpenseCreated, "user-1", make(chan int))
	assert.Error(t, err)
}

func TestHub_DeliversInPublishOrder(t *testing.T) {
	hub := NewHub(8)
	sub, err := hub.Subscribe("alice")
	require.NoError(t, err)
	defer sub.Close()

	ctx := context.Background()
	hub.Publish(ctx, mustEvent(t, ExpenseCreated, "alice", map[string]string{"id": "x"}))
	hub.Publish(ctx, mustEvent(t, ExpenseDeleted, "alice", Deleted{ID: "x"}))

	first := <-sub.Events()
	second := <-sub.Events()
	assert.Equal(t, ExpenseCreated, first.Name)
	assert.Equal(t, ExpenseDeleted, second.Name)
}

func TestHub_ScopesEventsToOwner(t *testing.T) {
	hub := NewHub(8)
	alice, err := hub.Subscribe("alice")
	require.NoError(t, err)
	bob, err := hub.Subscribe("bob")
	require.NoError(t, err)

	hub.Publish(context.Background(), mustEvent(t, ExpenseCreated, "alice", map[string]string{"id": "x"}))

	require.Len(t, alice.Events(), 1)
	assert.Len(t, bob.Events(), 0)
}

func TestHub_FansOutToEverySubscriber(t *testing.T) {
	hub := NewHub(8)
	a, err := hub.Subscribe("alice")
	require.NoError(t, err)
	b, err := hub.Subscribe("alice")
	require.NoError(t, err)
	assert.Equal(t, 2, hub.SubscriberCount("alice"))

	hub.Publish(context.Background(), mustEvent(t, ExpenseUpdated, "alice", map[string]string{"id": "x"}))

	assert.Len(t, a.Events(), 1)
	assert.Len(t, b.Events(), 1)
}

func TestHub_PublishWithoutSubscribers(t *testing.T) {
	hub := NewHub(1)
	assert.NotPanics(t, func() {
		hub.Publish(context.Background(), mustEvent(t, ExpenseCreated, "nobody", map[string]string{}))
	})
}

func TestHub_DropsSlowSubscriber(t *testing.T) {
	hub := NewHub(1)
	slow, err := hub.Subscribe("alice")
	require.NoError(t, err)

	ctx := context.Background()
	hub.Publish(ctx, mustEvent(t, ExpenseCreated, "alice", map[string]string{"id": "1"}))
	hub.Publish(ctx, mustEvent(t, ExpenseCreated, "alice", map[string]string{"id": "2"}))

	assert.Equal(t, 0, hub.SubscriberCount("alice"))

	ev, ok := <-slow.Events()
	require.True(t, ok)
	assert.JSONEq(t, `{"id":"1"}`, string(ev.Data))

	_, ok = <-slow.Events()
	assert.False(t, ok, "channel should be closed after drop")

	// Closing a dropped subscription is a no-op.
	assert.NotPanics(t, slow.Close)
}

func TestSubscription_Close(t *testing.T) {
	hub := NewHub(4)
	sub, err := hub.Subscribe("alice")
	require.NoError(t, err)

	sub.Close()
	sub.Close()

	assert.Equal(t, 0, hub.SubscriberCount("alice"))
	_, ok := <-sub.Events()
	assert.False(t, ok)
}

func TestHub_Close(t *testing.T) {
	hub := NewHub(4)
	sub, err := hub.Subscribe("alice")
	require.NoError(t, err)

	hub.Close()

	_, ok := <-sub.Events()
	assert.False(t, ok)

	_, err = hub.Subscribe("alice")
	assert.ErrorIs(t, err, ErrClosed)
}
