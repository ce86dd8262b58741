package server

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendwise/internal/client"
	"spendwise/internal/dashboard"
	"spendwise/internal/notifier"
)

// subscribe opens the push channel for c and waits for the connected event.
func subscribe(t *testing.T, ctx context.Context, c *client.Client) <-chan notifier.Event {
	t.Helper()
	events := make(chan notifier.Event, 16)
	go func() {
		_ = c.Subscribe(ctx, func(ev notifier.Event) { events <- ev })
	}()
	select {
	case ev := <-events:
		require.Equal(t, "connected", ev.Name)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for connected event")
	}
	return events
}

func next(t *testing.T, events <-chan notifier.Event) notifier.Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return notifier.Event{}
	}
}

func TestEventsFlow_ClientViewStaysInSync(t *testing.T) {
	app := setupApp(t)
	srv := httptest.NewServer(app.Router)
	defer srv.Close()

	app.registerUser(t, "watcher@test.com", "password123")
	app.registerUser(t, "stranger@test.com", "password123")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	alice := client.New(srv.URL, srv.Client())
	_, err := alice.Login(ctx, "watcher@test.com", "password123")
	require.NoError(t, err)
	bob := client.New(srv.URL, srv.Client())
	_, err = bob.Login(ctx, "stranger@test.com", "password123")
	require.NoError(t, err)

	first, err := alice.CreateExpense(ctx, client.ExpenseInput{
		Description: "Coffee beans", Amount: decimal.RequireFromString("18.40"), Category: "Food", Date: "2024-03-01",
	})
	require.NoError(t, err)

	// Snapshot, then live updates
	view := dashboard.NewView()
	snapshot, err := alice.ListExpenses(ctx, client.ListQuery{})
	require.NoError(t, err)
	view.Load(snapshot)

	aliceEvents := subscribe(t, ctx, alice)
	bobEvents := subscribe(t, ctx, bob)

	_, err = bob.CreateExpense(ctx, client.ExpenseInput{
		Description: "Not for alice", Amount: decimal.NewFromInt(1), Category: "Food", Date: "2024-03-01",
	})
	require.NoError(t, err)
	assert.Equal(t, notifier.ExpenseCreated, next(t, bobEvents).Name)

	second, err := alice.CreateExpense(ctx, client.ExpenseInput{
		Description: "Train ticket", Amount: decimal.NewFromInt(32), Category: "Travel", Date: "2024-03-02",
	})
	require.NoError(t, err)
	_, err = alice.UpdateExpense(ctx, first.ID, client.ExpenseInput{
		Description: "Coffee beans", Amount: decimal.NewFromInt(20), Category: "Food", Date: "2024-03-01",
	})
	require.NoError(t, err)
	require.NoError(t, alice.DeleteExpense(ctx, second.ID))

	wantNames := []string{notifier.ExpenseCreated, notifier.ExpenseUpdated, notifier.ExpenseDeleted}
	for _, name := range wantNames {
		ev := next(t, aliceEvents)
		require.Equal(t, name, ev.Name, "events arrive in commit order and only for the owner")
		require.NoError(t, view.Apply(ev))
	}

	shown := view.Displayed()
	require.Len(t, shown, 1)
	assert.Equal(t, first.ID, shown[0].ID)
	assert.True(t, shown[0].Amount.Equal(decimal.NewFromInt(20)))

	// The reconciled copy matches a fresh fetch
	fresh, err := alice.ListExpenses(ctx, client.ListQuery{})
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, fresh[0].ID, shown[0].ID)
	assert.True(t, fresh[0].Amount.Equal(shown[0].Amount))
}

func TestEventsFlow_BatchDeleteEmitsPerRecord(t *testing.T) {
	app := setupApp(t)
	srv := httptest.NewServer(app.Router)
	defer srv.Close()

	app.registerUser(t, "batch-events@test.com", "password123")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := client.New(srv.URL, srv.Client())
	_, err := c.Login(ctx, "batch-events@test.com", "password123")
	require.NoError(t, err)

	var ids []string
	for _, d := range []string{"One", "Two"} {
		e, err := c.CreateExpense(ctx, client.ExpenseInput{
			Description: "Expense " + d, Amount: decimal.NewFromInt(5), Category: "Misc", Date: "2024-03-01",
		})
		require.NoError(t, err)
		ids = append(ids, e.ID)
	}

	events := subscribe(t, ctx, c)

	result, err := c.DeleteExpenses(ctx, append(ids, "0190f5c2-7b1e-7c3a-9d4e-000000000000"))
	require.NoError(t, err)
	assert.Equal(t, 2, result.DeletedCount)

	deleted := map[string]bool{}
	for range ids {
		ev := next(t, events)
		require.Equal(t, notifier.ExpenseDeleted, ev.Name)
		view := dashboard.NewView()
		require.NoError(t, view.Apply(ev))
		deleted[string(ev.Data)] = true
	}
	for _, id := range ids {
		assert.True(t, deleted[`{"id":"`+id+`"}`], "missing deletion event for %s", id)
	}

	// A second batch matches nothing and emits nothing
	result, err = c.DeleteExpenses(ctx, ids)
	require.NoError(t, err)
	assert.Zero(t, result.DeletedCount)
	select {
	case ev := <-events:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestEventsFlow_QueryTokenAndShutdown(t *testing.T) {
	app := setupApp(t)
	srv := httptest.NewServer(app.Router)
	defer srv.Close()

	token, _, _ := app.registerUser(t, "query@test.com", "password123")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := client.New(srv.URL, srv.Client())
	c.SetToken(token)

	done := make(chan error, 1)
	connected := make(chan struct{})
	go func() {
		done <- c.Subscribe(ctx, func(ev notifier.Event) {
			if ev.Name == "connected" {
				close(connected)
			}
		})
	}()
	select {
	case <-connected:
	case <-ctx.Done():
		t.Fatal("timed out waiting for connected event")
	}

	app.Hub.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, client.ErrStreamClosed)
	case <-ctx.Done():
		t.Fatal("stream did not end after hub shutdown")
	}

	rec := app.request("GET", "/api/events?access_token="+token, "", "")
	assert.Equal(t, 503, rec.Code)
}
