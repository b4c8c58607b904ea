package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-labs/briefing/internal/core/domain"
)

func msg(text string, sender domain.Sender) domain.Message {
	return domain.Message{ID: text, Text: text, Sender: sender, Timestamp: time.Now()}
}

func TestAppend_CreatesLazily(t *testing.T) {
	store := NewStore()
	defer store.Close()

	session, err := store.Append(context.Background(), "s1", msg("hello", domain.SenderUser))
	require.NoError(t, err)
	assert.Equal(t, "s1", session.ID)
	require.Len(t, session.Messages, 1)
}

func TestHistory_AbsentSessionIsEmpty(t *testing.T) {
	store := NewStore()
	defer store.Close()

	history, err := store.History(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAppend_SlidingWindow(t *testing.T) {
	store := NewStore(WithMaxMessages(5))
	defer store.Close()

	for i := 0; i < 8; i++ {
		_, err := store.Append(context.Background(), "s1", msg(fmt.Sprintf("m%d", i), domain.SenderUser))
		require.NoError(t, err)
	}

	history, err := store.History(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, history, 5)
	// Oldest dropped first; the survivors keep their order.
	assert.Equal(t, "m3", history[0].Text)
	assert.Equal(t, "m7", history[4].Text)
}

func TestTTL_ExpiryAndRefresh(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore(WithTTL(10*time.Minute), withClock(func() time.Time { return current }))
	defer store.Close()

	_, err := store.Append(context.Background(), "s1", msg("first", domain.SenderUser))
	require.NoError(t, err)

	// An append inside the window slides the expiry forward.
	current = current.Add(8 * time.Minute)
	_, err = store.Append(context.Background(), "s1", msg("second", domain.SenderUser))
	require.NoError(t, err)

	current = current.Add(8 * time.Minute)
	history, err := store.History(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, history, 2, "refreshed session must survive")

	// Idle past the TTL expires it.
	current = current.Add(11 * time.Minute)
	history, err = store.History(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAppend_AfterExpiryStartsFresh(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore(WithTTL(time.Minute), withClock(func() time.Time { return current }))
	defer store.Close()

	_, err := store.Append(context.Background(), "s1", msg("old", domain.SenderUser))
	require.NoError(t, err)

	current = current.Add(2 * time.Minute)
	session, err := store.Append(context.Background(), "s1", msg("new", domain.SenderUser))
	require.NoError(t, err)
	require.Len(t, session.Messages, 1)
	assert.Equal(t, "new", session.Messages[0].Text)
}

func TestReset_Idempotent(t *testing.T) {
	store := NewStore()
	defer store.Close()

	_, err := store.Append(context.Background(), "s1", msg("hello", domain.SenderUser))
	require.NoError(t, err)

	require.NoError(t, store.Reset(context.Background(), "s1"))
	require.NoError(t, store.Reset(context.Background(), "s1"))

	history, err := store.History(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAppend_ReturnsCopy(t *testing.T) {
	store := NewStore()
	defer store.Close()

	session, err := store.Append(context.Background(), "s1", msg("hello", domain.SenderUser))
	require.NoError(t, err)
	session.Messages[0].Text = "mutated"

	history, err := store.History(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "hello", history[0].Text)
}
