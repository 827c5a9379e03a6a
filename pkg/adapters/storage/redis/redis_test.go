package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aescanero/llmgate/pkg/domain/chat"
	"github.com/aescanero/llmgate/pkg/domain/session"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewStore(client, time.Hour, zap.NewNop()), mr
}

func testSession(id string) *session.Session {
	now := time.Now().UTC().Truncate(time.Second)
	return &session.Session{
		ID: id,
		Messages: []chat.Message{
			{Role: chat.RoleUser, Content: []chat.ContentPart{chat.Text("hello")}},
		},
		Config:    chat.Config{Model: "gpt-4o"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSessionRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	sess := testSession("s1")
	require.NoError(t, store.SaveSession(ctx, sess))

	loaded, err := store.LoadSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, sess.ID, loaded.ID)
	assert.Equal(t, sess.Messages, loaded.Messages)
	assert.Equal(t, "gpt-4o", loaded.Config.Model)
}

func TestLoadSessionNotFound(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.LoadSession(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSessionExistsAndDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSession(ctx, testSession("s2")))

	exists, err := store.SessionExists(ctx, "s2")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.DeleteSession(ctx, "s2"))

	exists, err = store.SessionExists(ctx, "s2")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestListSessions(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSession(ctx, testSession("a")))
	require.NoError(t, store.SaveSession(ctx, testSession("b")))

	ids, err := store.ListSessions(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}

func TestSessionTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSession(ctx, testSession("expiring")))

	mr.FastForward(2 * time.Hour)

	_, err := store.LoadSession(ctx, "expiring")
	require.Error(t, err)
}

func TestJobRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	job := &session.Job{
		ID: "j1",
		Messages: []chat.Message{
			{Role: chat.RoleUser, Content: []chat.ContentPart{chat.Text("hi")}},
		},
		Config:      chat.Config{Model: "gpt-4o"},
		Status:      session.JobStatusPending,
		SubmittedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.SaveJob(ctx, job))

	loaded, err := store.LoadJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, session.JobStatusPending, loaded.Status)
	assert.False(t, loaded.Terminal())

	loaded.Status = session.JobStatusCompleted
	require.NoError(t, store.SaveJob(ctx, loaded))

	final, err := store.LoadJob(ctx, "j1")
	require.NoError(t, err)
	assert.True(t, final.Terminal())

	require.NoError(t, store.DeleteJob(ctx, "j1"))
	_, err = store.LoadJob(ctx, "j1")
	require.Error(t, err)
}
