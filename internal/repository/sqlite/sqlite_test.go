package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailmind/internal/model"
	"mailmind/internal/repository"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNew_CreatesTables(t *testing.T) {
	db := newTestDB(t)

	rows, err := db.db.QueryContext(context.Background(), "SELECT name FROM sqlite_master WHERE type='table' ORDER BY name")
	require.NoError(t, err)
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		tables = append(tables, name)
	}
	assert.Equal(t, []string{"kv_store", "users"}, tables)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	users := newTestDB(t).Users()
	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	user := model.NewUser("g-42", "sam@example.com", "Sam", "access", "refresh", expiry)

	require.NoError(t, users.Create(ctx, user))

	got, err := users.FindByGoogleID(ctx, "g-42")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "access", got.AccessToken)
	assert.True(t, expiry.Equal(got.TokenExpiry))

	got.AccessToken = "rotated"
	require.NoError(t, users.Update(ctx, got))

	byEmail, err := users.FindByEmail(ctx, "sam@example.com")
	require.NoError(t, err)
	assert.Equal(t, "rotated", byEmail.AccessToken)

	require.NoError(t, users.Delete(ctx, user.ID))
	_, err = users.FindByID(ctx, user.ID)
	assert.True(t, errors.Is(err, repository.ErrUserNotFound))
}

func TestProcessedRepository(t *testing.T) {
	ctx := context.Background()
	processed := newTestDB(t).Processed()
	key := repository.ProcessedKey("u1")

	empty, err := processed.Load(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, empty)

	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	reply := model.ReplyDraft{ID: 3, Label: "Will Confirm", Text: "Let me check."}
	first := map[string]model.ProcessedRecord{"m1": model.NewProcessedRecord(at, &reply)}
	require.NoError(t, processed.Save(ctx, key, first))

	second := map[string]model.ProcessedRecord{
		"m1": first["m1"],
		"m2": model.NewProcessedRecord(at, nil),
	}
	require.NoError(t, processed.Save(ctx, key, second))

	loaded, err := processed.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, second, loaded)
}

func TestProcessedRepositoryCorruptDocument(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	_, err := db.db.ExecContext(ctx, `INSERT INTO kv_store (key, value) VALUES (?, ?)`, "broken", "{oops")
	require.NoError(t, err)

	_, err = db.Processed().Load(ctx, "broken")

	var storageErr *model.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "load", storageErr.Op)
}
