package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dbrag/dbrag-server/internal/db/drivers"
	"github.com/dbrag/dbrag-server/internal/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func newTestDB(t *testing.T, name string) *bun.DB {
	t.Helper()

	driver, err := drivers.NewSQLiteDriver(context.Background(), "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { driver.Close() })

	db := driver.GetDB()
	for _, model := range []interface{}{(*models.APIKey)(nil), (*models.QueryRecord)(nil)} {
		_, err := db.NewCreateTable().Model(model).IfNotExists().Exec(context.Background())
		require.NoError(t, err)
	}

	return db
}

func TestAPIKeyRepositoryRoundTrip(t *testing.T) {
	db := newTestDB(t, "apikeys")
	repo := NewAPIKeyRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, models.NewAPIKey("hash-1", "dk-a****b"))
	require.NoError(t, err)
	require.NotNil(t, created)

	got, err := repo.GetAPIKeyWithHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.False(t, got.IsRevoked)

	require.NoError(t, repo.RevokeAPIKeyWithHash(ctx, "hash-1"))

	got, err = repo.GetAPIKeyWithHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.True(t, got.IsRevoked)

	keys, err := repo.ListAPIKeys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 1)

	_, err = repo.GetAPIKeyWithHash(ctx, "no-such-hash")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestQueryRecordRepositoryListRecent(t *testing.T) {
	db := newTestDB(t, "querylog")
	repo := NewQueryRecordRepository(db)
	ctx := context.Background()

	for _, question := range []string{"how many actors", "list film titles", "count rentals"} {
		record := models.NewQueryRecord(question, "llama2:latest")
		record.Status = models.QueryStatusSucceeded
		record.SQL = "SELECT 1"

		_, err := repo.Create(ctx, record)
		require.NoError(t, err)
	}

	records, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	all, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestQueryRecordRepositoryCreateNil(t *testing.T) {
	db := newTestDB(t, "querylog-nil")
	repo := NewQueryRecordRepository(db)

	_, err := repo.Create(context.Background(), nil)
	assert.Error(t, err)
}
