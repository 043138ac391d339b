package schema

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/dbrag/dbrag-server/internal/apperrors"
	"github.com/dbrag/dbrag-server/internal/db/drivers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

func newSQLiteIntrospector(t *testing.T, name string) (*Introspector, *bun.DB) {
	t.Helper()

	driver, err := drivers.NewSQLiteDriver(context.Background(), "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { driver.Close() })

	return NewIntrospector(driver), driver.GetDB()
}

func TestDescribeSQLite(t *testing.T) {
	in, db := newSQLiteIntrospector(t, "schema-describe")
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `CREATE TABLE actor (
		actor_id INTEGER PRIMARY KEY,
		first_name VARCHAR(45) NOT NULL,
		last_name VARCHAR(45) NOT NULL,
		last_update TIMESTAMP
	)`)
	require.NoError(t, err)

	table, err := in.Describe(ctx, "actor")
	require.NoError(t, err)

	require.Len(t, table.Columns, 4)
	assert.Equal(t, "actor_id", table.Columns[0].Name)
	assert.Equal(t, "integer", table.Columns[0].DataType)
	assert.True(t, table.Columns[0].IsPrimaryKey)
	assert.Equal(t, "first_name", table.Columns[1].Name)
	assert.Equal(t, "varchar(45)", table.Columns[1].DataType)
	assert.False(t, table.Columns[1].IsNullable)
	assert.True(t, table.Columns[3].IsNullable)
}

func TestSchemaTextCoversOnlyRequestedTables(t *testing.T) {
	in, db := newSQLiteIntrospector(t, "schema-text")
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `CREATE TABLE actor (actor_id INTEGER PRIMARY KEY, first_name VARCHAR(45) NOT NULL)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `CREATE TABLE film (film_id INTEGER PRIMARY KEY, title VARCHAR(255) NOT NULL)`)
	require.NoError(t, err)

	text, err := in.SchemaText(ctx, []string{"actor"})
	require.NoError(t, err)

	assert.Equal(t, "Table 'actor' has columns: actor_id (integer, primary key), first_name (varchar(45)).", text)
	assert.NotContains(t, text, "film")
	assert.NotContains(t, text, "title")
}

func TestSchemaTextMissingTable(t *testing.T) {
	in, _ := newSQLiteIntrospector(t, "schema-missing")

	_, err := in.SchemaText(context.Background(), []string{"no_such_table"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeConfiguration))
	assert.Contains(t, err.Error(), "no_such_table")
}

func TestTablesSQLite(t *testing.T) {
	in, db := newSQLiteIntrospector(t, "schema-tables")
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `CREATE TABLE actor (actor_id INTEGER PRIMARY KEY)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `CREATE TABLE film (film_id INTEGER PRIMARY KEY)`)
	require.NoError(t, err)

	tables, err := in.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"actor", "film"}, tables)
}

type pgMockDriver struct {
	db *bun.DB
}

func (d *pgMockDriver) GetDB() *bun.DB { return d.db }

func (d *pgMockDriver) Dialect() string { return drivers.DialectPostgres }

func (d *pgMockDriver) Close() error { return d.db.Close() }

func newPGMockIntrospector(t *testing.T) (*Introspector, sqlmock.Sqlmock) {
	t.Helper()

	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)

	db := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() { db.Close() })

	return NewIntrospector(&pgMockDriver{db: db}), mock
}

func TestDescribePG(t *testing.T) {
	in, mock := newPGMockIntrospector(t)

	mock.ExpectQuery("information_schema.columns").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "column_default", "is_primary_key"}).
			AddRow("actor_id", "integer", false, "nextval('actor_actor_id_seq'::regclass)", true).
			AddRow("first_name", "character varying", false, nil, false))

	table, err := in.Describe(context.Background(), "actor")
	require.NoError(t, err)

	require.Len(t, table.Columns, 2)
	assert.Equal(t, "actor_id", table.Columns[0].Name)
	assert.True(t, table.Columns[0].IsPrimaryKey)
	require.NotNil(t, table.Columns[0].Default)
	assert.Equal(t, "character varying", table.Columns[1].DataType)
	assert.Nil(t, table.Columns[1].Default)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDescribePGMissingTable(t *testing.T) {
	in, mock := newPGMockIntrospector(t)

	mock.ExpectQuery("information_schema.columns").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "column_default", "is_primary_key"}))

	_, err := in.Describe(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeConfiguration))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTablesPG(t *testing.T) {
	in, mock := newPGMockIntrospector(t)

	mock.ExpectQuery("information_schema.tables").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("actor").AddRow("film"))

	tables, err := in.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"actor", "film"}, tables)

	assert.NoError(t, mock.ExpectationsWereMet())
}
