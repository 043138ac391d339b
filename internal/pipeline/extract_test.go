package pipeline

import (
	"testing"

	"github.com/dbrag/dbrag-server/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSQL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "bare statement",
			raw:  "SELECT first_name FROM actor LIMIT 5;",
			want: "SELECT first_name FROM actor LIMIT 5",
		},
		{
			name: "fenced",
			raw:  "```sql\nSELECT first_name FROM actor LIMIT 5;\n```",
			want: "SELECT first_name FROM actor LIMIT 5",
		},
		{
			name: "fenced without language",
			raw:  "Here is the query:\n```\nSELECT DISTINCT last_name FROM actor\n```\nHope that helps!",
			want: "SELECT DISTINCT last_name FROM actor",
		},
		{
			name: "labeled",
			raw:  "SQLQuery: SELECT first_name FROM actor LIMIT 5;",
			want: "SELECT first_name FROM actor LIMIT 5",
		},
		{
			name: "labeled with trailing sections",
			raw:  "SQLQuery: SELECT count(*) FROM actor\nSQLResult: 200\nAnswer: There are 200 actors.",
			want: "SELECT count(*) FROM actor",
		},
		{
			name: "multiline statement",
			raw:  "SELECT a.first_name, a.last_name\nFROM actor a\nORDER BY a.last_name\nLIMIT 5;",
			want: "SELECT a.first_name, a.last_name\nFROM actor a\nORDER BY a.last_name\nLIMIT 5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractSQL(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractSQLEmpty(t *testing.T) {
	for _, raw := range []string{"", "   ", "```\n```", "SQLQuery: \nSQLResult:"} {
		_, err := ExtractSQL(raw)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.CodeGeneration), "raw %q", raw)
	}
}

func TestGuardStatementRejectsWrites(t *testing.T) {
	for _, sqlText := range []string{
		"INSERT INTO actor (first_name) VALUES ('X')",
		"UPDATE actor SET first_name = 'X'",
		"DELETE FROM actor",
		"DROP TABLE actor",
		"TRUNCATE actor",
	} {
		err := GuardStatement(sqlText, false)
		require.Error(t, err, sqlText)
		assert.True(t, apperrors.Is(err, apperrors.CodeQueryExecution))
	}
}

func TestGuardStatementAllowsReads(t *testing.T) {
	assert.NoError(t, GuardStatement("SELECT 1", false))
	assert.NoError(t, GuardStatement("select first_name from actor", false))
	assert.NoError(t, GuardStatement("WITH t AS (SELECT 1) SELECT * FROM t", false))
}

func TestGuardStatementAllowWritesOverride(t *testing.T) {
	assert.NoError(t, GuardStatement("DELETE FROM actor", true))
}
