package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptRenderContainsQuestionDialectAndSchema(t *testing.T) {
	prompt, err := NewPrompt()
	require.NoError(t, err)

	schemaText := "Table 'actor' has columns: actor_id (integer, primary key), first_name (character varying)."
	rendered, err := prompt.Render("postgres", schemaText, "list some actors")
	require.NoError(t, err)

	assert.Contains(t, rendered, "list some actors")
	assert.Contains(t, rendered, "postgres")
	assert.Contains(t, rendered, schemaText)
}

func TestPromptRenderInstructsDefaultRowCap(t *testing.T) {
	prompt, err := NewPrompt()
	require.NoError(t, err)

	rendered, err := prompt.Render("postgres", "Table 'actor' has columns: actor_id (integer).", "how many actors are there")
	require.NoError(t, err)

	assert.Contains(t, rendered, "at most 5 results using the LIMIT clause")
}

func TestPromptRenderDoesNotLeakOtherTables(t *testing.T) {
	prompt, err := NewPrompt()
	require.NoError(t, err)

	schemaText := "Table 'actor' has columns: actor_id (integer, primary key)."
	rendered, err := prompt.Render("postgres", schemaText, "list some actors")
	require.NoError(t, err)

	// Only the schema text handed in may appear; nothing else is pulled
	// from anywhere.
	assert.NotContains(t, rendered, "film")
	assert.NotContains(t, rendered, "payment")
}

func TestPromptRenderIsStableAcrossCalls(t *testing.T) {
	prompt, err := NewPrompt()
	require.NoError(t, err)

	first, err := prompt.Render("postgres", "Table 'actor' has columns: actor_id (integer).", "list some actors")
	require.NoError(t, err)

	second, err := prompt.Render("postgres", "Table 'actor' has columns: actor_id (integer).", "list some actors")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
