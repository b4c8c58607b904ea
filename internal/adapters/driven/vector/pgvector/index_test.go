package pgvector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-labs/briefing/internal/core/domain"
)

func TestFilterClause_Empty(t *testing.T) {
	where, args := filterClause(nil, 3)
	assert.Empty(t, where)
	assert.Empty(t, args)

	where, args = filterClause(domain.Filter{}, 3)
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestFilterClause_SingleKey(t *testing.T) {
	where, args := filterClause(domain.Filter{"category": {"tech", "science"}}, 3)
	assert.Equal(t, "WHERE metadata->>$3 = ANY($4)", where)
	require.Len(t, args, 2)
	assert.Equal(t, "category", args[0])
	assert.Equal(t, []string{"tech", "science"}, args[1])
}

func TestFilterClause_MultipleKeysAreAnded(t *testing.T) {
	where, args := filterClause(domain.Filter{
		"category":  {"tech"},
		"source_id": {"a", "b"},
	}, 3)
	assert.Contains(t, where, "WHERE ")
	assert.Contains(t, where, " AND ")
	assert.Len(t, args, 4)
}
