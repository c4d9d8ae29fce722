package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lowerSearch(t *testing.T, raw string, bots []string) *LoweredQuery {
	t.Helper()
	e, err := Parse(raw)
	require.NoError(t, err)
	n, err := Normalize(e)
	require.NoError(t, err)
	l := NewLowerer(NewCatalog())
	lq, err := l.Search(n, bots)
	require.NoError(t, err)
	return lq
}

func TestLowerSinglePhrase(t *testing.T) {
	lq := lowerSearch(t, "hello", nil)
	assert.Contains(t, lq.SQL, "phraseto_tsquery('russian', $1)")
	assert.Contains(t, lq.SQL, "to_tsvector('russian', msg_body) @@")
	require.GreaterOrEqual(t, len(lq.Bindings), 1)
	assert.Equal(t, "hello", lq.Bindings[0])
}

func TestLowerAuthorAndDate(t *testing.T) {
	lq := lowerSearch(t, "author:alice AND date:2024-01-01", nil)
	assert.Contains(t, lq.SQL, "AND")
	assert.Contains(t, lq.SQL, "msg_timestamp::date")
	assert.NotContains(t, lq.SQL, "phraseto_tsquery")
	// no tsqueries produced -> rank falls back to timestamp
	assert.Contains(t, lq.SQL, "ORDER BY msg_timestamp")
}

func TestLowerOrPhrases(t *testing.T) {
	lq := lowerSearch(t, `"foo" OR "bar"`, nil)
	assert.Contains(t, lq.SQL, "||")
}

func TestLowerThenAndAuthor(t *testing.T) {
	lq := lowerSearch(t, "(foo THEN bar) AND author:alice", nil)
	assert.Contains(t, lq.SQL, "<->")
	assert.Contains(t, lq.SQL, "AND")
}

func TestLowerSortRandomOrderAsc(t *testing.T) {
	lq := lowerSearch(t, "sort:random order:asc foo", nil)
	assert.Contains(t, lq.SQL, "ORDER BY RANDOM() ASC")
	assert.Contains(t, lq.SQL, "LIMIT 1000")
}

func TestLowerBotsExcludeDefault(t *testing.T) {
	lq := lowerSearch(t, "foo", []string{"bottybot"})
	assert.Contains(t, lq.SQL, "!= ALL(")
}

func TestLowerBotsInclude(t *testing.T) {
	lq := lowerSearch(t, "foo bots:include", nil)
	assert.NotContains(t, lq.SQL, "!= ALL(")
}

func TestLowerEmptyQueryIsWhereFalse(t *testing.T) {
	lq := lowerSearch(t, "", nil)
	assert.Contains(t, lq.SQL, "WHERE FALSE")
}

func TestLowerExpansionBudgetExhausted(t *testing.T) {
	// Build an And of 21 distinct Ors, each mixing a phrase and a func,
	// so every Or must be distributed; the full expansion needs far more
	// than expandBudget distribution steps.
	var e *Expr = NewOr(NewPhrase("p0"), NewFunc("author", "a0"))
	for i := 0; i < 20; i++ {
		suffix := string(rune('a' + i))
		e = NewAnd(e, NewOr(NewPhrase("p"+suffix), NewFunc("author", "a"+suffix)))
	}
	_, err := Normalize(e)
	require.Error(t, err)
	var qerr *Error
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, KindComplexity, qerr.Kind)
}

func TestCountAndTopReuseFilter(t *testing.T) {
	e, err := Parse("author:alice")
	require.NoError(t, err)
	n, err := Normalize(e)
	require.NoError(t, err)
	l := NewLowerer(NewCatalog())

	cq, err := l.Count(n, nil)
	require.NoError(t, err)
	assert.Contains(t, cq.SQL, "COUNT(*)")

	tq, err := l.Top(n, nil)
	require.NoError(t, err)
	assert.Contains(t, tq.SQL, "GROUP BY canonical_author")
	assert.Contains(t, tq.SQL, "LIMIT 6")
}
