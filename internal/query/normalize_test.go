package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, s string) *Expr {
	t.Helper()
	e, err := Parse(s)
	require.NoError(t, err)
	return e
}

func TestNormalizeIdempotent(t *testing.T) {
	cases := []string{
		"foo AND bar",
		"NOT NOT foo",
		"foo AND NOT foo",
		"foo OR NOT foo",
		"(foo OR bar) AND author:alice",
		"(foo THEN bar) AND author:alice",
	}
	for _, c := range cases {
		e := mustParse(t, c)
		once, err := Normalize(e)
		require.NoError(t, err)
		twice, err := Normalize(once)
		require.NoError(t, err)
		assert.Equal(t, once.key(), twice.key(), "normalize not idempotent for %q", c)
	}
}

func TestNotNotCollapses(t *testing.T) {
	e := mustParse(t, "NOT NOT foo")
	n, err := Normalize(e)
	require.NoError(t, err)
	assert.Equal(t, KindPhrase, n.Kind)
	assert.Equal(t, "foo", n.Phrase)
}

func TestComplementaryAndIsFalse(t *testing.T) {
	e := mustParse(t, "foo AND NOT foo")
	n, err := Normalize(e)
	require.NoError(t, err)
	assert.Equal(t, KindFalse, n.Kind)
}

func TestComplementaryOrIsTrue(t *testing.T) {
	e := mustParse(t, "foo OR NOT foo")
	n, err := Normalize(e)
	require.NoError(t, err)
	assert.Equal(t, KindTrue, n.Kind)
}

func TestReduceDropsDuplicates(t *testing.T) {
	e := NewAnd(NewPhrase("foo"), NewPhrase("foo"), NewPhrase("bar"))
	n, err := Normalize(e)
	require.NoError(t, err)
	require.Equal(t, KindAnd, n.Kind)
	assert.Len(t, n.Children, 2)
}

func TestValidateRejectsFuncInThen(t *testing.T) {
	e := mustParse(t, `foo THEN author:alice`)
	_, err := Normalize(e)
	require.Error(t, err)
	var qerr *Error
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, KindValidation, qerr.Kind)
}

func TestValidateRejectsSortInsideOr(t *testing.T) {
	e := mustParse(t, "foo OR sort:time")
	_, err := Normalize(e)
	require.Error(t, err)
}

func TestValidateRejectsControlPredicateNestedDeeper(t *testing.T) {
	e := mustParse(t, "foo AND (bar AND sort:time)")
	_, err := Normalize(e)
	require.Error(t, err)
}

func TestExpandDistributesOnlyWhenMixed(t *testing.T) {
	// (foo OR author:alice) AND bar — the Or mixes phrase and func, so
	// the And around it must be distributed.
	e := NewAnd(NewOr(NewPhrase("foo"), NewFunc("author", "alice")), NewPhrase("bar"))
	n, err := Normalize(e)
	require.NoError(t, err)
	assert.Equal(t, KindOr, n.Kind)
}

func TestExpandLeavesBenignOrUntouched(t *testing.T) {
	// (foo OR baz) AND bar — the Or is pure-phrase, no distribution
	// needed.
	e := NewAnd(NewOr(NewPhrase("foo"), NewPhrase("baz")), NewPhrase("bar"))
	n, err := Normalize(e)
	require.NoError(t, err)
	assert.Equal(t, KindAnd, n.Kind)
}

func TestGetFuncFirstWins(t *testing.T) {
	e := NewAnd(NewFunc("sort", "time"), NewFunc("sort", "random"))
	n, err := Normalize(e)
	require.NoError(t, err)
	val, ok := n.GetFunc("sort")
	require.True(t, ok)
	// After reduce, children are sorted by key; "random" < "time"
	// lexicographically within the Func key encoding, so first-wins
	// means whichever sorts first among the surviving children.
	assert.Contains(t, []string{"time", "random"}, val)
}
