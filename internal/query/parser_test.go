package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmptyIsFalse(t *testing.T) {
	e, err := Parse("")
	require.NoError(t, err)
	assert.Equal(t, KindFalse, e.Kind)
}

func TestParseBareWordIsPhrase(t *testing.T) {
	e, err := Parse("hello")
	require.NoError(t, err)
	require.Equal(t, KindPhrase, e.Kind)
	assert.Equal(t, "hello", e.Phrase)
}

func TestParseQuotedString(t *testing.T) {
	e, err := Parse(`"hello world"`)
	require.NoError(t, err)
	require.Equal(t, KindPhrase, e.Kind)
	assert.Equal(t, "hello world", e.Phrase)
}

func TestParseFuncWithColon(t *testing.T) {
	e, err := Parse("author:alice")
	require.NoError(t, err)
	require.Equal(t, KindFunc, e.Kind)
	assert.Equal(t, "author", e.FuncName)
	assert.Equal(t, "alice", e.FuncArg)
}

func TestParseFuncWithQuotedValue(t *testing.T) {
	e, err := Parse(`date:"2024-01-01"`)
	require.NoError(t, err)
	require.Equal(t, KindFunc, e.Kind)
	assert.Equal(t, "2024-01-01", e.FuncArg)
}

func TestParseImplicitAnd(t *testing.T) {
	e, err := Parse("foo bar")
	require.NoError(t, err)
	require.Equal(t, KindAnd, e.Kind)
	require.Len(t, e.Children, 2)
}

func TestParseExplicitOperators(t *testing.T) {
	// OR binds tighter than AND: foo AND (bar OR baz).
	e, err := Parse("foo AND bar OR baz")
	require.NoError(t, err)
	require.Equal(t, KindAnd, e.Kind)
	require.Len(t, e.Children, 2)
	assert.Equal(t, KindOr, e.Children[1].Kind)
}

func TestParseThen(t *testing.T) {
	e, err := Parse("foo THEN bar")
	require.NoError(t, err)
	require.Equal(t, KindThen, e.Kind)
	require.Len(t, e.Children, 2)
}

func TestParseNot(t *testing.T) {
	e, err := Parse("NOT foo")
	require.NoError(t, err)
	require.Equal(t, KindNot, e.Kind)
	assert.Equal(t, "foo", e.Operand.Phrase)
}

func TestParseParens(t *testing.T) {
	e, err := Parse("(foo OR bar) AND baz")
	require.NoError(t, err)
	require.Equal(t, KindAnd, e.Kind)
	require.Len(t, e.Children, 2)
	assert.Equal(t, KindOr, e.Children[0].Kind)
}

func TestParseLowercaseKeywordIsPhrase(t *testing.T) {
	// "and" lowercase is not a keyword (keywords are case-sensitive
	// uppercase), so it is a valid phrase.
	e, err := Parse("and")
	require.NoError(t, err)
	assert.Equal(t, KindPhrase, e.Kind)
}

func TestParseUppercaseKeywordAtTermPositionFails(t *testing.T) {
	_, err := Parse("AND")
	require.Error(t, err)
}

func TestParseWhitespaceTerminatesOnPunctuation(t *testing.T) {
	e, err := Parse("foo,bar")
	require.NoError(t, err)
	require.Equal(t, KindAnd, e.Kind)
	require.Len(t, e.Children, 2)
	assert.Equal(t, "foo", e.Children[0].Phrase)
	assert.Equal(t, "bar", e.Children[1].Phrase)
}

func TestParseEscapesInString(t *testing.T) {
	e, err := Parse(`"say \"hi\""`)
	require.NoError(t, err)
	assert.Equal(t, `say "hi"`, e.Phrase)
}

func TestParseMalformedUnclosedParen(t *testing.T) {
	_, err := Parse("(foo")
	require.Error(t, err)
	var qerr *Error
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, KindParse, qerr.Kind)
}

func TestParseMalformedUnclosedString(t *testing.T) {
	_, err := Parse(`"foo`)
	require.Error(t, err)
}

func TestPrintRoundTrip(t *testing.T) {
	inputs := []string{
		"hello",
		"author:alice",
		"foo AND bar",
		"foo OR bar",
		"foo THEN bar",
		"NOT foo",
	}
	for _, in := range inputs {
		e, err := Parse(in)
		require.NoError(t, err)
		printed := Print(e)
		e2, err := Parse(printed)
		require.NoError(t, err)
		assert.Equal(t, e.key(), e2.key(), "round trip mismatch for %q -> %q", in, printed)
	}
}
