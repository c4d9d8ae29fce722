package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestCatalogUnknownPredicate(t *testing.T) {
	cat := NewCatalog()
	b := NewBuilder()
	_, err := cat.Render(b, "nope", "x")
	require.Error(t, err)
	var qerr *Error
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, KindPredicate, qerr.Kind)
}

func TestCatalogIsCaseInsensitive(t *testing.T) {
	cat := NewCatalog()
	b := NewBuilder()
	_, err := cat.Render(b, "ChAnNeL", "#cc.ru")
	require.NoError(t, err)
}

func TestAuthorProducesSingleBindingUsedTwice(t *testing.T) {
	cat := NewCatalog()
	b := NewBuilder()
	frag, err := cat.Render(b, "author", "alice")
	require.NoError(t, err)
	assert.Len(t, b.Bindings(), 1)
	assert.Contains(t, frag, "$1")
	assert.Equal(t, 2, countOccurrences(frag, "$1"))
}

func TestContainsEscapesWildcards(t *testing.T) {
	cat := NewCatalog()
	b := NewBuilder()
	_, err := cat.Render(b, "contains", "50%_off")
	require.NoError(t, err)
	require.Len(t, b.Bindings(), 1)
	assert.Equal(t, `%50\%\_off%`, b.Bindings()[0])
}

// TestContainsLiteralUnderscoreDoesNotActAsWildcard exercises the rendered
// fragment against a real LIKE engine, not just the binding string: a
// query for a literal underscore must not match bodies that merely have
// some other character in that position.
func TestContainsLiteralUnderscoreDoesNotActAsWildcard(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE messages (msg_body TEXT)").Error)
	require.NoError(t, db.Exec("INSERT INTO messages (msg_body) VALUES (?), (?), (?)",
		"a_b", "aXb", "a_b_c").Error)

	cat := NewCatalog()
	b := NewBuilder()
	frag, err := cat.Render(b, "contains", "a_b")
	require.NoError(t, err)

	var bodies []string
	sql := "SELECT msg_body FROM messages WHERE " + frag
	require.NoError(t, db.Raw(sql, b.Bindings()...).Scan(&bodies).Error)

	assert.ElementsMatch(t, []string{"a_b", "a_b_c"}, bodies,
		"a literal underscore query must not match aXb as if _ were a wildcard")
}

func TestDateComparatorPrefixes(t *testing.T) {
	cat := NewCatalog()
	for _, arg := range []string{"2024-01-01", "=2024-01-01"} {
		b := NewBuilder()
		frag1, err := cat.Render(b, "date", arg)
		require.NoError(t, err)
		assert.Contains(t, frag1, "=")
	}
}

func TestDateInvalidLiteral(t *testing.T) {
	cat := NewCatalog()
	b := NewBuilder()
	_, err := cat.Render(b, "date", "not-a-date")
	require.Error(t, err)
}

func TestLengthComparator(t *testing.T) {
	cat := NewCatalog()
	b := NewBuilder()
	frag, err := cat.Render(b, "length", ">=10")
	require.NoError(t, err)
	assert.Contains(t, frag, ">=")
	assert.Equal(t, int64(10), b.Bindings()[0])
}

func TestLengthRejectsNonIntegral(t *testing.T) {
	cat := NewCatalog()
	b := NewBuilder()
	_, err := cat.Render(b, "length", "3.5")
	require.Error(t, err)
}

func countOccurrences(s, sub string) int {
	count := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			count++
			i += len(sub) - 1
		}
	}
	return count
}
