package query

import "fmt"

// CountResult is the shape of the count aggregate query.
type CountResult struct {
	Total             int64
	DistinctRaw       int64
	DistinctCanonical int64
}

// TopResult is one row of the top aggregate query: a canonical author
// and how many messages resolve to it.
type TopResult struct {
	Author string
	Count  int64
}

const topLimit = 6

const canonicalAuthorExpr = "COALESCE((SELECT alias_primary FROM aliases WHERE alias_secondary = msg_author), msg_author)"

// Count lowers e into the count aggregate: total rows, distinct raw
// authors, and distinct canonical (alias-resolved) authors, reusing the
// same filter construction as Search.
func (l *Lowerer) Count(e *Expr, botNames []string) (*LoweredQuery, error) {
	b := NewBuilder()
	filterText, err := l.filterWithBots(e, b, botNames)
	if err != nil {
		return nil, err
	}
	sql := fmt.Sprintf(
		"SELECT COUNT(*) AS total, COUNT(DISTINCT msg_author) AS distinct_raw, COUNT(DISTINCT %s) AS distinct_canonical\nFROM messages\nLEFT JOIN aliases ON alias_secondary = msg_author\nWHERE %s",
		canonicalAuthorExpr, filterText,
	)
	return &LoweredQuery{SQL: sql, Bindings: b.Bindings()}, nil
}

// Top lowers e into the top-6-canonical-authors aggregate, reusing the
// same filter construction as Search.
func (l *Lowerer) Top(e *Expr, botNames []string) (*LoweredQuery, error) {
	b := NewBuilder()
	filterText, err := l.filterWithBots(e, b, botNames)
	if err != nil {
		return nil, err
	}
	sql := fmt.Sprintf(
		"SELECT %s AS canonical_author, COUNT(*) AS cnt\nFROM messages\nLEFT JOIN aliases ON alias_secondary = msg_author\nWHERE %s\nGROUP BY canonical_author\nORDER BY cnt DESC\nLIMIT %d",
		canonicalAuthorExpr, filterText, topLimit,
	)
	return &LoweredQuery{SQL: sql, Bindings: b.Bindings()}, nil
}

// filterWithBots builds the filter for e and applies the bots=exclude
// control predicate the same way Search does, ignoring sort/order (they
// have no meaning for an aggregate).
func (l *Lowerer) filterWithBots(e *Expr, b *Builder, botNames []string) (string, error) {
	botsVal, _ := e.GetFunc("bots")
	if botsVal == "" {
		botsVal = "exclude"
	}
	if botsVal != "include" && botsVal != "exclude" {
		return "", &Error{Kind: KindControlArg, Message: errBadBots.Error()}
	}

	filterText, _, err := buildFilter(e, b, l.catalog)
	if err != nil {
		return "", err
	}
	if botsVal == "exclude" {
		n := b.ReserveBinding(botNames)
		filterText = fmt.Sprintf("(%s) AND msg_author != ALL(%s)", filterText, Placeholder(n))
	}
	return filterText, nil
}
