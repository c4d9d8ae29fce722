package query

import (
	"fmt"
	"strings"
)

// LoweredQuery is the output of lowering a normalized expression tree: a
// parameterised SQL statement ready for execution through the store.
type LoweredQuery struct {
	SQL      string
	Bindings []any
}

// Lowerer walks a normalized tree and emits SQL against the fixed
// messages/aliases schema, using a Catalog to render data predicates.
type Lowerer struct {
	catalog *Catalog
}

func NewLowerer(catalog *Catalog) *Lowerer {
	return &Lowerer{catalog: catalog}
}

const searchSelectColumns = "msg_id, msg_offset, msg_author, msg_body, msg_timestamp"

const resultLimit = 1000

// Search lowers e (already normalized) into the primary search SELECT.
// botNames is the caller-supplied exclusion list used when bots=exclude
// (the default).
func (l *Lowerer) Search(e *Expr, botNames []string) (*LoweredQuery, error) {
	b := NewBuilder()

	sortVal, _ := e.GetFunc("sort")
	if sortVal == "" {
		sortVal = "relevance"
	}
	orderVal, _ := e.GetFunc("order")
	if orderVal == "" {
		orderVal = "desc"
	}
	botsVal, _ := e.GetFunc("bots")
	if botsVal == "" {
		botsVal = "exclude"
	}

	filterText, tsqueries, err := buildFilter(e, b, l.catalog)
	if err != nil {
		return nil, err
	}

	orderSQL, err := l.orderByClause(sortVal, orderVal, tsqueries)
	if err != nil {
		return nil, err
	}

	if botsVal != "include" && botsVal != "exclude" {
		return nil, &Error{Kind: KindControlArg, Message: errBadBots.Error()}
	}
	// A FALSE filter already matches nothing, so it is emitted bare.
	if botsVal == "exclude" && filterText != "FALSE" {
		n := b.ReserveBinding(botNames)
		filterText = fmt.Sprintf("(%s) AND msg_author != ALL(%s)", filterText, Placeholder(n))
	}

	sql := fmt.Sprintf(
		"SELECT %s\nFROM messages\nLEFT JOIN aliases ON alias_secondary = msg_author\nWHERE %s\n%s\nLIMIT %d",
		searchSelectColumns, filterText, orderSQL, resultLimit,
	)

	return &LoweredQuery{SQL: sql, Bindings: b.Bindings()}, nil
}

// orderByClause implements the sort/order control predicates. time and
// random ignore the tsquery list; relevance sums ts_rank over every
// collected tsquery and falls back to msg_timestamp if none were
// produced.
func (l *Lowerer) orderByClause(sortVal, orderVal string, tsqueries []string) (string, error) {
	dir := strings.ToUpper(orderVal)
	if dir != "ASC" && dir != "DESC" {
		return "", &Error{Kind: KindControlArg, Message: errBadOrder.Error()}
	}

	switch sortVal {
	case "time":
		return fmt.Sprintf("ORDER BY msg_timestamp %s", dir), nil
	case "relevance":
		if len(tsqueries) == 0 {
			return fmt.Sprintf("ORDER BY msg_timestamp %s", dir), nil
		}
		terms := make([]string, len(tsqueries))
		for i, tsq := range tsqueries {
			terms[i] = fmt.Sprintf("ts_rank(to_tsvector('russian', msg_body), %s)", tsq)
		}
		return fmt.Sprintf("ORDER BY %s %s", strings.Join(terms, " + "), dir), nil
	case "random":
		return fmt.Sprintf("ORDER BY RANDOM() %s", dir), nil
	default:
		return "", &Error{Kind: KindControlArg, Message: errBadSort.Error()}
	}
}

// buildFilter implements the WHERE clause construction described in
// SPEC_FULL.md / spec.md §4.5: separate each junction's children into a
// phrase sub-tree and a function sub-tree where no single child mixes
// both, lower each side with its own specialised builder, and combine
// per the And/Or absorption rules. A junction with a mixed child is
// emitted directly, child by child, without splitting.
func buildFilter(e *Expr, b *Builder, cat *Catalog) (string, []string, error) {
	switch e.Kind {
	case KindTrue, KindEmpty:
		return "TRUE", nil, nil
	case KindFalse:
		return "FALSE", nil, nil
	case KindPhrase, KindThen:
		tsq, err := buildTSQuery(e, b)
		if err != nil {
			return "", nil, err
		}
		return buildPhraseWhere(tsq), []string{tsq}, nil
	case KindFunc:
		frag, err := buildFuncAtom(e, b, cat)
		return frag, nil, err
	case KindNot:
		return buildNotFilter(e, b, cat)
	case KindAnd, KindOr:
		return buildJunctionFilter(e, b, cat)
	default:
		return "TRUE", nil, nil
	}
}

func buildPhraseWhere(tsq string) string {
	return fmt.Sprintf("to_tsvector('russian', msg_body) @@ (%s)", tsq)
}

// buildNotFilter handles Not(atom): after normalization Not appears only
// on leaves (Phrase, Func, or a constant).
func buildNotFilter(e *Expr, b *Builder, cat *Catalog) (string, []string, error) {
	switch e.Operand.Kind {
	case KindFunc:
		frag, err := buildFuncAtom(e, b, cat)
		return frag, nil, err
	case KindPhrase:
		tsq, err := buildTSQuery(e, b)
		if err != nil {
			return "", nil, err
		}
		return buildPhraseWhere(tsq), []string{tsq}, nil
	case KindTrue:
		return "FALSE", nil, nil
	case KindFalse, KindEmpty:
		return "TRUE", nil, nil
	default:
		return "TRUE", nil, nil
	}
}

func buildJunctionFilter(e *Expr, b *Builder, cat *Catalog) (string, []string, error) {
	mixed := false
	for _, c := range e.Children {
		if c.HasPhrases() && c.HasFuncs() {
			mixed = true
			break
		}
	}

	joinWord := " AND "
	if e.Kind == KindOr {
		joinWord = " OR "
	}

	if mixed {
		parts := make([]string, 0, len(e.Children))
		var allTsq []string
		for _, c := range e.Children {
			frag, tsq, err := buildFilter(c, b, cat)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, "("+frag+")")
			allTsq = append(allTsq, tsq...)
		}
		return strings.Join(parts, joinWord), allTsq, nil
	}

	var phraseChildren, funcChildren []*Expr
	for _, c := range e.Children {
		if c.HasPhrases() {
			phraseChildren = append(phraseChildren, c)
		} else {
			funcChildren = append(funcChildren, c)
		}
	}

	phraseFrag, phraseTsq, err := buildPhraseSubtree(e.Kind, phraseChildren, b)
	if err != nil {
		return "", nil, err
	}
	funcFrag, err := buildFuncSubtree(e.Kind, funcChildren, b, cat)
	if err != nil {
		return "", nil, err
	}

	if e.Kind == KindAnd {
		switch {
		case phraseFrag == "FALSE" || funcFrag == "FALSE":
			return "FALSE", nil, nil
		case phraseFrag == "TRUE":
			return funcFrag, nil, nil
		case funcFrag == "TRUE":
			return phraseFrag, phraseTsq, nil
		default:
			return fmt.Sprintf("(%s) AND (%s)", phraseFrag, funcFrag), phraseTsq, nil
		}
	}

	switch {
	case phraseFrag == "TRUE" || funcFrag == "TRUE":
		return "TRUE", nil, nil
	case phraseFrag == "FALSE" && funcFrag == "FALSE":
		return "FALSE", nil, nil
	default:
		return fmt.Sprintf("(%s) OR (%s)", phraseFrag, funcFrag), phraseTsq, nil
	}
}

// buildPhraseSubtree lowers a set of phrase-only children of an And/Or
// junction into a single tsquery-backed WHERE fragment.
func buildPhraseSubtree(kind Kind, children []*Expr, b *Builder) (string, []string, error) {
	if len(children) == 0 {
		return "TRUE", nil, nil
	}
	var wrapped *Expr
	if len(children) == 1 {
		wrapped = children[0]
	} else if kind == KindAnd {
		wrapped = NewAnd(children...)
	} else {
		wrapped = NewOr(children...)
	}
	tsq, err := buildTSQuery(wrapped, b)
	if err != nil {
		return "", nil, err
	}
	return buildPhraseWhere(tsq), []string{tsq}, nil
}

// buildFuncSubtree lowers a set of function-only children of an And/Or
// junction by rendering each through the predicate catalog and joining
// with AND/OR text, never touching tsquery machinery.
func buildFuncSubtree(kind Kind, children []*Expr, b *Builder, cat *Catalog) (string, error) {
	if len(children) == 0 {
		return "TRUE", nil
	}
	parts := make([]string, 0, len(children))
	for _, c := range children {
		frag, err := buildFuncAtom(c, b, cat)
		if err != nil {
			return "", err
		}
		parts = append(parts, "("+frag+")")
	}
	sep := " AND "
	if kind == KindOr {
		sep = " OR "
	}
	return strings.Join(parts, sep), nil
}

// buildFuncAtom renders a single predicate leaf, its negation, a nested
// pure-function And/Or, or a control predicate (rendered TRUE — it was
// already consumed by Search/Count/Top).
func buildFuncAtom(e *Expr, b *Builder, cat *Catalog) (string, error) {
	switch e.Kind {
	case KindFunc:
		if reservedControlPredicates[e.FuncName] {
			return "TRUE", nil
		}
		return cat.Render(b, e.FuncName, e.FuncArg)
	case KindNot:
		switch e.Operand.Kind {
		case KindFunc:
			if reservedControlPredicates[e.Operand.FuncName] {
				return "TRUE", nil
			}
			frag, err := cat.Render(b, e.Operand.FuncName, e.Operand.FuncArg)
			if err != nil {
				return "", err
			}
			return "NOT (" + frag + ")", nil
		case KindTrue:
			return "FALSE", nil
		default:
			return "TRUE", nil
		}
	case KindTrue, KindEmpty:
		return "TRUE", nil
	case KindFalse:
		return "FALSE", nil
	case KindAnd, KindOr:
		return buildFuncSubtree(e.Kind, e.Children, b, cat)
	default:
		return "TRUE", nil
	}
}

// buildTSQuery implements build_tsquery: the phrase side of the tree is
// compiled into a single Postgres tsquery expression.
func buildTSQuery(e *Expr, b *Builder) (string, error) {
	switch e.Kind {
	case KindPhrase:
		n := b.ReserveBinding(e.Phrase)
		return fmt.Sprintf("phraseto_tsquery('russian', %s)", Placeholder(n)), nil
	case KindNot:
		inner, err := buildTSQuery(e.Operand, b)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("!!(%s)", inner), nil
	case KindThen:
		return joinTSQuery(e.Children, b, "<->")
	case KindAnd:
		return joinTSQuery(e.Children, b, "&&")
	case KindOr:
		return joinTSQuery(e.Children, b, "||")
	default:
		n := b.ReserveBinding("")
		return fmt.Sprintf("phraseto_tsquery('russian', %s)", Placeholder(n)), nil
	}
}

func joinTSQuery(children []*Expr, b *Builder, op string) (string, error) {
	parts := make([]string, 0, len(children))
	for _, c := range children {
		p, err := buildTSQuery(c, b)
		if err != nil {
			return "", err
		}
		parts = append(parts, p)
	}
	return "(" + strings.Join(parts, " "+op+" ") + ")", nil
}
