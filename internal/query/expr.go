package query

import (
	"sort"
	"strings"
)

// Kind discriminates the cases of the Expr tagged union.
type Kind int

const (
	KindPhrase Kind = iota
	KindFunc
	KindNot
	KindAnd
	KindOr
	KindThen
	KindTrue
	KindFalse
	KindEmpty
)

func (k Kind) String() string {
	switch k {
	case KindPhrase:
		return "Phrase"
	case KindFunc:
		return "Func"
	case KindNot:
		return "Not"
	case KindAnd:
		return "And"
	case KindOr:
		return "Or"
	case KindThen:
		return "Then"
	case KindTrue:
		return "True"
	case KindFalse:
		return "False"
	case KindEmpty:
		return "Empty"
	default:
		return "?"
	}
}

// Expr is the expression tree built by the parser, rewritten by the
// normalization passes, and consumed by the lowerer. Trees are treated as
// immutable; every transform returns a new tree rather than mutating in
// place.
type Expr struct {
	Kind Kind

	// KindPhrase
	Phrase string

	// KindFunc
	FuncName string
	FuncArg  string

	// KindNot
	Operand *Expr

	// KindAnd, KindOr, KindThen
	Children []*Expr
}

var exprTrue = &Expr{Kind: KindTrue}
var exprFalse = &Expr{Kind: KindFalse}
var exprEmpty = &Expr{Kind: KindEmpty}

func True() *Expr  { return exprTrue }
func False() *Expr { return exprFalse }
func Empty() *Expr { return exprEmpty }

func NewPhrase(s string) *Expr { return &Expr{Kind: KindPhrase, Phrase: s} }

func NewFunc(name, arg string) *Expr {
	return &Expr{Kind: KindFunc, FuncName: strings.ToLower(name), FuncArg: arg}
}

func NewNot(e *Expr) *Expr { return &Expr{Kind: KindNot, Operand: e} }

func NewAnd(children ...*Expr) *Expr { return &Expr{Kind: KindAnd, Children: children} }
func NewOr(children ...*Expr) *Expr  { return &Expr{Kind: KindOr, Children: children} }
func NewThen(children ...*Expr) *Expr { return &Expr{Kind: KindThen, Children: children} }

// key renders a canonical string used for sorting, deduplication and
// complementary-pair detection. Two expressions with the same key are
// considered structurally identical.
func (e *Expr) key() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	e.writeKey(&b)
	return b.String()
}

func (e *Expr) writeKey(b *strings.Builder) {
	switch e.Kind {
	case KindPhrase:
		b.WriteString("P(")
		b.WriteString(e.Phrase)
		b.WriteByte(')')
	case KindFunc:
		b.WriteString("F(")
		b.WriteString(e.FuncName)
		b.WriteByte(':')
		b.WriteString(e.FuncArg)
		b.WriteByte(')')
	case KindNot:
		b.WriteString("N(")
		e.Operand.writeKey(b)
		b.WriteByte(')')
	case KindAnd, KindOr, KindThen:
		switch e.Kind {
		case KindAnd:
			b.WriteString("A[")
		case KindOr:
			b.WriteString("O[")
		case KindThen:
			b.WriteString("T[")
		}
		for i, c := range e.Children {
			if i > 0 {
				b.WriteByte(',')
			}
			c.writeKey(b)
		}
		b.WriteByte(']')
	case KindTrue:
		b.WriteString("True")
	case KindFalse:
		b.WriteString("False")
	case KindEmpty:
		b.WriteString("Empty")
	}
}

// Equal reports whether two expressions are structurally identical.
func (e *Expr) Equal(o *Expr) bool {
	return e.key() == o.key()
}

// isComplement reports whether a is structurally Not(b) or b is Not(a).
func isComplement(a, b *Expr) bool {
	if a.Kind == KindNot && a.Operand.Equal(b) {
		return true
	}
	if b.Kind == KindNot && b.Operand.Equal(a) {
		return true
	}
	return false
}

func sortChildren(children []*Expr) {
	sort.Slice(children, func(i, j int) bool {
		return children[i].key() < children[j].key()
	})
}

// dedupeSorted removes structurally identical children, assuming children is
// already sorted by key.
func dedupeSorted(children []*Expr) []*Expr {
	if len(children) == 0 {
		return children
	}
	out := children[:1]
	for _, c := range children[1:] {
		if !c.Equal(out[len(out)-1]) {
			out = append(out, c)
		}
	}
	return out
}

// HasPhrases reports whether e or any descendant is a Phrase.
func (e *Expr) HasPhrases() bool {
	switch e.Kind {
	case KindPhrase:
		return true
	case KindNot:
		return e.Operand.HasPhrases()
	case KindAnd, KindOr, KindThen:
		for _, c := range e.Children {
			if c.HasPhrases() {
				return true
			}
		}
	}
	return false
}

// HasFuncs reports whether e or any descendant is a Func.
func (e *Expr) HasFuncs() bool {
	switch e.Kind {
	case KindFunc:
		return true
	case KindNot:
		return e.Operand.HasFuncs()
	case KindAnd, KindOr, KindThen:
		for _, c := range e.Children {
			if c.HasFuncs() {
				return true
			}
		}
	}
	return false
}

// GetFunc returns the value of the named predicate if it appears as a
// direct child of a top-level And (or is the whole expression), scanning
// left to right and returning the first match. This implements the
// "first-wins" rule for control predicates (sort/order/bots).
func (e *Expr) GetFunc(name string) (string, bool) {
	name = strings.ToLower(name)
	if e.Kind == KindFunc && e.FuncName == name {
		return e.FuncArg, true
	}
	if e.Kind == KindAnd {
		for _, c := range e.Children {
			if c.Kind == KindFunc && c.FuncName == name {
				return c.FuncArg, true
			}
		}
	}
	return "", false
}

// isAtom reports whether e is a leaf the normalizer treats as opaque:
// Phrase, Func, or one of the constants.
func (e *Expr) isAtom() bool {
	switch e.Kind {
	case KindPhrase, KindFunc, KindTrue, KindFalse, KindEmpty:
		return true
	default:
		return false
	}
}
