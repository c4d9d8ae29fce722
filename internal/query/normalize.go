package query

// expandBudget bounds the number of distribution steps expand() may
// perform before giving up with a ComplexityError.
const expandBudget = 8192

// reservedControlPredicates are consumed by the lowerer, not the filter
// builder, and may only appear at the root level (as the whole
// expression or as a direct child of the top-level And).
var reservedControlPredicates = map[string]bool{
	"sort":  true,
	"order": true,
	"bots":  true,
}

// Normalize runs the full validate -> to_nnf -> reduce -> expand pipeline
// and returns the normalized tree ready for lowering.
func Normalize(e *Expr) (*Expr, error) {
	if err := validate(e, 0); err != nil {
		return nil, err
	}
	e = toNNF(e)
	e = reduce(e)
	e, err := expand(e, newBudget())
	if err != nil {
		return nil, err
	}
	e = reduce(e)
	return e, nil
}

// validate walks the tree tracking nesting level (the root is level 0,
// each child one level deeper than its parent) and enforces:
//   - Then operands may contain no Func anywhere.
//   - Or operands may contain no sort/order predicate.
//   - sort/order/bots may only appear at level 0 or 1 (the root itself
//     or a direct child of the root).
func validate(e *Expr, level int) error {
	switch e.Kind {
	case KindFunc:
		if reservedControlPredicates[e.FuncName] && level > 1 {
			return &Error{Kind: KindValidation, Message: errControlNotAtRoot.Error()}
		}
	case KindNot:
		return validate(e.Operand, level+1)
	case KindThen:
		for _, c := range e.Children {
			if c.HasFuncs() {
				return &Error{Kind: KindValidation, Message: errThenContainsFunc.Error()}
			}
			if err := validate(c, level+1); err != nil {
				return err
			}
		}
	case KindOr:
		for _, c := range e.Children {
			if containsSortOrOrder(c) {
				return &Error{Kind: KindValidation, Message: errSortInsideOr.Error()}
			}
			if err := validate(c, level+1); err != nil {
				return err
			}
		}
	case KindAnd:
		for _, c := range e.Children {
			if err := validate(c, level+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func containsSortOrOrder(e *Expr) bool {
	switch e.Kind {
	case KindFunc:
		return e.FuncName == "sort" || e.FuncName == "order"
	case KindNot:
		return containsSortOrOrder(e.Operand)
	case KindAnd, KindOr, KindThen:
		for _, c := range e.Children {
			if containsSortOrOrder(c) {
				return true
			}
		}
	}
	return false
}

// toNNF pushes Not to the leaves via De Morgan's laws. Atoms (Phrase,
// Func, constants) retain their single Not wrapper.
func toNNF(e *Expr) *Expr {
	switch e.Kind {
	case KindNot:
		inner := e.Operand
		switch inner.Kind {
		case KindNot:
			return toNNF(inner.Operand)
		case KindAnd:
			negated := make([]*Expr, len(inner.Children))
			for i, c := range inner.Children {
				negated[i] = toNNF(NewNot(c))
			}
			return NewOr(negated...)
		case KindOr:
			negated := make([]*Expr, len(inner.Children))
			for i, c := range inner.Children {
				negated[i] = toNNF(NewNot(c))
			}
			return NewAnd(negated...)
		case KindTrue:
			return False()
		case KindFalse:
			return True()
		default:
			return NewNot(toNNF(inner))
		}
	case KindAnd:
		children := make([]*Expr, len(e.Children))
		for i, c := range e.Children {
			children[i] = toNNF(c)
		}
		return NewAnd(children...)
	case KindOr:
		children := make([]*Expr, len(e.Children))
		for i, c := range e.Children {
			children[i] = toNNF(c)
		}
		return NewOr(children...)
	case KindThen:
		children := make([]*Expr, len(e.Children))
		for i, c := range e.Children {
			children[i] = toNNF(c)
		}
		return NewThen(children...)
	default:
		return e
	}
}

// reduce applies algebraic simplification bottom-up: flatten nested
// And-in-And / Or-in-Or one level, drop the absorbing constant, sort and
// dedupe children, collapse on a complementary pair or the dominating
// constant, and collapse an empty junction to Empty.
func reduce(e *Expr) *Expr {
	switch e.Kind {
	case KindNot:
		return NewNot(reduce(e.Operand))
	case KindThen:
		children := make([]*Expr, len(e.Children))
		for i, c := range e.Children {
			children[i] = reduce(c)
		}
		return NewThen(children...)
	case KindAnd:
		return reduceAnd(e)
	case KindOr:
		return reduceOr(e)
	default:
		return e
	}
}

func reduceAnd(e *Expr) *Expr {
	var flat []*Expr
	for _, c := range e.Children {
		c = reduce(c)
		if c.Kind == KindAnd {
			flat = append(flat, c.Children...)
			continue
		}
		if c.Kind == KindTrue {
			continue
		}
		if c.Kind == KindFalse {
			return False()
		}
		flat = append(flat, c)
	}
	sortChildren(flat)
	flat = dedupeSorted(flat)
	for i := 0; i < len(flat); i++ {
		for j := i + 1; j < len(flat); j++ {
			if isComplement(flat[i], flat[j]) {
				return False()
			}
		}
	}
	if len(flat) == 0 {
		return Empty()
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return NewAnd(flat...)
}

func reduceOr(e *Expr) *Expr {
	var flat []*Expr
	for _, c := range e.Children {
		c = reduce(c)
		if c.Kind == KindOr {
			flat = append(flat, c.Children...)
			continue
		}
		if c.Kind == KindFalse {
			continue
		}
		if c.Kind == KindTrue {
			return True()
		}
		flat = append(flat, c)
	}
	sortChildren(flat)
	flat = dedupeSorted(flat)
	for i := 0; i < len(flat); i++ {
		for j := i + 1; j < len(flat); j++ {
			if isComplement(flat[i], flat[j]) {
				return True()
			}
		}
	}
	if len(flat) == 0 {
		return Empty()
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return NewOr(flat...)
}

// budget tracks the remaining distribution steps expand() may perform.
type budget struct{ remaining int }

func newBudget() *budget { return &budget{remaining: expandBudget} }

func (b *budget) take() error {
	if b.remaining <= 0 {
		return &Error{Kind: KindComplexity, Message: errTooComplex.Error()}
	}
	b.remaining--
	return nil
}

// expand distributes And over Or into disjunctive normal form, but only
// where an Or child mixes phrase-bearing and function-bearing leaves —
// the "only when needed" rule that bounds blow-up for benign queries.
func expand(e *Expr, b *budget) (*Expr, error) {
	switch e.Kind {
	case KindNot:
		operand, err := expand(e.Operand, b)
		if err != nil {
			return nil, err
		}
		return NewNot(operand), nil
	case KindThen:
		return e, nil
	case KindOr:
		children := make([]*Expr, len(e.Children))
		for i, c := range e.Children {
			ec, err := expand(c, b)
			if err != nil {
				return nil, err
			}
			children[i] = ec
		}
		return NewOr(children...), nil
	case KindAnd:
		children := make([]*Expr, len(e.Children))
		for i, c := range e.Children {
			ec, err := expand(c, b)
			if err != nil {
				return nil, err
			}
			children[i] = ec
		}
		return expandAnd(children, b)
	default:
		return e, nil
	}
}

// expandAnd distributes a single Or child (the first one found that
// needs distribution) over the rest of the And's children, then
// recursively expands the result.
func expandAnd(children []*Expr, b *budget) (*Expr, error) {
	idx := -1
	for i, c := range children {
		if c.Kind == KindOr && needsDistribution(c) {
			idx = i
			break
		}
	}
	if idx == -1 {
		return NewAnd(children...), nil
	}

	orChild := children[idx]
	rest := make([]*Expr, 0, len(children)-1)
	rest = append(rest, children[:idx]...)
	rest = append(rest, children[idx+1:]...)

	distributed := make([]*Expr, len(orChild.Children))
	for i, orOperand := range orChild.Children {
		if err := b.take(); err != nil {
			return nil, err
		}
		combined := append(append([]*Expr{}, rest...), orOperand)
		distributed[i] = NewAnd(combined...)
	}
	result := NewOr(distributed...)
	return expand(result, b)
}

// needsDistribution reports whether an Or subtree contains both
// phrase-bearing and function-bearing descendants, i.e. distributing it
// out is necessary to let the lowerer split phrase/predicate filters.
func needsDistribution(e *Expr) bool {
	return e.HasPhrases() && e.HasFuncs()
}
