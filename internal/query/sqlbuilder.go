package query

import (
	"fmt"
	"strings"
)

// Builder accumulates SQL text and an ordered bindings vector, enforcing
// positional parameter numbering ($1, $2, ...). Raw SQL text is only ever
// appended by this package's own fragment builders — never concatenated
// from caller-controlled strings.
type Builder struct {
	text     strings.Builder
	bindings []any
}

func NewBuilder() *Builder {
	return &Builder{}
}

// AppendText appends trusted SQL text verbatim.
func (b *Builder) AppendText(s string) {
	b.text.WriteString(s)
}

// Bind appends a bound value and emits its positional placeholder
// ($1, $2, ...) into the text buffer.
func (b *Builder) Bind(value any) {
	n := b.ReserveBinding(value)
	fmt.Fprintf(&b.text, "$%d", n)
}

// ReserveBinding appends a bound value and returns its 1-based position
// without emitting any SQL text. Needed by predicates (e.g. author) that
// reference the same binding twice in the generated fragment.
func (b *Builder) ReserveBinding(value any) int {
	b.bindings = append(b.bindings, value)
	return len(b.bindings)
}

// Placeholder returns the "$n" text for a binding position previously
// returned by ReserveBinding, for referencing it a second time.
func Placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func (b *Builder) String() string { return b.text.String() }

func (b *Builder) Bindings() []any { return b.bindings }
