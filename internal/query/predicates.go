package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PredicateFunc renders a named attribute predicate as a self-contained
// boolean SQL fragment, binding any values it needs through b. The
// returned string never includes a trailing semicolon or surrounding
// parentheses — callers parenthesize as needed.
type PredicateFunc func(b *Builder, arg string) (string, error)

// Catalog is an explicit predicate table built once at startup: no
// compile-time registry, no global init() side effects, per the
// plugin-registry-without-global-init-side-effects design this system
// follows instead of a compile-time inventory of handlers.
type Catalog struct {
	handlers map[string]PredicateFunc
}

// NewCatalog builds the catalog of required predicates.
func NewCatalog() *Catalog {
	c := &Catalog{handlers: make(map[string]PredicateFunc, 16)}
	c.handlers["author"] = predAuthor
	c.handlers["raw"] = predRaw
	c.handlers["channel"] = predChannel
	c.handlers["contains"] = predContains(false)
	c.handlers["icontains"] = predContains(true)
	c.handlers["like"] = predLike(false)
	c.handlers["ilike"] = predLike(true)
	c.handlers["regex"] = predRegex(false)
	c.handlers["iregex"] = predRegex(true)
	c.handlers["similarto"] = predSimilarTo
	c.handlers["date"] = predDate
	c.handlers["time"] = predTime
	c.handlers["datetime"] = predDateTime
	c.handlers["length"] = predLength
	return c
}

// Render looks up name case-insensitively and renders its fragment.
// Unknown names and bad arguments surface as *Error with KindPredicate.
func (c *Catalog) Render(b *Builder, name, arg string) (string, error) {
	name = strings.ToLower(name)
	h, ok := c.handlers[name]
	if !ok {
		return "", &Error{Kind: KindPredicate, Message: fmt.Sprintf("unknown function '%s'", name)}
	}
	frag, err := h(b, arg)
	if err != nil {
		return "", err
	}
	return frag, nil
}

// predAuthor matches the author string or any alias pointing to the same
// primary. A join-free scalar-subquery canonicalization: resolve the
// queried name's primary (falling back to itself if unmapped), then
// compare against every stored author's own resolved primary.
func predAuthor(b *Builder, arg string) (string, error) {
	n := b.ReserveBinding(arg)
	ph := Placeholder(n)
	return fmt.Sprintf(
		"COALESCE((SELECT alias_primary FROM aliases WHERE alias_secondary = %s), %s) = COALESCE((SELECT alias_primary FROM aliases WHERE alias_secondary = msg_author), msg_author)",
		ph, ph,
	), nil
}

// predRaw bypasses alias canonicalization entirely.
func predRaw(b *Builder, arg string) (string, error) {
	n := b.ReserveBinding(arg)
	return fmt.Sprintf("msg_author = %s", Placeholder(n)), nil
}

func predChannel(b *Builder, arg string) (string, error) {
	n := b.ReserveBinding(arg)
	return fmt.Sprintf("msg_channel = %s", Placeholder(n)), nil
}

// likeEscaper backslash-escapes the three characters LIKE/ILIKE treat
// specially, so a literal %, _, or \ in the argument matches itself
// instead of acting as a wildcard. \ must be replaced first or the
// replacements for % and _ would themselves get re-escaped.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// predContains wraps the backslash-escaped argument with %...% so the
// match requires containment rather than equality, declaring ESCAPE '\'
// per Postgres's own default LIKE escape character (see
// like_escape.go's escapeLikePattern/getLikeEscapeClause in the pack).
func predContains(insensitive bool) PredicateFunc {
	op := "LIKE"
	if insensitive {
		op = "ILIKE"
	}
	return func(b *Builder, arg string) (string, error) {
		pattern := "%" + likeEscaper.Replace(arg) + "%"
		n := b.ReserveBinding(pattern)
		return fmt.Sprintf("msg_body %s %s ESCAPE '\\'", op, Placeholder(n)), nil
	}
}

// predLike honors user-supplied wildcards unescaped.
func predLike(insensitive bool) PredicateFunc {
	op := "LIKE"
	if insensitive {
		op = "ILIKE"
	}
	return func(b *Builder, arg string) (string, error) {
		n := b.ReserveBinding(arg)
		return fmt.Sprintf("msg_body %s %s", op, Placeholder(n)), nil
	}
}

// predRegex matches the body against a POSIX regex.
func predRegex(insensitive bool) PredicateFunc {
	op := "~"
	if insensitive {
		op = "~*"
	}
	return func(b *Builder, arg string) (string, error) {
		n := b.ReserveBinding(arg)
		return fmt.Sprintf("msg_body %s %s", op, Placeholder(n)), nil
	}
}

func predSimilarTo(b *Builder, arg string) (string, error) {
	n := b.ReserveBinding(arg)
	return fmt.Sprintf("msg_body SIMILAR TO %s", Placeholder(n)), nil
}

// comparator prefixes are tried longest-first so ">=" is never
// mis-split as ">" followed by "=".
var comparatorPrefixes = []string{"!=", ">=", "<=", "=", "<", ">"}

// splitComparator returns the comparator operator and the remaining
// argument text. Absence of a recognized prefix means "=".
func splitComparator(arg string) (op, rest string) {
	for _, p := range comparatorPrefixes {
		if strings.HasPrefix(arg, p) {
			return p, arg[len(p):]
		}
	}
	return "=", arg
}

func predDate(b *Builder, arg string) (string, error) {
	op, rest := splitComparator(arg)
	t, err := time.Parse("2006-01-02", rest)
	if err != nil {
		return "", &Error{Kind: KindPredicate, Message: "Invalid date"}
	}
	n := b.ReserveBinding(t.Format("2006-01-02"))
	return fmt.Sprintf("msg_timestamp::date %s %s::date", op, Placeholder(n)), nil
}

func predTime(b *Builder, arg string) (string, error) {
	op, rest := splitComparator(arg)
	t, err := time.Parse("15:04:05", rest)
	if err != nil {
		return "", &Error{Kind: KindPredicate, Message: "Invalid time"}
	}
	n := b.ReserveBinding(t.Format("15:04:05"))
	return fmt.Sprintf("msg_timestamp::time %s %s::time", op, Placeholder(n)), nil
}

func predDateTime(b *Builder, arg string) (string, error) {
	op, rest := splitComparator(arg)
	t, err := time.Parse("2006-01-02 15:04:05", rest)
	if err != nil {
		return "", &Error{Kind: KindPredicate, Message: "Invalid datetime"}
	}
	n := b.ReserveBinding(t.Format("2006-01-02 15:04:05"))
	return fmt.Sprintf("msg_timestamp %s %s::timestamp", op, Placeholder(n)), nil
}

// predLength compares char_length(msg_body) against an integer argument,
// parsed with shopspring/decimal for precision-safe validation that the
// value is integral before it is bound as an int.
func predLength(b *Builder, arg string) (string, error) {
	op, rest := splitComparator(arg)
	d, err := decimal.NewFromString(strings.TrimSpace(rest))
	if err != nil || !d.Equal(d.Truncate(0)) {
		return "", &Error{Kind: KindPredicate, Message: "Invalid length"}
	}
	n := b.ReserveBinding(d.IntPart())
	return fmt.Sprintf("char_length(msg_body) %s %s", op, Placeholder(n)), nil
}
