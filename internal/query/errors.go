package query

import "errors"

// ErrorKind classifies a query pipeline failure so an HTTP layer can map it to
// a status code without string matching.
type ErrorKind int

const (
	KindParse ErrorKind = iota
	KindValidation
	KindComplexity
	KindPredicate
	KindControlArg
)

// Error wraps a query-pipeline failure with an ErrorKind.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(k ErrorKind, msg string) *Error { return &Error{Kind: k, Message: msg} }

// Parse errors
var (
	errMalformedQuery = errors.New("malformed query")
)

// Validation errors
var (
	errThenContainsFunc = errors.New("THEN operands cannot contain functions")
	errSortInsideOr     = errors.New("sorting functions inside OR operands are disallowed")
	errControlNotAtRoot = errors.New("sort/order/bots must appear at the root level only")
)

// Complexity errors
var (
	errTooComplex = errors.New("query is too complex")
)

// Control-argument errors
var (
	errBadSort  = errors.New("invalid sort value")
	errBadOrder = errors.New("invalid order value")
	errBadBots  = errors.New("invalid bots value")
)
