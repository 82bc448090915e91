// Package yulerr defines the typed error taxonomy shared by the splitter,
// flattener, scheduler and front-end decoder, and a small error collector
// for gathering per-unit failures.
package yulerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies why a lowering stage rejected its input.
type Kind int

const (
	// KindStructuralIR marks a violation of a basic-block or SSA-block
	// shape invariant, e.g. a branch statement in the middle of a block.
	KindStructuralIR Kind = iota
	// KindArity marks a call/assignment with a mismatched argument or
	// result count.
	KindArity
	// KindUndefinedRef marks a reference to a name with no reaching
	// definition.
	KindUndefinedRef
	// KindUseAfterRelease marks a reference to a memory slot the
	// scheduler has already released.
	KindUseAfterRelease
	// KindUnsupported marks a construct the current lowering pass
	// deliberately does not implement.
	KindUnsupported
	// KindNameCollision marks a declaration reusing a reserved synthetic
	// name (see ir.IsReserved).
	KindNameCollision
	// KindDecode marks a failure decoding the front-end's serialized
	// parse tree into HLIR.
	KindDecode
)

// String renders k as a lower_snake_case tag, suitable for structured log
// fields.
func (k Kind) String() string {
	switch k {
	case KindStructuralIR:
		return "structural_ir"
	case KindArity:
		return "arity"
	case KindUndefinedRef:
		return "undefined_ref"
	case KindUseAfterRelease:
		return "use_after_release"
	case KindUnsupported:
		return "unsupported"
	case KindNameCollision:
		return "name_collision"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is the typed error value every lowering stage returns on failure.
// It carries the Kind of violation, a human-readable message, and the
// optional name of the function being lowered when the failure occurred.
type Error struct {
	Kind    Kind
	Func    string
	message string
	cause   error
}

// New builds an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, message: fmt.Sprintf(format, args...), cause: errors.New(fmt.Sprintf(format, args...))}
}

// Wrap builds an Error of the given kind, wrapping cause with
// github.com/pkg/errors so the point of origin keeps a stack trace.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{Kind: kind, message: msg, cause: errors.Wrap(cause, msg)}
}

// In returns a copy of e tagged with the function it occurred in.
func (e *Error) In(fn string) *Error {
	cp := *e
	cp.Func = fn
	return &cp
}

func (e *Error) Error() string {
	if e.Func != "" {
		return fmt.Sprintf("%s: %s: %s", e.Func, e.Kind, e.message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.message)
}

// Unwrap exposes the wrapped cause so errors.Is/errors.As work against the
// stack-trace-carrying error from github.com/pkg/errors.
func (e *Error) Unwrap() error {
	return e.cause
}

// Collector gathers errors keyed by the function (or other unit) that
// produced them, so partial-failure results can be reported without
// aborting the whole run. Unlike the teacher's perror, it is a plain map
// usable per-call with no background goroutine. It does no locking of its
// own, so concurrent callers must serialize access to it.
type Collector struct {
	errs map[string]error
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{errs: make(map[string]error)}
}

// Append records err under key. A nil err is ignored.
func (c *Collector) Append(key string, err error) {
	if err == nil {
		return
	}
	c.errs[key] = err
}

// Len returns the number of distinct keys with a recorded error.
func (c *Collector) Len() int {
	return len(c.errs)
}

// Errors returns the collected errors keyed by the unit that produced
// them.
func (c *Collector) Errors() map[string]error {
	return c.errs
}
