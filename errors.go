package cashubind

import "fmt"

// Kind classifies every error the facade can return. The set is closed:
// callers branch on the kind, never on the underlying engine error types,
// which do not survive the boundary.
type Kind string

const (
	// KindWallet covers any failure surfaced by the wallet engine or its
	// persistence layer, including mint network failures reported through
	// the engine.
	KindWallet Kind = "wallet"
	// KindInvalidInput covers malformed caller-supplied data, such as an
	// unparseable mnemonic or unknown currency unit text.
	KindInvalidInput Kind = "invalid_input"
	// KindNetwork is reserved for direct network-layer failures. No
	// conversion path raises it today; engine network failures normalize
	// to KindWallet.
	KindNetwork Kind = "network"
	// KindInternal covers defects in the adapter itself.
	KindInternal Kind = "internal"
)

// Error is the only error type returned across the boundary. It keeps the
// originating error's text and nothing else.
type Error struct {
	kind Kind
	msg  string
}

func (e *Error) Error() string {
	switch e.kind {
	case KindWallet:
		return "wallet error: " + e.msg
	case KindInvalidInput:
		return "invalid input: " + e.msg
	case KindNetwork:
		return "network error: " + e.msg
	default:
		return "internal error: " + e.msg
	}
}

func (e *Error) Kind() Kind {
	return e.kind
}

// KindOf reports the kind of err, or "" when err is nil or did not come from
// this package.
func KindOf(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.kind
	}
	return ""
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// wrapEngine normalizes an engine or store failure to KindWallet, keeping
// only its message.
func wrapEngine(err error) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return &Error{kind: KindWallet, msg: err.Error()}
}
