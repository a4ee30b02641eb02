// Package contract implements the runtime's precondition-violation
// reporting: overlapping adds, mismatched spans, malformed removals and
// the like all funnel through a single overridable handler, matching the
// "contract-violation handler" described for the host embedding API.
package contract

import (
	"fmt"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// Violation describes a single precondition failure: the operation that
// detected it, a human-readable message, and the stack-carrying error
// that pinpoints where it was raised.
type Violation struct {
	Op      string
	Message string
	Err     error
}

// Handler is invoked when a precondition is violated. The default
// handler logs the violation (with its stack trace) and terminates the
// process; a host may install its own via SetHandler to, for instance,
// route the violation through its own logging or test harness instead
// of aborting.
type Handler func(Violation)

var (
	mu      sync.RWMutex
	current Handler = defaultHandler
)

// SetHandler installs h as the contract-violation handler, replacing
// whatever was previously installed. Passing nil restores the default.
func SetHandler(h Handler) {
	mu.Lock()
	defer mu.Unlock()
	if h == nil {
		h = defaultHandler
	}
	current = h
}

func handlerFor() Handler {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Violate raises a precondition violation for operation op with a
// formatted message. It calls the installed handler and, in the
// default configuration, never returns (the process exits).
func Violate(op, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	err := errors.Errorf("%s: %s", op, msg)
	handlerFor()(Violation{Op: op, Message: msg, Err: err})
}

func defaultHandler(v Violation) {
	fmt.Fprintf(os.Stderr, "ecs: contract violation in %s: %s\n", v.Op, v.Message)
	if st, ok := v.Err.(interface{ StackTrace() errors.StackTrace }); ok {
		fmt.Fprintf(os.Stderr, "%+v\n", st.StackTrace())
	}
	os.Exit(1)
}
