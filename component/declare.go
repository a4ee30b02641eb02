package component

import (
	"reflect"
	"sync"

	"github.com/oriumgames/ecscore/contract"
)

var (
	declMu    sync.RWMutex
	declared  = map[reflect.Type]Flags{}
)

// Declare registers the static flags for component type T. This is the
// Go realization of the design notes' "per-type compile-time properties
// {tag, transient, immutable, global}" (§9): since Go has no attribute
// system for arbitrary type parameters, flags are recorded once, keyed
// by reflect.Type, before any pool for T is created — typically by
// host setup code (the cmd/gen output does not call Declare). A type
// that is never declared defaults to no flags (an ordinary bound
// component).
//
// Declaring the same type twice with different flags is a contract
// violation; redeclaring with the same flags is a no-op.
func Declare[T any](flags Flags) {
	t := typeOf[T]()
	declMu.Lock()
	defer declMu.Unlock()
	if existing, ok := declared[t]; ok {
		if existing != flags {
			contract.Violate("declare_component", "%s already declared with flags %q, cannot redeclare as %q", t, existing, flags)
		}
		return
	}
	declared[t] = flags
}

// FlagsOf returns the flags declared for T via Declare, or the zero
// value (no flags) if T was never declared.
func FlagsOf[T any]() Flags {
	t := typeOf[T]()
	declMu.RLock()
	defer declMu.RUnlock()
	return declared[t]
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
