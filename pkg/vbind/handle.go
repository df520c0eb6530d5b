// Package vbind verifies structural conformance between interface shapes
// and implementation types, and builds bound dispatch objects.
//
// An interface shape is an ordinary struct type declaring:
//   - a field Self of type Mut or Const (the erased self-pointer), and
//   - a field Methods, a struct with one function field per slot.
//
// A slot is required when declared as a plain func type, or optional when
// wrapped in Option. Every slot function takes the erased self-pointer as
// its first parameter:
//
//	type Adder struct {
//		Self    vbind.Mut
//		Methods struct {
//			Add func(vbind.Mut, int) int
//			Sub vbind.Option[func(vbind.Mut, int) int]
//		}
//	}
//
// Bind checks a concrete implementation type against the shape and fills
// the table with adapters that dispatch through the erased pointer. All
// checks are pure functions of the two types; verdicts are cached for the
// life of the process.
package vbind

import (
	"reflect"
	"strings"
	"unsafe"
)

// Mut is the erased mutable self-pointer. It carries no type tag; callers
// are responsible for pairing it with the method table it was bound with.
type Mut unsafe.Pointer

// Const is the erased read-only self-pointer. A shape whose Self field is
// Const can never reach a mutating method of its implementation.
type Const unsafe.Pointer

// ReadOnlyPtr marks an implementation pointer as a read-only capability.
// Binding it to a shape whose self-pointer is Mut fails with
// MutabilityViolation.
type ReadOnlyPtr struct {
	ptr any
}

// ReadOnly wraps an implementation pointer for read-only binding.
func ReadOnly(ptr any) ReadOnlyPtr {
	return ReadOnlyPtr{ptr: ptr}
}

// Option declares an optional slot: an explicit present/absent wrapper
// around a slot function. Absent optional slots stay in the zero (absent)
// state after binding, and dispatch must branch on presence.
type Option[F any] struct {
	Fn      F
	Present bool
}

// Some wraps a function as a present optional slot.
func Some[F any](fn F) Option[F] {
	return Option[F]{Fn: fn, Present: true}
}

// None is the absent optional slot.
func None[F any]() Option[F] {
	return Option[F]{}
}

// Get returns the slot function and whether it is present.
func (o Option[F]) Get() (F, bool) {
	return o.Fn, o.Present
}

// Or returns the slot function when present, or def otherwise.
func (o Option[F]) Or(def F) F {
	if o.Present {
		return o.Fn
	}
	return def
}

var (
	mutType   = reflect.TypeOf(Mut(nil))
	constType = reflect.TypeOf(Const(nil))

	// vbindPkgPath identifies Option instantiations by origin package.
	vbindPkgPath = mutType.PkgPath()
)

// isErased reports whether t is one of the erased self-pointer types.
func isErased(t reflect.Type) bool {
	return t == mutType || t == constType
}

// isOption reports whether t is an instantiation of Option.
func isOption(t reflect.Type) bool {
	return t.Kind() == reflect.Struct &&
		t.PkgPath() == vbindPkgPath &&
		strings.HasPrefix(t.Name(), "Option[")
}

// optionFn returns the slot function type wrapped by an Option instantiation.
func optionFn(t reflect.Type) reflect.Type {
	f, _ := t.FieldByName("Fn")
	return f.Type
}
