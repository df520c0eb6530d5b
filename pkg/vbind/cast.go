package vbind

import (
	"reflect"
)

// CastFunc casts a concrete function to the erased signature F, applying
// the same erased-pointer promotion rule as slot matching: a concrete
// mutable pointer parameter may widen to Mut or Const, a constant pointer
// only to Const. On success the returned function forwards every call to
// fn, demoting erased arguments back to fn's concrete parameter types.
//
// The cast stands alone; it does not require a shape or an implementation
// type and is usable wherever a single function pointer must cross an
// erasure boundary.
func CastFunc[F any](fn any) (F, error) {
	var zero F
	expected := reflect.TypeOf((*F)(nil)).Elem()
	if expected.Kind() != reflect.Func {
		return zero, &Verdict{
			Code: InvalidSlotType, Param: -1,
			Expected: "func type parameter", Actual: expected.String(),
		}
	}
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return zero, &Verdict{
			Code: InvalidImplementation, Param: -1,
			Expected: "non-nil function", Actual: describeValue(fn),
		}
	}
	if verdict := compareSignatures(expected, v.Type(), false); verdict != nil {
		return zero, verdict
	}
	return adaptFunc(expected, v).Interface().(F), nil
}

// MustCastFunc is CastFunc, panicking on any incompatibility.
func MustCastFunc[F any](fn any) F {
	f, err := CastFunc[F](fn)
	if err != nil {
		panic(err)
	}
	return f
}

// adaptFunc wraps fn in a function of the erased type expected, converting
// arguments position by position. Signatures must already have passed
// compareSignatures.
func adaptFunc(expected reflect.Type, fn reflect.Value) reflect.Value {
	actual := fn.Type()
	return reflect.MakeFunc(expected, func(args []reflect.Value) []reflect.Value {
		call := make([]reflect.Value, len(args))
		for i, a := range args {
			call[i] = adaptArg(a, actual.In(i))
		}
		if actual.IsVariadic() {
			return fn.CallSlice(call)
		}
		return fn.Call(call)
	})
}
