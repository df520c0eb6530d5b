package vbind

import (
	"fmt"
	"reflect"
)

// compareSignatures checks an implementation signature against a slot's
// expected erased signature, positionally. constRecv marks parameter 0 of
// the actual signature as a constant pointer (a value receiver, which
// cannot mutate the instance).
//
// Check order is fixed: arity, then return types, then parameters left to
// right. A return-type mismatch is always reported before any parameter
// mismatch, regardless of position.
func compareSignatures(expected, actual reflect.Type, constRecv bool) *Verdict {
	if expected.NumIn() != actual.NumIn() || expected.IsVariadic() != actual.IsVariadic() {
		return &Verdict{
			Code:     ArityMismatch,
			Param:    -1,
			Expected: paramCount(expected),
			Actual:   paramCount(actual),
		}
	}
	if expected.NumOut() != actual.NumOut() {
		return &Verdict{
			Code:     ReturnTypeMismatch,
			Param:    -1,
			Expected: resultString(expected),
			Actual:   resultString(actual),
		}
	}
	for i := 0; i < expected.NumOut(); i++ {
		if expected.Out(i) != actual.Out(i) {
			return &Verdict{
				Code:     ReturnTypeMismatch,
				Param:    -1,
				Expected: expected.Out(i).String(),
				Actual:   actual.Out(i).String(),
			}
		}
	}
	for i := 0; i < expected.NumIn(); i++ {
		if v := compareParam(i, expected.In(i), actual.In(i), constRecv); v != nil {
			return v
		}
	}
	return nil
}

// compareParam applies the erased-pointer promotion rule at one position.
//
//   - expected Mut: any mutable pointer promotes; a constant pointer (the
//     Const handle, or a value receiver at position 0) never widens into a
//     mutable erased pointer.
//   - expected Const: any pointer promotes, since widening to read-only is
//     always sound.
//   - otherwise the types must be identical.
func compareParam(i int, expected, actual reflect.Type, constRecv bool) *Verdict {
	switch expected {
	case mutType:
		if actual == constType || (i == 0 && constRecv) {
			return &Verdict{
				Code:     IllegalPromotion,
				Param:    i,
				Expected: "mutable pointer",
				Actual:   constDescription(actual, i == 0 && constRecv),
			}
		}
		if !isPointerKind(actual) {
			return &Verdict{Code: ParameterTypeMismatch, Param: i, Expected: mutType.String(), Actual: actual.String()}
		}
	case constType:
		if !isPointerKind(actual) {
			return &Verdict{Code: ParameterTypeMismatch, Param: i, Expected: constType.String(), Actual: actual.String()}
		}
	default:
		if expected != actual {
			return &Verdict{Code: ParameterTypeMismatch, Param: i, Expected: expected.String(), Actual: actual.String()}
		}
	}
	return nil
}

// isPointerKind reports whether t can be promoted to an erased pointer.
func isPointerKind(t reflect.Type) bool {
	return t.Kind() == reflect.Ptr || t.Kind() == reflect.UnsafePointer
}

func constDescription(t reflect.Type, valueReceiver bool) string {
	if valueReceiver {
		return "constant pointer (value receiver on " + t.String() + ")"
	}
	return "constant pointer (" + t.String() + ")"
}

func paramCount(t reflect.Type) string {
	n := t.NumIn()
	suffix := ""
	if t.IsVariadic() {
		suffix = ", variadic"
	}
	if n == 1 {
		return fmt.Sprintf("1 parameter%s", suffix)
	}
	return fmt.Sprintf("%d parameters%s", n, suffix)
}

func resultString(t reflect.Type) string {
	switch t.NumOut() {
	case 0:
		return "no results"
	case 1:
		return t.Out(0).String()
	default:
		s := "("
		for i := 0; i < t.NumOut(); i++ {
			if i > 0 {
				s += ", "
			}
			s += t.Out(i).String()
		}
		return s + ")"
	}
}
