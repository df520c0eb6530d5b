package vbind

import (
	"fmt"
	"strings"
)

// ErrorCode identifies one kind of validation failure.
type ErrorCode string

// Shape validation failures.
const (
	NotAStruct             ErrorCode = "NotAStruct"
	MissingSelfPointer     ErrorCode = "MissingSelfPointer"
	InvalidSelfPointerType ErrorCode = "InvalidSelfPointerType"
	MissingMethodTable     ErrorCode = "MissingMethodTable"
	MethodTableNotAStruct  ErrorCode = "MethodTableNotAStruct"
	EmptyMethodTable       ErrorCode = "EmptyMethodTable"
	InvalidSlotType        ErrorCode = "InvalidSlotType"
	InvalidSlotSignature   ErrorCode = "InvalidSlotSignature"
	ConstSelfViolation     ErrorCode = "ConstSelfViolation"
)

// Implementation matching failures.
const (
	MissingMethod  ErrorCode = "MissingMethod"
	NotAMethod     ErrorCode = "NotAMethod"
	SignatureError ErrorCode = "SignatureError"
)

// Signature comparison failures.
const (
	ArityMismatch         ErrorCode = "ArityMismatch"
	ReturnTypeMismatch    ErrorCode = "ReturnTypeMismatch"
	ParameterTypeMismatch ErrorCode = "ParameterTypeMismatch"
	IllegalPromotion      ErrorCode = "IllegalPromotion"
)

// Binding failures.
const (
	MutabilityViolation   ErrorCode = "MutabilityViolation"
	InvalidImplementation ErrorCode = "InvalidImplementation"
)

// Verdict is a structured validation failure. Successful validation is
// represented by a nil error, so a non-nil *Verdict always describes
// exactly one violation — the first one found, in a fixed check order.
type Verdict struct {
	Code     ErrorCode
	Shape    string // shape type, when known
	Impl     string // implementation type, when known
	Slot     string // offending slot, when applicable
	Param    int    // offending parameter index, -1 when not applicable
	Expected string
	Actual   string
	Inner    *Verdict // wrapped signature failure, set for SignatureError
}

// Error renders a self-sufficient diagnostic: shape, implementation, slot,
// parameter position and both type descriptions, so the message can be
// read without the shape or implementation declarations at hand.
func (v *Verdict) Error() string {
	var b strings.Builder
	b.WriteString(string(v.Code))
	if v.Shape != "" {
		fmt.Fprintf(&b, ": shape %s", v.Shape)
	}
	if v.Impl != "" {
		fmt.Fprintf(&b, ": implementation %s", v.Impl)
	}
	if v.Slot != "" {
		fmt.Fprintf(&b, ": slot %s", v.Slot)
	}
	if v.Param >= 0 {
		fmt.Fprintf(&b, ": parameter %d", v.Param)
	}
	if v.Expected != "" {
		fmt.Fprintf(&b, ": expected %s", v.Expected)
	}
	if v.Actual != "" {
		fmt.Fprintf(&b, ", got %s", v.Actual)
	}
	if v.Inner != nil {
		fmt.Fprintf(&b, ": %s", v.Inner.Error())
	}
	return b.String()
}

// Unwrap exposes the wrapped signature verdict to errors.As / errors.Is.
func (v *Verdict) Unwrap() error {
	if v.Inner == nil {
		return nil
	}
	return v.Inner
}

// asError converts a *Verdict to an error without wrapping a typed nil.
func asError(v *Verdict) error {
	if v == nil {
		return nil
	}
	return v
}
