package vbind

import (
	"reflect"
	"sync"
)

// Field names every shape struct must declare.
const (
	selfFieldName  = "Self"
	tableFieldName = "Methods"
)

// slot is one validated entry of a shape's method table.
type slot struct {
	name     string
	index    int          // field index within the Methods struct
	fn       reflect.Type // slot function type, Option unwrapped
	optional bool
}

// shapeInfo is the parsed form of a validated shape type.
type shapeInfo struct {
	typ        reflect.Type
	mutable    bool // Self field is Mut
	selfIndex  []int
	tableIndex []int
	slots      []slot
}

// shapeCache holds parse results for the life of the process. Shapes are
// static type-level descriptions, so entries never go stale.
var shapeCache sync.Map // reflect.Type -> shapeResult

type shapeResult struct {
	info    *shapeInfo
	verdict *Verdict
}

// ValidateShape checks that S is a well-formed interface shape.
func ValidateShape[S any]() error {
	return ValidateShapeType(reflect.TypeOf((*S)(nil)).Elem())
}

// ValidateShapeType is the non-generic form of ValidateShape.
func ValidateShapeType(t reflect.Type) error {
	_, verdict := parseShape(t)
	return asError(verdict)
}

func parseShape(t reflect.Type) (*shapeInfo, *Verdict) {
	if r, ok := shapeCache.Load(t); ok {
		res := r.(shapeResult)
		return res.info, res.verdict
	}
	info, verdict := parseShapeUncached(t)
	shapeCache.Store(t, shapeResult{info: info, verdict: verdict})
	return info, verdict
}

// parseShapeUncached checks structural well-formedness in a fixed order:
// struct-ness, then the self-pointer field, then the method table, then
// each slot in declaration order. The first violation wins, so the same
// malformed shape always produces the same diagnostic.
func parseShapeUncached(t reflect.Type) (*shapeInfo, *Verdict) {
	name := t.String()
	if t.Kind() != reflect.Struct {
		return nil, &Verdict{Code: NotAStruct, Shape: name, Param: -1, Expected: "struct", Actual: t.Kind().String()}
	}
	self, ok := t.FieldByName(selfFieldName)
	if !ok {
		return nil, &Verdict{Code: MissingSelfPointer, Shape: name, Param: -1, Expected: "field " + selfFieldName}
	}
	if !isErased(self.Type) {
		return nil, &Verdict{Code: InvalidSelfPointerType, Shape: name, Param: -1, Expected: "vbind.Mut or vbind.Const", Actual: self.Type.String()}
	}
	table, ok := t.FieldByName(tableFieldName)
	if !ok {
		return nil, &Verdict{Code: MissingMethodTable, Shape: name, Param: -1, Expected: "field " + tableFieldName}
	}
	if table.Type.Kind() != reflect.Struct {
		return nil, &Verdict{Code: MethodTableNotAStruct, Shape: name, Param: -1, Expected: "struct", Actual: table.Type.String()}
	}
	if table.Type.NumField() == 0 {
		return nil, &Verdict{Code: EmptyMethodTable, Shape: name, Param: -1, Expected: "at least one slot"}
	}

	info := &shapeInfo{
		typ:        t,
		mutable:    self.Type == mutType,
		selfIndex:  self.Index,
		tableIndex: table.Index,
	}
	for i := 0; i < table.Type.NumField(); i++ {
		f := table.Type.Field(i)
		if !f.IsExported() {
			return nil, &Verdict{Code: InvalidSlotType, Shape: name, Slot: f.Name, Param: -1, Expected: "exported slot field", Actual: "unexported field"}
		}
		fn := f.Type
		optional := false
		if isOption(fn) {
			optional = true
			fn = optionFn(fn)
		}
		if fn.Kind() != reflect.Func {
			return nil, &Verdict{Code: InvalidSlotType, Shape: name, Slot: f.Name, Param: -1, Expected: "func", Actual: f.Type.String()}
		}
		if fn.NumIn() == 0 || !isErased(fn.In(0)) {
			return nil, &Verdict{Code: InvalidSlotSignature, Shape: name, Slot: f.Name, Param: 0, Expected: "vbind.Mut or vbind.Const first parameter", Actual: fn.String()}
		}
		// Mutation must never be reachable through a read-only shape.
		if !info.mutable && fn.In(0) == mutType {
			return nil, &Verdict{Code: ConstSelfViolation, Shape: name, Slot: f.Name, Param: 0, Expected: "vbind.Const", Actual: "vbind.Mut"}
		}
		info.slots = append(info.slots, slot{name: f.Name, index: i, fn: fn, optional: optional})
	}
	return info, nil
}
