package inspect

import (
	"fmt"
	"go/token"
	"go/types"

	"github.com/funvibe/vbind/pkg/vbind"
)

// slotDecl is one method-table entry of a discovered shape.
type slotDecl struct {
	name     string
	optional bool
	sig      *types.Signature // first parameter is the erased self-pointer
}

// shapeDecl is the parsed form of a shape type declaration.
type shapeDecl struct {
	named   *types.Named
	mutable bool
	slots   []slotDecl
	pos     token.Position
}

func (d *shapeDecl) name() string {
	return d.named.Obj().Name()
}

// parseShape validates a shape declaration the same way and in the same
// order as the runtime validator: struct-ness, self-pointer, method table,
// then each slot in declaration order.
func parseShape(named *types.Named, pos token.Position) (*shapeDecl, *Finding) {
	name := named.Obj().Name()
	fail := func(code vbind.ErrorCode, slot, expected, actual string, param int) *Finding {
		return &Finding{Code: code, Shape: name, Slot: slot, Param: param, Expected: expected, Actual: actual, Pos: pos}
	}

	st, ok := named.Underlying().(*types.Struct)
	if !ok {
		return nil, fail(vbind.NotAStruct, "", "struct", named.Underlying().String(), -1)
	}
	self := fieldByName(st, selfFieldName)
	if self == nil {
		return nil, fail(vbind.MissingSelfPointer, "", "field "+selfFieldName, "", -1)
	}
	mutable, erased := erasedKind(self.Type())
	if !erased {
		return nil, fail(vbind.InvalidSelfPointerType, "", "vbind.Mut or vbind.Const", self.Type().String(), -1)
	}
	table := fieldByName(st, tableFieldName)
	if table == nil {
		return nil, fail(vbind.MissingMethodTable, "", "field "+tableFieldName, "", -1)
	}
	tst, ok := table.Type().Underlying().(*types.Struct)
	if !ok {
		return nil, fail(vbind.MethodTableNotAStruct, "", "struct", table.Type().String(), -1)
	}
	if tst.NumFields() == 0 {
		return nil, fail(vbind.EmptyMethodTable, "", "at least one slot", "", -1)
	}

	decl := &shapeDecl{named: named, mutable: mutable, pos: pos}
	for i := 0; i < tst.NumFields(); i++ {
		f := tst.Field(i)
		ft := f.Type()
		optional := false
		if inner, ok := optionElem(ft); ok {
			optional = true
			ft = inner
		}
		sig, ok := ft.Underlying().(*types.Signature)
		if !ok {
			return nil, fail(vbind.InvalidSlotType, f.Name(), "func", f.Type().String(), -1)
		}
		if sig.Params().Len() == 0 {
			return nil, fail(vbind.InvalidSlotSignature, f.Name(), "vbind.Mut or vbind.Const first parameter", sig.String(), 0)
		}
		firstMut, firstErased := erasedKind(sig.Params().At(0).Type())
		if !firstErased {
			return nil, fail(vbind.InvalidSlotSignature, f.Name(), "vbind.Mut or vbind.Const first parameter", sig.String(), 0)
		}
		if !mutable && firstMut {
			return nil, fail(vbind.ConstSelfViolation, f.Name(), "vbind.Const", "vbind.Mut", 0)
		}
		decl.slots = append(decl.slots, slotDecl{name: f.Name(), optional: optional, sig: sig})
	}
	return decl, nil
}

// checkImplements walks the shape's slots in table order against the
// implementation's method set, mirroring the runtime matcher.
func checkImplements(decl *shapeDecl, impl *types.Named) *Finding {
	shapeName := decl.name()
	implName := impl.Obj().Name()
	recvType := types.NewPointer(impl)

	for _, s := range decl.slots {
		obj, _, _ := types.LookupFieldOrMethod(recvType, true, impl.Obj().Pkg(), s.name)
		switch member := obj.(type) {
		case nil:
			if s.optional {
				continue
			}
			return &Finding{
				Code: vbind.MissingMethod, Shape: shapeName, Impl: implName, Slot: s.name,
				Param: -1, Expected: "method " + s.name, Pos: decl.pos,
			}
		case *types.Var:
			return &Finding{
				Code: vbind.NotAMethod, Shape: shapeName, Impl: implName, Slot: s.name,
				Param: -1, Expected: "method", Actual: "field", Pos: decl.pos,
			}
		case *types.Func:
			msig := member.Type().(*types.Signature)
			if f := compareSlot(s, msig); f != nil {
				f.Shape = shapeName
				f.Impl = implName
				f.Slot = s.name
				f.Pos = decl.pos
				return f
			}
		}
	}
	return nil
}

// compareSlot applies the signature compatibility rules: arity first, then
// return types, then parameters left to right under the erased-pointer
// promotion rule. The receiver occupies parameter position 0.
func compareSlot(s slotDecl, msig *types.Signature) *Finding {
	expected := s.sig
	constRecv := !isPointerReceiver(msig)

	if expected.Params().Len() != msig.Params().Len()+1 || expected.Variadic() != msig.Variadic() {
		return &Finding{
			Code: vbind.ArityMismatch, Param: -1,
			Expected: fmt.Sprintf("%d parameters", expected.Params().Len()),
			Actual:   fmt.Sprintf("%d parameters", msig.Params().Len()+1),
		}
	}
	if expected.Results().Len() != msig.Results().Len() {
		return &Finding{
			Code: vbind.ReturnTypeMismatch, Param: -1,
			Expected: expected.Results().String(),
			Actual:   msig.Results().String(),
		}
	}
	for i := 0; i < expected.Results().Len(); i++ {
		want := expected.Results().At(i).Type()
		got := msig.Results().At(i).Type()
		if !types.Identical(want, got) {
			return &Finding{
				Code: vbind.ReturnTypeMismatch, Param: -1,
				Expected: want.String(), Actual: got.String(),
			}
		}
	}

	// Receiver position: a value receiver is a constant pointer and never
	// widens into a mutable erased pointer.
	if firstMut, _ := erasedKind(expected.Params().At(0).Type()); firstMut && constRecv {
		return &Finding{
			Code: vbind.IllegalPromotion, Param: 0,
			Expected: "mutable pointer", Actual: "constant pointer (value receiver)",
		}
	}
	for i := 1; i < expected.Params().Len(); i++ {
		want := expected.Params().At(i).Type()
		got := msig.Params().At(i - 1).Type()
		if f := compareParam(i, want, got); f != nil {
			return f
		}
	}
	return nil
}

func compareParam(i int, want, got types.Type) *Finding {
	wantMut, wantErased := erasedKind(want)
	if wantErased {
		gotMut, gotErased := erasedKind(got)
		if wantMut && gotErased && !gotMut {
			return &Finding{
				Code: vbind.IllegalPromotion, Param: i,
				Expected: "mutable pointer", Actual: "constant pointer (" + got.String() + ")",
			}
		}
		if !isPointerType(got) {
			return &Finding{
				Code: vbind.ParameterTypeMismatch, Param: i,
				Expected: want.String(), Actual: got.String(),
			}
		}
		return nil
	}
	if !types.Identical(want, got) {
		return &Finding{
			Code: vbind.ParameterTypeMismatch, Param: i,
			Expected: want.String(), Actual: got.String(),
		}
	}
	return nil
}

// erasedKind reports whether t is one of the erased self-pointer marker
// types, and whether it is the mutable one.
func erasedKind(t types.Type) (mutable, ok bool) {
	named, isNamed := t.(*types.Named)
	if !isNamed {
		return false, false
	}
	obj := named.Obj()
	if obj.Pkg() == nil || obj.Pkg().Path() != vbindPkgPath {
		return false, false
	}
	switch obj.Name() {
	case "Mut":
		return true, true
	case "Const":
		return false, true
	}
	return false, false
}

// optionElem unwraps one level of vbind.Option, returning the slot
// function type it declares.
func optionElem(t types.Type) (types.Type, bool) {
	named, ok := t.(*types.Named)
	if !ok {
		return nil, false
	}
	obj := named.Obj()
	if obj.Pkg() == nil || obj.Pkg().Path() != vbindPkgPath || obj.Name() != "Option" {
		return nil, false
	}
	st, ok := named.Underlying().(*types.Struct)
	if !ok || st.NumFields() == 0 || st.Field(0).Name() != "Fn" {
		return nil, false
	}
	return st.Field(0).Type(), true
}

// isPointerType reports whether t can be promoted to an erased pointer:
// any single pointer or an unsafe.Pointer-kinded type (which covers the
// Mut and Const handles themselves).
func isPointerType(t types.Type) bool {
	switch u := t.Underlying().(type) {
	case *types.Pointer:
		return true
	case *types.Basic:
		return u.Kind() == types.UnsafePointer
	}
	return false
}

func isPointerReceiver(sig *types.Signature) bool {
	recv := sig.Recv()
	if recv == nil {
		return false
	}
	_, ok := recv.Type().(*types.Pointer)
	return ok
}

func fieldByName(st *types.Struct, name string) *types.Var {
	for i := 0; i < st.NumFields(); i++ {
		if st.Field(i).Name() == name {
			return st.Field(i)
		}
	}
	return nil
}
