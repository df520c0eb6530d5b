package vbind

import (
	"reflect"
)

// Bind validates the shape S and the dynamic type of impl, then returns a
// bound dispatch object: a fresh S whose Self field holds the erased
// pointer to impl and whose every slot forwards to the matching method.
// Binding never proceeds partially: on any validation failure nothing is
// constructed and the verdict is returned.
//
// impl must be a non-nil pointer to the implementation instance, or a
// ReadOnly-wrapped pointer for a constant-capability bind. The bound
// object does not own the instance; the caller must keep it alive for as
// long as the bound object is used.
func Bind[S any](impl any) (*S, error) {
	bound := new(S)
	if err := bindInto(reflect.ValueOf(bound).Elem(), impl); err != nil {
		return nil, err
	}
	return bound, nil
}

// MustBind is Bind, except that any validation failure panics with the
// verdict. Shapes and implementations are static, so a failure here is a
// programming error on par with a compile error, not a runtime condition.
func MustBind[S any](impl any) *S {
	bound, err := Bind[S](impl)
	if err != nil {
		panic(err)
	}
	return bound
}

func bindInto(dst reflect.Value, impl any) error {
	shapeT := dst.Type()

	readonly := false
	if ro, ok := impl.(ReadOnlyPtr); ok {
		readonly = true
		impl = ro.ptr
	}
	v := reflect.ValueOf(impl)
	if !v.IsValid() || v.Kind() != reflect.Ptr || v.IsNil() {
		return &Verdict{
			Code: InvalidImplementation, Shape: shapeT.String(), Param: -1,
			Expected: "non-nil pointer to implementation", Actual: describeValue(impl),
		}
	}

	plan, verdict := matchImplementation(shapeT, v.Type())
	if verdict != nil {
		return verdict
	}
	if plan.shape.mutable && readonly {
		return &Verdict{
			Code: MutabilityViolation, Shape: shapeT.String(), Impl: plan.impl.String(),
			Param: -1, Expected: "mutable implementation pointer", Actual: "read-only pointer",
		}
	}

	ptr := v.UnsafePointer()
	self := dst.FieldByIndex(plan.shape.selfIndex)
	if plan.shape.mutable {
		self.Set(reflect.ValueOf(Mut(ptr)))
	} else {
		self.Set(reflect.ValueOf(Const(ptr)))
	}

	table := dst.FieldByIndex(plan.shape.tableIndex)
	for _, ps := range plan.slots {
		if !ps.present {
			// Absent optional slot: the zero Option is explicit absence.
			continue
		}
		fn := makeSlotFunc(ps, plan.impl)
		field := table.Field(ps.slot.index)
		if ps.slot.optional {
			field.FieldByName("Fn").Set(fn)
			field.FieldByName("Present").SetBool(true)
		} else {
			field.Set(fn)
		}
	}
	return nil
}

// makeSlotFunc builds the erased adapter bound into one slot. The adapter
// recovers the concrete receiver from its first argument, so dispatch
// always flows through the handle stored in the bound object rather than
// through a captured instance.
func makeSlotFunc(ps plannedSlot, impl reflect.Type) reflect.Value {
	method := reflect.PointerTo(impl).Method(ps.method)
	return reflect.MakeFunc(ps.slot.fn, func(args []reflect.Value) []reflect.Value {
		call := make([]reflect.Value, len(args))
		call[0] = reflect.NewAt(impl, args[0].UnsafePointer())
		for i := 1; i < len(args); i++ {
			call[i] = adaptArg(args[i], method.Type.In(i))
		}
		if method.Type.IsVariadic() {
			return method.Func.CallSlice(call)
		}
		return method.Func.Call(call)
	})
}

// adaptArg converts an erased argument to the parameter type the
// implementation declares. An erased handle demotes back to the concrete
// pointer it was promoted from; everything else passes through unchanged.
func adaptArg(v reflect.Value, want reflect.Type) reflect.Value {
	if v.Type() == want {
		return v
	}
	if v.Kind() == reflect.UnsafePointer {
		switch want.Kind() {
		case reflect.Ptr:
			return reflect.NewAt(want.Elem(), v.UnsafePointer())
		case reflect.UnsafePointer:
			return reflect.ValueOf(v.UnsafePointer()).Convert(want)
		}
	}
	return v.Convert(want)
}

func describeValue(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
