package vbind

import (
	"testing"
	"unsafe"
)

func TestCastFunc_PromotesMutablePointer(t *testing.T) {
	concrete := func(c *Counter, v int) int { return c.value + v }
	erased, err := CastFunc[func(Mut, int) int](concrete)
	if err != nil {
		t.Fatalf("CastFunc failed: %v", err)
	}
	c := &Counter{value: 1}
	if got := erased(Mut(unsafe.Pointer(c)), 1); got != 2 {
		t.Errorf("erased call = %d, want 2", got)
	}
}

func TestCastFunc_ConstExpectedAcceptsAnyPointer(t *testing.T) {
	concrete := func(c *Counter) int { return c.value }
	erased, err := CastFunc[func(Const) int](concrete)
	if err != nil {
		t.Fatalf("CastFunc failed: %v", err)
	}
	c := &Counter{value: 5}
	if got := erased(Const(unsafe.Pointer(c))); got != 5 {
		t.Errorf("erased call = %d, want 5", got)
	}

	// An already-erased constant parameter is accepted as well.
	passthrough := func(Const) int { return 9 }
	erased2, err := CastFunc[func(Const) int](passthrough)
	if err != nil {
		t.Fatalf("CastFunc failed: %v", err)
	}
	if got := erased2(Const(nil)); got != 9 {
		t.Errorf("passthrough call = %d, want 9", got)
	}
}

// A constant pointer may never be widened into a mutable erased pointer.
func TestCastFunc_RejectsConstToMutablePromotion(t *testing.T) {
	concrete := func(Const, int) int { return 0 }
	_, err := CastFunc[func(Mut, int) int](concrete)
	v := wantCode(t, err, IllegalPromotion)
	if v.Param != 0 {
		t.Errorf("verdict parameter = %d, want 0", v.Param)
	}
}

func TestCastFunc_Mismatches(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
	}{
		{
			"arity",
			castErr(CastFunc[func(Mut) int](func(*Counter, int) int { return 0 })),
			ArityMismatch,
		},
		{
			"return type",
			castErr(CastFunc[func(Mut) int](func(*Counter) string { return "" })),
			ReturnTypeMismatch,
		},
		{
			"parameter type",
			castErr(CastFunc[func(Mut, int) int](func(*Counter, string) int { return 0 })),
			ParameterTypeMismatch,
		},
		{
			"non-pointer where erased expected",
			castErr(CastFunc[func(Mut) int](func(int) int { return 0 })),
			ParameterTypeMismatch,
		},
		{
			"candidate is not a function",
			castErr(CastFunc[func(Mut) int](42)),
			InvalidImplementation,
		},
		{
			"nil candidate",
			castErr(CastFunc[func(Mut) int](nil)),
			InvalidImplementation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantCode(t, tt.err, tt.code)
		})
	}
}

func castErr[F any](_ F, err error) error { return err }

// Non-erased parameters pass through untouched, including variadic tails.
func TestCastFunc_VariadicAndPassthrough(t *testing.T) {
	sum := func(c *Counter, vs ...int) int {
		total := c.value
		for _, v := range vs {
			total += v
		}
		return total
	}
	erased, err := CastFunc[func(Mut, ...int) int](sum)
	if err != nil {
		t.Fatalf("CastFunc failed: %v", err)
	}
	c := &Counter{value: 1}
	if got := erased(Mut(unsafe.Pointer(c)), 2, 3); got != 6 {
		t.Errorf("variadic erased call = %d, want 6", got)
	}

	// Variadic and fixed-arity functions never match each other.
	_, err = CastFunc[func(Mut, int) int](sum)
	wantCode(t, err, ArityMismatch)
}

func TestMustCastFunc_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("MustCastFunc did not panic")
		}
	}()
	MustCastFunc[func(Mut) int](func(int) int { return 0 })
}
