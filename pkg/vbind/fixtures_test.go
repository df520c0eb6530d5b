package vbind

import (
	"testing"
)

// Adder is the canonical mutable shape: one required slot, one optional.
type Adder struct {
	Self    Mut
	Methods struct {
		Add func(Mut, int) int
		Sub Option[func(Mut, int) int]
	}
}

// Viewer is a read-only shape: its methods can never mutate the instance.
type Viewer struct {
	Self    Const
	Methods struct {
		Value func(Const) int
	}
}

// Counter satisfies Adder's required slot with a pointer receiver.
type Counter struct {
	value int
}

func (c *Counter) Add(v int) int {
	c.value += v
	return c.value
}

func (c *Counter) Value() int {
	return c.value
}

// FullCounter provides the optional Sub slot as well.
type FullCounter struct {
	value int
}

func (c *FullCounter) Add(v int) int {
	c.value += v
	return c.value
}

func (c *FullCounter) Sub(v int) int {
	c.value -= v
	return c.value
}

// ValueCounter declares Add with a value receiver: a constant-pointer
// method, which must not satisfy a mutable erased slot.
type ValueCounter struct {
	value int
}

func (c ValueCounter) Add(v int) int {
	return c.value + v
}

func (c ValueCounter) Value() int {
	return c.value
}

// FieldCounter mis-declares Add as a plain field instead of a method.
type FieldCounter struct {
	Add func(int) int
}

// wantCode asserts that err is a *Verdict with the given code and returns it.
func wantCode(t *testing.T, err error, code ErrorCode) *Verdict {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s verdict, got nil", code)
	}
	v, ok := err.(*Verdict)
	if !ok {
		t.Fatalf("expected *Verdict, got %T: %v", err, err)
	}
	if v.Code != code {
		t.Fatalf("verdict code = %s, want %s\nfull verdict: %v", v.Code, code, err)
	}
	return v
}

// wantOK asserts that err is nil.
func wantOK(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("expected success, got: %v", err)
	}
}
