package vbind

import (
	"reflect"
	"sync"
)

// bindPlan records how a validated implementation satisfies a shape: for
// every slot, the matched method index on the pointer type and the declared
// receiver mutability. Plans are computed once per (shape, implementation)
// pair and reused by every subsequent check or bind.
type bindPlan struct {
	shape *shapeInfo
	impl  reflect.Type // concrete implementation type, non-pointer
	slots []plannedSlot
}

type plannedSlot struct {
	slot      slot
	present   bool // false only for absent optional slots
	method    int  // method index on *impl, valid when present
	constRecv bool // method has a value receiver
}

type pairKey struct {
	shape reflect.Type
	impl  reflect.Type
}

type planResult struct {
	plan    *bindPlan
	verdict *Verdict
}

// planCache keys verdicts and plans by (shape, implementation) identity.
// Entries are valid for the program's whole lifetime since types are static.
var planCache = struct {
	mu sync.RWMutex
	m  map[pairKey]planResult
}{m: make(map[pairKey]planResult)}

// CheckImplements reports whether I provides a compatible method for every
// required slot of the interface shape S. It never constructs a bound
// object, so libraries can assert conformance without a call site:
//
//	var _ = vbind.MustCheck(vbind.CheckImplements[Adder, Counter]())
func CheckImplements[S, I any]() error {
	return CheckImplementsTypes(
		reflect.TypeOf((*S)(nil)).Elem(),
		reflect.TypeOf((*I)(nil)).Elem(),
	)
}

// CheckImplementsTypes is the non-generic form of CheckImplements. A
// pointer implementation type is reduced to its element type.
func CheckImplementsTypes(shape, impl reflect.Type) error {
	_, verdict := matchImplementation(shape, impl)
	return asError(verdict)
}

// MustCheck panics when err is a validation failure. It exists so that
// conformance can be asserted from a package-level declaration.
func MustCheck(err error) struct{} {
	if err != nil {
		panic(err)
	}
	return struct{}{}
}

func matchImplementation(shapeT, implT reflect.Type) (*bindPlan, *Verdict) {
	if implT.Kind() == reflect.Ptr {
		implT = implT.Elem()
	}
	key := pairKey{shape: shapeT, impl: implT}
	planCache.mu.RLock()
	r, ok := planCache.m[key]
	planCache.mu.RUnlock()
	if ok {
		return r.plan, r.verdict
	}
	plan, verdict := matchUncached(shapeT, implT)
	planCache.mu.Lock()
	planCache.m[key] = planResult{plan: plan, verdict: verdict}
	planCache.mu.Unlock()
	return plan, verdict
}

// matchUncached walks the shape's method table in declaration order and
// locates a same-named method on the implementation for every slot,
// tolerating absence only for optional slots. The first violation wins.
func matchUncached(shapeT, implT reflect.Type) (*bindPlan, *Verdict) {
	info, verdict := parseShape(shapeT)
	if verdict != nil {
		return nil, verdict
	}
	ptrT := reflect.PointerTo(implT)
	shapeName := shapeT.String()
	implName := implT.String()

	plan := &bindPlan{shape: info, impl: implT}
	for _, s := range info.slots {
		m, ok := ptrT.MethodByName(s.name)
		if !ok {
			if hasField(implT, s.name) {
				return nil, &Verdict{
					Code: NotAMethod, Shape: shapeName, Impl: implName, Slot: s.name,
					Param: -1, Expected: "method", Actual: "field",
				}
			}
			if s.optional {
				plan.slots = append(plan.slots, plannedSlot{slot: s})
				continue
			}
			return nil, &Verdict{
				Code: MissingMethod, Shape: shapeName, Impl: implName, Slot: s.name,
				Param: -1, Expected: "method " + s.name,
			}
		}
		// A method present on the value type has a value receiver, which
		// maps to a constant self-pointer.
		_, constRecv := implT.MethodByName(s.name)
		if inner := compareSignatures(s.fn, m.Type, constRecv); inner != nil {
			return nil, &Verdict{
				Code: SignatureError, Shape: shapeName, Impl: implName, Slot: s.name,
				Param: -1, Inner: inner,
			}
		}
		plan.slots = append(plan.slots, plannedSlot{slot: s, present: true, method: m.Index, constRecv: constRecv})
	}
	return plan, nil
}

func hasField(t reflect.Type, name string) bool {
	if t.Kind() != reflect.Struct {
		return false
	}
	_, ok := t.FieldByName(name)
	return ok
}
