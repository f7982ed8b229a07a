package amf0

import (
	"reflect"

	codecerrors "github.com/casio/amfcodec/internal/errors"
)

// encodeRefTable tracks identity -> slot for one Encoder session. Only
// Object/Array/MixedArray/TypedObject bodies occupy a slot; scalars are
// never referenced, per spec.md §3.
type encodeRefTable struct {
	slots map[uintptr]int
	next  int
}

func newEncodeRefTable() *encodeRefTable {
	return &encodeRefTable{slots: make(map[uintptr]int)}
}

// identityOf returns the pointer identity of v's underlying data, and
// whether v is a kind that can carry identity at all (Ptr, Map, Slice).
// Scalars, strings, and plain structs passed by value have no identity of
// their own and are never deduplicated via Reference.
func identityOf(v reflect.Value) (uintptr, bool) {
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice:
		if v.IsNil() {
			return 0, false
		}
		return v.Pointer(), true
	default:
		return 0, false
	}
}

// lookupOrAllocate checks whether ptr has already been assigned a slot. If
// so it returns (slot, true). Otherwise it allocates the next slot (or
// fails with OutOfReferenceSlots once the table is saturated) and returns
// (slot, false) so the caller knows to actually emit the body.
func (t *encodeRefTable) lookupOrAllocate(ptr uintptr) (int, bool, error) {
	if slot, ok := t.slots[ptr]; ok {
		return slot, true, nil
	}
	if t.next >= ReferenceLimit {
		return 0, false, &codecerrors.OutOfReferenceSlots{Limit: ReferenceLimit}
	}
	slot := t.next
	t.slots[ptr] = slot
	t.next++
	return slot, false, nil
}

// decodeRefTable is the parser's append-only slot list. Slots are inserted
// before their body is populated (spec.md §4.4's "insert-before-populate"),
// which is what lets a back-reference inside an object's own body resolve
// to the not-yet-fully-populated container and still observe the final
// state once parsing completes, since containers are held by pointer.
type decodeRefTable struct {
	slots []any
}

func newDecodeRefTable() *decodeRefTable {
	return &decodeRefTable{}
}

// reserve appends a placeholder slot and returns its index. The caller
// fills in the real pointer via fill once the container is allocated.
func (t *decodeRefTable) reserve() int {
	t.slots = append(t.slots, nil)
	return len(t.slots) - 1
}

func (t *decodeRefTable) fill(slot int, v any) {
	t.slots[slot] = v
}

func (t *decodeRefTable) at(slot int) (any, error) {
	if slot < 0 || slot >= len(t.slots) || t.slots[slot] == nil {
		return nil, &codecerrors.IndexOutOfRange{Index: slot, Size: len(t.slots)}
	}
	return t.slots[slot], nil
}
