package vm

import (
	"fmt"

	"vela/bytecode"
)

// Pointer is an opaque index into a Memory arena (§3.5). Stable for the
// program's lifetime: nothing is ever freed or moved.
type Pointer int

// Object is a live runtime value, distinct from bytecode.ProgramObject.
// There is no runtime String variant: source strings exist only as
// constant-pool names and Print formats (see ObjString's absence, and
// VM.allocLiteral's handling of a String constant).
type Object interface {
	isObject()
}

type ObjNull struct{}
type ObjInteger int32
type ObjBoolean bool

// ObjArray is a reference type: Memory stores the pointer itself, so
// mutating Elements through it is visible to every holder of the
// pointer.
type ObjArray struct {
	Elements []Pointer
}

// ObjInstance is a reference type. Fields preserves insertion order
// (§3.5) for Print's `object(..)` rendering; Methods is populated once
// at construction and never mutated afterwards.
type ObjInstance struct {
	Parent  Pointer
	Fields  *fields
	Methods map[string]bytecode.Method
}

func (ObjNull) isObject()      {}
func (ObjInteger) isObject()   {}
func (ObjBoolean) isObject()   {}
func (*ObjArray) isObject()    {}
func (*ObjInstance) isObject() {}

// fields is an insertion-ordered name->Pointer map.
type fields struct {
	order  []string
	values map[string]Pointer
}

func newFields() *fields {
	return &fields{values: map[string]Pointer{}}
}

func (f *fields) set(name string, p Pointer) {
	if _, ok := f.values[name]; !ok {
		f.order = append(f.order, name)
	}
	f.values[name] = p
}

func (f *fields) get(name string) (Pointer, bool) {
	p, ok := f.values[name]
	return p, ok
}

// Memory is the append-only object arena (§3.6). Allocation never moves
// or reclaims; a positive limit caps growth so a runaway allocation loop
// fails fast instead of exhausting the host process (§9 Q3).
type Memory struct {
	objects []Object
	limit   int
}

// NewMemory returns an empty arena. limit <= 0 means unbounded.
func NewMemory(limit int) *Memory {
	return &Memory{limit: limit}
}

func (m *Memory) Alloc(o Object) (Pointer, error) {
	if m.limit > 0 && len(m.objects) >= m.limit {
		return 0, RuntimeError{Message: fmt.Sprintf("memory exhausted: allocator limit of %d objects reached", m.limit)}
	}
	m.objects = append(m.objects, o)
	return Pointer(len(m.objects) - 1), nil
}

func (m *Memory) Get(p Pointer) Object {
	return m.objects[p]
}

func (m *Memory) Len() int {
	return len(m.objects)
}
