package compiler

import "vela/bytecode"

// scope is a mapping of names to the local slot they were first
// assigned, local to one lexical block within a frame.
type scope struct {
	names map[string]bytecode.LocalFrameIndex
}

// frame tracks the local-slot index space shared by a function body and
// all of its nested block scopes (§9: "nested blocks push nested scopes
// that share the frame's index space").
type frame struct {
	scopes []*scope
	next   bytecode.LocalFrameIndex
}

// Bookkeeping is the compiler's scope manager. A nil current frame means
// top level: every VariableDefinition compiled in that state creates a
// global rather than a local (§4.3, §9).
type Bookkeeping struct {
	frame       *frame
	savedFrames []*frame
	globals     map[string]struct{}
}

// NewBookkeeping returns a Bookkeeping in top-level (no frame) state.
func NewBookkeeping() *Bookkeeping {
	return &Bookkeeping{globals: map[string]struct{}{}}
}

// HasFrame reports whether compilation is currently inside a function
// body, i.e. whether a name definition here creates a local (true) or a
// global (false).
func (b *Bookkeeping) HasFrame() bool {
	return b.frame != nil
}

// EnterFunction pushes a fresh frame for a function/method body,
// suspending whatever frame (if any) was previously active.
func (b *Bookkeeping) EnterFunction() {
	b.savedFrames = append(b.savedFrames, b.frame)
	b.frame = &frame{}
}

// LeaveFunction pops the current frame and returns the number of local
// slots it accumulated, for the Method constant's Locals field.
func (b *Bookkeeping) LeaveFunction() bytecode.Size {
	locals := bytecode.Size(0)
	if b.frame != nil {
		locals = bytecode.Size(b.frame.next)
	}
	n := len(b.savedFrames)
	b.frame = b.savedFrames[n-1]
	b.savedFrames = b.savedFrames[:n-1]
	return locals
}

// EnterScope pushes a nested lexical scope sharing the current frame's
// index space. A no-op at top level (no frame to share).
func (b *Bookkeeping) EnterScope() {
	if b.frame == nil {
		return
	}
	b.frame.scopes = append(b.frame.scopes, &scope{names: map[string]bytecode.LocalFrameIndex{}})
}

// LeaveScope pops the innermost lexical scope. A no-op at top level.
func (b *Bookkeeping) LeaveScope() {
	if b.frame == nil {
		return
	}
	b.frame.scopes = b.frame.scopes[:len(b.frame.scopes)-1]
}

// DefineLocal assigns the next free slot in the current frame to name,
// recording it in the innermost scope so ResolveLocal can find it.
// Callers must only invoke this with HasFrame() true.
func (b *Bookkeeping) DefineLocal(name string) bytecode.LocalFrameIndex {
	idx := b.AllocateLocal()
	b.frame.scopes[len(b.frame.scopes)-1].names[name] = idx
	return idx
}

// AllocateLocal reserves the next free slot in the current frame without
// binding it to any source name; used for the compiler's own synthesised
// temporaries (e.g. array-definition init loops).
func (b *Bookkeeping) AllocateLocal() bytecode.LocalFrameIndex {
	idx := b.frame.next
	b.frame.next++
	return idx
}

// ResolveLocal searches the active frame's scopes, innermost first, for
// name. Returns false when there is no active frame or name is not a
// local in it (so the caller should treat it as a global).
func (b *Bookkeeping) ResolveLocal(name string) (bytecode.LocalFrameIndex, bool) {
	if b.frame == nil {
		return 0, false
	}
	for i := len(b.frame.scopes) - 1; i >= 0; i-- {
		if idx, ok := b.frame.scopes[i].names[name]; ok {
			return idx, true
		}
	}
	return 0, false
}

// DefineGlobal records name as a known global, for has_frame?-based
// resolution bookkeeping (§9). Resolution itself never consults this set
// directly: a name not found as a local is always treated as a global.
func (b *Bookkeeping) DefineGlobal(name string) {
	b.globals[name] = struct{}{}
}
