package vm

import "vela/bytecode"

// Frame is a call-local record: the address to resume at on Return (nil
// for the outermost frame, signalling halt) and an indexed vector of
// local-variable Pointers (§3.6 LocalFrame).
type Frame struct {
	Return *bytecode.Address
	Locals []Pointer
}
