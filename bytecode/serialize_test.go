package bytecode

import (
	"bytes"
	"testing"
)

// buildSample returns a small but representative Program exercising
// every ProgramObject and OpCode variant at least once.
func buildSample() Program {
	p := Program{}
	p.Constants = append(p.Constants, Integer(42))           // 0
	p.Constants = append(p.Constants, Null{})                // 1
	p.Constants = append(p.Constants, String("hi"))          // 2
	p.Constants = append(p.Constants, Boolean(true))         // 3
	p.Constants = append(p.Constants, Slot{Name: 2})         // 4
	p.Constants = append(p.Constants, Class{Members: []ConstantPoolIndex{4}}) // 5

	methodCode := []OpCode{
		Literal{Index: 0},
		Print{Format: 2, Arguments: 0},
		GetLocal{Index: 0},
		SetLocal{Index: 0},
		GetGlobal{Name: 2},
		SetGlobal{Name: 2},
		Label{Name: 2},
		Jump{Label: 2},
		Branch{Label: 2},
		Array{},
		Object{Class: 5},
		GetSlot{Name: 2},
		SetSlot{Name: 2},
		CallMethod{Name: 2, Arguments: 1},
		CallFunction{Name: 2, Arguments: 0},
		Drop{},
		Return{},
	}
	start := Address(len(p.Code))
	p.Code = append(p.Code, methodCode...)
	p.Constants = append(p.Constants, Method{
		Name:   2,
		Arity:  0,
		Locals: 1,
		Code:   AddressRange{Start: start, Length: uint32(len(methodCode))},
	}) // 6

	p.Globals = []ConstantPoolIndex{6}
	p.Entry = 6
	return p
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	want := buildSample()
	encoded := Serialize(want)

	got, err := Deserialize(encoded)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}

	reEncoded := Serialize(got)
	if !bytes.Equal(encoded, reEncoded) {
		t.Fatalf("serialize . deserialize . serialize is not the identity:\nfirst:  % x\nsecond: % x", encoded, reEncoded)
	}

	if len(got.Constants) != len(want.Constants) {
		t.Fatalf("constant pool length mismatch: got %d, want %d", len(got.Constants), len(want.Constants))
	}
	if len(got.Code) != len(want.Code) {
		t.Fatalf("code length mismatch: got %d, want %d", len(got.Code), len(want.Code))
	}
	if got.Entry != want.Entry {
		t.Fatalf("entry mismatch: got %d, want %d", got.Entry, want.Entry)
	}
}

// TestStringRoundTripPreservesBytes exercises §9 Q1: vela resolves the
// documented anomaly by preserving string bytes faithfully end to end,
// rather than reproducing the source implementation's 0x0A -> 0x00
// divergence.
func TestStringRoundTripPreservesBytes(t *testing.T) {
	p := Program{
		Constants: []ProgramObject{String("Hello World\n")},
		Globals:   []ConstantPoolIndex{},
		Entry:     0,
	}
	encoded := Serialize(p)
	got, err := Deserialize(encoded)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	s, ok := got.Constants[0].(String)
	if !ok {
		t.Fatalf("expected String constant, got %T", got.Constants[0])
	}
	if string(s) != "Hello World\n" {
		t.Fatalf("string round-trip lost bytes: got %q", string(s))
	}
}

func TestDeserializeTruncatedInputIsParseError(t *testing.T) {
	_, err := Deserialize([]byte{0x01, 0x00}) // claims one constant, provides none
	if err == nil {
		t.Fatal("expected a ParseError on truncated input, got nil")
	}
	if _, ok := err.(ParseError); !ok {
		t.Fatalf("expected ParseError, got %T: %v", err, err)
	}
}

func TestDeserializeUnknownTagIsParseError(t *testing.T) {
	// one constant, tag 0xFF (unknown)
	data := []byte{0x01, 0x00, 0xFF}
	_, err := Deserialize(data)
	if _, ok := err.(ParseError); !ok {
		t.Fatalf("expected ParseError, got %T: %v", err, err)
	}
}
