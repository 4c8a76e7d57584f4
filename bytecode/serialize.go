package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ParseError reports malformed or truncated program-file bytes (§7 Parse).
type ParseError struct {
	Message string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("💥 ParseError: %s", e.Message)
}

// Serialize encodes a Program to its on-disk binary representation.
// All multi-byte integers are little-endian; strings are a u32 length
// followed by raw bytes, never NUL-terminated; vectors are a u16 count
// followed by their elements (§4.1).
func Serialize(p Program) []byte {
	buf := new(bytes.Buffer)

	writeU16(buf, uint16(len(p.Constants)))
	for _, c := range p.Constants {
		writeProgramObject(buf, c, p.Code)
	}

	writeU16(buf, uint16(len(p.Globals)))
	for _, g := range p.Globals {
		writeU16(buf, uint16(g))
	}

	writeU16(buf, uint16(p.Entry))
	return buf.Bytes()
}

func writeU16(buf *bytes.Buffer, v uint16) { binary.Write(buf, binary.LittleEndian, v) }
func writeU32(buf *bytes.Buffer, v uint32) { binary.Write(buf, binary.LittleEndian, v) }

func writeProgramObject(buf *bytes.Buffer, c ProgramObject, code []OpCode) {
	buf.WriteByte(c.Tag())
	switch v := c.(type) {
	case Integer:
		writeU32(buf, uint32(int32(v)))
	case Null:
	case String:
		bs := []byte(v)
		writeU32(buf, uint32(len(bs)))
		buf.Write(bs)
	case Boolean:
		if v {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case Slot:
		writeU16(buf, uint16(v.Name))
	case Class:
		writeU16(buf, uint16(len(v.Members)))
		for _, m := range v.Members {
			writeU16(buf, uint16(m))
		}
	case Method:
		writeU16(buf, uint16(v.Name))
		buf.WriteByte(byte(v.Arity))
		writeU16(buf, uint16(v.Locals))
		writeU32(buf, v.Code.Length)
		for i := uint32(0); i < v.Code.Length; i++ {
			writeOpCode(buf, code[uint32(v.Code.Start)+i])
		}
	default:
		panic(fmt.Sprintf("bytecode: unknown ProgramObject %T", c))
	}
}

func writeOpCode(buf *bytes.Buffer, op OpCode) {
	buf.WriteByte(op.Tag())
	switch o := op.(type) {
	case Label:
		writeU16(buf, uint16(o.Name))
	case Literal:
		writeU16(buf, uint16(o.Index))
	case Print:
		writeU16(buf, uint16(o.Format))
		buf.WriteByte(byte(o.Arguments))
	case Array:
	case Object:
		writeU16(buf, uint16(o.Class))
	case GetSlot:
		writeU16(buf, uint16(o.Name))
	case SetSlot:
		writeU16(buf, uint16(o.Name))
	case CallMethod:
		writeU16(buf, uint16(o.Name))
		buf.WriteByte(byte(o.Arguments))
	case CallFunction:
		writeU16(buf, uint16(o.Name))
		buf.WriteByte(byte(o.Arguments))
	case SetLocal:
		writeU16(buf, uint16(o.Index))
	case GetLocal:
		writeU16(buf, uint16(o.Index))
	case SetGlobal:
		writeU16(buf, uint16(o.Name))
	case GetGlobal:
		writeU16(buf, uint16(o.Name))
	case Branch:
		writeU16(buf, uint16(o.Label))
	case Jump:
		writeU16(buf, uint16(o.Label))
	case Return:
	case Drop:
	default:
		panic(fmt.Sprintf("bytecode: unknown OpCode %T", op))
	}
}

// reader walks a byte slice, returning ParseErrors on truncation.
type reader struct {
	data []byte
	pos  int
}

func (r *reader) need(n int) error {
	if r.pos+n > len(r.data) {
		return ParseError{Message: fmt.Sprintf("truncated input: need %d bytes at offset %d, have %d", n, r.pos, len(r.data))}
	}
	return nil
}

func (r *reader) byte() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) u16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) u32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Deserialize decodes a Program from its §4.1 binary representation.
// Method constants append their instructions to a single growing code
// vector shared by the whole Program; their AddressRange is rebased to
// that vector as a side effect of reading them (§4.1).
func Deserialize(data []byte) (Program, error) {
	r := &reader{data: data}
	var p Program

	constantCount, err := r.u16()
	if err != nil {
		return p, err
	}
	p.Constants = make([]ProgramObject, constantCount)
	for i := range p.Constants {
		obj, err := readProgramObject(r, &p.Code)
		if err != nil {
			return p, err
		}
		p.Constants[i] = obj
	}

	globalCount, err := r.u16()
	if err != nil {
		return p, err
	}
	p.Globals = make([]ConstantPoolIndex, globalCount)
	for i := range p.Globals {
		v, err := r.u16()
		if err != nil {
			return p, err
		}
		p.Globals[i] = ConstantPoolIndex(v)
	}

	entry, err := r.u16()
	if err != nil {
		return p, err
	}
	p.Entry = ConstantPoolIndex(entry)
	return p, nil
}

func readProgramObject(r *reader, code *[]OpCode) (ProgramObject, error) {
	tag, err := r.byte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case TagInteger:
		v, err := r.u32()
		if err != nil {
			return nil, err
		}
		return Integer(int32(v)), nil
	case TagNull:
		return Null{}, nil
	case TagString:
		n, err := r.u32()
		if err != nil {
			return nil, err
		}
		bs, err := r.bytes(int(n))
		if err != nil {
			return nil, err
		}
		return String(bs), nil
	case TagBoolean:
		b, err := r.byte()
		if err != nil {
			return nil, err
		}
		return Boolean(b != 0), nil
	case TagSlot:
		name, err := r.u16()
		if err != nil {
			return nil, err
		}
		return Slot{Name: ConstantPoolIndex(name)}, nil
	case TagClass:
		count, err := r.u16()
		if err != nil {
			return nil, err
		}
		members := make([]ConstantPoolIndex, count)
		for i := range members {
			v, err := r.u16()
			if err != nil {
				return nil, err
			}
			members[i] = ConstantPoolIndex(v)
		}
		return Class{Members: members}, nil
	case TagMethod:
		name, err := r.u16()
		if err != nil {
			return nil, err
		}
		arity, err := r.byte()
		if err != nil {
			return nil, err
		}
		locals, err := r.u16()
		if err != nil {
			return nil, err
		}
		count, err := r.u32()
		if err != nil {
			return nil, err
		}
		start := Address(len(*code))
		for i := uint32(0); i < count; i++ {
			op, err := readOpCode(r)
			if err != nil {
				return nil, err
			}
			*code = append(*code, op)
		}
		return Method{
			Name:   ConstantPoolIndex(name),
			Arity:  Arity(arity),
			Locals: Size(locals),
			Code:   AddressRange{Start: start, Length: count},
		}, nil
	default:
		return nil, ParseError{Message: fmt.Sprintf("unknown ProgramObject tag 0x%02x", tag)}
	}
}

func readOpCode(r *reader) (OpCode, error) {
	tag, err := r.byte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case TagLabel:
		v, err := r.u16()
		if err != nil {
			return nil, err
		}
		return Label{Name: ConstantPoolIndex(v)}, nil
	case TagLiteral:
		v, err := r.u16()
		if err != nil {
			return nil, err
		}
		return Literal{Index: ConstantPoolIndex(v)}, nil
	case TagPrint:
		v, err := r.u16()
		if err != nil {
			return nil, err
		}
		a, err := r.byte()
		if err != nil {
			return nil, err
		}
		return Print{Format: ConstantPoolIndex(v), Arguments: Arity(a)}, nil
	case TagArray:
		return Array{}, nil
	case TagObject:
		v, err := r.u16()
		if err != nil {
			return nil, err
		}
		return Object{Class: ConstantPoolIndex(v)}, nil
	case TagGetSlot:
		v, err := r.u16()
		if err != nil {
			return nil, err
		}
		return GetSlot{Name: ConstantPoolIndex(v)}, nil
	case TagSetSlot:
		v, err := r.u16()
		if err != nil {
			return nil, err
		}
		return SetSlot{Name: ConstantPoolIndex(v)}, nil
	case TagCallMethod:
		v, err := r.u16()
		if err != nil {
			return nil, err
		}
		a, err := r.byte()
		if err != nil {
			return nil, err
		}
		return CallMethod{Name: ConstantPoolIndex(v), Arguments: Arity(a)}, nil
	case TagCallFunction:
		v, err := r.u16()
		if err != nil {
			return nil, err
		}
		a, err := r.byte()
		if err != nil {
			return nil, err
		}
		return CallFunction{Name: ConstantPoolIndex(v), Arguments: Arity(a)}, nil
	case TagSetLocal:
		v, err := r.u16()
		if err != nil {
			return nil, err
		}
		return SetLocal{Index: LocalFrameIndex(v)}, nil
	case TagGetLocal:
		v, err := r.u16()
		if err != nil {
			return nil, err
		}
		return GetLocal{Index: LocalFrameIndex(v)}, nil
	case TagSetGlobal:
		v, err := r.u16()
		if err != nil {
			return nil, err
		}
		return SetGlobal{Name: ConstantPoolIndex(v)}, nil
	case TagGetGlobal:
		v, err := r.u16()
		if err != nil {
			return nil, err
		}
		return GetGlobal{Name: ConstantPoolIndex(v)}, nil
	case TagBranch:
		v, err := r.u16()
		if err != nil {
			return nil, err
		}
		return Branch{Label: ConstantPoolIndex(v)}, nil
	case TagJump:
		v, err := r.u16()
		if err != nil {
			return nil, err
		}
		return Jump{Label: ConstantPoolIndex(v)}, nil
	case TagReturn:
		return Return{}, nil
	case TagDrop:
		return Drop{}, nil
	default:
		return nil, ParseError{Message: fmt.Sprintf("unknown OpCode tag 0x%02x", tag)}
	}
}
