package wasm

import "fmt"

// ValueType is one of the six wasm 1.0 value types, identified by its
// encoding byte.
type ValueType byte

const (
	ValueTypeI32       ValueType = 0x7F
	ValueTypeI64       ValueType = 0x7E
	ValueTypeF32       ValueType = 0x7D
	ValueTypeF64       ValueType = 0x7C
	ValueTypeFuncref   ValueType = 0x70
	ValueTypeExternref ValueType = 0x6F
)

func (t ValueType) IsReference() bool {
	return t == ValueTypeFuncref || t == ValueTypeExternref
}

func (t ValueType) IsNumeric() bool {
	return t.valid() && !t.IsReference()
}

func (t ValueType) valid() bool {
	switch t {
	case ValueTypeI32, ValueTypeI64, ValueTypeF32, ValueTypeF64, ValueTypeFuncref, ValueTypeExternref:
		return true
	}
	return false
}

func (t ValueType) String() string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	case ValueTypeFuncref:
		return "funcref"
	case ValueTypeExternref:
		return "externref"
	}
	return fmt.Sprintf("valtype(0x%02x)", byte(t))
}

// ResultType is an ordered sequence of value types.
type ResultType []ValueType

type FunctionType struct {
	Params  ResultType
	Results ResultType
}

func (ft FunctionType) String() string {
	return fmt.Sprintf("func%v -> %v", []ValueType(ft.Params), []ValueType(ft.Results))
}

type Limits struct {
	Min    uint32
	Max    uint32
	HasMax bool
}

type MemoryType struct {
	Limits Limits
}

type TableType struct {
	ElementType ValueType
	Limits      Limits
}

type GlobalType struct {
	Type    ValueType
	Mutable bool
}

type BlockTypeKind int

const (
	// BlockEmpty is a block with no result.
	BlockEmpty BlockTypeKind = iota
	// BlockValue is a block with a single result value type.
	BlockValue
	// BlockTypeIndex is a block whose signature is a type section entry.
	BlockTypeIndex
)

// BlockType is the signature of a structured control instruction.
type BlockType struct {
	Kind  BlockTypeKind
	Value ValueType // set when Kind == BlockValue
	Type  TypeIndex // set when Kind == BlockTypeIndex
}

func (p *parser) readValueType(thing string) (ValueType, error) {
	b, err := p.readByte(thing)
	if err != nil {
		return 0, err
	}
	t := ValueType(b)
	if !t.valid() {
		return 0, p.fail(nil, ErrInvalidType, thing)
	}
	return t, nil
}

func (p *parser) readResultType(thing string) (ResultType, error) {
	return vec(p, thing, p.readValueType)
}

func (p *parser) readFunctionType(thing string) (FunctionType, error) {
	tag, err := p.readByte(thing)
	if err != nil {
		return FunctionType{}, err
	}
	if tag != 0x60 {
		return FunctionType{}, p.fail(nil, ErrInvalidTag, thing)
	}
	params, err := p.readResultType("function type parameters")
	if err != nil {
		return FunctionType{}, err
	}
	results, err := p.readResultType("function type results")
	if err != nil {
		return FunctionType{}, err
	}
	return FunctionType{Params: params, Results: results}, nil
}

func (p *parser) readLimits(thing string) (Limits, error) {
	flag, err := p.readByte("limits flag")
	if err != nil {
		return Limits{}, err
	}
	if flag != 0x00 && flag != 0x01 {
		return Limits{}, p.fail(nil, ErrInvalidTag, "limits flag")
	}
	min, err := p.readU32("limits minimum")
	if err != nil {
		return Limits{}, err
	}
	lim := Limits{Min: min}
	if flag == 0x01 {
		max, err := p.readU32("limits maximum")
		if err != nil {
			return Limits{}, err
		}
		if max < min {
			return Limits{}, p.fail(nil, ErrInvalidInput, thing)
		}
		lim.Max = max
		lim.HasMax = true
	}
	return lim, nil
}

func (p *parser) readMemoryType(thing string) (MemoryType, error) {
	lim, err := p.readLimits(thing)
	if err != nil {
		return MemoryType{}, err
	}
	return MemoryType{Limits: lim}, nil
}

func (p *parser) readTableType(thing string) (TableType, error) {
	et, err := p.readValueType(fmt.Sprintf("element type for %s", thing))
	if err != nil {
		return TableType{}, err
	}
	if !et.IsReference() {
		return TableType{}, p.fail(nil, ErrInvalidType, thing)
	}
	lim, err := p.readLimits(fmt.Sprintf("limits for %s", thing))
	if err != nil {
		return TableType{}, err
	}
	return TableType{ElementType: et, Limits: lim}, nil
}

func (p *parser) readGlobalType(thing string) (GlobalType, error) {
	t, err := p.readValueType(thing)
	if err != nil {
		return GlobalType{}, err
	}
	mut, err := p.readByte(thing)
	if err != nil {
		return GlobalType{}, err
	}
	if mut != 0x00 && mut != 0x01 {
		return GlobalType{}, p.fail(nil, ErrInvalidTag, thing)
	}
	return GlobalType{Type: t, Mutable: mut == 0x01}, nil
}

// readBlockType needs one byte of lookahead: an empty marker and a value
// type are single bytes, while a type reference is a signed 33-bit LEB
// whose first byte has already been seen.
func (p *parser) readBlockType(thing string) (BlockType, error) {
	b, err := p.peekByte(thing)
	if err != nil {
		return BlockType{}, err
	}
	if b == 0x40 {
		_, _ = p.s.ReadByte()
		return BlockType{Kind: BlockEmpty}, nil
	}
	if t := ValueType(b); t.valid() {
		_, _ = p.s.ReadByte()
		return BlockType{Kind: BlockValue, Value: t}, nil
	}
	idx, err := p.readS33(thing)
	if err != nil {
		return BlockType{}, err
	}
	if idx < 0 {
		return BlockType{}, p.fail(nil, ErrInvalidInput, thing)
	}
	return BlockType{Kind: BlockTypeIndex, Type: TypeIndex(idx)}, nil
}
