package wasm

import "fmt"

// readOpcode reads the next logical opcode, folding an 0xFC prefix and its
// LEB-encoded sub-opcode into one value. It does not check that the result
// names a real instruction; readInstruction does that when it dispatches.
func (p *parser) readOpcode(thing string) (Opcode, error) {
	b, err := p.s.ReadByte()
	if err != nil {
		return 0, p.fail(err, ErrExpectedValueOrTerminator, thing)
	}
	if b != extPrefix {
		return Opcode(b), nil
	}
	sub, err := p.readU32(fmt.Sprintf("sub-opcode for %s", thing))
	if err != nil {
		return 0, err
	}
	return extOpcode(sub), nil
}

// readExpression reads instructions up to and including the terminating
// end opcode, which is not stored.
func (p *parser) readExpression(thing string) (Expression, error) {
	body, _, err := p.readInstructionSeq(thing, OpcodeEnd)
	return body, err
}

// readInstructionSeq reads instructions until one of the given terminator
// opcodes appears; the terminator is consumed and returned. An else
// encountered where it is not a permitted terminator is malformed, as is
// running out of stream before any terminator.
func (p *parser) readInstructionSeq(thing string, terminators ...Opcode) (Expression, Opcode, error) {
	var seq Expression
	for {
		op, err := p.readOpcode(thing)
		if err != nil {
			return nil, 0, err
		}
		for _, t := range terminators {
			if op == t {
				return seq, op, nil
			}
		}
		if op == OpcodeElse || op == OpcodeEnd {
			return nil, 0, p.fail(nil, ErrInvalidInput, fmt.Sprintf("unexpected %s in %s", op, thing))
		}
		instr, err := p.readInstruction(thing, op)
		if err != nil {
			return nil, 0, err
		}
		seq = append(seq, instr)
	}
}

// readInstruction decodes the immediates of op, which has already been
// read.
func (p *parser) readInstruction(thing string, op Opcode) (Instruction, error) {
	instr := Instruction{Opcode: op}

	switch op {
	case OpcodeBlock, OpcodeLoop:
		bt, err := p.readBlockType(fmt.Sprintf("%s type", op))
		if err != nil {
			return Instruction{}, err
		}
		body, _, err := p.readInstructionSeq(fmt.Sprintf("%s body", op), OpcodeEnd)
		if err != nil {
			return Instruction{}, err
		}
		instr.Args = BlockArgs{Type: bt, Body: body}

	case OpcodeIf:
		bt, err := p.readBlockType("if type")
		if err != nil {
			return Instruction{}, err
		}
		then, term, err := p.readInstructionSeq("if body", OpcodeElse, OpcodeEnd)
		if err != nil {
			return Instruction{}, err
		}
		args := IfArgs{Type: bt, Then: then}
		if term == OpcodeElse {
			args.Else, _, err = p.readInstructionSeq("else body", OpcodeEnd)
			if err != nil {
				return Instruction{}, err
			}
		}
		instr.Args = args

	case OpcodeBr, OpcodeBrIf:
		label, err := readIndex[LabelIndex](p, fmt.Sprintf("%s label", op))
		if err != nil {
			return Instruction{}, err
		}
		instr.Args = label

	case OpcodeBrTable:
		labels, err := vec(p, "br_table labels", func(thing string) (LabelIndex, error) {
			return readIndex[LabelIndex](p, thing)
		})
		if err != nil {
			return Instruction{}, err
		}
		def, err := readIndex[LabelIndex](p, "br_table default label")
		if err != nil {
			return Instruction{}, err
		}
		instr.Args = BrTableArgs{Labels: labels, Default: def}

	case OpcodeCall:
		fn, err := readIndex[FunctionIndex](p, "call target")
		if err != nil {
			return Instruction{}, err
		}
		instr.Args = fn

	case OpcodeCallIndirect:
		typeIdx, err := readIndex[TypeIndex](p, "call_indirect type")
		if err != nil {
			return Instruction{}, err
		}
		tableIdx, err := readIndex[TableIndex](p, "call_indirect table")
		if err != nil {
			return Instruction{}, err
		}
		instr.Args = CallIndirectArgs{Type: typeIdx, Table: tableIdx}

	case OpcodeSelectTyped:
		types, err := vec(p, "select types", p.readValueType)
		if err != nil {
			return Instruction{}, err
		}
		if len(types) == 1 {
			instr.Args = types[0]
		} else {
			instr.Args = SelectTypes(types)
		}

	case OpcodeLocalGet, OpcodeLocalSet, OpcodeLocalTee:
		local, err := readIndex[LocalIndex](p, fmt.Sprintf("%s local", op))
		if err != nil {
			return Instruction{}, err
		}
		instr.Args = local

	case OpcodeGlobalGet, OpcodeGlobalSet:
		global, err := readIndex[GlobalIndex](p, fmt.Sprintf("%s global", op))
		if err != nil {
			return Instruction{}, err
		}
		instr.Args = global

	case OpcodeTableGet, OpcodeTableSet, OpcodeTableGrow, OpcodeTableSize, OpcodeTableFill:
		table, err := readIndex[TableIndex](p, fmt.Sprintf("%s table", op))
		if err != nil {
			return Instruction{}, err
		}
		instr.Args = table

	case OpcodeMemorySize, OpcodeMemoryGrow:
		// The 1.0 encoding reserves a zero byte here; read and discard.
		if _, err := p.readByte(fmt.Sprintf("%s reserved byte", op)); err != nil {
			return Instruction{}, err
		}

	case OpcodeI32Const:
		v, err := p.readS32("i32.const value")
		if err != nil {
			return Instruction{}, err
		}
		instr.Args = I32Const(v)

	case OpcodeI64Const:
		v, err := p.readS64("i64.const value")
		if err != nil {
			return Instruction{}, err
		}
		instr.Args = I64Const(v)

	case OpcodeF32Const:
		v, err := p.readF32("f32.const value")
		if err != nil {
			return Instruction{}, err
		}
		instr.Args = F32Const(v)

	case OpcodeF64Const:
		v, err := p.readF64("f64.const value")
		if err != nil {
			return Instruction{}, err
		}
		instr.Args = F64Const(v)

	case OpcodeRefNull:
		t, err := p.readValueType("ref.null type")
		if err != nil {
			return Instruction{}, err
		}
		if !t.IsReference() {
			return Instruction{}, p.fail(nil, ErrInvalidType, "ref.null type")
		}
		instr.Args = t

	case OpcodeRefFunc:
		fn, err := readIndex[FunctionIndex](p, "ref.func target")
		if err != nil {
			return Instruction{}, err
		}
		instr.Args = fn

	case OpcodeMemoryInit:
		data, err := readIndex[DataIndex](p, "memory.init data segment")
		if err != nil {
			return Instruction{}, err
		}
		if _, err := p.readByte("memory.init reserved byte"); err != nil {
			return Instruction{}, err
		}
		instr.Args = data

	case OpcodeDataDrop:
		data, err := readIndex[DataIndex](p, "data.drop data segment")
		if err != nil {
			return Instruction{}, err
		}
		instr.Args = data

	case OpcodeMemoryCopy:
		if _, err := p.readN("memory.copy reserved bytes", 2); err != nil {
			return Instruction{}, err
		}

	case OpcodeMemoryFill:
		if _, err := p.readByte("memory.fill reserved byte"); err != nil {
			return Instruction{}, err
		}

	case OpcodeTableInit:
		elem, err := readIndex[ElementIndex](p, "table.init element segment")
		if err != nil {
			return Instruction{}, err
		}
		table, err := readIndex[TableIndex](p, "table.init table")
		if err != nil {
			return Instruction{}, err
		}
		instr.Args = TableInitArgs{Element: elem, Table: table}

	case OpcodeElemDrop:
		elem, err := readIndex[ElementIndex](p, "elem.drop element segment")
		if err != nil {
			return Instruction{}, err
		}
		instr.Args = elem

	case OpcodeTableCopy:
		dst, err := readIndex[TableIndex](p, "table.copy destination")
		if err != nil {
			return Instruction{}, err
		}
		src, err := readIndex[TableIndex](p, "table.copy source")
		if err != nil {
			return Instruction{}, err
		}
		instr.Args = TableCopyArgs{Destination: dst, Source: src}

	default:
		if OpcodeI32Load <= op && op <= OpcodeI64Store32 {
			align, err := p.readU32(fmt.Sprintf("%s alignment", op))
			if err != nil {
				return Instruction{}, err
			}
			offset, err := p.readU32(fmt.Sprintf("%s offset", op))
			if err != nil {
				return Instruction{}, err
			}
			instr.Args = MemoryArgument{Align: align, Offset: offset}
			break
		}
		if !bareOpcode(op) {
			return Instruction{}, p.fail(nil, ErrInvalidInput, fmt.Sprintf("unknown %s in %s", op, thing))
		}
	}

	return instr, nil
}
