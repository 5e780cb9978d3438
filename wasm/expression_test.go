package wasm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func decodeExpr(t *testing.T, b []byte) Expression {
	t.Helper()
	p := parserOver(b)
	expr, err := p.readExpression("expression")
	require.NoError(t, err)
	require.Equal(t, 0, p.s.Remaining())
	return expr
}

func TestReadExpressionEmpty(t *testing.T) {
	expr := decodeExpr(t, []byte{0x0B})
	require.Empty(t, expr)
}

func TestReadExpressionNestedBlocks(t *testing.T) {
	// block (empty) containing if (empty) with then [nop] and else [nop].
	expr := decodeExpr(t, []byte{0x02, 0x40, 0x04, 0x40, 0x01, 0x05, 0x01, 0x0B, 0x0B, 0x0B})

	require.Len(t, expr, 1)
	require.Equal(t, OpcodeBlock, expr[0].Opcode)

	block := expr[0].Args.(BlockArgs)
	require.Equal(t, BlockEmpty, block.Type.Kind)
	require.Len(t, block.Body, 1)
	require.Equal(t, OpcodeIf, block.Body[0].Opcode)

	ifArgs := block.Body[0].Args.(IfArgs)
	require.Equal(t, BlockEmpty, ifArgs.Type.Kind)
	require.Len(t, ifArgs.Then, 1)
	require.Equal(t, OpcodeNop, ifArgs.Then[0].Opcode)
	require.Len(t, ifArgs.Else, 1)
	require.Equal(t, OpcodeNop, ifArgs.Else[0].Opcode)
}

func TestReadExpressionIfWithoutElse(t *testing.T) {
	expr := decodeExpr(t, []byte{0x04, 0x40, 0x01, 0x0B, 0x0B})

	require.Len(t, expr, 1)
	ifArgs := expr[0].Args.(IfArgs)
	require.Len(t, ifArgs.Then, 1)
	require.Nil(t, ifArgs.Else)
}

func TestReadExpressionLoopResultType(t *testing.T) {
	expr := decodeExpr(t, []byte{0x03, 0x7F, 0x41, 0x00, 0x0B, 0x0B})

	require.Len(t, expr, 1)
	require.Equal(t, OpcodeLoop, expr[0].Opcode)
	loop := expr[0].Args.(BlockArgs)
	require.Equal(t, BlockType{Kind: BlockValue, Value: ValueTypeI32}, loop.Type)
	require.Len(t, loop.Body, 1)
	require.Equal(t, Instruction{Opcode: OpcodeI32Const, Args: I32Const(0)}, loop.Body[0])
}

func TestReadExpressionBranches(t *testing.T) {
	expr := decodeExpr(t, []byte{
		0x0C, 0x00, // br 0
		0x0D, 0x01, // br_if 1
		0x0E, 0x02, 0x00, 0x01, 0x02, // br_table [0 1] default 2
		0x0B,
	})

	require.Len(t, expr, 3)
	require.Equal(t, LabelIndex(0), expr[0].Args)
	require.Equal(t, LabelIndex(1), expr[1].Args)
	require.Equal(t, BrTableArgs{
		Labels:  []LabelIndex{0, 1},
		Default: LabelIndex(2),
	}, expr[2].Args)
}

func TestReadExpressionCalls(t *testing.T) {
	expr := decodeExpr(t, []byte{
		0x10, 0x07, // call 7
		0x11, 0x03, 0x00, // call_indirect type 3 table 0
		0x0B,
	})

	require.Len(t, expr, 2)
	require.Equal(t, FunctionIndex(7), expr[0].Args)
	require.Equal(t, CallIndirectArgs{Type: TypeIndex(3), Table: TableIndex(0)}, expr[1].Args)
}

func TestReadExpressionCallIndirectKeepsNonzeroTable(t *testing.T) {
	expr := decodeExpr(t, []byte{0x11, 0x03, 0x02, 0x0B})
	require.Equal(t, CallIndirectArgs{Type: TypeIndex(3), Table: TableIndex(2)}, expr[0].Args)
}

func TestReadExpressionVariablesAndTables(t *testing.T) {
	expr := decodeExpr(t, []byte{
		0x20, 0x00, // local.get 0
		0x21, 0x01, // local.set 1
		0x22, 0x02, // local.tee 2
		0x23, 0x03, // global.get 3
		0x24, 0x04, // global.set 4
		0x25, 0x05, // table.get 5
		0x26, 0x06, // table.set 6
		0x0B,
	})

	require.Equal(t, LocalIndex(0), expr[0].Args)
	require.Equal(t, LocalIndex(1), expr[1].Args)
	require.Equal(t, LocalIndex(2), expr[2].Args)
	require.Equal(t, GlobalIndex(3), expr[3].Args)
	require.Equal(t, GlobalIndex(4), expr[4].Args)
	require.Equal(t, TableIndex(5), expr[5].Args)
	require.Equal(t, TableIndex(6), expr[6].Args)
}

func TestReadExpressionMemoryArgument(t *testing.T) {
	expr := decodeExpr(t, []byte{
		0x28, 0x02, 0x10, // i32.load align=2 offset=16
		0x36, 0x00, 0x80, 0x01, // i32.store align=0 offset=128
		0x3F, 0x00, // memory.size
		0x40, 0x00, // memory.grow
		0x0B,
	})

	require.Equal(t, MemoryArgument{Align: 2, Offset: 16}, expr[0].Args)
	require.Equal(t, MemoryArgument{Align: 0, Offset: 128}, expr[1].Args)
	require.Equal(t, OpcodeMemorySize, expr[2].Opcode)
	require.Nil(t, expr[2].Args)
	require.Equal(t, OpcodeMemoryGrow, expr[3].Opcode)
	require.Nil(t, expr[3].Args)
}

func TestReadExpressionConstants(t *testing.T) {
	expr := decodeExpr(t, []byte{
		0x41, 0x7F, // i32.const -1
		0x42, 0xC0, 0xBB, 0x78, // i64.const -123456
		0x43, 0x00, 0x00, 0x80, 0x3F, // f32.const 1.0
		0x44, 0x18, 0x2D, 0x44, 0x54, 0xFB, 0x21, 0x09, 0x40, // f64.const pi
		0x0B,
	})

	require.Equal(t, I32Const(-1), expr[0].Args)
	require.Equal(t, I64Const(-123456), expr[1].Args)
	require.Equal(t, F32Const(1.0), expr[2].Args)
	require.Equal(t, F64Const(math.Pi), expr[3].Args)
}

func TestReadExpressionSelect(t *testing.T) {
	t.Run("untyped", func(t *testing.T) {
		expr := decodeExpr(t, []byte{0x1B, 0x0B})
		require.Equal(t, OpcodeSelect, expr[0].Opcode)
		require.Nil(t, expr[0].Args)
	})

	t.Run("one type", func(t *testing.T) {
		expr := decodeExpr(t, []byte{0x1C, 0x01, 0x7F, 0x0B})
		require.Equal(t, ValueType(ValueTypeI32), expr[0].Args)
	})

	t.Run("type sequence", func(t *testing.T) {
		expr := decodeExpr(t, []byte{0x1C, 0x02, 0x7F, 0x7E, 0x0B})
		require.Equal(t, SelectTypes{ValueTypeI32, ValueTypeI64}, expr[0].Args)
	})
}

func TestReadExpressionReferences(t *testing.T) {
	expr := decodeExpr(t, []byte{
		0xD0, 0x70, // ref.null funcref
		0xD1,       // ref.is_null
		0xD2, 0x04, // ref.func 4
		0x0B,
	})

	require.Equal(t, ValueType(ValueTypeFuncref), expr[0].Args)
	require.Nil(t, expr[1].Args)
	require.Equal(t, FunctionIndex(4), expr[2].Args)

	p := parserOver([]byte{0xD0, 0x7F, 0x0B})
	_, err := p.readExpression("expression")
	require.ErrorIs(t, err, ErrInvalidType)
}

func TestReadExpressionExtendedOpcodes(t *testing.T) {
	expr := decodeExpr(t, []byte{
		0xFC, 0x00, // i32.trunc_sat_f32_s
		0xFC, 0x08, 0x01, 0x00, // memory.init data 1
		0xFC, 0x09, 0x02, // data.drop 2
		0xFC, 0x0A, 0x00, 0x00, // memory.copy
		0xFC, 0x0B, 0x00, // memory.fill
		0xFC, 0x0C, 0x03, 0x01, // table.init elem 3 table 1
		0xFC, 0x0D, 0x04, // elem.drop 4
		0xFC, 0x0E, 0x01, 0x02, // table.copy 1 2
		0xFC, 0x0F, 0x00, // table.grow 0
		0xFC, 0x10, 0x00, // table.size 0
		0xFC, 0x11, 0x00, // table.fill 0
		0x0B,
	})

	require.Equal(t, OpcodeI32TruncSatF32S, expr[0].Opcode)
	require.Nil(t, expr[0].Args)
	require.Equal(t, DataIndex(1), expr[1].Args)
	require.Equal(t, DataIndex(2), expr[2].Args)
	require.Equal(t, OpcodeMemoryCopy, expr[3].Opcode)
	require.Equal(t, OpcodeMemoryFill, expr[4].Opcode)
	require.Equal(t, TableInitArgs{Element: ElementIndex(3), Table: TableIndex(1)}, expr[5].Args)
	require.Equal(t, ElementIndex(4), expr[6].Args)
	require.Equal(t, TableCopyArgs{Destination: TableIndex(1), Source: TableIndex(2)}, expr[7].Args)
	require.Equal(t, TableIndex(0), expr[8].Args)
	require.Equal(t, OpcodeTableSize, expr[9].Opcode)
	require.Equal(t, OpcodeTableFill, expr[10].Opcode)
}

func TestReadExpressionNumericOps(t *testing.T) {
	expr := decodeExpr(t, []byte{
		0x41, 0x01, // i32.const 1
		0x41, 0x02, // i32.const 2
		0x6A,       // i32.add
		0x45,       // i32.eqz
		0xC0,       // i32.extend8_s
		0xBC,       // i32.reinterpret_f32
		0x0B,
	})
	require.Len(t, expr, 6)
	require.Equal(t, OpcodeI32Add, expr[2].Opcode)
	require.Equal(t, OpcodeI32Eqz, expr[3].Opcode)
	require.Equal(t, OpcodeI32Extend8S, expr[4].Opcode)
	require.Equal(t, OpcodeI32ReinterpretF32, expr[5].Opcode)
}

func TestReadExpressionErrors(t *testing.T) {
	t.Run("unknown opcode", func(t *testing.T) {
		p := parserOver([]byte{0x27, 0x0B})
		_, err := p.readExpression("expression")
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("unknown extended opcode", func(t *testing.T) {
		p := parserOver([]byte{0xFC, 0x20, 0x0B})
		_, err := p.readExpression("expression")
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("else outside an if", func(t *testing.T) {
		p := parserOver([]byte{0x02, 0x40, 0x05, 0x0B, 0x0B})
		_, err := p.readExpression("expression")
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("else at expression level", func(t *testing.T) {
		p := parserOver([]byte{0x05, 0x0B})
		_, err := p.readExpression("expression")
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("second else in one if", func(t *testing.T) {
		p := parserOver([]byte{0x04, 0x40, 0x05, 0x05, 0x0B, 0x0B})
		_, err := p.readExpression("expression")
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("unterminated block", func(t *testing.T) {
		p := parserOver([]byte{0x02, 0x40, 0x01})
		_, err := p.readExpression("expression")
		require.ErrorIs(t, err, ErrUnexpectedEOF)
	})

	t.Run("missing terminator", func(t *testing.T) {
		p := parserOver([]byte{0x01, 0x01})
		_, err := p.readExpression("expression")
		require.ErrorIs(t, err, ErrUnexpectedEOF)
	})
}
