package wasm

// Index kinds are distinct types so that, say, a FunctionIndex cannot be
// handed to something expecting a TypeIndex without an explicit conversion.
// Indices stay numeric after decoding; resolution is the validator's job.
type (
	TypeIndex     uint32
	FunctionIndex uint32
	TableIndex    uint32
	MemoryIndex   uint32
	GlobalIndex   uint32
	LocalIndex    uint32
	LabelIndex    uint32
	DataIndex     uint32
	ElementIndex  uint32
)
