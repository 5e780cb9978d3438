package wasm

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
)

var (
	moduleMagic   = []byte{0x00, 0x61, 0x73, 0x6D}
	moduleVersion = []byte{0x01, 0x00, 0x00, 0x00}
)

// Module is a decoded wasm binary: the sections in the order they appeared
// in the file. The tree is immutable once decoding returns; indices are
// left numeric for the validator and interpreter to resolve.
type Module struct {
	Sections []Section
}

type SectionID byte

const (
	SectionIDCustom    SectionID = 0
	SectionIDType      SectionID = 1
	SectionIDImport    SectionID = 2
	SectionIDFunction  SectionID = 3
	SectionIDTable     SectionID = 4
	SectionIDMemory    SectionID = 5
	SectionIDGlobal    SectionID = 6
	SectionIDExport    SectionID = 7
	SectionIDStart     SectionID = 8
	SectionIDElement   SectionID = 9
	SectionIDCode      SectionID = 10
	SectionIDData      SectionID = 11
	SectionIDDataCount SectionID = 12
)

func (id SectionID) String() string {
	switch id {
	case SectionIDCustom:
		return "custom"
	case SectionIDType:
		return "type"
	case SectionIDImport:
		return "import"
	case SectionIDFunction:
		return "function"
	case SectionIDTable:
		return "table"
	case SectionIDMemory:
		return "memory"
	case SectionIDGlobal:
		return "global"
	case SectionIDExport:
		return "export"
	case SectionIDStart:
		return "start"
	case SectionIDElement:
		return "element"
	case SectionIDCode:
		return "code"
	case SectionIDData:
		return "data"
	case SectionIDDataCount:
		return "data count"
	}
	return fmt.Sprintf("section(%d)", byte(id))
}

// Section is one decoded module section; the concrete type is the
// XxxSection struct for its ID (TypeSection, CodeSection, ...).
type Section interface {
	SectionID() SectionID
}

type CustomSection struct {
	Name     string
	Contents []byte
}

type TypeSection struct {
	Types []FunctionType
}

type ImportSection struct {
	Imports []Import
}

type Import struct {
	Module      string
	Name        string
	Description ImportDescription
}

// ImportDescription is one of TypeIndex, TableType, MemoryType or
// GlobalType, per the import's kind tag.
type ImportDescription interface {
	isImportDescription()
}

func (TypeIndex) isImportDescription()  {}
func (TableType) isImportDescription()  {}
func (MemoryType) isImportDescription() {}
func (GlobalType) isImportDescription() {}

type FunctionSection struct {
	Types []TypeIndex
}

type TableSection struct {
	Tables []TableType
}

type MemorySection struct {
	Memories []MemoryType
}

type GlobalSection struct {
	Globals []Global
}

type Global struct {
	Type GlobalType
	Init Expression
}

type ExportSection struct {
	Exports []Export
}

type Export struct {
	Name        string
	Description ExportDescription
}

// ExportDescription is the exported entity's index; its kind is the
// index type.
type ExportDescription interface {
	isExportDescription()
}

func (FunctionIndex) isExportDescription() {}
func (TableIndex) isExportDescription()    {}
func (MemoryIndex) isExportDescription()   {}
func (GlobalIndex) isExportDescription()   {}

type StartSection struct {
	Function FunctionIndex
}

type ElementMode int

const (
	ElementActive ElementMode = iota
	ElementPassive
	ElementDeclarative
)

// ElementSegment initializes a table region. Offset is empty for passive
// and declarative segments; Table defaults to zero where the encoding
// leaves it implicit.
type ElementSegment struct {
	Mode   ElementMode
	Table  TableIndex
	Offset Expression
	Init   []FunctionIndex
}

type ElementSection struct {
	Segments []ElementSegment
}

type CodeSection struct {
	Entries []Code
}

// Code is one function body: its local declarations (run-length encoded,
// as in the binary) and its expression.
type Code struct {
	Locals []Local
	Body   Expression
}

type Local struct {
	Count uint32
	Type  ValueType
}

type DataMode int

const (
	DataActive DataMode = iota
	DataPassive
)

type DataSegment struct {
	Mode   DataMode
	Memory MemoryIndex
	Offset Expression
	Init   []byte
}

type DataSection struct {
	Segments []DataSegment
}

type DataCountSection struct {
	Count *uint32
}

func (CustomSection) SectionID() SectionID    { return SectionIDCustom }
func (TypeSection) SectionID() SectionID      { return SectionIDType }
func (ImportSection) SectionID() SectionID    { return SectionIDImport }
func (FunctionSection) SectionID() SectionID  { return SectionIDFunction }
func (TableSection) SectionID() SectionID     { return SectionIDTable }
func (MemorySection) SectionID() SectionID    { return SectionIDMemory }
func (GlobalSection) SectionID() SectionID    { return SectionIDGlobal }
func (ExportSection) SectionID() SectionID    { return SectionIDExport }
func (StartSection) SectionID() SectionID     { return SectionIDStart }
func (ElementSection) SectionID() SectionID   { return SectionIDElement }
func (CodeSection) SectionID() SectionID      { return SectionIDCode }
func (DataSection) SectionID() SectionID      { return SectionIDData }
func (DataCountSection) SectionID() SectionID { return SectionIDDataCount }

// DecodeModule reads a complete wasm 1.0 binary from r. Custom sections
// may appear anywhere and repeatedly; all other sections must appear at
// most once, in ascending ID order.
func DecodeModule(r io.Reader) (*Module, error) {
	p := newParser(NewStream(r))

	if err := p.expect("module magic", moduleMagic, ErrInvalidModuleMagic); err != nil {
		return nil, err
	}
	if err := p.expect("module version", moduleVersion, ErrInvalidModuleVersion); err != nil {
		return nil, err
	}

	mod := &Module{}
	lastID := SectionID(0)
	for {
		idByte, err := p.s.ReadByte()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, p.fail(err, ErrInvalidInput, "section id")
		}

		id := SectionID(idByte)
		if id > SectionIDDataCount {
			return nil, p.fail(nil, ErrInvalidInput, fmt.Sprintf("unknown section id %d", idByte))
		}
		if id != SectionIDCustom {
			if id <= lastID {
				return nil, p.fail(nil, ErrInvalidInput, fmt.Sprintf("out-of-order %s section", id))
			}
			lastID = id
		}

		size, err := p.readSize(fmt.Sprintf("%s section size", id))
		if err != nil {
			return nil, err
		}

		sub := newParser(p.s.Limit(int(size)))
		section, err := sub.readSection(id)
		if err != nil {
			return nil, fmt.Errorf("%s section: %w", id, err)
		}
		if rem := sub.s.Remaining(); rem != 0 {
			return nil, p.fail(nil, ErrInvalidSize, fmt.Sprintf("%s section with %d bytes left over", id, rem))
		}
		Logger().Debug("decoded section",
			zap.Stringer("section", id),
			zap.Uint32("size", size))

		mod.Sections = append(mod.Sections, section)
	}

	return mod, nil
}
