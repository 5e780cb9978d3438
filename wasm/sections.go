package wasm

import "fmt"

// readSection decodes one section payload. The parser's stream is the
// bounded view established by DecodeModule; the caller checks that it is
// fully consumed.
func (p *parser) readSection(id SectionID) (Section, error) {
	switch id {
	case SectionIDCustom:
		return p.readCustomSection()
	case SectionIDType:
		return p.readTypeSection()
	case SectionIDImport:
		return p.readImportSection()
	case SectionIDFunction:
		return p.readFunctionSection()
	case SectionIDTable:
		return p.readTableSection()
	case SectionIDMemory:
		return p.readMemorySection()
	case SectionIDGlobal:
		return p.readGlobalSection()
	case SectionIDExport:
		return p.readExportSection()
	case SectionIDStart:
		return p.readStartSection()
	case SectionIDElement:
		return p.readElementSection()
	case SectionIDCode:
		return p.readCodeSection()
	case SectionIDData:
		return p.readDataSection()
	case SectionIDDataCount:
		return p.readDataCountSection()
	}
	return nil, p.fail(nil, ErrInvalidInput, fmt.Sprintf("section id %d", id))
}

func (p *parser) readCustomSection() (Section, error) {
	name, err := p.readName("custom section name")
	if err != nil {
		return nil, err
	}
	contents, err := p.readN("custom section contents", p.s.Remaining())
	if err != nil {
		return nil, err
	}
	return CustomSection{Name: name, Contents: contents}, nil
}

func (p *parser) readTypeSection() (Section, error) {
	types, err := vec(p, "function type", p.readFunctionType)
	if err != nil {
		return nil, err
	}
	return TypeSection{Types: types}, nil
}

func (p *parser) readImportSection() (Section, error) {
	imports, err := vec(p, "import", p.readImport)
	if err != nil {
		return nil, err
	}
	return ImportSection{Imports: imports}, nil
}

func (p *parser) readImport(thing string) (Import, error) {
	module, err := p.readName("import module name")
	if err != nil {
		return Import{}, err
	}
	name, err := p.readName("import name")
	if err != nil {
		return Import{}, err
	}
	tag, err := p.s.ReadByte()
	if err != nil {
		return Import{}, p.fail(err, ErrExpectedKindTag, "import kind")
	}

	imp := Import{Module: module, Name: name}
	switch tag {
	case 0x00:
		imp.Description, err = readIndex[TypeIndex](p, "imported function type")
	case 0x01:
		imp.Description, err = p.readTableType("imported table")
	case 0x02:
		imp.Description, err = p.readMemoryType("imported memory")
	case 0x03:
		imp.Description, err = p.readGlobalType("imported global")
	default:
		return Import{}, p.fail(nil, ErrInvalidTag, "import kind")
	}
	if err != nil {
		return Import{}, err
	}
	return imp, nil
}

func (p *parser) readFunctionSection() (Section, error) {
	types, err := vec(p, "function type index", func(thing string) (TypeIndex, error) {
		return readIndex[TypeIndex](p, thing)
	})
	if err != nil {
		return nil, err
	}
	return FunctionSection{Types: types}, nil
}

func (p *parser) readTableSection() (Section, error) {
	tables, err := vec(p, "table", p.readTableType)
	if err != nil {
		return nil, err
	}
	return TableSection{Tables: tables}, nil
}

func (p *parser) readMemorySection() (Section, error) {
	memories, err := vec(p, "memory", p.readMemoryType)
	if err != nil {
		return nil, err
	}
	return MemorySection{Memories: memories}, nil
}

func (p *parser) readGlobalSection() (Section, error) {
	globals, err := vec(p, "global", func(thing string) (Global, error) {
		gt, err := p.readGlobalType(thing)
		if err != nil {
			return Global{}, err
		}
		init, err := p.readExpression("global initializer")
		if err != nil {
			return Global{}, err
		}
		return Global{Type: gt, Init: init}, nil
	})
	if err != nil {
		return nil, err
	}
	return GlobalSection{Globals: globals}, nil
}

func (p *parser) readExportSection() (Section, error) {
	exports, err := vec(p, "export", p.readExport)
	if err != nil {
		return nil, err
	}
	return ExportSection{Exports: exports}, nil
}

func (p *parser) readExport(thing string) (Export, error) {
	name, err := p.readName("export name")
	if err != nil {
		return Export{}, err
	}
	tag, err := p.s.ReadByte()
	if err != nil {
		return Export{}, p.fail(err, ErrExpectedKindTag, "export kind")
	}

	exp := Export{Name: name}
	switch tag {
	case 0x00:
		exp.Description, err = readIndex[FunctionIndex](p, "exported function")
	case 0x01:
		exp.Description, err = readIndex[TableIndex](p, "exported table")
	case 0x02:
		exp.Description, err = readIndex[MemoryIndex](p, "exported memory")
	case 0x03:
		exp.Description, err = readIndex[GlobalIndex](p, "exported global")
	default:
		return Export{}, p.fail(nil, ErrInvalidTag, "export kind")
	}
	if err != nil {
		return Export{}, err
	}
	return exp, nil
}

func (p *parser) readStartSection() (Section, error) {
	fn, err := readIndex[FunctionIndex](p, "start function")
	if err != nil {
		return nil, err
	}
	return StartSection{Function: fn}, nil
}

func (p *parser) readElementSection() (Section, error) {
	segments, err := vec(p, "element segment", p.readElementSegment)
	if err != nil {
		return nil, err
	}
	return ElementSection{Segments: segments}, nil
}

// readElementSegment handles the index-encoded segment variants (tags
// 0-3). The expression-encoded variants (tags 4-7) cannot be represented
// by a function index initializer list and are reported as such.
func (p *parser) readElementSegment(thing string) (ElementSegment, error) {
	tag, err := p.s.ReadByte()
	if err != nil {
		return ElementSegment{}, p.fail(err, ErrExpectedKindTag, "element segment tag")
	}

	var seg ElementSegment
	switch tag {
	case 0x00:
		seg.Mode = ElementActive
		seg.Offset, err = p.readExpression("element segment offset")
	case 0x01:
		seg.Mode = ElementPassive
		err = p.expectElemKind()
	case 0x02:
		seg.Mode = ElementActive
		seg.Table, err = readIndex[TableIndex](p, "element segment table")
		if err == nil {
			seg.Offset, err = p.readExpression("element segment offset")
		}
		if err == nil {
			err = p.expectElemKind()
		}
	case 0x03:
		seg.Mode = ElementDeclarative
		err = p.expectElemKind()
	case 0x04, 0x05, 0x06, 0x07:
		return ElementSegment{}, p.fail(nil, ErrNotImplemented, fmt.Sprintf("element segment tag %d", tag))
	default:
		return ElementSegment{}, p.fail(nil, ErrInvalidInput, fmt.Sprintf("element segment tag %d", tag))
	}
	if err != nil {
		return ElementSegment{}, err
	}

	seg.Init, err = vec(p, "element segment function", func(thing string) (FunctionIndex, error) {
		return readIndex[FunctionIndex](p, thing)
	})
	if err != nil {
		return ElementSegment{}, err
	}
	return seg, nil
}

// expectElemKind consumes the element-kind byte; wasm 1.0 defines only
// kind zero (funcref).
func (p *parser) expectElemKind() error {
	kind, err := p.readByte("element kind")
	if err != nil {
		return err
	}
	if kind != 0x00 {
		return p.fail(nil, ErrInvalidInput, fmt.Sprintf("element kind %d", kind))
	}
	return nil
}

func (p *parser) readCodeSection() (Section, error) {
	entries, err := vec(p, "code entry", p.readCode)
	if err != nil {
		return nil, err
	}
	return CodeSection{Entries: entries}, nil
}

func (p *parser) readCode(thing string) (Code, error) {
	size, err := p.readSize("code entry size")
	if err != nil {
		return Code{}, err
	}
	if rem := p.s.Remaining(); rem >= 0 && int(size) > rem {
		return Code{}, p.fail(nil, ErrInvalidSize, "code entry size")
	}

	sub := newParser(p.s.Limit(int(size)))
	locals, err := vec(sub, "local declaration", sub.readLocal)
	if err != nil {
		return Code{}, err
	}
	var total uint64
	for _, l := range locals {
		total += uint64(l.Count)
	}
	if total > maxFunctionLocals {
		return Code{}, sub.fail(nil, ErrHugeAllocationRequested, "local declarations")
	}
	body, err := sub.readExpression("function body")
	if err != nil {
		return Code{}, err
	}
	if rem := sub.s.Remaining(); rem != 0 {
		return Code{}, sub.fail(nil, ErrInvalidSize, fmt.Sprintf("code entry with %d bytes left over", rem))
	}
	return Code{Locals: locals, Body: body}, nil
}

func (p *parser) readLocal(thing string) (Local, error) {
	count, err := p.readU32("local count")
	if err != nil {
		return Local{}, err
	}
	t, err := p.readValueType("local type")
	if err != nil {
		return Local{}, err
	}
	return Local{Count: count, Type: t}, nil
}

func (p *parser) readDataSection() (Section, error) {
	segments, err := vec(p, "data segment", p.readDataSegment)
	if err != nil {
		return nil, err
	}
	return DataSection{Segments: segments}, nil
}

func (p *parser) readDataSegment(thing string) (DataSegment, error) {
	tag, err := p.s.ReadByte()
	if err != nil {
		return DataSegment{}, p.fail(err, ErrExpectedKindTag, "data segment tag")
	}

	var seg DataSegment
	switch tag {
	case 0x00:
		seg.Mode = DataActive
		seg.Offset, err = p.readExpression("data segment offset")
	case 0x01:
		seg.Mode = DataPassive
	case 0x02:
		seg.Mode = DataActive
		seg.Memory, err = readIndex[MemoryIndex](p, "data segment memory")
		if err == nil {
			seg.Offset, err = p.readExpression("data segment offset")
		}
	default:
		return DataSegment{}, p.fail(nil, ErrInvalidTag, fmt.Sprintf("data segment tag %d", tag))
	}
	if err != nil {
		return DataSegment{}, err
	}

	n, err := p.vecLen("data segment contents")
	if err != nil {
		return DataSegment{}, err
	}
	seg.Init, err = p.readN("data segment contents", n)
	if err != nil {
		return DataSegment{}, err
	}
	return seg, nil
}

func (p *parser) readDataCountSection() (Section, error) {
	if p.s.Remaining() == 0 {
		return DataCountSection{}, nil
	}
	count, err := p.readU32("data count")
	if err != nil {
		return nil, err
	}
	return DataCountSection{Count: &count}, nil
}
