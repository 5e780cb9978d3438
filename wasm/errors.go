package wasm

import "errors"

// Decode failures wrap exactly one of these kinds; match with errors.Is.
var (
	ErrUnexpectedEOF             = errors.New("unexpected end of stream")
	ErrExpectedIndex             = errors.New("expected an index")
	ErrExpectedKindTag           = errors.New("expected a kind tag")
	ErrExpectedSize              = errors.New("expected a size")
	ErrExpectedValueOrTerminator = errors.New("expected a value or a terminator")
	ErrInvalidIndex              = errors.New("invalid index")
	ErrInvalidInput              = errors.New("invalid input")
	ErrInvalidModuleMagic        = errors.New("invalid module magic")
	ErrInvalidModuleVersion      = errors.New("invalid module version")
	ErrInvalidSize               = errors.New("invalid size")
	ErrInvalidTag                = errors.New("invalid tag")
	ErrInvalidType               = errors.New("invalid type")
	ErrHugeAllocationRequested   = errors.New("huge allocation requested")
	ErrNotImplemented            = errors.New("not implemented")
)
