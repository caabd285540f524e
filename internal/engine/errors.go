package engine

import "errors"

var (
	ErrUnknownLayout      = errors.New("unknown layout")
	ErrNotMounted         = errors.New("engine not mounted")
	ErrAdaptorRequired    = errors.New("adaptor is required")
	ErrSelectionFrozen    = errors.New("selection is frozen")
	ErrNoQuestion         = errors.New("no question to answer")
	ErrUnknownOption      = errors.New("unknown option")
	ErrUnknownInteraction = errors.New("unknown interaction")
	ErrUnknownQuestion    = errors.New("unknown question block")
	ErrOutOfRange         = errors.New("index out of range")
)
