package cartridge

import "fmt"

// UnsupportedMapperError is returned by LoadFromReader when the iNES
// header names a mapper this core has no implementation for.
type UnsupportedMapperError struct {
	ID uint8
}

func (e *UnsupportedMapperError) Error() string {
	return fmt.Sprintf("cartridge: unsupported mapper %d", e.ID)
}

// MalformedROMError is returned when an iNES image fails a structural
// check: bad magic, a truncated body, or a declared size of zero.
type MalformedROMError struct {
	Reason string
}

func (e *MalformedROMError) Error() string {
	return fmt.Sprintf("cartridge: malformed rom: %s", e.Reason)
}
