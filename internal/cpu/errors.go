package cpu

import "fmt"

// UnsupportedOpcodeError is surfaced when the decode table has no entry
// for a fetched opcode. The scheduler treats the byte as a 2-cycle NOP
// and keeps running; this error exists so a collaborator can log it.
type UnsupportedOpcodeError struct {
	PC     uint16
	Opcode uint8
}

func (e *UnsupportedOpcodeError) Error() string {
	return fmt.Sprintf("cpu: unsupported opcode 0x%02X at $%04X", e.Opcode, e.PC)
}

// HaltError is surfaced the first time a KIL/JAM opcode is executed.
// It is sticky: once set, the CPU stops advancing PC until reset.
type HaltError struct {
	PC     uint16
	Opcode uint8
}

func (e *HaltError) Error() string {
	return fmt.Sprintf("cpu: halted on KIL opcode 0x%02X at $%04X", e.Opcode, e.PC)
}

// Logger is the collaborator-provided logging hook referenced by the
// error handling design: the CPU never writes to stderr directly.
type Logger interface {
	Warningf(format string, args ...any)
}

// nopLogger discards everything; used when New is called with a nil Logger.
type nopLogger struct{}

func (nopLogger) Warningf(string, ...any) {}
