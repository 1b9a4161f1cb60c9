// Package bus wires the CPU, PPU, APU, cartridge, and controller ports
// into a single NES system and drives the instruction-stepped scheduler
// that keeps them in sync.
package bus

import (
	"github.com/student/nescore/internal/apu"
	"github.com/student/nescore/internal/cartridge"
	"github.com/student/nescore/internal/cpu"
	"github.com/student/nescore/internal/input"
	"github.com/student/nescore/internal/logging"
	"github.com/student/nescore/internal/memory"
	"github.com/student/nescore/internal/ppu"
)

// Bus owns every NES component and the timing that keeps them
// synchronized: one CPU instruction, then three PPU cycles per CPU
// cycle, then one APU cycle per CPU cycle.
type Bus struct {
	CPU    *cpu.CPU
	PPU    *ppu.PPU
	APU    *apu.APU
	Memory *memory.Memory
	Input  *input.InputState

	cartridge memory.CartridgeInterface
	logger    logging.Logger

	totalCycles uint64
	cpuCycles   uint64
	ppuCycles   uint64
	frameCount  uint64

	dmaSuspendCycles uint64
	dmaInProgress    bool

	// cyclesPerFrame is the PPU-cycle length of one frame; StepWithError
	// uses it to count completed frames. The PPU's own scanline/cycle
	// counters are authoritative for timing.
	cyclesPerFrame uint64

	executionLog   []BusExecutionEvent
	loggingEnabled bool
}

// New creates a bus with every component wired together but no
// cartridge loaded; LoadCartridge must be called before Step.
func New(logger logging.Logger) *Bus {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	b := &Bus{
		PPU:            ppu.New(),
		APU:            apu.New(),
		Input:          input.NewInputState(),
		logger:         logger,
		cyclesPerFrame: 89342,
	}

	b.Memory = memory.New(b.PPU, b.APU, nil)
	b.Memory.SetInputSystem(b.Input)
	b.CPU = cpu.New(b.Memory, logger)

	b.PPU.SetNMICallback(b.CPU.SetNMILine)
	b.PPU.SetFrameCompleteCallback(b.handleFrameComplete)
	b.Memory.SetDMACallback(b.TriggerOAMDMA)

	b.Reset()
	return b
}

// Reset returns every component to its power-up state.
func (b *Bus) Reset() {
	b.CPU.Reset()
	b.PPU.Reset()
	b.APU.Reset()
	b.Input.Reset()

	b.totalCycles = 0
	b.cpuCycles = 0
	b.ppuCycles = 0
	b.frameCount = 0
	b.dmaSuspendCycles = 0
	b.dmaInProgress = false

	b.PPU.SetFrameCount(0)

	b.executionLog = b.executionLog[:0]
}

// handleFrameComplete is called by the PPU when it wraps from the
// pre-render line back to scanline 0.
func (b *Bus) handleFrameComplete() {
	b.frameCount = b.PPU.GetFrameCount()
}

// updateIRQLine ORs together every IRQ source — the cartridge mapper's
// scanline counter and the APU's frame counter/DMC channel — and feeds
// the result to the CPU's level-sensitive IRQ input.
func (b *Bus) updateIRQLine() {
	pending := b.APU.IRQPending()
	if irq, ok := b.cartridge.(cartridge.IRQSource); ok {
		pending = pending || irq.IRQPending()
	}
	b.CPU.SetIRQLine(pending)
}

// Step executes one CPU instruction, then advances the PPU three
// cycles and the APU one cycle for every CPU cycle the instruction
// took, keeping the 1:3:1 CPU:PPU:APU cycle ratio exact.
func (b *Bus) Step() {
	preFrameCount := b.frameCount
	prePC := b.CPU.PC
	var preOpcode uint8
	if b.Memory != nil {
		preOpcode = b.Memory.Read(prePC)
	}

	var cpuCycles uint64
	if b.dmaSuspendCycles > 0 {
		cpuCycles = 1
		b.dmaSuspendCycles--
		if b.dmaSuspendCycles == 0 {
			b.dmaInProgress = false
		}
	} else {
		cpuCycles = b.CPU.Step()
		if fault := b.CPU.Fault(); fault != nil {
			b.logger.Warningf("bus: %v", fault)
		}
	}

	for i := uint64(0); i < cpuCycles*3; i++ {
		b.PPU.Step()
		b.ppuCycles++
	}
	for i := uint64(0); i < cpuCycles; i++ {
		b.APU.Step()
	}
	b.updateIRQLine()

	b.cpuCycles += cpuCycles
	b.totalCycles += cpuCycles

	if b.loggingEnabled {
		b.executionLog = append(b.executionLog, BusExecutionEvent{
			StepNumber:    len(b.executionLog) + 1,
			CPUCycles:     b.cpuCycles,
			PPUCycles:     b.cpuCycles * 3,
			FrameCount:    b.frameCount,
			DMAActive:     b.dmaInProgress,
			NMIProcessed:  b.frameCount > preFrameCount,
			PCValue:       prePC,
			InstructionOp: preOpcode,
		})
	}
}

// TriggerOAMDMA runs a 256-byte OAM DMA transfer from the given CPU
// page and stalls the CPU for 513 or 514 cycles, matching the extra
// cycle real hardware takes when the transfer starts on an odd cycle.
func (b *Bus) TriggerOAMDMA(sourcePage uint8) {
	if b.dmaInProgress {
		return
	}

	dmaCycles := uint64(513)
	if b.cpuCycles%2 == 1 {
		dmaCycles = 514
	}
	b.dmaInProgress = true
	b.dmaSuspendCycles = dmaCycles

	base := uint16(sourcePage) << 8
	for i := 0; i < 256; i++ {
		b.PPU.WriteOAM(uint8(i), b.Memory.Read(base+uint16(i)))
	}
}

// LoadCartridge installs a cartridge, rebuilds the memory maps and CPU
// around it, and resets the system so the CPU starts at the reset
// vector the new cartridge provides.
func (b *Bus) LoadCartridge(cart memory.CartridgeInterface) {
	b.cartridge = cart

	b.Memory = memory.New(b.PPU, b.APU, cart)
	b.Memory.SetInputSystem(b.Input)
	b.Memory.SetDMACallback(b.TriggerOAMDMA)
	b.CPU = cpu.New(b.Memory, b.logger)
	b.PPU.SetNMICallback(b.CPU.SetNMILine)

	mirrorMode := memory.MirrorHorizontal
	if cart, ok := cart.(*cartridge.Cartridge); ok {
		mirrorMode = memory.MirrorMode(cart.GetMirrorMode())
	}
	b.PPU.SetMemory(memory.NewPPUMemory(cart, mirrorMode))

	b.Reset()
}

// Run advances the emulator by the given number of whole frames.
func (b *Bus) Run(frames int) {
	target := b.frameCount + uint64(frames)
	for b.frameCount < target {
		b.Step()
	}
}

// RunCycles advances the emulator by the given number of CPU cycles.
func (b *Bus) RunCycles(cycles uint64) {
	target := b.cpuCycles + cycles
	for b.cpuCycles < target {
		b.Step()
	}
}

// Frame advances the emulator by one NTSC frame (29,781 CPU cycles).
func (b *Bus) Frame() {
	b.RunCycles(29781)
}

// GetFrameRate returns the NTSC frame rate this bus targets.
func (b *Bus) GetFrameRate() float64 {
	const cpuFrequency = 1789773.0
	const cpuCyclesPerFrame = cpuFrequency / 60.098803
	return cpuFrequency / cpuCyclesPerFrame
}

// GetFrameBuffer returns the PPU's current 256x240 RGB frame buffer.
func (b *Bus) GetFrameBuffer() []uint32 {
	frameBuffer := b.PPU.GetFrameBuffer()
	return frameBuffer[:]
}

// GetAudioSamples drains and returns the APU's pending audio samples.
func (b *Bus) GetAudioSamples() []float32 {
	return b.APU.GetSamples()
}

// SetAudioSampleRate sets the APU's target output sample rate.
func (b *Bus) SetAudioSampleRate(rate int) {
	b.APU.SetSampleRate(rate)
}

// GetCycleCount returns the total CPU cycles executed since Reset.
func (b *Bus) GetCycleCount() uint64 {
	return b.cpuCycles
}

// GetFrameCount returns the number of frames the PPU has completed.
func (b *Bus) GetFrameCount() uint64 {
	return b.frameCount
}

// IsDMAInProgress reports whether an OAM DMA transfer is stalling the CPU.
func (b *Bus) IsDMAInProgress() bool {
	return b.dmaInProgress
}

func (b *Bus) isRenderingEnabled() bool {
	mask := b.PPU.ReadRegister(0x2001)
	return mask&0x18 != 0
}

// SetControllerButton sets a single button's held state on controller
// 1 or 2. Accepts both 0-based and 1-based indexing for controller 1.
func (b *Bus) SetControllerButton(controller int, button input.Button, pressed bool) {
	switch controller {
	case 0, 1:
		b.Input.Controller1.SetButton(button, pressed)
	case 2:
		b.Input.Controller2.SetButton(button, pressed)
	}
}

// SetControllerButtons sets all eight button states on controller 1 or
// 2 at once, in A, B, Select, Start, Up, Down, Left, Right order.
func (b *Bus) SetControllerButtons(controller int, buttons [8]bool) {
	switch controller {
	case 0, 1:
		b.Input.SetButtons1(buttons)
	case 2:
		b.Input.SetButtons2(buttons)
	}
}

// GetInputState returns the controller ports for direct access.
func (b *Bus) GetInputState() *input.InputState {
	return b.Input
}

// GetExecutionLog returns the per-step trace recorded while execution
// logging was enabled.
func (b *Bus) GetExecutionLog() []BusExecutionEvent {
	return b.executionLog
}

// EnableExecutionLogging starts recording a BusExecutionEvent per Step call.
func (b *Bus) EnableExecutionLogging() {
	b.loggingEnabled = true
}

// DisableExecutionLogging stops recording execution events.
func (b *Bus) DisableExecutionLogging() {
	b.loggingEnabled = false
}

// ClearExecutionLog discards the recorded execution trace.
func (b *Bus) ClearExecutionLog() {
	b.executionLog = b.executionLog[:0]
}

// BusExecutionEvent records the bus state at one Step call, used by
// integration tests to assert on instruction-level timing.
type BusExecutionEvent struct {
	StepNumber    int
	CPUCycles     uint64
	PPUCycles     uint64
	FrameCount    uint64
	DMAActive     bool
	NMIProcessed  bool
	PCValue       uint16
	InstructionOp uint8
}

// GetCPUState returns a snapshot of CPU registers and flags for tests.
func (b *Bus) GetCPUState() CPUState {
	return CPUState{
		PC:     b.CPU.PC,
		A:      b.CPU.A,
		X:      b.CPU.X,
		Y:      b.CPU.Y,
		SP:     b.CPU.SP,
		Cycles: b.cpuCycles,
		Flags: CPUFlags{
			N: b.CPU.N,
			V: b.CPU.V,
			B: b.CPU.B,
			D: b.CPU.D,
			I: b.CPU.I,
			Z: b.CPU.Z,
			C: b.CPU.C,
		},
	}
}

// CPUState is a CPU register/flag snapshot for tests.
type CPUState struct {
	PC      uint16
	A, X, Y uint8
	SP      uint8
	Cycles  uint64
	Flags   CPUFlags
}

// CPUFlags is a CPU status-flag snapshot for tests.
type CPUFlags struct {
	N, V, B, D, I, Z, C bool
}

// GetPPUState returns a snapshot of PPU timing and rendering state for tests.
func (b *Bus) GetPPUState() PPUState {
	return PPUState{
		Scanline:    b.PPU.GetScanline(),
		Cycle:       b.PPU.GetCycle(),
		FrameCount:  b.frameCount,
		VBlankFlag:  b.PPU.IsVBlank(),
		RenderingOn: b.isRenderingEnabled(),
	}
}

// PPUState is a PPU timing/rendering snapshot for tests.
type PPUState struct {
	Scanline    int
	Cycle       int
	FrameCount  uint64
	VBlankFlag  bool
	RenderingOn bool
}
