// Package apu implements the frame-sequencer and IRQ surface of the
// NES Audio Processing Unit. Waveform synthesis — pulse duty cycles,
// triangle/noise sequencers, the DMC sample player — is the job of
// the waveformBank collaborator in channels.go; this file owns only
// what the frame counter needs: the divider that clocks envelope,
// length and sweep units, and the IRQ line it raises in 4-step mode.
package apu

// APU drives the frame sequencer that the CPU's IRQ line depends on
// and forwards register writes/reads to its waveform collaborator.
type APU struct {
	waveforms *waveformBank

	frameCounter     uint16
	frameMode        bool  // false = 4-step, true = 5-step
	frameIRQEnable   bool
	frameCounterStep uint8
	frameIRQFlag     bool

	sampleBuffer     []float32
	sampleRate       int
	cpuFrequency     float64
	cycleAccumulator float64

	cycles uint64
}

// New creates an APU with its frame counter in 4-step mode and IRQ
// generation enabled, matching NES power-on state.
func New() *APU {
	return &APU{
		waveforms:      newWaveformBank(),
		sampleBuffer:   make([]float32, 0, 4096),
		sampleRate:     44100,
		cpuFrequency:   1789773.0, // NTSC CPU frequency
		frameMode:      false,
		frameIRQEnable: true,
	}
}

// Reset restores power-on state across the frame counter and the
// waveform collaborator.
func (apu *APU) Reset() {
	apu.waveforms.Reset()

	apu.frameCounter = 0
	apu.frameCounterStep = 0
	apu.frameMode = false
	apu.frameIRQEnable = true
	apu.frameIRQFlag = false

	apu.cycles = 0
	apu.cycleAccumulator = 0
	apu.sampleBuffer = apu.sampleBuffer[:0]
}

// Step advances the frame counter and waveform collaborator by one
// APU cycle, appending a mixed sample to the output buffer when the
// sample-rate accumulator rolls over.
func (apu *APU) Step() {
	apu.cycles++
	apu.stepFrameCounter()
	apu.waveforms.StepTimers()
	apu.generateSample()
}

// stepFrameCounter advances the divider and fires the quarter-frame
// (envelope/linear) and half-frame (length/sweep) clocks at the
// standard NTSC cycle counts, raising the frame IRQ at the end of a
// 4-step sequence.
func (apu *APU) stepFrameCounter() {
	apu.frameCounter++

	if apu.frameMode {
		switch apu.frameCounter {
		case 7457:
			apu.waveforms.ClockEnvelopesAndLinear()
		case 14913:
			apu.waveforms.ClockEnvelopesAndLinear()
			apu.waveforms.ClockLengthAndSweep()
		case 22371:
			apu.waveforms.ClockEnvelopesAndLinear()
		case 37281:
			apu.waveforms.ClockEnvelopesAndLinear()
			apu.waveforms.ClockLengthAndSweep()
			apu.frameCounter = 0
			apu.frameCounterStep = 0
		}
		return
	}

	switch apu.frameCounter {
	case 7457:
		apu.waveforms.ClockEnvelopesAndLinear()
	case 14913:
		apu.waveforms.ClockEnvelopesAndLinear()
		apu.waveforms.ClockLengthAndSweep()
	case 22371:
		apu.waveforms.ClockEnvelopesAndLinear()
	case 29829:
		apu.waveforms.ClockEnvelopesAndLinear()
		apu.waveforms.ClockLengthAndSweep()
	case 29830:
		if apu.frameIRQEnable {
			apu.frameIRQFlag = true
		}
		apu.frameCounter = 0
		apu.frameCounterStep = 0
	}
}

// generateSample converts from the CPU's cycle rate to the target
// audio sample rate and pulls one mixed sample from the waveform
// collaborator whenever the accumulator rolls over.
func (apu *APU) generateSample() {
	apu.cycleAccumulator += float64(apu.sampleRate) / apu.cpuFrequency
	if apu.cycleAccumulator >= 1.0 {
		apu.cycleAccumulator -= 1.0
		apu.sampleBuffer = append(apu.sampleBuffer, apu.waveforms.Sample())
	}
}

// WriteRegister dispatches a CPU write in the $4000-$4017 range.
// Channel registers ($4000-$4013) are handled entirely by the
// waveform collaborator; $4015 and $4017 touch frame-counter and IRQ
// state this package owns directly.
func (apu *APU) WriteRegister(address uint16, value uint8) {
	if apu.waveforms.WriteRegister(address, value) {
		return
	}
	switch address {
	case 0x4015:
		apu.writeChannelEnable(value)
	case 0x4017:
		apu.writeFrameCounter(value)
	}
}

// writeChannelEnable applies a $4015 write and clears the DMC IRQ
// flag, which $4015 does unconditionally regardless of the bits
// written.
func (apu *APU) writeChannelEnable(value uint8) {
	apu.waveforms.SetChannelEnable(value)
	apu.waveforms.ClearDMCIRQFlag()
}

// writeFrameCounter applies a $4017 write: selects 4-step or 5-step
// mode, updates IRQ enable, and resets the divider. Switching into
// 5-step mode clocks every unit immediately, matching real hardware.
func (apu *APU) writeFrameCounter(value uint8) {
	apu.frameMode = (value & 0x80) != 0
	apu.frameIRQEnable = (value & 0x40) == 0
	if !apu.frameIRQEnable {
		apu.frameIRQFlag = false
	}

	apu.frameCounter = 0
	apu.frameCounterStep = 0

	if apu.frameMode {
		apu.waveforms.ClockEnvelopesAndLinear()
		apu.waveforms.ClockLengthAndSweep()
	}
}

// GetSamples drains and returns the accumulated sample buffer.
func (apu *APU) GetSamples() []float32 {
	samples := make([]float32, len(apu.sampleBuffer))
	copy(samples, apu.sampleBuffer)
	apu.sampleBuffer = apu.sampleBuffer[:0]
	return samples
}

// ReadStatus reads $4015: per-channel length-counter/bytes-remaining
// bits from the waveform collaborator, plus the frame and DMC IRQ
// flags. Reading clears the frame IRQ flag but not the DMC one.
func (apu *APU) ReadStatus() uint8 {
	status := apu.waveforms.StatusBits()
	if apu.frameIRQFlag {
		status |= 0x40
	}
	if apu.waveforms.DMCIRQFlag() {
		status |= 0x80
	}
	apu.frameIRQFlag = false
	return status
}

// IRQPending reports whether the frame counter or DMC channel is
// asserting the shared APU IRQ line. Unlike ReadStatus, this does not
// clear the frame IRQ flag; the bus calls it every cycle to drive the
// CPU's level-sensitive IRQ input.
func (apu *APU) IRQPending() bool {
	return apu.frameIRQFlag || apu.waveforms.DMCIRQFlag()
}

// GetFrameIRQ returns the current frame counter IRQ flag without the
// side effects of ReadStatus.
func (apu *APU) GetFrameIRQ() bool {
	return apu.frameIRQFlag
}

// GetDMCIRQ returns the current DMC IRQ flag.
func (apu *APU) GetDMCIRQ() bool {
	return apu.waveforms.DMCIRQFlag()
}

// SetSampleRate changes the target audio sample rate, resetting the
// conversion accumulator so the next sample lands on a clean boundary.
func (apu *APU) SetSampleRate(rate int) {
	apu.sampleRate = rate
	apu.cycleAccumulator = 0
}

// GetSampleRate returns the current target sample rate.
func (apu *APU) GetSampleRate() int {
	return apu.sampleRate
}

// GetChannelOutput returns the instantaneous output level of a
// channel (0=pulse1 .. 4=DMC) for inspection tooling.
func (apu *APU) GetChannelOutput(channel int) uint8 {
	return apu.waveforms.ChannelOutput(channel)
}

// IsChannelEnabled reports whether a channel is currently enabled via
// $4015.
func (apu *APU) IsChannelEnabled(channel int) bool {
	return apu.waveforms.ChannelEnabled(channel)
}
