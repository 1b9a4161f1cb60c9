// Package memory implements the NES CPU and PPU memory maps: address
// decoding, RAM/VRAM mirroring, and the open-bus behavior of unmapped
// regions.
package memory

// Memory represents the NES CPU's view of the address space.
type Memory struct {
	ram [0x800]uint8 // 2 KiB internal RAM, mirrored through $1FFF

	ppuRegisters PPUInterface
	apuRegisters APUInterface
	inputSystem  InputInterface
	cartridge    CartridgeInterface

	dmaCallback func(uint8)

	// openBusValue is the last byte returned by Read (writes do not
	// change it); reads of unmapped regions return it, approximating
	// real hardware bus capacitance.
	openBusValue uint8
}

// PPUMemory represents the PPU's own $0000-$3FFF address space:
// pattern tables (delegated to the cartridge), nametable RAM with
// mirroring, and palette RAM.
type PPUMemory struct {
	vram       [0x1000]uint8 // nametable RAM, sized for the four-screen case
	paletteRAM [32]uint8
	cartridge  CartridgeInterface
	mirroring  MirrorMode // iNES header mirroring, used when the cartridge has no MirrorSource
}

// MirrorMode describes how the PPU's four logical 1 KiB nametables are
// mapped onto physical VRAM.
type MirrorMode uint8

const (
	MirrorHorizontal MirrorMode = iota
	MirrorVertical
	MirrorSingleScreen0
	MirrorSingleScreen1
	MirrorFourScreen
)

// PPUInterface is the CPU-bus view of the PPU's eight registers.
type PPUInterface interface {
	ReadRegister(address uint16) uint8
	WriteRegister(address uint16, value uint8)
}

// APUInterface is the CPU-bus view of the APU's register file.
type APUInterface interface {
	WriteRegister(address uint16, value uint8)
	ReadStatus() uint8
}

// InputInterface is the CPU-bus view of the controller ports.
type InputInterface interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// CartridgeInterface is the view of cartridge PRG/CHR the memory and
// PPU packages need; internal/cartridge.Cartridge satisfies it.
type CartridgeInterface interface {
	ReadPRG(address uint16) uint8
	WritePRG(address uint16, value uint8)
	ReadCHR(address uint16) uint8
	WriteCHR(address uint16, value uint8)
}

// IRQSource is implemented by cartridges whose mapper derives an IRQ
// from PPU address-bus activity (MMC3's A12-clocked scanline counter).
type IRQSource interface {
	ClockA12Rising()
	IRQPending() bool
	ClearIRQ()
}

// MirrorSource is implemented by cartridges whose mapper can change
// nametable mirroring at runtime (MMC1, MMC3). The numeric code shares
// cartridge.MirrorMode's iota ordering so both packages can encode/decode
// it without importing each other.
type MirrorSource interface {
	CurrentMirrorMode() uint8
}

// New creates a Memory wired to the given PPU, APU, and cartridge.
func New(ppu PPUInterface, apu APUInterface, cart CartridgeInterface) *Memory {
	return &Memory{
		ppuRegisters: ppu,
		apuRegisters: apu,
		cartridge:    cart,
	}
}

// SetInputSystem attaches the controller ports; calling it is optional,
// reads/writes to $4016/$4017 are no-ops until it has been called.
func (m *Memory) SetInputSystem(input InputInterface) {
	m.inputSystem = input
}

// SetDMACallback installs the handler the scheduler uses to stall the
// CPU for the OAM-DMA transfer instead of performing it inline.
func (m *Memory) SetDMACallback(callback func(uint8)) {
	m.dmaCallback = callback
}

// Read reads a byte from the CPU's view of the address space.
func (m *Memory) Read(address uint16) uint8 {
	var value uint8

	switch {
	case address < 0x2000:
		value = m.ram[address&0x07FF]

	case address < 0x4000:
		value = m.ppuRegisters.ReadRegister(0x2000 + (address & 0x0007))

	case address < 0x4020:
		switch {
		case address == 0x4015:
			value = m.apuRegisters.ReadStatus()
		case address == 0x4016 || address == 0x4017:
			if m.inputSystem != nil {
				value = m.inputSystem.Read(address)
			}
		default:
			value = m.openBusValue
		}

	case address >= 0x6000 && address < 0x8000:
		if m.cartridge != nil {
			value = m.cartridge.ReadPRG(address)
		} else {
			value = m.openBusValue
		}

	case address < 0x8000:
		value = m.openBusValue

	default:
		if m.cartridge != nil {
			value = m.cartridge.ReadPRG(address)
		} else {
			value = m.openBusValue
		}
	}

	m.openBusValue = value
	return value
}

// Write writes a byte through the CPU's view of the address space.
func (m *Memory) Write(address uint16, value uint8) {
	switch {
	case address < 0x2000:
		m.ram[address&0x07FF] = value

	case address < 0x4000:
		m.ppuRegisters.WriteRegister(0x2000+(address&0x0007), value)

	case address < 0x4020:
		switch {
		case address == 0x4014:
			if m.dmaCallback != nil {
				m.dmaCallback(value)
			} else {
				m.performOAMDMA(value)
			}
		case address == 0x4016:
			if m.inputSystem != nil {
				m.inputSystem.Write(address, value)
			}
		case address >= 0x4000 && address <= 0x4013, address == 0x4015, address == 0x4017:
			m.apuRegisters.WriteRegister(address, value)
		}
		// $4018-$401F (APU/IO test mode) is unimplemented and ignored.

	case address >= 0x6000 && address < 0x8000:
		if m.cartridge != nil {
			m.cartridge.WritePRG(address, value)
		}

	case address < 0x8000:
		// $4020-$5FFF: cartridge expansion area, unmapped for every
		// mapper this core implements.

	default:
		if m.cartridge != nil {
			m.cartridge.WritePRG(address, value)
		}
	}
}

// performOAMDMA is the fallback path used when no DMA callback has
// been installed; the scheduler normally intercepts $4014 itself so it
// can stall the CPU for the correct number of cycles.
func (m *Memory) performOAMDMA(page uint8) {
	base := uint16(page) << 8
	for i := uint16(0); i < 256; i++ {
		m.ppuRegisters.WriteRegister(0x2004, m.Read(base+i))
	}
}

// NewPPUMemory creates a PPU memory space backed by the given
// cartridge and nametable mirroring mode.
func NewPPUMemory(cart CartridgeInterface, mirroring MirrorMode) *PPUMemory {
	mem := &PPUMemory{
		cartridge: cart,
		mirroring: mirroring,
	}
	for i := 0; i < 32; i += 4 {
		mem.paletteRAM[i] = 0x0F
	}
	return mem
}

// Read reads from the PPU's $0000-$3FFF address space.
func (pm *PPUMemory) Read(address uint16) uint8 {
	address &= 0x3FFF

	switch {
	case address < 0x2000:
		return pm.cartridge.ReadCHR(address)
	case address < 0x3000:
		return pm.readNametable(address)
	case address < 0x3F00:
		return pm.readNametable(address - 0x1000)
	default:
		return pm.readPalette(address)
	}
}

// Write writes to the PPU's $0000-$3FFF address space.
func (pm *PPUMemory) Write(address uint16, value uint8) {
	address &= 0x3FFF

	switch {
	case address < 0x2000:
		pm.cartridge.WriteCHR(address, value)
	case address < 0x3000:
		pm.writeNametable(address, value)
	case address < 0x3F00:
		pm.writeNametable(address-0x1000, value)
	default:
		pm.writePalette(address, value)
	}
}

func (pm *PPUMemory) readNametable(address uint16) uint8 {
	return pm.vram[pm.getNametableIndex(address)]
}

func (pm *PPUMemory) writeNametable(address uint16, value uint8) {
	pm.vram[pm.getNametableIndex(address)] = value
}

// currentMirrorMode returns the cartridge's live mirroring if its mapper
// implements MirrorSource (MMC1, MMC3), otherwise the iNES header value
// fixed at construction.
func (pm *PPUMemory) currentMirrorMode() MirrorMode {
	if ms, ok := pm.cartridge.(MirrorSource); ok {
		return MirrorMode(ms.CurrentMirrorMode())
	}
	return pm.mirroring
}

// ClockA12 notifies a cartridge whose mapper derives an IRQ from PPU
// address-bus activity (MMC3's scanline counter) of a qualifying rising
// edge on address line A12.
func (pm *PPUMemory) ClockA12() {
	if irq, ok := pm.cartridge.(IRQSource); ok {
		irq.ClockA12Rising()
	}
}

// IRQPending reports whether the cartridge's mapper is asserting its
// IRQ line.
func (pm *PPUMemory) IRQPending() bool {
	irq, ok := pm.cartridge.(IRQSource)
	return ok && irq.IRQPending()
}

// ClearIRQ acknowledges the cartridge's mapper IRQ, if it has one.
func (pm *PPUMemory) ClearIRQ() {
	if irq, ok := pm.cartridge.(IRQSource); ok {
		irq.ClearIRQ()
	}
}

// getNametableIndex resolves a $2000-$2FFF address to a physical VRAM
// index under the cartridge's mirroring mode.
func (pm *PPUMemory) getNametableIndex(address uint16) uint16 {
	address &= 0x0FFF
	nametable := (address >> 10) & 3
	offset := address & 0x3FF

	switch pm.currentMirrorMode() {
	case MirrorHorizontal:
		if nametable >= 2 {
			return 0x400 + offset
		}
		return offset

	case MirrorVertical:
		if nametable == 1 || nametable == 3 {
			return 0x400 + offset
		}
		return offset

	case MirrorSingleScreen0:
		return offset

	case MirrorSingleScreen1:
		return 0x400 + offset

	case MirrorFourScreen:
		return uint16(nametable)*0x400 + offset

	default:
		return offset
	}
}

// readPalette reads palette RAM; entries $10/$14/$18/$1C mirror the
// universal background color at $00/$04/$08/$0C.
func (pm *PPUMemory) readPalette(address uint16) uint8 {
	index := (address - 0x3F00) & 0x1F
	if index == 0x10 || index == 0x14 || index == 0x18 || index == 0x1C {
		index &= 0x0F
	}
	return pm.paletteRAM[index]
}

func (pm *PPUMemory) writePalette(address uint16, value uint8) {
	index := (address - 0x3F00) & 0x1F
	if index == 0x10 || index == 0x14 || index == 0x18 || index == 0x1C {
		index &= 0x0F
	}
	pm.paletteRAM[index] = value
}
