package cartridge

import (
	"bytes"
	"fmt"
)

// TestROMConfig describes a synthetic iNES image: enough PRG/CHR bytes,
// header flags and interrupt vectors to load as a Cartridge without
// ever touching disk.
type TestROMConfig struct {
	PRGSize      uint8 // PRG ROM size in 16KB units
	CHRSize      uint8 // CHR ROM size in 8KB units (0 = CHR RAM)
	MapperID     uint8
	Mirroring    MirrorMode
	HasBattery   bool
	HasTrainer   bool
	Instructions []uint8
	InitialData  map[uint16]uint8
	ResetVector  uint16
	IRQVector    uint16
	NMIVector    uint16
	CHRData      []uint8
	TrainerData  []uint8
	Description  string
}

// TestROMBuilder assembles a TestROMConfig through chained calls, then
// turns it into raw bytes or a loaded Cartridge.
type TestROMBuilder struct {
	config TestROMConfig
}

// NewTestROMBuilder starts from a minimal NROM configuration: one PRG
// bank, one CHR bank, horizontal mirroring, all vectors pointed at
// $8000.
func NewTestROMBuilder() *TestROMBuilder {
	return &TestROMBuilder{
		config: TestROMConfig{
			PRGSize:     1,
			CHRSize:     1,
			Mirroring:   MirrorHorizontal,
			InitialData: make(map[uint16]uint8),
			ResetVector: 0x8000,
			IRQVector:   0x8000,
			NMIVector:   0x8000,
			Description: "Generated test ROM",
		},
	}
}

func (b *TestROMBuilder) WithPRGSize(size uint8) *TestROMBuilder {
	b.config.PRGSize = size
	return b
}

func (b *TestROMBuilder) WithCHRSize(size uint8) *TestROMBuilder {
	b.config.CHRSize = size
	return b
}

// WithCHRRAM drops CHR ROM size to zero, the header convention for
// "this cartridge supplies CHR RAM instead."
func (b *TestROMBuilder) WithCHRRAM() *TestROMBuilder {
	b.config.CHRSize = 0
	return b
}

func (b *TestROMBuilder) WithMapper(mapperID uint8) *TestROMBuilder {
	b.config.MapperID = mapperID
	return b
}

func (b *TestROMBuilder) WithMirroring(mirroring MirrorMode) *TestROMBuilder {
	b.config.Mirroring = mirroring
	return b
}

func (b *TestROMBuilder) WithBattery() *TestROMBuilder {
	b.config.HasBattery = true
	return b
}

// WithTrainer attaches a 512-byte trainer block, truncating or
// zero-padding the supplied data to fit.
func (b *TestROMBuilder) WithTrainer(data []uint8) *TestROMBuilder {
	b.config.HasTrainer = true
	if len(data) > 512 {
		data = data[:512]
	}
	b.config.TrainerData = make([]uint8, 512)
	copy(b.config.TrainerData, data)
	return b
}

func (b *TestROMBuilder) WithInstructions(instructions []uint8) *TestROMBuilder {
	b.config.Instructions = append([]uint8{}, instructions...)
	return b
}

// WithData stashes extra bytes at fixed PRG offsets, applied after
// Instructions so callers can poke test fixtures past the code.
func (b *TestROMBuilder) WithData(address uint16, data []uint8) *TestROMBuilder {
	if b.config.InitialData == nil {
		b.config.InitialData = make(map[uint16]uint8)
	}
	for i, value := range data {
		b.config.InitialData[address+uint16(i)] = value
	}
	return b
}

func (b *TestROMBuilder) WithResetVector(address uint16) *TestROMBuilder {
	b.config.ResetVector = address
	return b
}

func (b *TestROMBuilder) WithIRQVector(address uint16) *TestROMBuilder {
	b.config.IRQVector = address
	return b
}

func (b *TestROMBuilder) WithNMIVector(address uint16) *TestROMBuilder {
	b.config.NMIVector = address
	return b
}

func (b *TestROMBuilder) WithCHRData(data []uint8) *TestROMBuilder {
	b.config.CHRData = append([]uint8{}, data...)
	return b
}

func (b *TestROMBuilder) WithDescription(description string) *TestROMBuilder {
	b.config.Description = description
	return b
}

// Build assembles the configured iNES image.
func (b *TestROMBuilder) Build() ([]byte, error) {
	return GenerateTestROM(b.config)
}

// BuildCartridge assembles the image and loads it through the same
// path a real ROM file would take.
func (b *TestROMBuilder) BuildCartridge() (*Cartridge, error) {
	romData, err := b.Build()
	if err != nil {
		return nil, err
	}
	return LoadFromReader(bytes.NewReader(romData))
}

// GenerateTestROM assembles a complete iNES image (header, optional
// trainer, PRG ROM with embedded vectors, optional CHR ROM) from a
// config built independently of TestROMBuilder.
func GenerateTestROM(config TestROMConfig) ([]byte, error) {
	if config.PRGSize == 0 {
		return nil, fmt.Errorf("cartridge: PRG ROM size cannot be zero")
	}

	rom := buildINESHeader(config)

	if config.HasTrainer {
		trainer := make([]uint8, 512)
		copy(trainer, config.TrainerData)
		rom = append(rom, trainer...)
	}

	prg, err := buildPRGROM(config)
	if err != nil {
		return nil, fmt.Errorf("cartridge: building PRG ROM: %w", err)
	}
	rom = append(rom, prg...)

	if config.CHRSize > 0 {
		rom = append(rom, buildCHRROM(config)...)
	}

	return rom, nil
}

func buildINESHeader(config TestROMConfig) []byte {
	header := make([]byte, 16)
	copy(header[0:4], "NES\x1A")
	header[4] = config.PRGSize
	header[5] = config.CHRSize

	var flags6 uint8
	switch config.Mirroring {
	case MirrorVertical:
		flags6 |= 0x01
	case MirrorFourScreen:
		flags6 |= 0x08
	}
	if config.HasBattery {
		flags6 |= 0x02
	}
	if config.HasTrainer {
		flags6 |= 0x04
	}
	flags6 |= (config.MapperID & 0x0F) << 4
	header[6] = flags6
	header[7] = config.MapperID & 0xF0

	return header
}

// buildPRGROM lays out instructions and any extra fixture bytes, then
// stamps the NMI/reset/IRQ vectors into the final six bytes of the
// bank, matching where the CPU always looks for them.
func buildPRGROM(config TestROMConfig) ([]byte, error) {
	size := int(config.PRGSize) * 16384
	prg := make([]byte, size)

	if len(config.Instructions) > 0 {
		if len(config.Instructions) > size {
			return nil, fmt.Errorf("instructions (%d bytes) exceed PRG ROM size (%d bytes)", len(config.Instructions), size)
		}
		copy(prg, config.Instructions)
	}

	for address, value := range config.InitialData {
		if int(address) < size {
			prg[address] = value
		}
	}

	vectors := size - 6
	putVector := func(offset int, vector uint16) {
		prg[offset] = uint8(vector & 0xFF)
		prg[offset+1] = uint8(vector >> 8)
	}
	putVector(vectors, config.NMIVector)
	putVector(vectors+2, config.ResetVector)
	putVector(vectors+4, config.IRQVector)

	return prg, nil
}

func buildCHRROM(config TestROMConfig) []byte {
	size := int(config.CHRSize) * 8192
	chr := make([]byte, size)
	copy(chr, config.CHRData)
	return chr
}

// PrebuiltTestROMs collects the fixed configurations exercised by the
// ROM loading integration tests in this package.
var PrebuiltTestROMs = struct {
	MinimalNROM TestROMConfig
	BasicTest   TestROMConfig
	MemoryTest  TestROMConfig
	SRAMTest    TestROMConfig
	CHRRAMTest  TestROMConfig
}{
	MinimalNROM: TestROMConfig{
		PRGSize:   1,
		CHRSize:   1,
		Mirroring: MirrorHorizontal,
		Instructions: []uint8{
			0x4C, 0x00, 0x80, // JMP $8000 (infinite loop)
		},
		ResetVector: 0x8000,
		Description: "Minimal NROM ROM with infinite loop",
	},

	BasicTest: TestROMConfig{
		PRGSize:   1,
		CHRSize:   1,
		Mirroring: MirrorHorizontal,
		Instructions: []uint8{
			0xA9, 0x42, // LDA #$42
			0x85, 0x00, // STA $00
			0xA9, 0x55, // LDA #$55
			0x85, 0x01, // STA $01
			0x4C, 0x08, 0x80, // JMP $8008 (infinite loop)
		},
		ResetVector: 0x8000,
		Description: "Basic load and store test",
	},

	MemoryTest: TestROMConfig{
		PRGSize:   1,
		CHRSize:   0, // CHR RAM
		Mirroring: MirrorVertical,
		Instructions: []uint8{
			0xA9, 0x11, // LDA #$11
			0x85, 0x10, // STA $10
			0xA9, 0x22, // LDA #$22
			0x8D, 0x00, 0x03, // STA $0300
			0xA9, 0x33, // LDA #$33
			0x8D, 0x00, 0x60, // STA $6000
			0x4C, 0x0E, 0x80, // JMP $800E (infinite loop)
		},
		ResetVector: 0x8000,
		Description: "Memory addressing mode test",
	},

	SRAMTest: TestROMConfig{
		PRGSize:    1,
		CHRSize:    1,
		Mirroring:  MirrorHorizontal,
		HasBattery: true,
		Instructions: []uint8{
			0xA9, 0xAA, // LDA #$AA
			0x8D, 0x00, 0x60, // STA $6000
			0xA9, 0xBB, // LDA #$BB
			0x8D, 0xFF, 0x7F, // STA $7FFF
			0xAD, 0x00, 0x60, // LDA $6000
			0x85, 0x50, // STA $50
			0xAD, 0xFF, 0x7F, // LDA $7FFF
			0x85, 0x51, // STA $51
			0x4C, 0x14, 0x80, // JMP $8014 (infinite loop)
		},
		ResetVector: 0x8000,
		Description: "SRAM functionality test with battery backup",
	},

	CHRRAMTest: TestROMConfig{
		PRGSize:   1,
		CHRSize:   0, // CHR RAM
		Mirroring: MirrorHorizontal,
		Instructions: []uint8{
			0xA9, 0x77, // LDA #$77
			0x85, 0x60, // STA $60
			0x4C, 0x04, 0x80, // JMP $8004 (infinite loop)
		},
		ResetVector: 0x8000,
		Description: "CHR RAM configuration test",
	},
}
