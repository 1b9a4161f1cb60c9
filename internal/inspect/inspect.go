// Package inspect exposes read-only hooks onto a running bus.Bus for
// tile viewers, nametable dumps, and other debug tooling, without
// mutating any emulation state. It replaces ad hoc investigation code
// with a narrow, table-driven surface: pattern tables, nametables, OAM
// sprites, palette RAM, and the PPU's current scan position.
package inspect

import "github.com/student/nescore/internal/bus"

// Sprite is one decoded entry of primary OAM.
type Sprite struct {
	Y         uint8
	Tile      uint8
	Attribute uint8
	X         uint8
}

// PatternTable decodes one 4 KiB CHR pattern-table half (0 = $0000-$0FFF,
// 1 = $1000-$1FFF) into 16x16 tiles of 8x8 palette-index pixels (0-3,
// palette not yet applied).
func PatternTable(b *bus.Bus, half int) [128 * 64]uint8 {
	var out [128 * 64]uint8
	base := uint16(half&1) << 12

	for tile := 0; tile < 256; tile++ {
		tileX := (tile % 16) * 8
		tileY := (tile / 16) * 8
		tileAddr := base + uint16(tile)*16

		for row := 0; row < 8; row++ {
			lowPlane := b.PPU.PeekVRAM(tileAddr + uint16(row))
			highPlane := b.PPU.PeekVRAM(tileAddr + uint16(row) + 8)

			for col := 0; col < 8; col++ {
				bit := 7 - col
				lowBit := (lowPlane >> bit) & 1
				highBit := (highPlane >> bit) & 1
				pixel := (highBit << 1) | lowBit

				x := tileX + col
				y := tileY + row
				out[y*128+x] = pixel
			}
		}
	}

	return out
}

// Nametable returns the 960 tile IDs of one logical nametable (0-3, in
// PPUCTRL nametable-select order), resolved through the cartridge's
// current mirroring.
func Nametable(b *bus.Bus, i int) [960]uint8 {
	var out [960]uint8
	base := 0x2000 + uint16(i&3)*0x400

	for i := 0; i < 960; i++ {
		out[i] = b.PPU.PeekVRAM(base + uint16(i))
	}
	return out
}

// OAMSprites decodes all 64 primary OAM entries.
func OAMSprites(b *bus.Bus) [64]Sprite {
	var out [64]Sprite
	oam := b.PPU.PeekOAM()

	for i := 0; i < 64; i++ {
		base := i * 4
		out[i] = Sprite{
			Y:         oam[base],
			Tile:      oam[base+1],
			Attribute: oam[base+2],
			X:         oam[base+3],
		}
	}
	return out
}

// Palette returns the raw 32-byte palette RAM ($3F00-$3F1F).
func Palette(b *bus.Bus) [32]uint8 {
	var out [32]uint8
	for i := 0; i < 32; i++ {
		out[i] = b.PPU.PeekVRAM(0x3F00 + uint16(i))
	}
	return out
}

// Position returns the PPU's current scanline, cycle, and the bus's
// completed frame count.
func Position(b *bus.Bus) (scanline, cycle int, frame uint64) {
	return b.PPU.GetScanline(), b.PPU.GetCycle(), b.GetFrameCount()
}
