package cart

import "github.com/dmgcore/gbcore/internal/bus"

// mbc2 has a simpler ROM-only banking scheme and 512x4-bit RAM built into
// the cartridge itself (not external), addressed at $A000-$A1FF with only
// the low nibble of each byte significant.
type mbc2 struct {
	rom []byte
	ram []byte // 512 bytes, low nibble significant

	romBank    uint8
	ramEnabled bool
}

func newMBC2(rom, ramSeed []byte) *mbc2 {
	return &mbc2{
		rom:     rom,
		ram:     allocRAM(ramSeed, 512),
		romBank: 1,
	}
}

func (m *mbc2) RAM() []byte { return m.ram }

func (m *mbc2) Attach(b *bus.Bus) {
	b.RegisterRead(0x0000, 0x7FFF, func(address uint16, current byte) (byte, bool) {
		if address <= 0x3FFF {
			return m.rom[int(address)%len(m.rom)], true
		}
		off := int(m.romBank)*0x4000 + int(address-0x4000)
		return m.rom[off%len(m.rom)], true
	})
	b.RegisterWrite(0x0000, 0x3FFF, func(address uint16, value byte) bool {
		// Bit 8 of the address selects RAM-enable vs ROM-bank-select.
		if address&0x0100 == 0 {
			m.ramEnabled = value&0x0F == 0x0A
		} else {
			bank := value & 0x0F
			if bank == 0 {
				bank = 1
			}
			m.romBank = bank
		}
		return true
	})
	b.RegisterWrite(0x4000, 0x7FFF, func(address uint16, value byte) bool {
		return true
	})

	b.RegisterRead(0xA000, 0xA1FF, func(address uint16, current byte) (byte, bool) {
		if !m.ramEnabled {
			return 0xFF, true
		}
		return m.ram[address-0xA000] | 0xF0, true
	})
	b.RegisterWrite(0xA000, 0xA1FF, func(address uint16, value byte) bool {
		if !m.ramEnabled {
			return true
		}
		m.ram[address-0xA000] = value & 0x0F
		return true
	})
	// The built-in RAM is mirrored across the rest of the $A000-$BFFF window.
	b.RegisterRead(0xA200, 0xBFFF, func(address uint16, current byte) (byte, bool) {
		if !m.ramEnabled {
			return 0xFF, true
		}
		idx := (address - 0xA000) % 0x200
		return m.ram[idx] | 0xF0, true
	})
	b.RegisterWrite(0xA200, 0xBFFF, func(address uint16, value byte) bool {
		if !m.ramEnabled {
			return true
		}
		idx := (address - 0xA000) % 0x200
		m.ram[idx] = value & 0x0F
		return true
	})
}
