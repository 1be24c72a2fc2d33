package cart

import "github.com/dmgcore/gbcore/internal/bus"

// mbc5 supports a full 16-bit ROM bank number (no 0->1 promotion quirk:
// bank 0 really is addressable at $4000) and up to 16 RAM banks.
type mbc5 struct {
	rom []byte
	ram []byte

	romBank    uint16
	ramBank    uint8
	ramEnabled bool
}

func newMBC5(rom, ramSeed []byte, ramBanks int) *mbc5 {
	return &mbc5{
		rom:     rom,
		ram:     allocRAM(ramSeed, ramBanks*0x2000),
		romBank: 1,
	}
}

func (m *mbc5) RAM() []byte { return m.ram }

func (m *mbc5) Attach(b *bus.Bus) {
	b.RegisterRead(0x0000, 0x7FFF, func(address uint16, current byte) (byte, bool) {
		if address <= 0x3FFF {
			return m.rom[int(address)%len(m.rom)], true
		}
		off := int(m.romBank)*0x4000 + int(address-0x4000)
		return m.rom[off%len(m.rom)], true
	})

	b.RegisterWrite(0x0000, 0x1FFF, func(address uint16, value byte) bool {
		m.ramEnabled = value&0x0F == 0x0A
		return true
	})
	b.RegisterWrite(0x2000, 0x2FFF, func(address uint16, value byte) bool {
		m.romBank = m.romBank&0x100 | uint16(value)
		return true
	})
	b.RegisterWrite(0x3000, 0x3FFF, func(address uint16, value byte) bool {
		m.romBank = m.romBank&0x0FF | uint16(value&0x01)<<8
		return true
	})
	b.RegisterWrite(0x4000, 0x5FFF, func(address uint16, value byte) bool {
		m.ramBank = value & 0x0F
		return true
	})
	b.RegisterWrite(0x6000, 0x7FFF, func(address uint16, value byte) bool {
		return true // no banking meaning on this range for MBC5
	})

	b.RegisterRead(0xA000, 0xBFFF, func(address uint16, current byte) (byte, bool) {
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF, true
		}
		off := int(m.ramBank)*0x2000 + int(address-0xA000)
		return m.ram[off%len(m.ram)], true
	})
	b.RegisterWrite(0xA000, 0xBFFF, func(address uint16, value byte) bool {
		if !m.ramEnabled || len(m.ram) == 0 {
			return true
		}
		off := int(m.ramBank)*0x2000 + int(address-0xA000)
		m.ram[off%len(m.ram)] = value
		return true
	})
}
