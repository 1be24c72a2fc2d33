package cart

import "github.com/dmgcore/gbcore/internal/bus"

// mbc1 implements the original Nintendo MBC1: a 5-bit low ROM bank number
// and a 2-bit register shared between the high ROM bank bits and the RAM
// bank number, switched by the banking-mode flag.
type mbc1 struct {
	rom []byte
	ram []byte

	bankLo     uint8 // $2000-$3FFF, 5 bits, 0 promoted to 1
	bankHi     uint8 // $4000-$5FFF, 2 bits
	mode       uint8 // $6000-$7FFF bit 0: 0=simple (ROM), 1=RAM banking/advanced ROM banking
	ramEnabled bool
}

func newMBC1(rom, ramSeed []byte, ramBanks int) *mbc1 {
	return &mbc1{
		rom:    rom,
		ram:    allocRAM(ramSeed, ramBanks*0x2000),
		bankLo: 1,
	}
}

func (m *mbc1) RAM() []byte { return m.ram }

// romBank returns the effective ROM bank mapped at $4000-$7FFF.
func (m *mbc1) romBank() int {
	if m.mode == 0 {
		return int(m.bankHi)<<5 | int(m.bankLo)
	}
	return int(m.bankLo)
}

// ramBank returns the effective RAM bank, only meaningful in mode 1.
func (m *mbc1) ramBank() int {
	if m.mode == 1 {
		return int(m.bankHi)
	}
	return 0
}

func (m *mbc1) romOffset(address uint16) int {
	if address <= 0x3FFF {
		// In mode 1, the lower window is also affected by bankHi (the
		// "extended ROM banking" behavior selecting one of banks
		// 0/0x20/0x40/0x60).
		bank := 0
		if m.mode == 1 {
			bank = int(m.bankHi) << 5
		}
		return bank*0x4000 + int(address)
	}
	bank := m.romBank()
	if bank == 0 {
		bank = 1
	}
	return bank*0x4000 + int(address-0x4000)
}

func (m *mbc1) Attach(b *bus.Bus) {
	b.RegisterRead(0x0000, 0x7FFF, func(address uint16, current byte) (byte, bool) {
		off := m.romOffset(address)
		if len(m.rom) == 0 {
			return 0xFF, true
		}
		return m.rom[off%len(m.rom)], true
	})

	b.RegisterWrite(0x0000, 0x1FFF, func(address uint16, value byte) bool {
		m.ramEnabled = value&0x0F == 0x0A
		return true
	})
	b.RegisterWrite(0x2000, 0x3FFF, func(address uint16, value byte) bool {
		bank := value & 0x1F
		if bank == 0 {
			bank = 1
		}
		m.bankLo = bank
		return true
	})
	b.RegisterWrite(0x4000, 0x5FFF, func(address uint16, value byte) bool {
		m.bankHi = value & 0x03
		return true
	})
	b.RegisterWrite(0x6000, 0x7FFF, func(address uint16, value byte) bool {
		m.mode = value & 0x01
		return true
	})

	b.RegisterRead(0xA000, 0xBFFF, func(address uint16, current byte) (byte, bool) {
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF, true
		}
		off := m.ramBank()*0x2000 + int(address-0xA000)
		return m.ram[off%len(m.ram)], true
	})
	b.RegisterWrite(0xA000, 0xBFFF, func(address uint16, value byte) bool {
		if !m.ramEnabled || len(m.ram) == 0 {
			return true
		}
		off := m.ramBank()*0x2000 + int(address-0xA000)
		m.ram[off%len(m.ram)] = value
		return true
	})
}
