package cart

import "github.com/dmgcore/gbcore/internal/bus"

// MBC is a Memory Bank Controller: it owns the ROM/RAM backing arrays and
// installs itself onto the bus as a set of read/write interceptors covering
// $0000-$7FFF (ROM + bank control) and $A000-$BFFF (external RAM).
type MBC interface {
	// Attach registers this MBC's interceptors on the bus.
	Attach(b *bus.Bus)
	// RAM returns the external RAM backing array, for battery persistence.
	RAM() []byte
}

// New constructs the MBC variant for the given header, wiring romData as
// its ROM backing store. ramData is used as the initial RAM contents when
// non-nil (battery-backed save restore); otherwise RAM is allocated filled
// with 0xFF, matching uninitialized SRAM.
func New(h Header, romData []byte, ramData []byte) MBC {
	switch h.Kind {
	case KindNone:
		return newNoMBC(romData)
	case KindMBC1:
		return newMBC1(romData, ramData, h.RamBanks)
	case KindMBC2:
		return newMBC2(romData, ramData)
	case KindMBC3:
		return newMBC3(romData, ramData, h.RamBanks, h.HasRTC)
	case KindMBC5:
		return newMBC5(romData, ramData, h.RamBanks)
	default:
		return newNoMBC(romData)
	}
}

func allocRAM(existing []byte, size int) []byte {
	if existing != nil {
		ram := make([]byte, size)
		copy(ram, existing)
		return ram
	}
	ram := make([]byte, size)
	for i := range ram {
		ram[i] = 0xFF
	}
	return ram
}

// noMBC serves cartridges small enough to map entirely into $0000-$7FFF
// with no banking and no RAM.
type noMBC struct {
	rom []byte
}

func newNoMBC(rom []byte) *noMBC {
	return &noMBC{rom: rom}
}

func (m *noMBC) RAM() []byte { return nil }

func (m *noMBC) Attach(b *bus.Bus) {
	b.RegisterRead(0x0000, 0x7FFF, func(address uint16, current byte) (byte, bool) {
		if int(address) >= len(m.rom) {
			return 0xFF, true
		}
		return m.rom[address], true
	})
	b.RegisterWrite(0x0000, 0x7FFF, func(address uint16, value byte) bool {
		return true // ROM-only cartridges ignore writes
	})
}
