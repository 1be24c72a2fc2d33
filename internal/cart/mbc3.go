package cart

import (
	"github.com/dmgcore/gbcore/internal/bus"
	"github.com/dmgcore/gbcore/internal/timing"
)

// RTC register indices, matching the Seconds/Minutes/Hours/DayLow/DayHigh
// layout MBC3 exposes at $A000-$BFFF when a register 0x08-0x0C is mapped.
const (
	rtcSeconds = iota
	rtcMinutes
	rtcHours
	rtcDayLow
	rtcDayHigh // bit0: day counter bit 8, bit6: halt, bit7: day carry
)

// mbc3 implements MBC1-shaped ROM/RAM banking (7-bit ROM bank, 0->1
// promotion) plus an optional real-time clock latched through the
// $6000-$7FFF window and mapped into $A000-$BFFF via RAM-bank values
// 0x08-0x0C.
type mbc3 struct {
	rom []byte
	ram []byte

	romBank    uint8
	ramBank    uint8 // 0-3 selects RAM bank, 0x08-0x0C selects an RTC register
	ramEnabled bool

	hasRTC     bool
	rtc        [5]byte
	latched    [5]byte
	latchByte  byte // tracks the 0-then-1 write sequence on $6000-$7FFF
	cycleAccum int64
}

func newMBC3(rom, ramSeed []byte, ramBanks int, hasRTC bool) *mbc3 {
	return &mbc3{
		rom:     rom,
		ram:     allocRAM(ramSeed, ramBanks*0x2000),
		romBank: 1,
		hasRTC:  hasRTC,
	}
}

func (m *mbc3) RAM() []byte { return m.ram }

func (m *mbc3) Attach(b *bus.Bus) {
	b.RegisterRead(0x0000, 0x7FFF, func(address uint16, current byte) (byte, bool) {
		if address <= 0x3FFF {
			return m.rom[int(address)%len(m.rom)], true
		}
		bank := int(m.romBank)
		off := bank*0x4000 + int(address-0x4000)
		return m.rom[off%len(m.rom)], true
	})

	b.RegisterWrite(0x0000, 0x1FFF, func(address uint16, value byte) bool {
		m.ramEnabled = value&0x0F == 0x0A
		return true
	})
	b.RegisterWrite(0x2000, 0x3FFF, func(address uint16, value byte) bool {
		bank := value & 0x7F
		if bank == 0 {
			bank = 1
		}
		m.romBank = bank
		return true
	})
	b.RegisterWrite(0x4000, 0x5FFF, func(address uint16, value byte) bool {
		m.ramBank = value
		return true
	})
	b.RegisterWrite(0x6000, 0x7FFF, func(address uint16, value byte) bool {
		if m.hasRTC && m.latchByte == 0x00 && value == 0x01 {
			m.latched = m.rtc
		}
		m.latchByte = value
		return true
	})

	b.RegisterRead(0xA000, 0xBFFF, func(address uint16, current byte) (byte, bool) {
		if !m.ramEnabled {
			return 0xFF, true
		}
		if m.hasRTC && m.ramBank >= 0x08 && m.ramBank <= 0x0C {
			return m.latched[m.ramBank-0x08], true
		}
		if len(m.ram) == 0 {
			return 0xFF, true
		}
		off := int(m.ramBank)*0x2000 + int(address-0xA000)
		return m.ram[off%len(m.ram)], true
	})
	b.RegisterWrite(0xA000, 0xBFFF, func(address uint16, value byte) bool {
		if !m.ramEnabled {
			return true
		}
		if m.hasRTC && m.ramBank >= 0x08 && m.ramBank <= 0x0C {
			m.rtc[m.ramBank-0x08] = value
			return true
		}
		if len(m.ram) == 0 {
			return true
		}
		off := int(m.ramBank)*0x2000 + int(address-0xA000)
		m.ram[off%len(m.ram)] = value
		return true
	})

	if m.hasRTC {
		b.Subscribe(m.tick)
	}
}

// tick accumulates consumed T-cycles into the RTC's running seconds
// counter, unless halted (DayHigh bit 6).
func (m *mbc3) tick(cycles int) {
	if m.rtc[rtcDayHigh]&0x40 != 0 {
		return
	}
	m.cycleAccum += int64(cycles)
	for m.cycleAccum >= timing.CPUClock {
		m.cycleAccum -= timing.CPUClock
		m.advanceSecond()
	}
}

func (m *mbc3) advanceSecond() {
	m.rtc[rtcSeconds]++
	if m.rtc[rtcSeconds] < 60 {
		return
	}
	m.rtc[rtcSeconds] = 0

	m.rtc[rtcMinutes]++
	if m.rtc[rtcMinutes] < 60 {
		return
	}
	m.rtc[rtcMinutes] = 0

	m.rtc[rtcHours]++
	if m.rtc[rtcHours] < 24 {
		return
	}
	m.rtc[rtcHours] = 0

	day := uint16(m.rtc[rtcDayLow]) | uint16(m.rtc[rtcDayHigh]&0x01)<<8
	day++
	if day > 0x1FF {
		day = 0
		m.rtc[rtcDayHigh] |= 0x80 // day carry
	}
	m.rtc[rtcDayLow] = byte(day)
	m.rtc[rtcDayHigh] = (m.rtc[rtcDayHigh] &^ 0x01) | byte(day>>8)&0x01
}
