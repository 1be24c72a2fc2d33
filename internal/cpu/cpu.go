// Package cpu implements the LR35902 core: registers, ALU, the main and
// CB-prefixed opcode tables, and interrupt/HALT/STOP handling. It talks to
// the rest of the machine exclusively through a *bus.Bus, never through a
// directly-held memory array.
package cpu

import (
	"fmt"

	"github.com/dmgcore/gbcore/internal/addr"
	"github.com/dmgcore/gbcore/internal/bus"
)

// Flag is one of the four flags packed into the low byte of AF.
type Flag uint8

const (
	flagZ Flag = 1 << 7
	flagN Flag = 1 << 6
	flagH Flag = 1 << 5
	flagC Flag = 1 << 4
)

// interrupt vector base; source bit i dispatches to 0x0040 + 0x08*i.
const interruptVectorBase = 0x0040

// CPU is the main struct holding LR35902 state.
type CPU struct {
	bus *bus.Bus

	af, bc, de, hl, sp, pc Register16

	ime        bool
	imePending bool // set by EI; takes effect after the next instruction

	halted bool

	// DoubleSpeed mirrors KEY1 bit 7 on CGB. STOP toggles it when armed (KEY1
	// bit 0 written); downstream cadence halving for the timer/PPU driven by
	// this flag is not wired up (see SPEC_FULL.md's CGB support section).
	DoubleSpeed      bool
	doubleSpeedArmed bool // KEY1 bit 0: switch requested, consumed by the next STOP
}

// New returns a CPU that has not yet been wired to a bus.
func New() *CPU {
	return &CPU{}
}

// Reset restores post-boot-ROM register state (DMG values) and attaches the
// CPU to b. The core has no boot ROM of its own, per the documented
// Non-goal; callers load a cartridge directly into these power-on values.
func (c *CPU) Reset(b *bus.Bus) {
	c.bus = b
	c.af.set(0x01B0)
	c.bc.set(0x0013)
	c.de.set(0x00D8)
	c.hl.set(0x014D)
	c.sp.set(0xFFFE)
	c.pc.set(0x0100)
	c.ime = false
	c.imePending = false
	c.halted = false
	c.DoubleSpeed = false
	c.doubleSpeedArmed = false

	c.registerKEY1(b)
}

// registerKEY1 wires $FF4D: bit 7 reads the current speed, bit 0 reads
// back whether a switch is armed, and bits 1-6 always read 1.
func (c *CPU) registerKEY1(b *bus.Bus) {
	b.RegisterRead(addr.KEY1, addr.KEY1, func(address uint16, current byte) (byte, bool) {
		v := byte(0x7E)
		if c.DoubleSpeed {
			v |= 0x80
		}
		if c.doubleSpeedArmed {
			v |= 0x01
		}
		return v, true
	})
	b.RegisterWrite(addr.KEY1, addr.KEY1, func(address uint16, value byte) bool {
		c.doubleSpeedArmed = value&0x01 != 0
		return true
	})
}

// toggleDoubleSpeedIfArmed implements the CGB STOP handshake: when KEY1's
// armed bit is set, STOP performs the speed switch instead of halting.
func (c *CPU) toggleDoubleSpeedIfArmed() {
	if !c.doubleSpeedArmed {
		return
	}
	c.DoubleSpeed = !c.DoubleSpeed
	c.doubleSpeedArmed = false
}

func (c *CPU) setFlag(f Flag) { c.af.setLow(c.af.low() | uint8(f)) }

func (c *CPU) resetFlag(f Flag) { c.af.setLow(c.af.low() &^ uint8(f)) }

func (c *CPU) setFlagTo(f Flag, on bool) {
	if on {
		c.setFlag(f)
	} else {
		c.resetFlag(f)
	}
}

func (c *CPU) isSet(f Flag) bool { return c.af.low()&uint8(f) != 0 }

// Step executes exactly one instruction (or, if halted with no pending
// wake, a single idle cycle) and returns the number of T-cycles consumed.
func (c *CPU) Step() int {
	if cycles, handled := c.dispatchInterrupt(); handled {
		return cycles
	}

	if c.halted {
		if c.pendingInterrupts() != 0 {
			c.halted = false
		} else {
			return 4
		}
	}

	applyEI := c.imePending
	c.imePending = false

	opcode := c.fetch8()
	cycles := c.execute(opcode)

	if applyEI {
		c.ime = true
	}

	return cycles
}

func (c *CPU) pendingInterrupts() byte {
	return c.bus.Read(addr.IE) & c.bus.Read(addr.IF) & 0x1F
}

// dispatchInterrupt services the highest-priority pending interrupt when IME
// is set, pushing PC and jumping to its vector. It also handles waking a
// halted CPU even when IME is clear (the vector is simply not taken).
func (c *CPU) dispatchInterrupt() (cycles int, handled bool) {
	pending := c.pendingInterrupts()

	if c.halted && pending != 0 {
		c.halted = false
	}

	if !c.ime || pending == 0 {
		return 0, false
	}

	for bitIndex := uint8(0); bitIndex < 5; bitIndex++ {
		mask := byte(1) << bitIndex
		if pending&mask == 0 {
			continue
		}

		c.ime = false
		flags := c.bus.Read(addr.IF) &^ mask
		c.bus.Write(addr.IF, flags)

		c.push16(c.pc.get())
		c.pc.set(uint16(interruptVectorBase) + uint16(bitIndex)*8)

		return 20, true
	}

	return 0, false
}

func (c *CPU) fetch8() uint8 {
	v := c.bus.Read(c.pc.get())
	c.pc.incr()
	return v
}

func (c *CPU) fetch16() uint16 {
	lo := c.fetch8()
	hi := c.fetch8()
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) push16(value uint16) {
	c.sp.decr()
	c.bus.Write(c.sp.get(), uint8(value>>8))
	c.sp.decr()
	c.bus.Write(c.sp.get(), uint8(value))
}

func (c *CPU) pop16() uint16 {
	lo := c.bus.Read(c.sp.get())
	c.sp.incr()
	hi := c.bus.Read(c.sp.get())
	c.sp.incr()
	return uint16(hi)<<8 | uint16(lo)
}

// get8 reads one of the eight opcode-encoded operands: B,C,D,E,H,L,(HL),A.
func (c *CPU) get8(index uint8) uint8 {
	switch index & 0x07 {
	case 0:
		return c.bc.high()
	case 1:
		return c.bc.low()
	case 2:
		return c.de.high()
	case 3:
		return c.de.low()
	case 4:
		return c.hl.high()
	case 5:
		return c.hl.low()
	case 6:
		return c.bus.Read(c.hl.get())
	default:
		return c.af.high()
	}
}

func (c *CPU) set8(index uint8, value uint8) {
	switch index & 0x07 {
	case 0:
		c.bc.setHigh(value)
	case 1:
		c.bc.setLow(value)
	case 2:
		c.de.setHigh(value)
	case 3:
		c.de.setLow(value)
	case 4:
		c.hl.setHigh(value)
	case 5:
		c.hl.setLow(value)
	case 6:
		c.bus.Write(c.hl.get(), value)
	default:
		c.af.setHigh(value)
	}
}

// rp16 resolves the BC/DE/HL/SP group used by LD rp,d16 / INC rp / DEC rp / ADD HL,rp.
func (c *CPU) rp16(index uint8) *Register16 {
	switch index & 0x03 {
	case 0:
		return &c.bc
	case 1:
		return &c.de
	case 2:
		return &c.hl
	default:
		return &c.sp
	}
}

// rp2 resolves the BC/DE/HL/AF group used by PUSH/POP.
func (c *CPU) rp2(index uint8) *Register16 {
	switch index & 0x03 {
	case 0:
		return &c.bc
	case 1:
		return &c.de
	case 2:
		return &c.hl
	default:
		return &c.af
	}
}

func (c *CPU) condition(index uint8) bool {
	switch index & 0x03 {
	case 0:
		return !c.isSet(flagZ)
	case 1:
		return c.isSet(flagZ)
	case 2:
		return !c.isSet(flagC)
	default:
		return c.isSet(flagC)
	}
}

func panicUnreachable(opcode uint8, cb bool) {
	panic(fmt.Sprintf("cpu: unreachable opcode byte 0x%02X (cb=%v)", opcode, cb))
}
