package cpu

import (
	"testing"

	"github.com/dmgcore/gbcore/internal/addr"
	"github.com/dmgcore/gbcore/internal/bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCPU(t *testing.T) (*CPU, *bus.Bus) {
	t.Helper()
	b := bus.New()
	c := New()
	c.Reset(b)
	return c, b
}

func loadProgram(b *bus.Bus, at uint16, bytes ...byte) {
	for i, v := range bytes {
		b.Write(at+uint16(i), v)
	}
}

func TestAddHalfCarryAndCarry(t *testing.T) {
	c, b := newTestCPU(t)
	c.pc.set(0xC000)
	c.af.setHigh(0x3A)
	c.bc.setHigh(0xC6)
	loadProgram(b, 0xC000, 0x80) // ADD A,B

	c.Step()

	assert.Equal(t, byte(0x00), c.af.high())
	assert.True(t, c.isSet(flagZ))
	assert.True(t, c.isSet(flagH))
	assert.True(t, c.isSet(flagC))
	assert.False(t, c.isSet(flagN))
}

func TestDAAAfterBCDAdd(t *testing.T) {
	c, b := newTestCPU(t)
	c.pc.set(0xC000)
	c.af.setHigh(0x45) // BCD 45
	c.bc.setHigh(0x38) // BCD 38
	loadProgram(b, 0xC000, 0x80, 0x27) // ADD A,B ; DAA

	c.Step()
	c.Step()

	assert.Equal(t, byte(0x83), c.af.high(), "45 + 38 = 83 in BCD")
	assert.False(t, c.isSet(flagC))
}

func TestIncDecHalfCarryBoundaries(t *testing.T) {
	c, _ := newTestCPU(t)

	result := c.inc8(0x0F)
	assert.Equal(t, byte(0x10), result)
	assert.True(t, c.isSet(flagH))

	result = c.dec8(0x10)
	assert.Equal(t, byte(0x0F), result)
	assert.True(t, c.isSet(flagH))
}

func TestRLCAAlwaysClearsZero(t *testing.T) {
	c, b := newTestCPU(t)
	c.pc.set(0xC000)
	c.af.setHigh(0x00)
	loadProgram(b, 0xC000, 0x07) // RLCA

	c.Step()

	assert.Equal(t, byte(0x00), c.af.high())
	assert.False(t, c.isSet(flagZ), "RLCA must clear Z even when the result is zero")
	assert.False(t, c.isSet(flagC))
}

func TestCBBitInstructionSetsZWithoutModifyingOperand(t *testing.T) {
	c, b := newTestCPU(t)
	c.pc.set(0xC000)
	c.bc.setHigh(0x00) // B = 0
	loadProgram(b, 0xC000, 0xCB, 0x40) // BIT 0,B

	cycles := c.Step()

	assert.Equal(t, 8, cycles)
	assert.True(t, c.isSet(flagZ))
	assert.True(t, c.isSet(flagH))
	assert.False(t, c.isSet(flagN))
	assert.Equal(t, byte(0x00), c.bc.high())
}

func TestLDRRGeneralizedDispatch(t *testing.T) {
	c, b := newTestCPU(t)
	c.pc.set(0xC000)
	c.bc.setHigh(0x99) // B
	loadProgram(b, 0xC000, 0x78) // LD A,B

	cycles := c.Step()

	assert.Equal(t, 4, cycles)
	assert.Equal(t, byte(0x99), c.af.high())
}

func TestPushPopRoundTrip(t *testing.T) {
	c, _ := newTestCPU(t)
	c.sp.set(0xFFFE)
	c.bc.set(0x1234)

	c.push16(c.bc.get())
	c.sp.set(c.sp.get()) // no-op, documents sp already moved by push16
	popped := c.pop16()

	assert.Equal(t, uint16(0x1234), popped)
	assert.Equal(t, uint16(0xFFFE), c.sp.get())
}

func TestJRConditionalTakenAndNotTaken(t *testing.T) {
	c, b := newTestCPU(t)
	c.pc.set(0xC000)
	c.setFlag(flagZ)
	loadProgram(b, 0xC000, 0x28, 0x05) // JR Z,+5

	cycles := c.Step()

	assert.Equal(t, 12, cycles)
	assert.Equal(t, uint16(0xC007), c.pc.get())
}

func TestInterruptDispatchPushesPCAndJumpsToVector(t *testing.T) {
	c, b := newTestCPU(t)
	c.pc.set(0xC123)
	c.sp.set(0xFFFE)
	c.ime = true
	b.Write(addr.IE, byte(addr.VBlankInterrupt))
	b.RequestInterrupt(addr.VBlankInterrupt)

	cycles := c.Step()

	assert.Equal(t, 20, cycles)
	assert.Equal(t, uint16(0x0040), c.pc.get())
	assert.False(t, c.ime)
	assert.Zero(t, b.Read(addr.IF)&byte(addr.VBlankInterrupt))

	returnAddr := c.pop16()
	assert.Equal(t, uint16(0xC123), returnAddr)
}

func TestHaltWakesOnPendingInterruptEvenWithIMEClear(t *testing.T) {
	c, b := newTestCPU(t)
	c.pc.set(0xC000)
	c.ime = false
	loadProgram(b, 0xC000, 0x76, 0x00) // HALT ; NOP

	c.Step() // enters halt
	require.True(t, c.halted)

	b.Write(addr.IE, byte(addr.TimerInterrupt))
	b.RequestInterrupt(addr.TimerInterrupt)

	cycles := c.Step()

	assert.False(t, c.halted)
	assert.Equal(t, 4, cycles)
}

func TestEITakesEffectAfterFollowingInstruction(t *testing.T) {
	c, b := newTestCPU(t)
	c.pc.set(0xC000)
	c.ime = false
	loadProgram(b, 0xC000, 0xFB, 0x00, 0x00) // EI ; NOP ; NOP

	c.Step() // EI: ime not yet true
	assert.False(t, c.ime)

	c.Step() // following instruction: ime becomes true here
	assert.True(t, c.ime)
}

func TestStopBehavesAsNopAndDoesNotFreezeTheCPU(t *testing.T) {
	c, b := newTestCPU(t)
	c.pc.set(0xC000)
	loadProgram(b, 0xC000, 0x10, 0x00, 0x00, 0x00) // STOP 0 ; NOP ; NOP

	cycles := c.Step()
	assert.Equal(t, 4, cycles)
	assert.Equal(t, uint16(0xC002), c.pc.get())

	cycles = c.Step() // must still execute, not freeze
	assert.Equal(t, 4, cycles)
	assert.Equal(t, uint16(0xC003), c.pc.get())
}

func TestKEY1ArmsAndSTOPTogglesDoubleSpeed(t *testing.T) {
	c, b := newTestCPU(t)
	c.pc.set(0xC000)
	loadProgram(b, 0xC000, 0x10, 0x00) // STOP 0

	assert.Equal(t, byte(0x7E), b.Read(addr.KEY1), "not armed, normal speed")

	b.Write(addr.KEY1, 0x01) // arm the switch
	assert.Equal(t, byte(0x7F), b.Read(addr.KEY1))
	assert.False(t, c.DoubleSpeed)

	c.Step() // STOP consumes the armed bit and toggles speed

	assert.True(t, c.DoubleSpeed)
	assert.Equal(t, byte(0xFE), b.Read(addr.KEY1), "armed bit cleared, double speed now set")
}

func TestLDAFromAbsoluteAddressReadsThroughBus(t *testing.T) {
	// sanity check that the CPU never assumes a direct memory array: all
	// access goes through Bus.Read/Write.
	c, b := newTestCPU(t)
	b.Write(0xC000, 0x42)
	c.pc.set(0xC100)
	loadProgram(b, 0xC100, 0xFA, 0x00, 0xC0) // LD A,(0xC000)

	c.Step()

	assert.Equal(t, byte(0x42), c.af.high())
}
