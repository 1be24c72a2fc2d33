package serial

import (
	"testing"

	"github.com/dmgcore/gbcore/internal/addr"
	"github.com/dmgcore/gbcore/internal/bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPort(t *testing.T, opts ...Option) (*Port, *bus.Bus) {
	t.Helper()
	b := bus.New()
	p := New(opts...)
	p.Reset(b)
	return p, b
}

func TestImmediateTransferClearsStartBitAndRaisesInterrupt(t *testing.T) {
	_, b := newTestPort(t)
	b.Write(addr.IE, byte(addr.SerialInterrupt))

	b.Write(addr.SB, 'A')
	b.Write(addr.SC, 0x81) // start + internal clock

	assert.Equal(t, byte(0xFF), b.Read(addr.SB), "SB resets to the default RX value once the transfer completes")
	assert.Zero(t, b.Read(addr.SC)&0x80, "start bit clears on completion")
	assert.NotZero(t, b.Read(addr.IF)&byte(addr.SerialInterrupt))
}

func TestFixedTimingTransferCompletesAfterCountdown(t *testing.T) {
	p, b := newTestPort(t, WithFixedTiming())

	b.Write(addr.SB, 'Z')
	b.Write(addr.SC, 0x81)

	require.True(t, p.transferActive)
	assert.NotZero(t, b.Read(addr.SC)&0x80, "start bit stays set while the transfer is in flight")

	p.Tick(4095)
	assert.True(t, p.transferActive, "should not complete one cycle early")

	p.Tick(1)
	assert.False(t, p.transferActive)
	assert.Equal(t, byte(0xFF), b.Read(addr.SB))
}

func TestNoTransferWithoutInternalClockBit(t *testing.T) {
	p, b := newTestPort(t)

	b.Write(addr.SB, 'x')
	b.Write(addr.SC, 0x80) // start set, but external clock (bit0=0)

	assert.False(t, p.transferActive)
	assert.Equal(t, byte('x'), b.Read(addr.SB), "SB is untouched when no transfer starts")
}
