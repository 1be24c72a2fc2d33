package timer

import (
	"testing"

	"github.com/dmgcore/gbcore/internal/addr"
	"github.com/dmgcore/gbcore/internal/bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDIVIncrementsEvery256CyclesAndResetsOnWrite(t *testing.T) {
	b := bus.New()
	tm := New()
	tm.Reset(b)

	tm.Tick(256) // one full DIV increment: DIV is the counter's high byte
	assert.Equal(t, byte(1), b.Read(addr.DIV))

	b.Write(addr.DIV, 0xFF) // any write resets the divider, value ignored
	assert.Equal(t, byte(0), b.Read(addr.DIV))
}

func TestTACEnableGatesTIMA(t *testing.T) {
	b := bus.New()
	tm := New()
	tm.Reset(b)

	b.Write(addr.TAC, 0x00) // disabled, clock select 00 (bit 9)
	tm.Tick(1024)
	assert.Equal(t, byte(0), b.Read(addr.TIMA), "TIMA must not advance while TAC enable bit is clear")

	b.Write(addr.TAC, 0x04) // enabled, clock select 00 -> bit 9 (every 1024 T-cycles)
	tm.Tick(1024)
	assert.Equal(t, byte(1), b.Read(addr.TIMA))
}

func TestTIMAFastestClockSelect(t *testing.T) {
	b := bus.New()
	tm := New()
	tm.Reset(b)

	b.Write(addr.TAC, 0x05) // enabled, select 01 -> bit 3, every 16 T-cycles
	tm.Tick(16)
	assert.Equal(t, byte(1), b.Read(addr.TIMA))
	tm.Tick(16)
	assert.Equal(t, byte(2), b.Read(addr.TIMA))
}

func TestTIMAOverflowReloadsFromTMAAfterDelayAndRaisesInterrupt(t *testing.T) {
	b := bus.New()
	tm := New()
	tm.Reset(b)

	b.Write(addr.TMA, 0x50)
	b.Write(addr.TAC, 0x05) // select bit 3, every 16 cycles
	b.Write(addr.TIMA, 0xFF)

	tm.Tick(16) // triggers the edge that overflows TIMA 0xFF -> 0x00, starts 4-cycle delay
	require.Equal(t, byte(0x00), b.Read(addr.TIMA), "TIMA reads 0 during the reload delay")
	assert.Zero(t, b.Read(addr.IF)&byte(addr.TimerInterrupt))

	tm.Tick(3)
	assert.Equal(t, byte(0x00), b.Read(addr.TIMA), "still mid-delay")

	tm.Tick(1)
	assert.Equal(t, byte(0x50), b.Read(addr.TIMA), "TMA reloaded once the delay elapses")
	assert.NotZero(t, b.Read(addr.IF)&byte(addr.TimerInterrupt))
}

func TestWritingTIMADuringOverflowDelayCancelsReload(t *testing.T) {
	b := bus.New()
	tm := New()
	tm.Reset(b)

	b.Write(addr.TMA, 0x50)
	b.Write(addr.TAC, 0x05)
	b.Write(addr.TIMA, 0xFF)

	tm.Tick(16) // overflow, enters delay
	b.Write(addr.TIMA, 0x99)

	tm.Tick(4)
	assert.Equal(t, byte(0x99), b.Read(addr.TIMA), "explicit write during the delay wins over the TMA reload")
}

func TestTACUpperBitsAlwaysReadAsSet(t *testing.T) {
	b := bus.New()
	tm := New()
	tm.Reset(b)

	b.Write(addr.TAC, 0x02)
	assert.Equal(t, byte(0xFA), b.Read(addr.TAC))
}
