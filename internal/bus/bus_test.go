package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadWriteRoundTrip(t *testing.T) {
	b := New()
	b.Write(0xC010, 0x42)
	assert.Equal(t, byte(0x42), b.Read(0xC010))
}

func TestEchoRAMMirrorsWorkRAM(t *testing.T) {
	b := New()
	b.Write(0xC005, 0x7A)
	assert.Equal(t, byte(0x7A), b.Read(0xE005), "echo RAM should mirror WRAM on read")

	b.Write(0xE010, 0x99)
	assert.Equal(t, byte(0x99), b.Read(0xC010), "writes through echo RAM should land in WRAM")
}

func TestUnusedRAMReadsHighWritesDiscarded(t *testing.T) {
	b := New()
	b.Write(0xFEA5, 0x55)
	assert.Equal(t, byte(0xFF), b.Read(0xFEA5))
}

func TestOAMDMACopiesAndStalls(t *testing.T) {
	b := New()
	for i := uint16(0); i < 0xA0; i++ {
		b.Write(0xC000+i, byte(i))
	}

	b.Write(0xFF46, 0xC0)

	for i := uint16(0); i < 0xA0; i++ {
		assert.Equal(t, byte(i), b.Read(0xFE00+i))
	}
	assert.Equal(t, 160, b.TakePendingDMAStall())
	assert.Equal(t, 0, b.TakePendingDMAStall(), "stall should be consumed exactly once")
}

func TestInterceptorChainOrderMatters(t *testing.T) {
	b := New()
	var order []string

	b.RegisterRead(0xD000, 0xD000, func(address uint16, current byte) (byte, bool) {
		order = append(order, "first")
		return current, false
	})
	b.RegisterRead(0xD000, 0xD000, func(address uint16, current byte) (byte, bool) {
		order = append(order, "second")
		return 0x11, true
	})
	b.RegisterRead(0xD000, 0xD000, func(address uint16, current byte) (byte, bool) {
		order = append(order, "third")
		return 0x22, true
	})

	assert.Equal(t, byte(0x11), b.Read(0xD000))
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestInterruptFlagUpperBitsAlwaysRead1(t *testing.T) {
	b := New()
	b.Write(0xFF0F, 0x01)
	assert.Equal(t, byte(0xE1), b.Read(0xFF0F))
}

func TestSubscribersReceiveStepCycles(t *testing.T) {
	b := New()
	var total int
	b.Subscribe(func(cycles int) { total += cycles })
	b.NotifyStep(4)
	b.NotifyStep(12)
	assert.Equal(t, 16, total)
}
