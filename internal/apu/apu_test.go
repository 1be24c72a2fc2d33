package apu

import (
	"testing"

	"github.com/dmgcore/gbcore/internal/addr"
	"github.com/dmgcore/gbcore/internal/bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPU(t *testing.T) (*APU, *bus.Bus) {
	t.Helper()
	b := bus.New()
	a := New(44100)
	a.Reset(b)
	return a, b
}

func TestCh1TriggerProducesNonZeroSampleAtFullVolume(t *testing.T) {
	a, b := newTestAPU(t)

	b.Write(addr.NR10, 0x00) // no sweep
	b.Write(addr.NR11, 0x80) // duty 2 (50%)
	b.Write(addr.NR12, 0xF0) // initial volume 15, no envelope sweep
	b.Write(addr.NR13, 0x00)
	b.Write(addr.NR14, 0x87) // trigger, freq high bits 0b111

	require.True(t, a.ch1.enabled)
	require.True(t, a.ch1.dacEnabled)
	assert.Equal(t, 15, a.ch1.env.volume)

	// duty 2's table is {1,0,0,0,0,1,1,1}; position 0 is high.
	assert.Equal(t, 15, a.ch1.sample())
}

func TestLengthCounterDisablesChannelWhenEnabled(t *testing.T) {
	a, b := newTestAPU(t)

	b.Write(addr.NR11, 0x3F) // duty 0, length load 63 -> counter=1
	b.Write(addr.NR12, 0xF0)
	b.Write(addr.NR14, 0xC7) // trigger with length enable set

	require.True(t, a.ch1.enabled)
	require.Equal(t, 1, a.ch1.length.counter)

	// Length-counter clocks occur at frame-sequencer steps 0 and 2,
	// 2*cyclesPerStep T-cycles apart; only the first is needed here
	// since the counter started at 1.
	a.Tick(cyclesPerStep)

	assert.False(t, a.ch1.enabled, "channel should disable once length counter reaches zero")
}

func TestSweepOverflowDisablesChannel(t *testing.T) {
	a, _ := newTestAPU(t)

	a.ch1.dacEnabled = true
	a.ch1.sweepPeriod = 1
	a.ch1.sweepShift = 1
	a.ch1.sweepNegate = false
	a.ch1.frequency = 2047 // shadow+delta will overflow past 2047 immediately
	a.ch1.trigger()

	assert.False(t, a.ch1.enabled, "initial overflow check at trigger time disables the channel")
}

func TestEnvelopeStepsAtQuarterRate(t *testing.T) {
	a, b := newTestAPU(t)

	b.Write(addr.NR12, 0x09) // volume 0, increasing, period 1
	b.Write(addr.NR14, 0x80) // trigger

	require.Equal(t, 0, a.ch1.env.volume)

	// Envelope clocks only on frame-sequencer step 7, i.e. after 8 steps.
	for i := 0; i < 8; i++ {
		a.Tick(cyclesPerStep)
	}

	assert.Equal(t, 1, a.ch1.env.volume)
}

func TestWaveChannelReadsNibblesFromRAM(t *testing.T) {
	a, b := newTestAPU(t)

	b.Write(addr.NR30, 0x80) // DAC on
	b.Write(addr.NR32, 0x20) // volume shift 1 -> 100%
	b.Write(0xFF30, 0xAB)
	b.Write(addr.NR33, 0x00)
	b.Write(addr.NR34, 0x80) // trigger

	require.True(t, a.ch3.enabled)
	assert.Equal(t, int(0xA), a.ch3.sample(), "first nibble read is the high nibble at full volume")
}

func TestNoiseChannelLFSRProducesDeterministicFirstSample(t *testing.T) {
	a, b := newTestAPU(t)

	b.Write(addr.NR42, 0xF0) // volume 15, no envelope sweep
	b.Write(addr.NR43, 0x00) // fastest clock, 15-bit mode
	b.Write(addr.NR44, 0x80) // trigger

	require.True(t, a.ch4.enabled)
	assert.Equal(t, uint16(0x7FFF), a.ch4.lfsr)
	// bit0 of 0x7FFF is set, so the channel outputs silence until the LFSR shifts.
	assert.Equal(t, 0, a.ch4.sample())
}

func TestNR52ReflectsChannelEnableStatus(t *testing.T) {
	_, b := newTestAPU(t)

	b.Write(addr.NR12, 0xF0)
	b.Write(addr.NR14, 0x80) // trigger ch1

	status := b.Read(addr.NR52)
	assert.NotZero(t, status&0x01, "ch1 enabled bit should be set")
	assert.NotZero(t, status&0x80, "power-on bit should read back set")
}

func TestMasterPowerOffSilencesAllChannels(t *testing.T) {
	a, b := newTestAPU(t)

	b.Write(addr.NR12, 0xF0)
	b.Write(addr.NR14, 0x80)
	require.True(t, a.ch1.enabled)

	b.Write(addr.NR52, 0x00) // power off
	assert.False(t, a.ch1.enabled)
	assert.False(t, a.powerOn)
	assert.Equal(t, byte(0x00), b.Read(addr.NR12), "power-off zeroes $FF10-$FF25")
	assert.Equal(t, byte(0x00), b.Read(addr.NR50))
	assert.Equal(t, byte(0x00), b.Read(addr.NR51))

	b.Write(addr.NR12, 0xF0) // register writes while powered off are ignored
	assert.Equal(t, byte(0x00), b.Read(addr.NR12))

	a.ch1.dutyPos, a.ch2.dutyPos, a.ch3.position = 3, 5, 7
	a.frameSeqStep = 4

	b.Write(addr.NR52, 0x80) // power on
	assert.True(t, a.powerOn)
	assert.Equal(t, 0, a.frameSeqStep, "power-on resets the frame sequencer")
	assert.Equal(t, 0, a.ch1.dutyPos)
	assert.Equal(t, 0, a.ch2.dutyPos)
	assert.Equal(t, 0, a.ch3.position)
}

func TestMixNormalizesIntoSignedUnitRange(t *testing.T) {
	a, b := newTestAPU(t)

	b.Write(addr.NR10, 0x00)
	b.Write(addr.NR11, 0x80)
	b.Write(addr.NR12, 0xF0) // full volume
	b.Write(addr.NR14, 0x87) // trigger

	left, right := a.mix()
	assert.Equal(t, float32(-0.5), left, "one channel at volume 15 on both NR51 sides mixes to 120, i.e. 120/240-1")
	assert.LessOrEqual(t, left, float32(1))
	assert.Equal(t, left, right, "NR51 defaults route ch1 to both channels")

	silentLeft, silentRight := normalizeSample(0), normalizeSample(0)
	assert.Equal(t, float32(-1), silentLeft)
	assert.Equal(t, float32(-1), silentRight)
}

func TestGetSamplesDrainsAccumulatedBuffer(t *testing.T) {
	a, b := newTestAPU(t)
	b.Write(addr.NR12, 0xF0)
	b.Write(addr.NR14, 0x80)

	a.Tick(10000) // enough T-cycles to accumulate several samples at 44.1kHz
	before := len(a.buffer)
	require.GreaterOrEqual(t, before, 4)

	samples := a.GetSamples(4)
	assert.Len(t, samples, 4)
	assert.Equal(t, before-4, len(a.buffer), "drained samples are removed from the buffer")
}
