// Package apu implements the four-channel audio processing unit: the 512 Hz
// frame sequencer driving length/envelope/sweep, the square+sweep, square,
// wave and noise channels, NR10-NR52 register behavior, and stereo sample
// mixing drained by the caller at a configurable sample rate.
package apu

import (
	"github.com/dmgcore/gbcore/internal/addr"
	"github.com/dmgcore/gbcore/internal/bus"
)

// Provider is the debug/inspection surface exposed to a frontend: raw
// sample pull plus per-channel mute/solo toggles.
type Provider interface {
	GetSamples(count int) []float32
	ToggleChannel(channel int)
	SoloChannel(channel int)
	GetChannelStatus() (ch1, ch2, ch3, ch4 bool)
}

var _ Provider = (*APU)(nil)

// APU owns every audio register and channel, and accumulates stereo
// samples into an internal buffer that GetSamples drains.
type APU struct {
	bus *bus.Bus

	sampleRate      uint32
	cycleAccum      float64
	cyclesPerSample float64

	frameSeqCycles int
	frameSeqStep   int

	ch1 squareChannel
	ch2 squareChannel
	ch3 waveChannel
	ch4 noiseChannel

	nr50, nr51 byte
	powerOn    bool

	mute [4]bool
	solo [4]bool

	buffer []float32
}

// New returns an unattached APU configured for the given output sample
// rate; call Reset to wire it to a bus.
func New(sampleRate uint32) *APU {
	return &APU{sampleRate: sampleRate}
}

const cpuClock = 4194304

// Reset clears all channel/register state and installs the NR10-NR52 plus
// wave-RAM interceptors.
func (a *APU) Reset(b *bus.Bus) {
	a.bus = b
	a.ch1 = squareChannel{hasSweep: true}
	a.ch2 = squareChannel{}
	a.ch3 = waveChannel{}
	a.ch4 = noiseChannel{}
	a.nr50, a.nr51 = 0x77, 0xF3
	a.powerOn = true
	a.frameSeqCycles = 0
	a.frameSeqStep = 0
	a.buffer = a.buffer[:0]
	a.cyclesPerSample = float64(cpuClock) / float64(a.sampleRate)

	a.registerChannel1(b)
	a.registerChannel2(b)
	a.registerChannel3(b)
	a.registerChannel4(b)
	a.registerControlRegisters(b)
}

// regByte wires a single power-gated register: while a is powered down,
// writes to $FF10-$FF25 are ignored (NR52 itself is wired separately and
// is never gated).
func regByte(a *APU, b *bus.Bus, address uint16, mask byte, get func() byte, set func(byte)) {
	b.RegisterRead(address, address, func(addr uint16, current byte) (byte, bool) {
		return get() | mask, true
	})
	b.RegisterWrite(address, address, func(addr uint16, value byte) bool {
		if !a.powerOn {
			return true
		}
		set(value)
		return true
	})
}

func (a *APU) registerChannel1(b *bus.Bus) {
	c := &a.ch1
	regByte(a, b, addr.NR10, 0x80,
		func() byte { return c.sweepPeriod<<4 | boolByte(c.sweepNegate)<<3 | c.sweepShift },
		func(v byte) {
			c.sweepPeriod = (v >> 4) & 0x07
			c.sweepNegate = v&0x08 != 0
			c.sweepShift = v & 0x07
		})
	regByte(a, b, addr.NR11, 0x3F,
		func() byte { return c.duty << 6 },
		func(v byte) {
			c.duty = v >> 6
			c.length.counter = 64 - int(v&0x3F)
		})
	regByte(a, b, addr.NR12, 0x00,
		func() byte { return c.env.initialVolume<<4 | boolByte(c.env.increasing)<<3 | c.env.period },
		func(v byte) {
			c.env.initialVolume = v >> 4
			c.env.increasing = v&0x08 != 0
			c.env.period = v & 0x07
			c.dacEnabled = v&0xF8 != 0
			if !c.dacEnabled {
				c.enabled = false
			}
		})
	regByte(a, b, addr.NR13, 0xFF,
		func() byte { return 0 },
		func(v byte) { c.frequency = c.frequency&0x0700 | uint16(v) })
	regByte(a, b, addr.NR14, 0xBF,
		func() byte { return boolByte(c.length.enabled) << 6 },
		func(v byte) {
			c.frequency = c.frequency&0x00FF | uint16(v&0x07)<<8
			c.length.enabled = v&0x40 != 0
			if v&0x80 != 0 {
				c.trigger()
			}
		})
}

func (a *APU) registerChannel2(b *bus.Bus) {
	c := &a.ch2
	regByte(a, b, addr.NR21, 0x3F,
		func() byte { return c.duty << 6 },
		func(v byte) {
			c.duty = v >> 6
			c.length.counter = 64 - int(v&0x3F)
		})
	regByte(a, b, addr.NR22, 0x00,
		func() byte { return c.env.initialVolume<<4 | boolByte(c.env.increasing)<<3 | c.env.period },
		func(v byte) {
			c.env.initialVolume = v >> 4
			c.env.increasing = v&0x08 != 0
			c.env.period = v & 0x07
			c.dacEnabled = v&0xF8 != 0
			if !c.dacEnabled {
				c.enabled = false
			}
		})
	regByte(a, b, addr.NR23, 0xFF,
		func() byte { return 0 },
		func(v byte) { c.frequency = c.frequency&0x0700 | uint16(v) })
	regByte(a, b, addr.NR24, 0xBF,
		func() byte { return boolByte(c.length.enabled) << 6 },
		func(v byte) {
			c.frequency = c.frequency&0x00FF | uint16(v&0x07)<<8
			c.length.enabled = v&0x40 != 0
			if v&0x80 != 0 {
				c.trigger()
			}
		})
}

func (a *APU) registerChannel3(b *bus.Bus) {
	c := &a.ch3
	regByte(a, b, addr.NR30, 0x7F,
		func() byte { return boolByte(c.dacEnabled) << 7 },
		func(v byte) {
			c.dacEnabled = v&0x80 != 0
			if !c.dacEnabled {
				c.enabled = false
			}
		})
	regByte(a, b, addr.NR31, 0x00,
		func() byte { return 0 },
		func(v byte) { c.length.counter = 256 - int(v) })
	regByte(a, b, addr.NR32, 0x9F,
		func() byte { return c.volumeShift << 5 },
		func(v byte) { c.volumeShift = (v >> 5) & 0x03 })
	regByte(a, b, addr.NR33, 0xFF,
		func() byte { return 0 },
		func(v byte) { c.frequency = c.frequency&0x0700 | uint16(v) })
	regByte(a, b, addr.NR34, 0xBF,
		func() byte { return boolByte(c.length.enabled) << 6 },
		func(v byte) {
			c.frequency = c.frequency&0x00FF | uint16(v&0x07)<<8
			c.length.enabled = v&0x40 != 0
			if v&0x80 != 0 {
				c.trigger()
			}
		})

	b.RegisterRead(addr.WaveRAMStart, addr.WaveRAMEnd, func(address uint16, current byte) (byte, bool) {
		return c.ram[address-addr.WaveRAMStart], true
	})
	b.RegisterWrite(addr.WaveRAMStart, addr.WaveRAMEnd, func(address uint16, value byte) bool {
		c.ram[address-addr.WaveRAMStart] = value
		return true
	})
}

func (a *APU) registerChannel4(b *bus.Bus) {
	c := &a.ch4
	regByte(a, b, addr.NR41, 0xFF,
		func() byte { return 0 },
		func(v byte) { c.length.counter = 64 - int(v&0x3F) })
	regByte(a, b, addr.NR42, 0x00,
		func() byte { return c.env.initialVolume<<4 | boolByte(c.env.increasing)<<3 | c.env.period },
		func(v byte) {
			c.env.initialVolume = v >> 4
			c.env.increasing = v&0x08 != 0
			c.env.period = v & 0x07
			c.dacEnabled = v&0xF8 != 0
			if !c.dacEnabled {
				c.enabled = false
			}
		})
	regByte(a, b, addr.NR43, 0x00,
		func() byte { return c.clockShift<<4 | boolByte(c.widthMode7)<<3 | c.divisorCode },
		func(v byte) {
			c.clockShift = v >> 4
			c.widthMode7 = v&0x08 != 0
			c.divisorCode = v & 0x07
		})
	regByte(a, b, addr.NR44, 0xBF,
		func() byte { return boolByte(c.length.enabled) << 6 },
		func(v byte) {
			c.length.enabled = v&0x40 != 0
			if v&0x80 != 0 {
				c.trigger()
			}
		})
}

func (a *APU) registerControlRegisters(b *bus.Bus) {
	regByte(a, b, addr.NR50, 0x00, func() byte { return a.nr50 }, func(v byte) { a.nr50 = v })
	regByte(a, b, addr.NR51, 0x00, func() byte { return a.nr51 }, func(v byte) { a.nr51 = v })

	b.RegisterRead(addr.NR52, addr.NR52, func(address uint16, current byte) (byte, bool) {
		return a.nr52Value(), true
	})
	b.RegisterWrite(addr.NR52, addr.NR52, func(address uint16, value byte) bool {
		wasOn := a.powerOn
		a.powerOn = value&0x80 != 0

		if wasOn && !a.powerOn {
			a.powerOff()
		} else if !wasOn && a.powerOn {
			a.powerOnReset()
		}
		return true
	})
}

// powerOff zeroes every register in $FF10-$FF25 and disables all four
// channels, matching real hardware's response to clearing NR52 bit 7.
func (a *APU) powerOff() {
	a.ch1 = squareChannel{hasSweep: true}
	a.ch2 = squareChannel{}
	ram := a.ch3.ram // wave RAM is not part of $FF10-$FF25 and survives power-off
	a.ch3 = waveChannel{ram: ram}
	a.ch4 = noiseChannel{}
	a.nr50, a.nr51 = 0, 0
}

// powerOnReset resets the frame sequencer and each channel's duty/wave
// position when NR52 bit 7 transitions from cleared to set.
func (a *APU) powerOnReset() {
	a.frameSeqStep = 0
	a.frameSeqCycles = 0
	a.ch1.dutyPos = 0
	a.ch2.dutyPos = 0
	a.ch3.position = 0
}

func (a *APU) nr52Value() byte {
	v := byte(0x70)
	if a.powerOn {
		v |= 0x80
	}
	if a.ch1.enabled {
		v |= 0x01
	}
	if a.ch2.enabled {
		v |= 0x02
	}
	if a.ch3.enabled {
		v |= 0x04
	}
	if a.ch4.enabled {
		v |= 0x08
	}
	return v
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

// Tick advances the APU by cycles T-cycles: every channel's own frequency
// timer, the 512 Hz frame sequencer (length/sweep/envelope), and the
// sample-rate-paced output accumulation.
func (a *APU) Tick(cycles int) {
	if !a.powerOn {
		return
	}

	a.ch1.stepTimer(cycles)
	a.ch2.stepTimer(cycles)
	a.ch3.stepTimer(cycles)
	a.ch4.stepTimer(cycles)

	a.frameSeqCycles += cycles
	for a.frameSeqCycles >= cyclesPerStep {
		a.frameSeqCycles -= cyclesPerStep
		a.stepFrameSequencer()
	}

	a.cycleAccum += float64(cycles)
	for a.cycleAccum >= a.cyclesPerSample {
		a.cycleAccum -= a.cyclesPerSample
		left, right := a.mix()
		a.buffer = append(a.buffer, left, right)
	}
}

// stepFrameSequencer clocks length counters at steps 0,2,4,6 (256 Hz),
// the sweep unit at steps 2,6 (128 Hz), and envelopes at step 7 (64 Hz).
func (a *APU) stepFrameSequencer() {
	if a.frameSeqStep%2 == 0 {
		if a.ch1.length.step() {
			a.ch1.enabled = false
		}
		if a.ch2.length.step() {
			a.ch2.enabled = false
		}
		if a.ch3.length.step() {
			a.ch3.enabled = false
		}
		if a.ch4.length.step() {
			a.ch4.enabled = false
		}
	}
	if a.frameSeqStep == 2 || a.frameSeqStep == 6 {
		a.ch1.stepSweep()
	}
	if a.frameSeqStep == 7 {
		a.ch1.env.step()
		a.ch2.env.step()
		a.ch4.env.step()
	}

	a.frameSeqStep = (a.frameSeqStep + 1) % 8
}

// maxRawSample is the largest possible value mix can produce before
// normalization: 4 channels at their maximum DAC output (15) scaled by
// the maximum NR50 master volume (8).
const maxRawSample = 4 * 15 * 8

func (a *APU) mix() (left, right float32) {
	samples := [4]int{a.ch1.sample(), a.ch2.sample(), a.ch3.sample(), a.ch4.sample()}

	anySolo := a.solo[0] || a.solo[1] || a.solo[2] || a.solo[3]

	var l, r int
	for i, s := range samples {
		if a.mute[i] {
			continue
		}
		if anySolo && !a.solo[i] {
			continue
		}
		if a.nr51&(1<<(uint(i)+4)) != 0 {
			l += s
		}
		if a.nr51&(1<<uint(i)) != 0 {
			r += s
		}
	}

	leftVol := int((a.nr50>>4)&0x07) + 1
	rightVol := int(a.nr50&0x07) + 1

	return normalizeSample(l * leftVol), normalizeSample(r * rightVol)
}

// normalizeSample maps an unsigned raw mix in [0, maxRawSample] onto a
// signed [-1, 1] float sample, generalizing spec's "x/60 - 1" example to
// this mixer's actual maximum.
func normalizeSample(raw int) float32 {
	v := float32(raw)/(maxRawSample/2) - 1
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// GetSamples drains up to count interleaved stereo f32 samples in [-1,1]
// from the internal buffer (spec's audio_samples drain semantics).
func (a *APU) GetSamples(count int) []float32 {
	if count > len(a.buffer) {
		count = len(a.buffer)
	}
	out := make([]float32, count)
	copy(out, a.buffer[:count])
	a.buffer = a.buffer[count:]
	return out
}

// ToggleChannel mutes/unmutes channel i (1-4) for debugging.
func (a *APU) ToggleChannel(channel int) {
	if channel < 1 || channel > 4 {
		return
	}
	a.mute[channel-1] = !a.mute[channel-1]
}

// SoloChannel toggles solo for channel i (1-4); any channel with solo set
// silences every non-soloed channel.
func (a *APU) SoloChannel(channel int) {
	if channel < 1 || channel > 4 {
		return
	}
	a.solo[channel-1] = !a.solo[channel-1]
}

func (a *APU) GetChannelStatus() (ch1, ch2, ch3, ch4 bool) {
	return a.ch1.enabled, a.ch2.enabled, a.ch3.enabled, a.ch4.enabled
}
