// Package gbcore is the root orchestrator: it owns every unit (CPU, PPU,
// APU, Bus, MBC, Joypad, Timer, serial port) and drives them from a single
// step loop, exposing the narrow surface a frontend needs to run a ROM.
package gbcore

import (
	"fmt"

	"github.com/dmgcore/gbcore/internal/apu"
	"github.com/dmgcore/gbcore/internal/bus"
	"github.com/dmgcore/gbcore/internal/cart"
	"github.com/dmgcore/gbcore/internal/cpu"
	"github.com/dmgcore/gbcore/internal/joypad"
	"github.com/dmgcore/gbcore/internal/ppu"
	"github.com/dmgcore/gbcore/internal/serial"
	"github.com/dmgcore/gbcore/internal/timer"
	"github.com/dmgcore/gbcore/internal/timing"
)

// Button identifies one of the eight keys the core exposes to callers.
type Button = joypad.Button

const (
	ButtonRight  = joypad.Right
	ButtonLeft   = joypad.Left
	ButtonUp     = joypad.Up
	ButtonDown   = joypad.Down
	ButtonA      = joypad.A
	ButtonB      = joypad.B
	ButtonSelect = joypad.Select
	ButtonStart  = joypad.Start
)

// cyclesPerFrame is the number of T-cycles in one 154-scanline frame
// (70224 at normal speed).
const cyclesPerFrame = timing.FrameDots

// ScreenWidth and ScreenHeight are the fixed LCD dimensions in pixels.
const (
	ScreenWidth  = ppu.Width
	ScreenHeight = ppu.Height
)

// Constants exposed for callers that need the underlying clock shape
// rather than just a step/frame API: CPUClock is the T-cycle clock rate in
// Hz, ScanlineDots/Scanlines describe one frame's scanline grid, and
// FrameDots is the total T-cycles in one frame (CPUClock, ScanlineDots,
// Scanlines, FrameDots).
const (
	CPUClock     = timing.CPUClock
	ScanlineDots = timing.ScanlineDots
	Scanlines    = timing.Scanlines
	FrameDots    = timing.FrameDots
)

// Console is the root struct and entry point for running an emulation:
// it implements the external API of §6 (init/load/step/lcd/buttons/audio).
type Console struct {
	bus     *bus.Bus
	cpu     *cpu.CPU
	ppu     *ppu.PPU
	apu     *apu.APU
	timer   *timer.Timer
	joypad  *joypad.Joypad
	serial  *serial.Port
	mbc     cart.MBC
	header  cart.Header

	mode ppu.ColorSystem
}

// New creates an uninitialized Console; call Init before Load.
func New() *Console {
	return &Console{}
}

// Init performs one-time setup: sample_rate configures the APU's output
// rate. It must be called before Load.
func (c *Console) Init(sampleRate uint32) {
	c.bus = bus.New()
	c.cpu = cpu.New()
	c.apu = apu.New(sampleRate)
	c.timer = timer.New()
	c.joypad = joypad.New()
	c.serial = serial.New()
}

// Load parses the ROM header, allocates RAM if absent, resets every unit
// and installs the MBC's bus interceptors. Returns an error on an invalid
// logo or header checksum.
func (c *Console) Load(rom []byte, ram []byte) error {
	header, err := cart.ParseHeader(rom)
	if err != nil {
		return fmt.Errorf("gbcore: failed to load ROM: %w", err)
	}
	c.header = header

	c.mode = ppu.DMG
	if header.CGBFlag == 0x80 || header.CGBFlag == 0xC0 {
		c.mode = ppu.CGB
	}
	c.ppu = ppu.New(c.mode)

	c.mbc = cart.New(header, rom, ram)

	c.bus.Reset()
	c.mbc.Attach(c.bus)
	c.cpu.Reset(c.bus)
	c.ppu.Reset(c.bus)
	c.apu.Reset(c.bus)
	c.timer.Reset(c.bus)
	c.joypad.Reset(c.bus)
	c.serial.Reset(c.bus)

	return nil
}

// Step executes CPU+PPU+APU until the accumulated cycle count reaches at
// least minCycles, returning the actual number of cycles executed.
func (c *Console) Step(minCycles uint32) uint32 {
	var total uint32
	for total < minCycles {
		cycles := c.cpu.Step()

		c.ppu.Tick(cycles)
		c.apu.Tick(cycles)
		c.timer.Tick(cycles)
		c.serial.Tick(cycles)
		c.bus.NotifyStep(cycles)

		if stall := c.bus.TakePendingDMAStall(); stall > 0 {
			c.ppu.Stall(stall)
		}

		total += uint32(cycles)
	}
	return total
}

// RunFrame advances exactly one 70224-cycle frame; a convenience wrapper
// for frontends that don't need sub-frame granularity.
func (c *Console) RunFrame() {
	c.Step(cyclesPerFrame)
}

// LCD returns the current front framebuffer, packed per §6: DMG as
// 160x144x3 RGB888, CGB as 160x144x2 BGR555 (little-endian uint16 per
// pixel, as produced by the hardware's palette RAM).
func (c *Console) LCD() []byte {
	if c.mode == ppu.CGB {
		return c.lcdCGB()
	}
	return c.lcdDMG()
}

var dmgPaletteRGB = [4][3]byte{
	{0xFF, 0xFF, 0xFF},
	{0xAA, 0xAA, 0xAA},
	{0x55, 0x55, 0x55},
	{0x00, 0x00, 0x00},
}

func (c *Console) lcdDMG() []byte {
	fb := c.ppu.FramebufferDMG()
	out := make([]byte, ppu.Width*ppu.Height*3)
	i := 0
	for y := 0; y < ppu.Height; y++ {
		for x := 0; x < ppu.Width; x++ {
			shade := fb[y][x] & 0x03
			rgb := dmgPaletteRGB[shade]
			out[i], out[i+1], out[i+2] = rgb[0], rgb[1], rgb[2]
			i += 3
		}
	}
	return out
}

func (c *Console) lcdCGB() []byte {
	fb := c.ppu.FramebufferCGB()
	out := make([]byte, ppu.Width*ppu.Height*2)
	i := 0
	for y := 0; y < ppu.Height; y++ {
		for x := 0; x < ppu.Width; x++ {
			v := fb[y][x]
			out[i] = byte(v)
			out[i+1] = byte(v >> 8)
			i += 2
		}
	}
	return out
}

// ShadeAt returns the raw 2-bit DMG shade index (0=lightest..3=darkest) at
// (x,y), for frontends that render glyphs directly instead of decoding the
// RGB888 LCD() buffer. It is meaningless in CGB mode.
func (c *Console) ShadeAt(x, y int) byte {
	return c.ppu.FramebufferDMG()[y][x] & 0x03
}

// PressButton marks b as held, raising JOYPAD on a high-to-low edge.
func (c *Console) PressButton(b Button) { c.joypad.Press(b) }

// ReleaseButton marks b as released.
func (c *Console) ReleaseButton(b Button) { c.joypad.Release(b) }

// AudioSamples drains up to len(out)/2 interleaved stereo f32 samples in
// [-1,1] into out and returns how many stereo frames were written.
func (c *Console) AudioSamples(out []float32) int {
	samples := c.apu.GetSamples(len(out))
	n := copy(out, samples)
	return n / 2
}

// RAM returns the cartridge's external RAM backing array, for battery
// persistence; nil if the cartridge has no RAM.
func (c *Console) RAM() []byte {
	if c.mbc == nil {
		return nil
	}
	return c.mbc.RAM()
}

// Title returns the cartridge's cleaned title string.
func (c *Console) Title() string { return c.header.Title }

// Mode reports whether the loaded cartridge is running in DMG or CGB mode.
func (c *Console) Mode() ppu.ColorSystem { return c.mode }

// AudioProvider exposes per-channel mute/solo/status controls for a
// debugging frontend.
func (c *Console) AudioProvider() apu.Provider { return c.apu }

// Quit releases any resources held by the Console. The core itself holds
// no OS resources (no file handles, no OS audio/video device), so this is
// a no-op kept for symmetry with the external API's lifecycle.
func (c *Console) Quit() {}
