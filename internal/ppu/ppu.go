// Package ppu implements the scanline-based picture processing unit: the
// mode 0-3 timing state machine, DMG and CGB framebuffer output, VRAM
// banking, and the CGB background/object palette RAM exposed through
// BCPS/BCPD and OCPS/OCPD.
package ppu

import (
	"log/slog"

	"github.com/dmgcore/gbcore/internal/addr"
	"github.com/dmgcore/gbcore/internal/bit"
	"github.com/dmgcore/gbcore/internal/bus"
)

// Mode is the PPU's current rendering stage, matching STAT bits 0-1.
type Mode uint8

const (
	ModeHBlank Mode = 0
	ModeVBlank Mode = 1
	ModeOAM    Mode = 2
	ModeVRAM   Mode = 3
)

const (
	oamCycles    = 80
	vramCycles   = 172
	hblankCycles = 204
	ScanlineDots = oamCycles + vramCycles + hblankCycles // 456
	visibleLines = 144
	totalLines   = 154

	Width  = 160
	Height = 144
)

// STAT bit positions.
const (
	statLYCEqualsLY  = 2
	statHBlankIRQ    = 3
	statVBlankIRQ    = 4
	statOAMIRQ       = 5
	statLYCIRQ       = 6
)

// LCDC bit positions.
const (
	lcdcBGEnable        = 0
	lcdcObjEnable       = 1
	lcdcObjSize         = 2
	lcdcBGTileMap       = 3
	lcdcTileDataSelect  = 4
	lcdcWindowEnable    = 5
	lcdcWindowTileMap   = 6
	lcdcDisplayEnable   = 7
)

// ColorSystem selects which framebuffer the PPU renders into:
// FramebufferDMG (shade indices) or FramebufferCGB (packed BGR555).
type ColorSystem uint8

const (
	DMG ColorSystem = iota
	CGB
)

func (s ColorSystem) String() string {
	if s == CGB {
		return "CGB"
	}
	return "DMG"
}

// PPU owns VRAM, OAM, every LCD/palette register, and the mode timing state
// machine. It talks to the rest of the machine only through the Bus it was
// handed in Reset.
type PPU struct {
	bus    *bus.Bus
	system ColorSystem

	vram [2][0x2000]byte // bank 0 always present; bank 1 is CGB-only
	oam  [0xA0]byte

	lcdc, stat, scy, scx, ly, lyc byte
	bgp, obp0, obp1               byte
	wy, wx                        byte

	vbk  byte
	bcps byte
	ocps byte
	cram [2][64]byte // [0]=background, [1]=object, BGR555 packed pairs

	mode   Mode
	cycles int

	windowLineCounter int
	statLine          bool // previous combined STAT-interrupt condition, for edge detection

	// frameDMG/frameCGB are the exposed front buffer, swapped in atomically
	// at VBlank entry; backDMG/backCGB is what renderScanline writes into
	// mid-frame, so a caller reading Framebuffer* never observes a torn frame.
	frameDMG [Height][Width]byte   // 2-bit shade indices
	frameCGB [Height][Width]uint16 // packed BGR555
	backDMG  [Height][Width]byte
	backCGB  [Height][Width]uint16

	stallCycles int
}

// New returns an unattached PPU; call Reset to wire it to a bus.
func New(system ColorSystem) *PPU {
	return &PPU{system: system}
}

// Reset clears all PPU state and installs every LCD/VRAM/OAM/palette
// interceptor on b.
func (p *PPU) Reset(b *bus.Bus) {
	p.bus = b
	p.vram = [2][0x2000]byte{}
	p.oam = [0xA0]byte{}
	p.frameDMG = [Height][Width]byte{}
	p.frameCGB = [Height][Width]uint16{}
	p.backDMG = [Height][Width]byte{}
	p.backCGB = [Height][Width]uint16{}
	p.lcdc, p.stat, p.scy, p.scx, p.ly, p.lyc = 0x91, 0x85, 0, 0, 0, 0
	p.bgp, p.obp0, p.obp1 = 0xFC, 0xFF, 0xFF
	p.wy, p.wx = 0, 0
	p.vbk, p.bcps, p.ocps = 0, 0, 0
	p.cram = [2][64]byte{}
	p.mode = ModeOAM
	p.stat = p.stat&0xFC | byte(p.mode)
	p.cycles = 0
	p.windowLineCounter = 0
	p.statLine = false
	p.stallCycles = 0

	p.registerLCDRegisters(b)
	p.registerVRAM(b)
	p.registerOAM(b)
	p.registerPalettes(b)

	slog.Debug("ppu reset", "system", p.system)
}

func (p *PPU) registerLCDRegisters(b *bus.Bus) {
	reg := func(address uint16, get func() byte, set func(byte)) {
		b.RegisterRead(address, address, func(a uint16, current byte) (byte, bool) {
			return get(), true
		})
		b.RegisterWrite(address, address, func(a uint16, value byte) bool {
			set(value)
			return true
		})
	}

	reg(addr.LCDC, func() byte { return p.lcdc }, func(v byte) { p.lcdc = v })
	reg(addr.STAT, func() byte { return p.stat | 0x80 }, func(v byte) {
		p.stat = p.stat&0x07 | v&0x78
	})
	reg(addr.SCY, func() byte { return p.scy }, func(v byte) { p.scy = v })
	reg(addr.SCX, func() byte { return p.scx }, func(v byte) { p.scx = v })
	reg(addr.LY, func() byte { return p.ly }, func(v byte) {})
	reg(addr.LYC, func() byte { return p.lyc }, func(v byte) { p.lyc = v; p.updateLYCFlag() })
	reg(addr.BGP, func() byte { return p.bgp }, func(v byte) { p.bgp = v })
	reg(addr.OBP0, func() byte { return p.obp0 }, func(v byte) { p.obp0 = v })
	reg(addr.OBP1, func() byte { return p.obp1 }, func(v byte) { p.obp1 = v })
	reg(addr.WY, func() byte { return p.wy }, func(v byte) { p.wy = v })
	reg(addr.WX, func() byte { return p.wx }, func(v byte) { p.wx = v })

	if p.system == CGB {
		reg(addr.VBK, func() byte { return p.vbk | 0xFE }, func(v byte) { p.vbk = v & 0x01 })
	}
}

func (p *PPU) registerVRAM(b *bus.Bus) {
	b.RegisterRead(addr.VRAMStart, addr.VRAMEnd, func(a uint16, current byte) (byte, bool) {
		if p.vramLocked() {
			return 0xFF, true
		}
		return p.vram[p.activeVRAMBank()][a-addr.VRAMStart], true
	})
	b.RegisterWrite(addr.VRAMStart, addr.VRAMEnd, func(a uint16, value byte) bool {
		if p.vramLocked() {
			return true
		}
		p.vram[p.activeVRAMBank()][a-addr.VRAMStart] = value
		return true
	})
}

func (p *PPU) registerOAM(b *bus.Bus) {
	b.RegisterRead(addr.OAMStart, addr.OAMEnd, func(a uint16, current byte) (byte, bool) {
		if p.oamLocked() {
			return 0xFF, true
		}
		return p.oam[a-addr.OAMStart], true
	})
	b.RegisterWrite(addr.OAMStart, addr.OAMEnd, func(a uint16, value byte) bool {
		if p.oamLocked() {
			return true
		}
		p.oam[a-addr.OAMStart] = value
		return true
	})
}

func (p *PPU) registerPalettes(b *bus.Bus) {
	if p.system != CGB {
		return
	}

	regPalette := func(selAddr, dataAddr uint16, which int) {
		b.RegisterRead(selAddr, selAddr, func(a uint16, current byte) (byte, bool) {
			return p.cramSelect(which) | 0x40, true
		})
		b.RegisterWrite(selAddr, selAddr, func(a uint16, value byte) bool {
			p.setCRAMSelect(which, value)
			return true
		})
		b.RegisterRead(dataAddr, dataAddr, func(a uint16, current byte) (byte, bool) {
			return p.cram[which][p.cramIndex(which)], true
		})
		b.RegisterWrite(dataAddr, dataAddr, func(a uint16, value byte) bool {
			idx := p.cramIndex(which)
			p.cram[which][idx] = value
			if p.cramAutoIncrement(which) {
				p.setCRAMIndex(which, (idx+1)&0x3F)
			}
			return true
		})
	}

	regPalette(addr.BCPS, addr.BCPD, 0)
	regPalette(addr.OCPS, addr.OCPD, 1)
}

func (p *PPU) cramSelect(which int) byte {
	if which == 0 {
		return p.bcps
	}
	return p.ocps
}

func (p *PPU) setCRAMSelect(which int, value byte) {
	if which == 0 {
		p.bcps = value & 0xBF
	} else {
		p.ocps = value & 0xBF
	}
}

func (p *PPU) cramIndex(which int) byte    { return p.cramSelect(which) & 0x3F }
func (p *PPU) cramAutoIncrement(which int) bool { return p.cramSelect(which)&0x80 != 0 }

func (p *PPU) setCRAMIndex(which int, idx byte) {
	sel := p.cramSelect(which)&0xC0 | idx
	p.setCRAMSelect(which, sel)
}

func (p *PPU) activeVRAMBank() byte {
	if p.system == CGB {
		return p.vbk
	}
	return 0
}

func (p *PPU) vramLocked() bool {
	return p.displayEnabled() && p.mode == ModeVRAM
}

func (p *PPU) oamLocked() bool {
	return p.displayEnabled() && (p.mode == ModeOAM || p.mode == ModeVRAM)
}

func (p *PPU) displayEnabled() bool { return bit.IsSet(lcdcDisplayEnable, p.lcdc) }

// Stall adds PPU-visible stall cycles, used by OAM DMA: the PPU continues
// to advance its own mode timing even while the CPU is halted by DMA, so a
// stall simply gets folded into the next Tick's cycle budget.
func (p *PPU) Stall(cycles int) {
	p.stallCycles += cycles
}

// FramebufferDMG and FramebufferCGB return the most recently completed
// frame. FramebufferDMG points at 2-bit shade indices (0-3) per pixel;
// FramebufferCGB points at packed BGR555 per pixel. Callers select based on
// the ColorSystem New was created with.
func (p *PPU) FramebufferDMG() *[Height][Width]byte   { return &p.frameDMG }
func (p *PPU) FramebufferCGB() *[Height][Width]uint16 { return &p.frameCGB }

// swapBuffers publishes the just-completed frame by exchanging the back
// buffer renderScanline wrote into with the front buffer Framebuffer*
// exposes, at VBlank entry, so a caller never sees a partially-rendered
// frame mixed with the previous one.
func (p *PPU) swapBuffers() {
	p.frameDMG, p.backDMG = p.backDMG, p.frameDMG
	p.frameCGB, p.backCGB = p.backCGB, p.frameCGB
}

func (p *PPU) setMode(m Mode) {
	p.mode = m
	p.stat = p.stat&0xFC | byte(m)
	p.checkStatInterrupt()
}

func (p *PPU) setLY(line int) {
	p.ly = byte(line)
	p.updateLYCFlag()
}

func (p *PPU) updateLYCFlag() {
	equal := p.ly == p.lyc
	p.stat = p.stat&^(1<<statLYCEqualsLY) | boolBit(equal, statLYCEqualsLY)
	p.checkStatInterrupt()
}

func boolBit(v bool, pos uint8) byte {
	if v {
		return 1 << pos
	}
	return 0
}

// checkStatInterrupt implements the STAT interrupt line as a level, not an
// event: the interrupt fires on any 0->1 transition of the OR of the
// enabled conditions, matching real hardware's well-known "STAT IRQ
// blocking" behavior.
func (p *PPU) checkStatInterrupt() {
	line := (bit.IsSet(statLYCIRQ, p.stat) && bit.IsSet(statLYCEqualsLY, p.stat)) ||
		(bit.IsSet(statHBlankIRQ, p.stat) && p.mode == ModeHBlank) ||
		(bit.IsSet(statVBlankIRQ, p.stat) && p.mode == ModeVBlank) ||
		(bit.IsSet(statOAMIRQ, p.stat) && p.mode == ModeOAM)

	if line && !p.statLine {
		p.bus.RequestInterrupt(addr.LCDSTATInterrupt)
	}
	p.statLine = line
}

// Tick advances the PPU by the given number of T-cycles, stepping the mode
// state machine and rendering a scanline once per visit to mode 3.
func (p *PPU) Tick(cycles int) {
	if !p.displayEnabled() {
		return
	}

	cycles += p.stallCycles
	p.stallCycles = 0
	p.cycles += cycles

	for {
		consumed := p.stepMode()
		if consumed == 0 {
			break
		}
	}
}

// stepMode consumes exactly one mode transition's worth of p.cycles if
// enough have accumulated, returning the cycle budget it spent (0 if not
// enough cycles have accumulated yet, ending the Tick loop).
func (p *PPU) stepMode() int {
	switch p.mode {
	case ModeOAM:
		if p.cycles < oamCycles {
			return 0
		}
		p.cycles -= oamCycles
		p.setMode(ModeVRAM)
		return oamCycles

	case ModeVRAM:
		if p.cycles < vramCycles {
			return 0
		}
		p.cycles -= vramCycles
		p.renderScanline(int(p.ly))
		p.setMode(ModeHBlank)
		return vramCycles

	case ModeHBlank:
		if p.cycles < hblankCycles {
			return 0
		}
		p.cycles -= hblankCycles
		p.setLY(int(p.ly) + 1)
		if int(p.ly) == visibleLines {
			p.swapBuffers()
			p.setMode(ModeVBlank)
			p.windowLineCounter = 0
			p.bus.RequestInterrupt(addr.VBlankInterrupt)
		} else {
			p.setMode(ModeOAM)
		}
		return hblankCycles

	default: // ModeVBlank
		if p.cycles < ScanlineDots {
			return 0
		}
		p.cycles -= ScanlineDots
		if int(p.ly) == totalLines-1 {
			p.setLY(0)
			p.setMode(ModeOAM)
		} else {
			p.setLY(int(p.ly) + 1)
		}
		return ScanlineDots
	}
}
