package ppu

import (
	"sort"

	"github.com/dmgcore/gbcore/internal/bit"
)

// spriteHit is a single OAM entry selected during the per-scanline sprite
// search, already resolved to screen coordinates.
type spriteHit struct {
	oamIndex int
	x, y     int
	tile     byte
	attrs    byte
}

// renderScanline composes background, window and sprites for line and
// writes the result into the DMG/CGB framebuffer, per ColorSystem.
func (p *PPU) renderScanline(line int) {
	if line < 0 || line >= Height {
		return
	}

	bgIndices := [Width]byte{}  // raw 2-bit color index, before palette
	bgCGBAttrs := [Width]byte{} // CGB BG map attribute byte, for sprite priority

	if bit.IsSet(lcdcBGEnable, p.lcdc) || p.system == CGB {
		p.renderBackground(line, &bgIndices, &bgCGBAttrs)
	}
	if bit.IsSet(lcdcWindowEnable, p.lcdc) && p.wx <= 166 && line >= int(p.wy) {
		p.renderWindow(line, &bgIndices, &bgCGBAttrs)
	}

	var sprites []spriteHit
	if bit.IsSet(lcdcObjEnable, p.lcdc) {
		sprites = p.searchSprites(line)
	}

	for x := 0; x < Width; x++ {
		colorIndex, palette, useObjPalette, objPriorityOverBG := p.compositePixel(x, line, bgIndices[x], bgCGBAttrs[x], sprites)

		switch p.system {
		case CGB:
			p.backCGB[line][x] = p.cgbColor(useObjPalette, palette, colorIndex)
		default:
			shade := p.dmgShade(useObjPalette, palette, colorIndex)
			_ = objPriorityOverBG
			p.backDMG[line][x] = shade
		}
	}
}

func (p *PPU) renderBackground(line int, indices, attrs *[Width]byte) {
	tileMapBase := uint16(0x9800)
	if bit.IsSet(lcdcBGTileMap, p.lcdc) {
		tileMapBase = 0x9C00
	}

	y := (line + int(p.scy)) & 0xFF
	tileRow := y / 8
	tileLine := y % 8

	for x := 0; x < Width; x++ {
		scrolledX := (x + int(p.scx)) & 0xFF
		tileCol := scrolledX / 8
		pixelCol := scrolledX % 8

		mapIndex := tileMapBase + uint16(tileRow*32+tileCol) - 0x8000
		tileNum := p.vram[0][mapIndex]

		var tileAttr byte
		if p.system == CGB {
			tileAttr = p.vram[1][mapIndex]
		}

		idx, _ := p.tilePixel(tileNum, tileLine, pixelCol, tileAttr)
		indices[x] = idx
		attrs[x] = tileAttr
	}
}

func (p *PPU) renderWindow(line int, indices, attrs *[Width]byte) {
	tileMapBase := uint16(0x9800)
	if bit.IsSet(lcdcWindowTileMap, p.lcdc) {
		tileMapBase = 0x9C00
	}

	windowY := p.windowLineCounter
	tileRow := windowY / 8
	tileLine := windowY % 8

	wx := int(p.wx) - 7
	advancedLine := false

	for x := 0; x < Width; x++ {
		if x < wx {
			continue
		}
		advancedLine = true

		col := x - wx
		tileCol := col / 8
		pixelCol := col % 8

		mapIndex := tileMapBase + uint16(tileRow*32+tileCol) - 0x8000
		tileNum := p.vram[0][mapIndex]

		var tileAttr byte
		if p.system == CGB {
			tileAttr = p.vram[1][mapIndex]
		}

		idx, _ := p.tilePixel(tileNum, tileLine, pixelCol, tileAttr)
		indices[x] = idx
		attrs[x] = tileAttr
	}

	if advancedLine {
		p.windowLineCounter++
	}
}

// tilePixel decodes one pixel of a BG/window tile, honoring LCDC's tile
// data addressing mode and (CGB only) the attribute byte's vertical flip
// and VRAM bank select.
func (p *PPU) tilePixel(tileNum byte, tileLine, pixelCol int, cgbAttr byte) (index byte, usedBank1 bool) {
	bank := 0
	if p.system == CGB && cgbAttr&0x08 != 0 {
		bank = 1
	}

	if cgbAttr&0x40 != 0 { // Y flip
		tileLine = 7 - tileLine
	}
	if cgbAttr&0x20 != 0 { // X flip
		pixelCol = 7 - pixelCol
	}

	var base uint16
	if bit.IsSet(lcdcTileDataSelect, p.lcdc) {
		base = uint16(tileNum) * 16
	} else {
		base = uint16(0x1000 + int16(int8(tileNum))*16)
	}

	addr := base + uint16(tileLine)*2
	lo := p.vram[bank][addr]
	hi := p.vram[bank][addr+1]

	bitPos := 7 - pixelCol
	b0 := (lo >> bitPos) & 1
	b1 := (hi >> bitPos) & 1
	return b1<<1 | b0, bank == 1
}

// searchSprites scans OAM for up to 10 sprites intersecting line, in OAM
// order. On DMG the hits are then stably sorted by X, so the lower X wins
// and equal X falls back to the lower OAM index; CGB keeps pure OAM order.
func (p *PPU) searchSprites(line int) []spriteHit {
	height := 8
	if bit.IsSet(lcdcObjSize, p.lcdc) {
		height = 16
	}

	var hits []spriteHit
	for i := 0; i < 40 && len(hits) < 10; i++ {
		base := i * 4
		y := int(p.oam[base]) - 16
		x := int(p.oam[base+1]) - 8
		tile := p.oam[base+2]
		attrs := p.oam[base+3]

		if line < y || line >= y+height {
			continue
		}

		hits = append(hits, spriteHit{oamIndex: i, x: x, y: y, tile: tile, attrs: attrs})
	}

	if p.system != CGB {
		sort.SliceStable(hits, func(a, b int) bool { return hits[a].x < hits[b].x })
	}

	return hits
}

// compositePixel resolves the final color index and palette selection for
// one screen pixel, applying BG-vs-sprite priority rules.
func (p *PPU) compositePixel(x, line int, bgIndex, bgAttr byte, sprites []spriteHit) (colorIndex, palette byte, useObjPalette, objWins bool) {
	bgPalette := p.bgp
	if p.system == CGB {
		bgPalette = bgAttr & 0x07
	}

	height := 8
	if bit.IsSet(lcdcObjSize, p.lcdc) {
		height = 16
	}

	for _, s := range sprites {
		if x < s.x || x >= s.x+8 {
			continue
		}

		col := x - s.x
		row := line - s.y
		tile := s.tile
		if height == 16 {
			tile &^= 0x01
		}

		if s.attrs&0x20 != 0 { // X flip
			col = 7 - col
		}

		idx, _ := p.spriteTilePixel(tile, row, col, s.attrs, height)
		if idx == 0 {
			continue // transparent, fall through to lower-priority sprite or BG
		}

		bgPriority := s.attrs&0x80 != 0
		cgbBgPriority := p.system == CGB && bgAttr&0x80 != 0
		if (bgPriority || cgbBgPriority) && bgIndex != 0 {
			return bgIndex, bgPalette, false, false
		}

		if p.system == CGB {
			return idx, s.attrs & 0x07, true, true
		}
		if s.attrs&0x10 != 0 {
			return idx, p.obp1, true, true
		}
		return idx, p.obp0, true, true
	}

	return bgIndex, bgPalette, false, false
}

func (p *PPU) spriteTilePixel(tile byte, row, col int, attrs byte, height int) (byte, bool) {
	if attrs&0x40 != 0 { // Y flip
		row = height - 1 - row
	}

	bank := 0
	if p.system == CGB && attrs&0x08 != 0 {
		bank = 1
	}

	base := uint16(tile) * 16
	addr := base + uint16(row)*2
	lo := p.vram[bank][addr]
	hi := p.vram[bank][addr+1]

	bitPos := 7 - col
	b0 := (lo >> bitPos) & 1
	b1 := (hi >> bitPos) & 1
	return b1<<1 | b0, bank == 1
}

// dmgShade applies the DMG 4-shade palette (BGP/OBP0/OBP1) to a raw 2-bit
// color index.
func (p *PPU) dmgShade(isObj bool, palette, index byte) byte {
	return (palette >> (index * 2)) & 0x03
}

// cgbColor looks up a packed BGR555 color from CRAM for the given palette
// index (0-7) and color index (0-3).
func (p *PPU) cgbColor(isObj bool, paletteIndex, colorIndex byte) uint16 {
	which := 0
	if isObj {
		which = 1
	}
	offset := int(paletteIndex)*8 + int(colorIndex)*2
	lo := p.cram[which][offset]
	hi := p.cram[which][offset+1]
	return uint16(hi)<<8 | uint16(lo)
}
