// Package joypad models the P1 register and the eight-button key matrix.
package joypad

import (
	"github.com/dmgcore/gbcore/internal/addr"
	"github.com/dmgcore/gbcore/internal/bit"
	"github.com/dmgcore/gbcore/internal/bus"
)

// Button identifies one of the eight keys the core exposes to callers.
type Button uint8

const (
	Right Button = iota
	Left
	Up
	Down
	A
	B
	Select
	Start
)

// Joypad tracks button/d-pad state as inverse bitmasks (1 = released) and
// exposes the P1 register ($FF00) via bus interceptors.
type Joypad struct {
	bus *bus.Bus

	buttons uint8 // A,B,Select,Start -> bits 0-3
	dpad    uint8 // Right,Left,Up,Down -> bits 0-3
	select_ uint8 // bits 4-5 of P1, as last written
}

// New creates a Joypad with no wiring; call Reset to attach it to a bus.
func New() *Joypad {
	return &Joypad{buttons: 0x0F, dpad: 0x0F}
}

// Reset re-initializes key state and installs the P1 interceptors.
func (j *Joypad) Reset(b *bus.Bus) {
	j.bus = b
	j.buttons = 0x0F
	j.dpad = 0x0F
	j.select_ = 0x30

	b.RegisterRead(addr.P1, addr.P1, func(address uint16, current byte) (byte, bool) {
		return j.register(), true
	})
	b.RegisterWrite(addr.P1, addr.P1, func(address uint16, value byte) bool {
		j.select_ = value & 0x30
		return true
	})
}

// register computes the P1 byte as hardware would present it: bits 6-7
// always 1, bits 4-5 the stored selection, bits 0-3 the selected group
// (AND of both if both groups are selected, 0x0F if neither is).
func (j *Joypad) register() byte {
	result := byte(0xC0) | j.select_

	selectDpad := !bit.IsSet(4, j.select_)
	selectButtons := !bit.IsSet(5, j.select_)

	switch {
	case selectButtons && !selectDpad:
		result |= j.buttons & 0x0F
	case selectDpad && !selectButtons:
		result |= j.dpad & 0x0F
	case selectButtons && selectDpad:
		result |= j.buttons & j.dpad & 0x0F
	default:
		result |= 0x0F
	}

	return result
}

// Press clears the bit for the given button (0 = pressed) and raises the
// JOYPAD interrupt on a high-to-low edge.
func (j *Joypad) Press(button Button) {
	before := j.register()
	j.setBit(button, false)
	if j.bus != nil {
		j.requestInterruptIfEdge(before)
	}
}

// Release sets the bit for the given button (1 = released).
func (j *Joypad) Release(button Button) {
	j.setBit(button, true)
}

func (j *Joypad) setBit(button Button, released bool) {
	switch button {
	case Right:
		j.dpad = bit.SetTo(0, j.dpad, released)
	case Left:
		j.dpad = bit.SetTo(1, j.dpad, released)
	case Up:
		j.dpad = bit.SetTo(2, j.dpad, released)
	case Down:
		j.dpad = bit.SetTo(3, j.dpad, released)
	case A:
		j.buttons = bit.SetTo(0, j.buttons, released)
	case B:
		j.buttons = bit.SetTo(1, j.buttons, released)
	case Select:
		j.buttons = bit.SetTo(2, j.buttons, released)
	case Start:
		j.buttons = bit.SetTo(3, j.buttons, released)
	}
}

// requestInterruptIfEdge raises JOYPAD on any high-to-low transition of the
// currently visible nibble (the selected group may mask an individual
// button's bit, in which case no edge is observed).
func (j *Joypad) requestInterruptIfEdge(before byte) {
	if transitions := before & ^j.register() & 0x0F; transitions != 0 {
		j.bus.RequestInterrupt(addr.JoypadInterrupt)
	}
}
