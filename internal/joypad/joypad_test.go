package joypad

import (
	"testing"

	"github.com/dmgcore/gbcore/internal/addr"
	"github.com/dmgcore/gbcore/internal/bus"
	"github.com/stretchr/testify/assert"
)

func TestPressReleaseRoundTrip(t *testing.T) {
	b := bus.New()
	j := New()
	j.Reset(b)

	b.Write(addr.P1, 0x10) // bit5=0 selects the buttons group
	before := b.Read(addr.P1)

	j.Press(A)
	j.Release(A)

	after := b.Read(addr.P1)
	assert.Equal(t, before, after, "press+release should restore the selected group's visible bits")
}

func TestPressRaisesJoypadInterruptOnEdge(t *testing.T) {
	b := bus.New()
	j := New()
	j.Reset(b)

	b.Write(addr.P1, 0x20) // bit4=0 selects the d-pad group
	j.Press(Right)

	assert.NotZero(t, b.Read(addr.IF)&byte(addr.JoypadInterrupt))
}

func TestSelectionGroupsDpadAndButtonsIndependently(t *testing.T) {
	b := bus.New()
	j := New()
	j.Reset(b)

	j.Press(Up)
	j.Press(Start)

	b.Write(addr.P1, 0x20) // bit4=0 selects the d-pad group
	dpadView := b.Read(addr.P1) & 0x0F
	assert.Equal(t, byte(0x0B), dpadView, "Up (bit2) should read 0 while others read 1")

	b.Write(addr.P1, 0x10) // bit5=0 selects the buttons group
	buttonsView := b.Read(addr.P1) & 0x0F
	assert.Equal(t, byte(0x07), buttonsView, "Start (bit3) should read 0 while others read 1")
}
