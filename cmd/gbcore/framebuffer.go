package main

import (
	"github.com/dmgcore/gbcore"
	"github.com/dmgcore/gbcore/internal/ppu"
)

// rgb888Frame converts console.LCD()'s mode-dependent packing (DMG RGB888,
// CGB BGR555) into a flat RGB888 buffer, so every frontend backend can treat
// the frame uniformly regardless of which mode the loaded ROM selected.
func rgb888Frame(console *gbcore.Console) []byte {
	frame := console.LCD()
	if console.Mode() != ppu.CGB {
		return frame
	}

	out := make([]byte, gbcore.ScreenWidth*gbcore.ScreenHeight*3)
	for i, o := 0, 0; i < len(frame); i, o = i+2, o+3 {
		v := uint16(frame[i]) | uint16(frame[i+1])<<8
		r, g, b := bgr555ToRGB888(v)
		out[o], out[o+1], out[o+2] = r, g, b
	}
	return out
}

// bgr555ToRGB888 expands a packed BGR555 color (5 bits per channel, as read
// from CGB palette RAM) to 8 bits per channel by replicating the top bits
// into the low bits, the same bit-expansion real CGB hardware's LCD does.
func bgr555ToRGB888(v uint16) (r, g, b byte) {
	r5 := byte(v & 0x1F)
	g5 := byte((v >> 5) & 0x1F)
	b5 := byte((v >> 10) & 0x1F)
	return r5<<3 | r5>>2, g5<<3 | g5>>2, b5<<3 | b5>>2
}
