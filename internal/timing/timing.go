// Package timing holds the fixed clock constants that every unit derives
// its cadence from.
package timing

import "time"

const (
	// CPUClock is the Game Boy's T-cycle clock rate in Hz.
	CPUClock = 4194304
	// ScanlineDots is the number of dot-clocks in one scanline.
	ScanlineDots = 456
	// Scanlines is the number of scanlines per frame, visible + VBlank.
	Scanlines = 154
	// FrameDots is the number of dot-clocks (== T-cycles) in one full frame.
	FrameDots = ScanlineDots * Scanlines // 70224
	// FrameSequencerHz is the rate at which the APU's frame sequencer steps.
	FrameSequencerHz = 512
	// CyclesPerFrameSequencerStep is the T-cycle period of one frame-sequencer tick.
	CyclesPerFrameSequencerStep = CPUClock / FrameSequencerHz // 8192
	// DivIncrementCycles is the T-cycle period of one DIV register increment.
	DivIncrementCycles = 256
)

// TargetFPS returns the exact Game Boy frame rate.
func TargetFPS() float64 {
	return float64(CPUClock) / float64(FrameDots)
}

// FrameDuration returns the wall-clock duration of a single frame at the
// exact Game Boy frame rate.
func FrameDuration() time.Duration {
	return time.Duration(float64(time.Second) / TargetFPS())
}
