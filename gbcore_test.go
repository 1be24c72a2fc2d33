package gbcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nintendoLogo = [48]byte{
	0xCE, 0xED, 0x66, 0x66, 0xCC, 0x0D, 0x00, 0x0B, 0x03, 0x73, 0x00, 0x83,
	0x00, 0x0C, 0x00, 0x0D, 0x00, 0x08, 0x11, 0x1F, 0x88, 0x89, 0x00, 0x0E,
	0xDC, 0xCC, 0x6E, 0xE6, 0xDD, 0xDD, 0xD9, 0x99, 0xBB, 0xBB, 0x67, 0x63,
	0x6E, 0x0E, 0xEC, 0xCC, 0xDD, 0xDC, 0x99, 0x9F, 0xBB, 0xB9, 0x33, 0x3E,
}

func makeROM(t *testing.T, banks int, cartType, romSizeCode, ramSizeCode byte) []byte {
	t.Helper()
	rom := make([]byte, banks*0x4000)
	copy(rom[0x0104:0x0104+48], nintendoLogo[:])
	copy(rom[0x0134:0x0134+7], []byte("TESTROM"))
	rom[0x0147] = cartType
	rom[0x0148] = romSizeCode
	rom[0x0149] = ramSizeCode

	var sum byte
	for i := 0x0134; i <= 0x014C; i++ {
		sum = sum - rom[i] - 1
	}
	rom[0x014D] = sum

	// An infinite JR -2 loop at the entry point, so Step doesn't run off
	// into uninitialized memory during tests that don't care about the
	// program itself.
	rom[0x0100] = 0x18 // JR r8
	rom[0x0101] = 0xFE // -2

	return rom
}

func TestLoadRejectsBadLogo(t *testing.T) {
	rom := makeROM(t, 2, 0x00, 0x00, 0x00)
	rom[0x0104] = 0x00 // corrupt the logo

	c := New()
	c.Init(44100)
	err := c.Load(rom, nil)
	require.Error(t, err)
}

func TestLoadAndStepRunsAtLeastMinCycles(t *testing.T) {
	rom := makeROM(t, 2, 0x00, 0x00, 0x00)

	c := New()
	c.Init(44100)
	require.NoError(t, c.Load(rom, nil))

	executed := c.Step(1000)
	assert.GreaterOrEqual(t, executed, uint32(1000))
}

func TestLYProgressesToZeroAfterAFullFrame(t *testing.T) {
	rom := makeROM(t, 2, 0x00, 0x00, 0x00)

	c := New()
	c.Init(44100)
	require.NoError(t, c.Load(rom, nil))
	c.bus.Write(0xFF40, 0x91) // LCDC: display + BG enabled

	c.Step(cyclesPerFrame)

	assert.Equal(t, byte(0), c.bus.Read(0xFF44)&0xFF, "LY should have wrapped back to 0 after a full frame")
}

func TestLCDReturnsRGB888SizedBufferForDMG(t *testing.T) {
	rom := makeROM(t, 2, 0x00, 0x00, 0x00)

	c := New()
	c.Init(44100)
	require.NoError(t, c.Load(rom, nil))

	frame := c.LCD()
	assert.Len(t, frame, 160*144*3)
}

func TestPressThenReleaseLeavesP1Unchanged(t *testing.T) {
	rom := makeROM(t, 2, 0x00, 0x00, 0x00)

	c := New()
	c.Init(44100)
	require.NoError(t, c.Load(rom, nil))

	c.bus.Write(0xFF00, 0x20) // select the d-pad group
	before := c.bus.Read(0xFF00)

	c.PressButton(ButtonUp)
	c.ReleaseButton(ButtonUp)

	after := c.bus.Read(0xFF00)
	assert.Equal(t, before&0x0F, after&0x0F)
}

func TestMBC1CartridgeLoadsAndRunsUnderOrchestrator(t *testing.T) {
	rom := makeROM(t, 64, 0x01, 0x05, 0x00) // MBC1, 64 banks

	c := New()
	c.Init(44100)
	require.NoError(t, c.Load(rom, nil))
	assert.Equal(t, "MBC1", c.header.Kind.String())

	executed := c.Step(1000)
	assert.GreaterOrEqual(t, executed, uint32(1000))
}

func TestExportedClockConstantsMatchHardware(t *testing.T) {
	assert.Equal(t, 4194304, CPUClock)
	assert.Equal(t, 456, ScanlineDots)
	assert.Equal(t, 154, Scanlines)
	assert.Equal(t, 70224, FrameDots)
	assert.Equal(t, ScanlineDots*Scanlines, FrameDots)
}
