package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAppliesDefaults(t *testing.T) {
	c := New("game.gb")
	assert.Equal(t, uint32(44100), c.SampleRate)
	assert.Equal(t, 2, c.Scale)
	assert.Equal(t, BackendTerminal, c.Backend)
	assert.False(t, c.Headless)
}

func TestWithHeadlessOverridesBackend(t *testing.T) {
	c := New("game.gb", WithHeadless(60))
	assert.True(t, c.Headless)
	assert.Equal(t, BackendHeadless, c.Backend)
	assert.Equal(t, 60, c.Frames)
}

func TestOptionsCompose(t *testing.T) {
	c := New("game.gb", WithSampleRate(48000), WithScale(3), WithSnapshotInterval(10, "/tmp/snaps"))
	assert.Equal(t, uint32(48000), c.SampleRate)
	assert.Equal(t, 3, c.Scale)
	assert.Equal(t, 10, c.SnapshotInterval)
	assert.Equal(t, "/tmp/snaps", c.SnapshotDir)
}
