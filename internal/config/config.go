// Package config holds the small set of run-time options the CLI exposes:
// sample rate, display scale, headless/terminal backend selection and
// frame-limiting. It mirrors the flag-struct + functional-options shape of
// the frontend's own command definitions rather than anything in the core.
package config

// Backend selects which frontend renders the framebuffer.
type Backend string

const (
	BackendTerminal Backend = "terminal"
	BackendSDL2     Backend = "sdl2"
	BackendHeadless Backend = "headless"
)

// Config is the resolved set of options a frontend runs with.
type Config struct {
	ROMPath string

	SampleRate uint32
	Scale      int
	Backend    Backend

	Headless bool
	Frames   int

	SnapshotInterval int
	SnapshotDir      string

	VSync bool
}

// Option mutates a Config during construction.
type Option func(*Config)

// WithSampleRate overrides the default 44100 Hz APU output rate.
func WithSampleRate(rate uint32) Option {
	return func(c *Config) { c.SampleRate = rate }
}

// WithScale sets the SDL2 backend's window scale factor; the terminal
// backend draws at a fixed size and does not use it.
func WithScale(scale int) Option {
	return func(c *Config) { c.Scale = scale }
}

// WithBackend selects the rendering backend.
func WithBackend(b Backend) Option {
	return func(c *Config) { c.Backend = b }
}

// WithHeadless runs the given number of frames with no display backend.
func WithHeadless(frames int) Option {
	return func(c *Config) {
		c.Headless = true
		c.Backend = BackendHeadless
		c.Frames = frames
	}
}

// WithSnapshotInterval saves a PNG snapshot every N frames in headless
// mode; 0 disables snapshotting.
func WithSnapshotInterval(n int, dir string) Option {
	return func(c *Config) {
		c.SnapshotInterval = n
		c.SnapshotDir = dir
	}
}

// WithVSync enables the SDL2 backend's vsync-paced present.
func WithVSync(v bool) Option {
	return func(c *Config) { c.VSync = v }
}

// New returns a Config with the defaults a bare `gbcore run <rom>` uses,
// with opts applied on top.
func New(romPath string, opts ...Option) Config {
	c := Config{
		ROMPath:    romPath,
		SampleRate: 44100,
		Scale:      2,
		Backend:    BackendTerminal,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
