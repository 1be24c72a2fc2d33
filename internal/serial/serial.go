// Package serial implements the link-cable port as a logging sink: it
// accepts outgoing bytes and writes them to a structured logger a line at
// a time, which is sufficient to run test ROMs that report pass/fail over
// serial without an actual second Game Boy on the other end.
package serial

import (
	"log/slog"

	"github.com/dmgcore/gbcore/internal/addr"
	"github.com/dmgcore/gbcore/internal/bit"
	"github.com/dmgcore/gbcore/internal/bus"
)

// Port is a dummy serial device that logs outgoing bytes as text.
type Port struct {
	bus *bus.Bus

	sb, sc         byte
	transferActive bool
	countdown      int
	logger         *slog.Logger

	immediate bool
	defaultRX byte

	line []byte
}

// Option configures a Port at construction time.
type Option func(*Port)

// WithFixedTiming makes transfers complete after a fixed countdown
// (~4096 T-cycles per byte on DMG) instead of instantly.
func WithFixedTiming() Option { return func(p *Port) { p.immediate = false } }

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option { return func(p *Port) { p.logger = l } }

// New creates a serial port; call Reset to wire it to a bus.
func New(opts ...Option) *Port {
	p := &Port{
		immediate: true,
		defaultRX: 0xFF,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Port) Reset(b *bus.Bus) {
	p.bus = b
	p.sb = 0x00
	p.sc = 0x00
	p.transferActive = false
	p.countdown = 0
	p.line = p.line[:0]

	b.RegisterRead(addr.SB, addr.SB, func(address uint16, current byte) (byte, bool) {
		return p.sb, true
	})
	b.RegisterWrite(addr.SB, addr.SB, func(address uint16, value byte) bool {
		p.sb = value
		return true
	})
	b.RegisterRead(addr.SC, addr.SC, func(address uint16, current byte) (byte, bool) {
		return p.sc | 0x7E, true
	})
	b.RegisterWrite(addr.SC, addr.SC, func(address uint16, value byte) bool {
		p.sc = value
		p.maybeStartTransfer()
		return true
	})
}

// Tick advances any in-flight fixed-timing transfer by cycles T-cycles.
func (p *Port) Tick(cycles int) {
	if p.immediate || !p.transferActive {
		return
	}
	p.countdown -= cycles
	if p.countdown <= 0 {
		p.completeTransfer()
		p.countdown = 0
	}
}

func (p *Port) maybeStartTransfer() {
	if p.transferActive {
		return
	}
	// A transfer starts when bit 7 (start) and bit 0 (internal clock) of SC are set.
	if !bit.IsSet(7, p.sc) || !bit.IsSet(0, p.sc) {
		return
	}

	b := p.sb
	if b == 0 || b == '\n' || b == '\r' {
		if len(p.line) > 0 {
			p.logger.Info("serial", "line", string(p.line))
			p.line = p.line[:0]
		}
	} else {
		p.line = append(p.line, b)
	}

	if p.immediate {
		p.completeTransfer()
		return
	}

	p.transferActive = true
	p.countdown = 4096
}

func (p *Port) completeTransfer() {
	p.sb = p.defaultRX
	p.sc = bit.Reset(7, p.sc)
	p.transferActive = false
	if p.bus != nil {
		p.bus.RequestInterrupt(addr.SerialInterrupt)
	}
}
