package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dmgcore/gbcore"
	"github.com/dmgcore/gbcore/internal/config"
)

const frameTime = time.Second / 60

// shadeChars renders a DMG 2-bit shade index (0=lightest) as a glyph of
// increasing density.
var shadeChars = []rune{' ', '░', '▒', '█'}

type terminalRenderer struct {
	screen  tcell.Screen
	console *gbcore.Console
	running bool
}

func runTerminal(console *gbcore.Console, cfg config.Config) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("gbcore: failed to initialize terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("gbcore: failed to initialize terminal: %w", err)
	}

	t := &terminalRenderer{screen: screen, console: console, running: true}
	return t.run()
}

func (t *terminalRenderer) run() error {
	defer t.screen.Fini()

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)

	go t.handleInput()

	ticker := time.NewTicker(frameTime)
	defer ticker.Stop()

	for t.running {
		select {
		case <-ticker.C:
			t.console.RunFrame()
			t.render()
			t.screen.Show()
		case <-signals:
			slog.Info("received signal to stop")
			return nil
		}
	}

	return nil
}

func (t *terminalRenderer) handleInput() {
	for t.running {
		ev := t.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventKey:
			t.handleKey(ev)
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}
}

func (t *terminalRenderer) handleKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		t.running = false
	case tcell.KeyEnter:
		t.console.PressButton(gbcore.ButtonStart)
	case tcell.KeyRight:
		t.console.PressButton(gbcore.ButtonRight)
	case tcell.KeyLeft:
		t.console.PressButton(gbcore.ButtonLeft)
	case tcell.KeyUp:
		t.console.PressButton(gbcore.ButtonUp)
	case tcell.KeyDown:
		t.console.PressButton(gbcore.ButtonDown)
	case tcell.KeyRune:
		if button, ok := defaultKeyMap[ev.Rune()]; ok {
			t.console.PressButton(button)
		}
		if ev.Rune() == 'q' {
			t.running = false
		}
	}
}

func (t *terminalRenderer) render() {
	termWidth, termHeight := t.screen.Size()
	if termWidth < gbcore.ScreenWidth || termHeight < gbcore.ScreenHeight/2 {
		t.screen.Clear()
		style := tcell.StyleDefault.Foreground(tcell.ColorRed)
		msg := fmt.Sprintf("terminal too small, need at least %dx%d", gbcore.ScreenWidth, gbcore.ScreenHeight/2)
		for i, ch := range msg {
			t.screen.SetContent(i, termHeight/2, ch, nil, style)
		}
		return
	}

	style := tcell.StyleDefault
	for y := 0; y < gbcore.ScreenHeight; y += 2 {
		for x := 0; x < gbcore.ScreenWidth; x++ {
			// Combine two vertical pixels' shade into one glyph choice,
			// biased toward the darker of the pair.
			top := t.console.ShadeAt(x, y)
			bottom := top
			if y+1 < gbcore.ScreenHeight {
				bottom = t.console.ShadeAt(x, y+1)
			}
			shade := top
			if bottom > shade {
				shade = bottom
			}
			t.screen.SetContent(x, y/2, shadeChars[shade], nil, style)
		}
	}
}
