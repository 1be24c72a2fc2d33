//go:build sdl2

package main

import (
	"fmt"
	"log/slog"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/dmgcore/gbcore"
	"github.com/dmgcore/gbcore/internal/config"
)

// runSDL2 opens a real pixel-framebuffer window and pumps joypad events
// into the console until the window is closed or Escape/q is pressed.
func runSDL2(console *gbcore.Console, cfg config.Config) error {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("gbcore: failed to initialize SDL2: %w", err)
	}
	defer sdl.Quit()

	window, err := sdl.CreateWindow(
		"gbcore",
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(gbcore.ScreenWidth*cfg.Scale), int32(gbcore.ScreenHeight*cfg.Scale),
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		return fmt.Errorf("gbcore: failed to create window: %w", err)
	}
	defer window.Destroy()

	rendererFlags := uint32(sdl.RENDERER_ACCELERATED)
	if cfg.VSync {
		rendererFlags |= sdl.RENDERER_PRESENTVSYNC
	}
	renderer, err := sdl.CreateRenderer(window, -1, rendererFlags)
	if err != nil {
		return fmt.Errorf("gbcore: failed to create renderer: %w", err)
	}
	defer renderer.Destroy()

	texture, err := renderer.CreateTexture(
		sdl.PIXELFORMAT_RGB24,
		sdl.TEXTUREACCESS_STREAMING,
		int32(gbcore.ScreenWidth), int32(gbcore.ScreenHeight),
	)
	if err != nil {
		return fmt.Errorf("gbcore: failed to create texture: %w", err)
	}
	defer texture.Destroy()

	slog.Info("SDL2 backend initialized", "scale", cfg.Scale)

	running := true
	for running {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				running = false
			case *sdl.KeyboardEvent:
				running = handleSDLKey(console, e)
			}
		}

		console.RunFrame()

		frame := rgb888Frame(console)
		if err := texture.Update(nil, frame, gbcore.ScreenWidth*3); err != nil {
			return fmt.Errorf("gbcore: failed to update texture: %w", err)
		}

		renderer.Clear()
		renderer.Copy(texture, nil, nil)
		renderer.Present()
	}

	return nil
}

func handleSDLKey(console *gbcore.Console, e *sdl.KeyboardEvent) (running bool) {
	pressed := e.State == sdl.PRESSED

	var button gbcore.Button
	switch e.Keysym.Sym {
	case sdl.K_ESCAPE, sdl.K_q:
		return !pressed
	case sdl.K_RIGHT:
		button = gbcore.ButtonRight
	case sdl.K_LEFT:
		button = gbcore.ButtonLeft
	case sdl.K_UP:
		button = gbcore.ButtonUp
	case sdl.K_DOWN:
		button = gbcore.ButtonDown
	case sdl.K_RETURN:
		button = gbcore.ButtonStart
	case sdl.K_RSHIFT, sdl.K_LSHIFT:
		button = gbcore.ButtonSelect
	case sdl.K_z:
		button = gbcore.ButtonA
	case sdl.K_x:
		button = gbcore.ButtonB
	default:
		return true
	}

	if pressed {
		console.PressButton(button)
	} else {
		console.ReleaseButton(button)
	}
	return true
}
