//go:build !sdl2

package main

import (
	"fmt"

	"github.com/dmgcore/gbcore"
	"github.com/dmgcore/gbcore/internal/config"
)

// runSDL2 is stubbed out when the module is built without the `sdl2` tag,
// so gbcore never hard-depends on cgo/SDL2 at rest.
func runSDL2(console *gbcore.Console, cfg config.Config) error {
	return fmt.Errorf("gbcore: SDL2 backend not available - build with -tags sdl2 and install SDL2 development libraries")
}
