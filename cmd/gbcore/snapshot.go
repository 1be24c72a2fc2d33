package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/urfave/cli"
	"golang.org/x/image/draw"

	"github.com/dmgcore/gbcore"
	"github.com/dmgcore/gbcore/internal/config"
)

var snapshotFlags = []cli.Flag{
	cli.StringFlag{Name: "rom", Usage: "path to the ROM file"},
	cli.IntFlag{Name: "frames", Usage: "frames to run before snapshotting", Value: 1},
	cli.StringFlag{Name: "out", Usage: "output PNG path", Value: "snapshot.png"},
	cli.IntFlag{Name: "scale", Usage: "upscale factor applied to the 160x144 frame", Value: 1},
}

func snapshotCommand(c *cli.Context) error {
	romPath, err := romPathFrom(c)
	if err != nil {
		return err
	}

	cfg := config.New(romPath, config.WithHeadless(c.Int("frames")))
	console, err := loadConsole(cfg)
	if err != nil {
		return err
	}
	defer console.Quit()

	for i := 0; i < cfg.Frames; i++ {
		console.RunFrame()
	}

	return saveSnapshotPNGScaled(console, c.String("out"), c.Int("scale"))
}

func saveSnapshotPNG(console *gbcore.Console, path string) error {
	return saveSnapshotPNGScaled(console, path, 1)
}

func saveSnapshotPNGScaled(console *gbcore.Console, path string, scale int) error {
	img := image.NewRGBA(image.Rect(0, 0, gbcore.ScreenWidth, gbcore.ScreenHeight))
	frame := rgb888Frame(console)

	i := 0
	for y := 0; y < gbcore.ScreenHeight; y++ {
		for x := 0; x < gbcore.ScreenWidth; x++ {
			img.Set(x, y, color.RGBA{R: frame[i], G: frame[i+1], B: frame[i+2], A: 0xFF})
			i += 3
		}
	}

	out := image.Image(img)
	if scale > 1 {
		dst := image.NewRGBA(image.Rect(0, 0, gbcore.ScreenWidth*scale, gbcore.ScreenHeight*scale))
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
		out = dst
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil && filepath.Dir(path) != "." {
		return fmt.Errorf("gbcore: failed to create snapshot directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("gbcore: failed to create snapshot file: %w", err)
	}
	defer f.Close()

	return png.Encode(f, out)
}
