package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli"

	"github.com/dmgcore/gbcore"
	"github.com/dmgcore/gbcore/internal/config"
)

func main() {
	app := cli.NewApp()
	app.Name = "gbcore"
	app.Description = "A Game Boy (DMG/CGB) emulator core"
	app.Usage = "gbcore [command] [options] <ROM file>"
	app.Version = "0.1.0"

	app.Commands = []cli.Command{
		{
			Name:   "run",
			Usage:  "run a ROM interactively or headlessly",
			Flags:  runFlags,
			Action: runCommand,
		},
		{
			Name:   "snapshot",
			Usage:  "run N frames headlessly and save a PNG of the final frame",
			Flags:  snapshotFlags,
			Action: snapshotCommand,
		},
	}
	app.Flags = runFlags
	app.Action = runCommand // `gbcore game.gb` runs with defaults

	if err := app.Run(os.Args); err != nil {
		slog.Error("gbcore exited with an error", "error", err)
		os.Exit(1)
	}
}

var runFlags = []cli.Flag{
	cli.StringFlag{Name: "rom", Usage: "path to the ROM file"},
	cli.IntFlag{Name: "sample-rate", Usage: "APU output sample rate", Value: 44100},
	cli.IntFlag{Name: "scale", Usage: "SDL2 window scale factor (the terminal backend draws at a fixed size)", Value: 2},
	cli.BoolFlag{Name: "sdl2", Usage: "use the SDL2 windowed backend instead of the terminal"},
	cli.BoolFlag{Name: "headless", Usage: "run without any display backend"},
	cli.IntFlag{Name: "frames", Usage: "frames to run in headless mode"},
	cli.IntFlag{Name: "snapshot-interval", Usage: "save a PNG snapshot every N frames (headless only)"},
	cli.StringFlag{Name: "snapshot-dir", Usage: "directory for headless-mode snapshots"},
}

func romPathFrom(c *cli.Context) (string, error) {
	if p := c.String("rom"); p != "" {
		return p, nil
	}
	if c.NArg() > 0 {
		return c.Args().Get(0), nil
	}
	cli.ShowAppHelp(c)
	return "", errors.New("no ROM path provided")
}

func runCommand(c *cli.Context) error {
	romPath, err := romPathFrom(c)
	if err != nil {
		return err
	}

	opts := []config.Option{
		config.WithSampleRate(uint32(c.Int("sample-rate"))),
		config.WithScale(c.Int("scale")),
	}
	switch {
	case c.Bool("headless"):
		opts = append(opts, config.WithHeadless(c.Int("frames")))
		if n := c.Int("snapshot-interval"); n > 0 {
			opts = append(opts, config.WithSnapshotInterval(n, c.String("snapshot-dir")))
		}
	case c.Bool("sdl2"):
		opts = append(opts, config.WithBackend(config.BackendSDL2))
	}
	cfg := config.New(romPath, opts...)

	console, err := loadConsole(cfg)
	if err != nil {
		return err
	}
	defer console.Quit()

	switch cfg.Backend {
	case config.BackendHeadless:
		return runHeadless(console, cfg)
	case config.BackendSDL2:
		return runSDL2(console, cfg)
	default:
		return runTerminal(console, cfg)
	}
}

func loadConsole(cfg config.Config) (*gbcore.Console, error) {
	data, err := os.ReadFile(cfg.ROMPath)
	if err != nil {
		return nil, fmt.Errorf("gbcore: failed to read ROM: %w", err)
	}

	console := gbcore.New()
	console.Init(cfg.SampleRate)
	if err := console.Load(data, nil); err != nil {
		return nil, err
	}

	slog.Info("loaded ROM", "title", console.Title(), "path", cfg.ROMPath, "mode", console.Mode().String())
	return console, nil
}

func runHeadless(console *gbcore.Console, cfg config.Config) error {
	if cfg.Frames <= 0 {
		return errors.New("headless mode requires --frames with a positive value")
	}

	romName := strings.TrimSuffix(filepath.Base(cfg.ROMPath), filepath.Ext(cfg.ROMPath))

	for i := 0; i < cfg.Frames; i++ {
		console.RunFrame()

		if cfg.SnapshotInterval > 0 && (i+1)%cfg.SnapshotInterval == 0 {
			path := filepath.Join(cfg.SnapshotDir, fmt.Sprintf("%s_frame_%d.png", romName, i+1))
			if err := saveSnapshotPNG(console, path); err != nil {
				slog.Error("failed to save snapshot", "frame", i+1, "error", err)
			} else {
				slog.Info("saved frame snapshot", "frame", i+1, "path", path)
			}
		}

		if i%60 == 0 {
			slog.Debug("frame progress", "completed", i, "total", cfg.Frames)
		}
	}

	slog.Info("headless execution completed", "frames", cfg.Frames)
	return nil
}
