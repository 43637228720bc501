package main

import (
	"flag"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"github.com/veandco/go-sdl2/sdl"

	"GPU_render_base/logging"
	"GPU_render_base/presentation"
	"GPU_render_base/renderer"
)

func init() {
	// SDL and the presentation engine want all calls from the thread that created the window
	runtime.LockOSThread()
}

func onIteration(event sdl.Event, c *renderer.Core) {
	if ev, ok := event.(*sdl.WindowEvent); ok && ev.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
		logging.Logger().Debug("window size changed", "width", ev.Data1, "height", ev.Data2)
	}
}

func main() {
	cfg := renderer.DefaultConfig()
	var (
		validation = flag.Bool("validation", true, "enable the Khronos validation layer")
		vsync      = flag.Bool("vsync", false, "only use FIFO presentation")
		logLevel   = flag.String("log-level", "info", "debug, info, warn or error")
		frames     = flag.Int("frames-in-flight", renderer.MAX_FRAMES_IN_FLIGHT, "frames the CPU may record ahead")
		width      = flag.Int("width", int(cfg.Width), "initial window width")
		height     = flag.Int("height", int(cfg.Height), "initial window height")
		noStats    = flag.Bool("no-stats", false, "do not show frame statistics in the title")
	)
	flag.StringVar(&cfg.Title, "title", cfg.Title, "window title")
	flag.Parse()

	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logging.ParseLevel(*logLevel),
	})))
	logging.Logger().Info("starting", "program", cfg.Title, "go", runtime.Version())

	cfg.Width, cfg.Height = int32(*width), int32(*height)
	cfg.FramesInFlight = *frames
	if !*validation {
		cfg.ValidationLayers = nil
	}
	if *vsync {
		cfg.Presentation.PresentModeRanking = []presentation.PresentMode{presentation.PresentModeFIFO}
	}
	if *noStats {
		cfg.StatsInterval = 0
	}

	if err := run(cfg); err != nil {
		logging.Logger().Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(cfg renderer.Config) error {
	start := time.Now()
	core, err := renderer.NewRenderCore(cfg)
	if err != nil {
		return errors.Wrap(err, "initialize render core")
	}
	defer core.Destroy()

	if err := core.Loop(onIteration); err != nil {
		return errors.Wrap(err, "render loop")
	}
	logging.Logger().Info("done", "uptime", time.Since(start).Round(time.Millisecond))
	return nil
}
