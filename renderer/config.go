package renderer

import (
	"time"

	"GPU_render_base/common"
	"GPU_render_base/presentation"
)

const PROGRAM_NAME = "GPU render base"
const WINDOW_WIDTH, WINDOW_HEIGHT int32 = 1280, 720
const MAX_FRAMES_IN_FLIGHT = 3

// Config is used to configure the render core.
type Config struct {
	Title         string
	Width, Height int32

	// ValidationLayers are enabled on the instance and device. Empty disables validation.
	ValidationLayers []string
	// DeviceExtensions defaults to the swap chain extension.
	DeviceExtensions []string

	// FramesInFlight is the number of frames the CPU may record ahead of the GPU.
	FramesInFlight int

	// ClearColor is the RGBA color every frame is cleared to.
	ClearColor [4]float32

	// StatsInterval is how often frame statistics are written to the window title. Zero disables them.
	StatsInterval time.Duration

	// RetryWait bounds how long the loop blocks for window events while no chain can be built.
	RetryWait time.Duration

	Presentation presentation.Config
}

// DefaultConfig returns a validated windowed setup with the default negotiation rules.
func DefaultConfig() Config {
	return Config{
		Title:            PROGRAM_NAME,
		Width:            WINDOW_WIDTH,
		Height:           WINDOW_HEIGHT,
		ValidationLayers: common.VALIDATION_LAYERS,
		DeviceExtensions: common.DEVICE_EXTENSIONS,
		FramesInFlight:   MAX_FRAMES_IN_FLIGHT,
		ClearColor:       [4]float32{0.01, 0.01, 0.01, 1},
		StatsInterval:    time.Second,
		RetryWait:        100 * time.Millisecond,
		Presentation:     presentation.DefaultConfig(),
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Title == "" {
		c.Title = def.Title
	}
	if c.Width <= 0 {
		c.Width = def.Width
	}
	if c.Height <= 0 {
		c.Height = def.Height
	}
	if len(c.DeviceExtensions) == 0 {
		c.DeviceExtensions = def.DeviceExtensions
	}
	if c.FramesInFlight <= 0 {
		c.FramesInFlight = def.FramesInFlight
	}
	if c.RetryWait <= 0 {
		c.RetryWait = def.RetryWait
	}
	return c
}
