package presentation

// Config tunes the negotiation rules of the coordinator.
type Config struct {
	// PreferredFormat wins the format negotiation whenever the surface offers it.
	PreferredFormat SurfaceFormat

	// PresentModeRanking orders present modes from least to most preferred. The negotiator picks
	// the supported mode with the highest index.
	PresentModeRanking []PresentMode

	// ExtraImages is added to the surface's minimum image count so the application does not stall
	// while the display still holds the previously presented image.
	ExtraImages uint32

	// ReuseRenderPass keeps the render pass across rebuilds while the color format is unchanged.
	ReuseRenderPass bool
}

// DefaultPresentModeRanking is the ranking [FIFO, Immediate, Mailbox].
var DefaultPresentModeRanking = []PresentMode{
	PresentModeFIFO,
	PresentModeImmediate,
	PresentModeMailbox,
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		PreferredFormat: SurfaceFormat{
			Format:     FormatB8G8R8A8Srgb,
			ColorSpace: ColorSpaceSrgbNonlinear,
		},
		PresentModeRanking: DefaultPresentModeRanking,
		ExtraImages:        1,
		ReuseRenderPass:    true,
	}
}

// withDefaults fills unset fields. ReuseRenderPass is taken as given.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.PreferredFormat.Format == FormatUndefined {
		c.PreferredFormat = def.PreferredFormat
	}
	if len(c.PresentModeRanking) == 0 {
		c.PresentModeRanking = def.PresentModeRanking
	}
	if c.ExtraImages == 0 {
		c.ExtraImages = def.ExtraImages
	}
	return c
}
