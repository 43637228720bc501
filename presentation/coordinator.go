package presentation

import (
	"github.com/loov/hrtime"
	"github.com/pkg/errors"

	"GPU_render_base/logging"
)

// State is the lifecycle state of a Coordinator.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateInvalidated
	StateRebuilding
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateInvalidated:
		return "invalidated"
	case StateRebuilding:
		return "rebuilding"
	case StateDestroyed:
		return "destroyed"
	}
	return "unknown"
}

// Coordinator owns the presentation chain and its dependent resources. It builds them, notices
// when they went stale and rebuilds them from the frame loop. It is not safe for concurrent use,
// everything runs on the frame loop's thread.
type Coordinator struct {
	backend Backend
	window  Window
	queues  QueueIndices
	cfg     Config

	state       State
	invalidated bool
	// lastSize is the extent resolved by the last build attempt. The invalidation check compares
	// the live framebuffer size against it. lastFramebuffer is the window size it was resolved
	// from, a pinned or clamped extent never matches the window.
	lastSize        Extent
	lastFramebuffer Extent
	generation      uint64

	chain     *Chain
	resources *Resources
	builder   resourceBuilder
}

// NewCoordinator returns a coordinator in StateUninitialized. Queue indices are resolved by device
// selection and do not change afterwards.
func NewCoordinator(backend Backend, window Window, queues QueueIndices, cfg Config) *Coordinator {
	cfg = cfg.withDefaults()
	return &Coordinator{
		backend: backend,
		window:  window,
		queues:  queues,
		cfg:     cfg,
		state:   StateUninitialized,
		builder: resourceBuilder{backend: backend, reuse: cfg.ReuseRenderPass},
	}
}

// Initialize builds the first chain. A surface without area (minimized at startup) is not an
// error, the build is deferred to BeginFrame. Any other failure is returned as *InitError.
func (c *Coordinator) Initialize() error {
	if c.state != StateUninitialized {
		return &InitError{Err: errors.Errorf("coordinator is %s", c.state)}
	}
	if !c.queues.Resolved() {
		return &InitError{Err: ErrQueuesUnresolved}
	}
	c.state = StateRebuilding
	if err := c.build(); err != nil {
		c.invalidate()
		if errors.Is(err, ErrZeroExtent) {
			logging.Logger().Info("surface has no area yet, deferring first presentation chain")
			return nil
		}
		return &InitError{Err: err}
	}
	c.invalidated = false
	c.state = StateReady
	return nil
}

// NotifyInvalidated forces a rebuild on the next BeginFrame, e.g. after acquire or present
// reported an out of date or suboptimal chain.
func (c *Coordinator) NotifyInvalidated() {
	if c.state == StateDestroyed {
		return
	}
	c.invalidate()
}

// ShouldRebuild reports whether the chain was invalidated or the window size changed since the
// last build. It makes no device calls.
func (c *Coordinator) ShouldRebuild() bool {
	if c.invalidated {
		return true
	}
	fb := c.window.FramebufferSize()
	// A resize landing exactly on a pinned extent is caught by the window's size event instead.
	return fb != c.lastSize && fb != c.lastFramebuffer
}

// BeginFrame rebuilds the chain if needed and returns the target for this frame. It returns
// ErrNeedsRetry when no chain exists this frame; the caller skips drawing. Fatal errors such as
// *ResourceCreationError are returned as they are.
func (c *Coordinator) BeginFrame() (FrameTarget, error) {
	switch c.state {
	case StateDestroyed:
		return FrameTarget{}, ErrDestroyed
	case StateUninitialized:
		return FrameTarget{}, errors.New("presentation: BeginFrame before Initialize")
	}

	if c.ShouldRebuild() {
		if err := c.rebuild(); err != nil {
			if IsRetryable(err) {
				if errors.Is(err, ErrZeroExtent) {
					logging.Logger().Debug("surface has no area, skipping frame")
				} else {
					logging.Logger().Warn("presentation chain rebuild failed, retrying next frame", "err", err)
				}
				return FrameTarget{}, ErrNeedsRetry
			}
			return FrameTarget{}, err
		}
	}
	if c.chain == nil {
		return FrameTarget{}, ErrNeedsRetry
	}
	if c.resources.Generation != c.chain.Generation {
		return FrameTarget{}, errors.Errorf("presentation: resources of generation %d on chain of generation %d",
			c.resources.Generation, c.chain.Generation)
	}

	return FrameTarget{
		Generation:   c.chain.Generation,
		Swapchain:    c.chain.Handle,
		Images:       c.chain.Images,
		RenderPass:   c.resources.RenderPass,
		Framebuffers: c.resources.Framebuffers,
		Extent:       c.chain.Extent,
		Format:       c.chain.Format,
		PresentMode:  c.chain.PresentMode,
	}, nil
}

// Shutdown waits for the device, then destroys the dependent resources and the chain. Calling it
// again does nothing.
func (c *Coordinator) Shutdown() {
	if c.state == StateDestroyed {
		return
	}
	if c.chain != nil || c.resources != nil || c.builder.pass != nil {
		if err := c.backend.WaitIdle(); err != nil {
			logging.Logger().Warn("device did not go idle before shutdown", "err", err)
		}
	}
	c.teardown()
	c.builder.releasePass()
	c.state = StateDestroyed
	logging.Logger().Info("presentation chain shut down", "generation", c.generation)
}

// State returns the lifecycle state.
func (c *Coordinator) State() State {
	return c.state
}

// Generation returns the generation of the current chain, 0 before the first build.
func (c *Coordinator) Generation() uint64 {
	return c.generation
}

func (c *Coordinator) invalidate() {
	c.invalidated = true
	if c.state != StateUninitialized {
		c.state = StateInvalidated
	}
}

// rebuild drains the device, tears the old chain down and builds a new one. The new chain is only
// published after the old one is completely destroyed.
func (c *Coordinator) rebuild() error {
	start := hrtime.Now()
	c.state = StateRebuilding

	if c.chain != nil || c.resources != nil {
		if err := c.backend.WaitIdle(); err != nil {
			c.invalidate()
			return &CapabilityQueryError{Op: "wait for device idle", Err: err}
		}
		c.teardown()
	}

	if err := c.build(); err != nil {
		c.invalidate()
		return err
	}
	c.invalidated = false
	c.state = StateReady
	logging.Logger().Info("rebuilt presentation chain",
		"generation", c.generation,
		"extent", c.chain.Extent.String(),
		"stall", hrtime.Since(start),
	)
	return nil
}

// teardown destroys the dependent resources first, then the chain.
func (c *Coordinator) teardown() {
	if c.resources != nil {
		c.builder.destroy(c.resources)
		c.resources = nil
	}
	if c.chain != nil {
		c.chain.destroy(c.backend)
		c.chain = nil
	}
}

// build negotiates a configuration from a fresh capability query and creates the chain and its
// resources. On success the generation advances and both are published together.
func (c *Coordinator) build() error {
	// Minimized windows can still report a non zero minimum extent, check the window first.
	fb := c.window.FramebufferSize()
	if fb.IsZero() {
		c.lastSize, c.lastFramebuffer = fb, fb
		return &ChainCreationError{Op: "validate extent " + fb.String(), Err: ErrZeroExtent}
	}

	support, err := c.backend.QuerySurface()
	if err != nil {
		var cq *CapabilityQueryError
		if errors.As(err, &cq) {
			return err
		}
		return &CapabilityQueryError{Op: "query surface", Err: err}
	}

	format, err := SelectSurfaceFormat(support.Formats, c.cfg.PreferredFormat)
	if err != nil {
		return &CapabilityQueryError{Op: "negotiate surface format", Err: err}
	}
	if format != c.cfg.PreferredFormat {
		logging.Logger().Debug("preferred surface format unavailable, using first reported", "format", format.String())
	}
	mode := SelectPresentMode(support.PresentModes, c.cfg.PresentModeRanking)
	extent := ResolveExtent(support.Capabilities, fb)
	c.lastSize, c.lastFramebuffer = extent, fb
	logging.Logger().Debug("negotiated presentation chain",
		"format", format.String(),
		"presentMode", mode.String(),
		"extent", extent.String(),
	)

	chain, err := buildChain(c.backend, chainParams{
		format:     format,
		mode:       mode,
		extent:     extent,
		caps:       support.Capabilities,
		queues:     c.queues,
		extra:      c.cfg.ExtraImages,
		generation: c.generation + 1,
	})
	if err != nil {
		return err
	}

	res, err := c.builder.build(chain)
	if err != nil {
		chain.destroy(c.backend)
		return err
	}

	c.generation = chain.Generation
	c.chain = chain
	c.resources = res
	logging.Logger().Info("built presentation chain",
		"generation", c.generation,
		"images", len(chain.Images),
		"extent", extent.String(),
		"presentMode", mode.String(),
	)
	return nil
}
