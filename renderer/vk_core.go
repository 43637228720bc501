package renderer

import (
	"fmt"
	"math"
	"time"

	vk "github.com/goki/vulkan"
	"github.com/loov/hrtime"
	"github.com/pkg/errors"
	"github.com/veandco/go-sdl2/sdl"

	"GPU_render_base/common"
	"GPU_render_base/logging"
	"GPU_render_base/presentation"
)

// Core owns the window, the device and the per frame synchronization objects. The presentation chain itself is
// owned by the coordinator, Core only borrows a FrameTarget for the duration of one frame.
type Core struct {
	cfg Config

	// OS/Window level
	Win    *common.Window
	device *common.Device

	// Target level
	chain *presentation.Coordinator

	// Drawing infrastructure level
	commandPool vk.CommandPool

	// Frame level
	commandBuffers     []vk.CommandBuffer
	currentFrameIdx    int
	imageAvailableSems []vk.Semaphore
	renderFinishedSems []vk.Semaphore
	inFlightFens       []vk.Fence

	stats *frameStats
}

// Externally facing functions

// NewRenderCore creates the window, selects a device and builds the first presentation chain. Whatever was created
// before a failing step is destroyed again.
func NewRenderCore(cfg Config) (*Core, error) {
	c := &Core{cfg: cfg.withDefaults()}
	if err := c.Initialize(); err != nil {
		c.Destroy()
		return nil, err
	}
	return c, nil
}

func (c *Core) Initialize() error {
	var err error
	c.Win, err = common.NewWindow(c.cfg.Title, c.cfg.Width, c.cfg.Height, c.cfg.ValidationLayers)
	if err != nil {
		return err
	}
	c.device, err = common.NewDevice(c.Win, c.cfg.DeviceExtensions, c.cfg.ValidationLayers)
	if err != nil {
		return err
	}

	c.chain = presentation.NewCoordinator(
		newVkBackend(c.device, *c.Win.Surf),
		c.Win,
		c.device.QFamilies.ToPresentation(),
		c.cfg.Presentation,
	)
	if err := c.chain.Initialize(); err != nil {
		return err
	}

	if err := c.createCommandPool(); err != nil {
		return err
	}
	if err := c.createCommandBuffers(); err != nil {
		return err
	}
	return c.createSyncObjects()
}

type iterationHandler func(sdl.Event, *Core)

// Loop this function represents the event-loop for user interaction and the primary draw call that renders each
// frame. The whole purpose of this function is to provide a neat interface for call backs and all basic
// functionality a well-behaved app should have. E.g.: Not rendering while there is no surface to render to, close
// on Window 'close button', close on ESC key, F11 for fullscreen. A nil handler is fine. Loop returns the first
// fatal error, frames that cannot be drawn are skipped.
func (c *Core) Loop(ih iterationHandler) error {
	c.stats = newFrameStats(c.cfg.StatsInterval, hrtime.Now())
	c.Win.Close = false
	for !c.Win.Close {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			c.handleEvent(event, ih)
		}
		if c.Win.Close {
			break
		}

		c.stats.beginFrame(hrtime.Now())
		err := c.drawFrame()
		switch {
		case errors.Is(err, presentation.ErrNeedsRetry):
			c.report(c.stats.skipFrame(hrtime.Now()))
			// Sleep until new events change the window, but never for long as not every change arrives as an event
			if event := sdl.WaitEventTimeout(int(c.cfg.RetryWait / time.Millisecond)); event != nil {
				c.handleEvent(event, ih)
			}
		case err != nil:
			return err
		default:
			c.report(c.stats.endFrame(hrtime.Now()))
		}
	}
	logging.Logger().Info("left render loop",
		"avgFps", fmt.Sprintf("%.1f", c.stats.average(hrtime.Now())),
		"generation", c.chain.Generation(),
	)
	return nil
}

func (c *Core) handleEvent(event sdl.Event, ih iterationHandler) {
	// Doing some basic functionality for basic window handling
	switch ev := event.(type) {
	case *sdl.QuitEvent:
		c.Win.Close = true
	case *sdl.WindowEvent:
		switch ev.Event {
		case sdl.WINDOWEVENT_SIZE_CHANGED:
			c.chain.NotifyInvalidated()
		case sdl.WINDOWEVENT_MINIMIZED:
			c.Win.Minimized = true
		case sdl.WINDOWEVENT_RESTORED, sdl.WINDOWEVENT_MAXIMIZED:
			c.Win.Minimized = false
		}
	case *sdl.KeyboardEvent:
		if ev.Type != sdl.KEYDOWN || ev.Repeat != 0 {
			break
		}
		switch ev.Keysym.Sym {
		case sdl.K_ESCAPE:
			c.Win.Close = true
		case sdl.K_F11:
			if err := c.Win.ToggleFullscreen(); err != nil {
				logging.Logger().Warn("fullscreen toggle failed", "err", err)
			}
		}
	}
	if ih != nil {
		ih(event, c)
	}
}

func (c *Core) report(snap statsSnapshot, ok bool) {
	if !ok {
		return
	}
	c.Win.SetTitle(fmt.Sprintf("%s | %s", c.cfg.Title, snap))
	logging.Logger().Debug("frame stats",
		"fps", fmt.Sprintf("%.1f", snap.FPS()),
		"worst", snap.Worst,
		"gpuWait", fmt.Sprintf("%.2f", snap.WaitShare()),
		"skipped", snap.Skipped,
		"generation", c.chain.Generation(),
	)
}

// Destroy tears everything down in reverse creation order. It is safe on a partially initialized Core and when
// called twice.
func (c *Core) Destroy() {
	if c.device != nil && c.device.D != nil {
		// We need to wait for the last asynchronous call to finish before tear down
		if err := c.device.WaitIdle(); err != nil {
			logging.Logger().Warn("device did not go idle before tear down", "err", err)
		}
	}
	if c.chain != nil {
		c.chain.Shutdown()
	}
	if c.device != nil && c.device.D != nil {
		for i := range c.inFlightFens {
			vk.DestroyFence(c.device.D, c.inFlightFens[i], nil)
		}
		for i := range c.imageAvailableSems {
			vk.DestroySemaphore(c.device.D, c.imageAvailableSems[i], nil)
		}
		for i := range c.renderFinishedSems {
			vk.DestroySemaphore(c.device.D, c.renderFinishedSems[i], nil)
		}
		c.inFlightFens, c.imageAvailableSems, c.renderFinishedSems = nil, nil, nil
		if c.commandPool != nil {
			vk.DestroyCommandPool(c.device.D, c.commandPool, nil)
			c.commandPool = nil
			c.commandBuffers = nil
		}
		c.device.Destroy()
	}
	if c.Win != nil {
		c.Win.Destroy()
		c.Win = nil
	}
}

func (c *Core) createCommandPool() error {
	commandPool, err := common.VKSCreateCommandPool(
		c.device.D,
		vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		*c.device.QFamilies.GraphicsFamily,
	)
	if err != nil {
		return errors.Wrap(err, "create command pool")
	}
	c.commandPool = commandPool
	return nil
}

func (c *Core) createCommandBuffers() error {
	buffers, err := common.VKAllocateCommandBuffersPrimary(c.device.D, c.commandPool, uint32(c.cfg.FramesInFlight))
	if err != nil {
		return errors.Wrap(err, "allocate command buffers")
	}
	logging.Logger().Debug("allocated command buffers", "count", len(buffers))
	c.commandBuffers = buffers
	return nil
}

func (c *Core) createSyncObjects() error {
	n := c.cfg.FramesInFlight
	c.imageAvailableSems = make([]vk.Semaphore, 0, n)
	c.renderFinishedSems = make([]vk.Semaphore, 0, n)
	c.inFlightFens = make([]vk.Fence, 0, n)
	for i := 0; i < n; i++ {
		ias, err := common.VKSCreateSemaphore(c.device.D)
		if err != nil {
			return errors.Wrapf(err, "create image available semaphore [%d]", i)
		}
		c.imageAvailableSems = append(c.imageAvailableSems, ias)
		rfs, err := common.VKSCreateSemaphore(c.device.D)
		if err != nil {
			return errors.Wrapf(err, "create render finished semaphore [%d]", i)
		}
		c.renderFinishedSems = append(c.renderFinishedSems, rfs)
		iff, err := common.VKSCreateFence(c.device.D, true)
		if err != nil {
			return errors.Wrapf(err, "create in flight fence [%d]", i)
		}
		c.inFlightFens = append(c.inFlightFens, iff)
	}
	return nil
}

// Drawing and derivative functionality

func (c *Core) recordDrawCommands(buffer vk.CommandBuffer, target presentation.FrameTarget, imageIdx uint32) error {
	// Begin recording
	beginInfo := vk.CommandBufferBeginInfo{
		SType:            vk.StructureTypeCommandBufferBeginInfo,
		PNext:            nil,
		Flags:            vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
		PInheritanceInfo: nil,
	}
	if err := vk.Error(vk.BeginCommandBuffer(buffer, &beginInfo)); err != nil {
		return errors.Wrap(err, "begin recording command buffer")
	}

	// Start render pass
	extent := extentToVk(target.Extent)
	renderArea := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: extent,
	}
	clearValues := []vk.ClearValue{
		vk.NewClearValue(c.cfg.ClearColor[:]),
	}
	renderPassInfo := vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		PNext:           nil,
		RenderPass:      target.RenderPass.(vk.RenderPass),
		Framebuffer:     target.Framebuffer(imageIdx).(vk.Framebuffer),
		RenderArea:      renderArea,
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(buffer, &renderPassInfo, vk.SubpassContentsInline)
	vk.CmdEndRenderPass(buffer)

	if err := vk.Error(vk.EndCommandBuffer(buffer)); err != nil {
		return errors.Wrap(err, "record command buffer")
	}
	return nil
}

// drawFrame renders one frame into the current presentation chain. It returns presentation.ErrNeedsRetry when no
// chain exists this frame.
func (c *Core) drawFrame() error {
	target, err := c.chain.BeginFrame()
	if err != nil {
		return err
	}
	frame := c.currentFrameIdx

	// Wait for frame to be ready - signalled by the inFlightFens
	sw := startStopwatch()
	if err := vk.Error(vk.WaitForFences(c.device.D, 1, []vk.Fence{c.inFlightFens[frame]}, vk.True, math.MaxUint64)); err != nil {
		return errors.Wrap(err, "wait for in flight fence")
	}
	c.stats.addWait(sw.elapsed())

	var imgIdx uint32
	result := vk.AcquireNextImage(c.device.D, target.Swapchain.(vk.Swapchain), math.MaxUint64, c.imageAvailableSems[frame], nil, &imgIdx)
	// React on surface changes and other possible causes for failure (e.g.: Window resizing)
	switch result {
	case vk.Success:
	case vk.Suboptimal:
		// The image is still usable, draw into it and rebuild afterwards
		c.chain.NotifyInvalidated()
	case vk.ErrorOutOfDate:
		c.chain.NotifyInvalidated()
		return presentation.ErrNeedsRetry
	default:
		return errors.Wrap(vk.Error(result), "acquire next image")
	}
	if int(imgIdx) >= target.ImageCount() {
		return errors.Errorf("acquired image %d of a chain with %d images", imgIdx, target.ImageCount())
	}

	// Reset the fence only if we are actually going to execute work that will put the fence into the signalled state
	vk.ResetFences(c.device.D, 1, []vk.Fence{c.inFlightFens[frame]})

	vk.ResetCommandBuffer(c.commandBuffers[frame], 0)
	if err := c.recordDrawCommands(c.commandBuffers[frame], target, imgIdx); err != nil {
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		PNext:              nil,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{c.imageAvailableSems[frame]},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{c.commandBuffers[frame]},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{c.renderFinishedSems[frame]},
	}
	if err := vk.Error(vk.QueueSubmit(c.device.GraphicsQ, 1, []vk.SubmitInfo{submitInfo}, c.inFlightFens[frame])); err != nil {
		return errors.Wrap(err, "submit command buffer")
	}

	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		PNext:              nil,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{c.renderFinishedSems[frame]},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{target.Swapchain.(vk.Swapchain)},
		PImageIndices:      []uint32{imgIdx},
		PResults:           nil,
	}
	result = vk.QueuePresent(c.device.PresentQ, &presentInfo)
	c.currentFrameIdx = (c.currentFrameIdx + 1) % c.cfg.FramesInFlight

	// React on surface changes and other possible causes for failure (e.g.: Window resizing)
	switch result {
	case vk.Success:
	case vk.ErrorOutOfDate, vk.Suboptimal:
		c.chain.NotifyInvalidated()
	default:
		return errors.Wrap(vk.Error(result), "present image")
	}
	return nil
}
