package presentation

import (
	"testing"

	"github.com/pkg/errors"
)

var hd = Extent{Width: 1280, Height: 720}

func mustInit(t *testing.T, c *Coordinator) {
	t.Helper()
	if err := c.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
}

func mustFrame(t *testing.T, c *Coordinator) FrameTarget {
	t.Helper()
	ft, err := c.BeginFrame()
	if err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	return ft
}

func indexOf(calls []string, prefix string, last bool) int {
	idx := -1
	for i, c := range calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			idx = i
			if !last {
				return idx
			}
		}
	}
	return idx
}

func TestInitializeBuildsFirstChain(t *testing.T) {
	c, b, _ := newTestCoordinator(t, hd)
	mustInit(t, c)

	if c.State() != StateReady {
		t.Errorf("State() = %v, want %v", c.State(), StateReady)
	}
	if c.Generation() != 1 {
		t.Errorf("Generation() = %d, want 1", c.Generation())
	}
	if len(b.requests) != 1 {
		t.Fatalf("got %d swapchain requests, want 1", len(b.requests))
	}
	req := b.requests[0]
	if req.MinImageCount != 3 {
		t.Errorf("MinImageCount = %d, want 3", req.MinImageCount)
	}
	if req.Sharing != SharingExclusive || req.QueueFamilies != nil {
		t.Errorf("unified queues requested %v %v", req.Sharing, req.QueueFamilies)
	}
	if req.PresentMode != PresentModeMailbox {
		t.Errorf("PresentMode = %v, want %v", req.PresentMode, PresentModeMailbox)
	}
	if req.Format != preferred {
		t.Errorf("Format = %v, want %v", req.Format, preferred)
	}
	if req.Extent != hd {
		t.Errorf("Extent = %v, want %v", req.Extent, hd)
	}

	ft := mustFrame(t, c)
	if ft.Generation != 1 || ft.ImageCount() != 3 || len(ft.Framebuffers) != 3 {
		t.Errorf("unexpected frame target %+v", ft)
	}
	if ft.RenderPass == nil || ft.Swapchain == nil {
		t.Errorf("frame target is missing handles: %+v", ft)
	}
	if got := b.countLive("view"); got != 3 {
		t.Errorf("live views = %d, want 3", got)
	}
}

func TestSteadyFramesDoNotRebuild(t *testing.T) {
	c, b, _ := newTestCoordinator(t, hd)
	mustInit(t, c)
	b.resetCalls()

	for i := 0; i < 10; i++ {
		mustFrame(t, c)
	}
	if len(b.calls) != 0 {
		t.Errorf("steady frames touched the backend: %v", b.calls)
	}
	if c.Generation() != 1 {
		t.Errorf("Generation() = %d, want 1", c.Generation())
	}
}

func TestGenerationCountsBuilds(t *testing.T) {
	c, b, _ := newTestCoordinator(t, hd)
	mustInit(t, c)

	const n = 6
	for i := 2; i <= n; i++ {
		c.NotifyInvalidated()
		if c.State() != StateInvalidated {
			t.Errorf("State() after NotifyInvalidated = %v", c.State())
		}
		ft := mustFrame(t, c)
		if ft.Generation != uint64(i) {
			t.Errorf("frame generation = %d, want %d", ft.Generation, i)
		}
		if c.chain.Generation != uint64(i) || c.resources.Generation != uint64(i) {
			t.Errorf("chain generation %d, resources generation %d, want %d",
				c.chain.Generation, c.resources.Generation, i)
		}
	}
	if c.Generation() != n {
		t.Errorf("Generation() = %d, want %d", c.Generation(), n)
	}
	if got := b.countLive("swapchain"); got != 1 {
		t.Errorf("live swapchains = %d, want 1", got)
	}
	if got := b.countLive("fb"); got != 3 {
		t.Errorf("live framebuffers = %d, want 3", got)
	}
}

func TestPinnedExtentDoesNotRebuildEveryFrame(t *testing.T) {
	c, b, w := newTestCoordinator(t, hd)
	pinned := Extent{Width: 800, Height: 600}
	b.support.Capabilities.CurrentExtent = pinned
	mustInit(t, c)
	b.resetCalls()

	for i := 0; i < 5; i++ {
		if ft := mustFrame(t, c); ft.Extent != pinned {
			t.Fatalf("Extent = %v, want %v", ft.Extent, pinned)
		}
	}
	if n := b.countCalls("create swapchain"); n != 0 {
		t.Errorf("rebuilt %d times with an unchanged window", n)
	}

	w.size = Extent{Width: 1024, Height: 768}
	if !c.ShouldRebuild() {
		t.Errorf("ShouldRebuild() = false after resize")
	}
	mustFrame(t, c)
	if c.Generation() != 2 {
		t.Errorf("Generation() = %d, want 2", c.Generation())
	}
}

func TestReusedPassKeepsGenerationsInStep(t *testing.T) {
	c, b, _ := newTestCoordinator(t, hd)
	mustInit(t, c)
	b.resetCalls()

	c.NotifyInvalidated()
	ft := mustFrame(t, c)
	if b.countCalls("create pass") != 0 {
		t.Fatalf("render pass was not reused: %v", b.calls)
	}
	if ft.Generation != 2 || c.resources.Generation != 2 {
		t.Errorf("frame generation %d, resources generation %d, want 2", ft.Generation, c.resources.Generation)
	}
}

func TestMismatchedResourceGenerationIsRejected(t *testing.T) {
	c, _, _ := newTestCoordinator(t, hd)
	mustInit(t, c)

	c.resources.Generation = c.chain.Generation + 1
	_, err := c.BeginFrame()
	if err == nil || errors.Is(err, ErrNeedsRetry) {
		t.Errorf("BeginFrame() = %v, want a generation mismatch error", err)
	}
}

func TestNotifyBeforeInitialize(t *testing.T) {
	c, b, _ := newTestCoordinator(t, hd)
	c.NotifyInvalidated()
	mustInit(t, c)

	if c.ShouldRebuild() {
		t.Errorf("ShouldRebuild() = true right after Initialize")
	}
	ft := mustFrame(t, c)
	if ft.Generation != 1 {
		t.Errorf("first frame generation = %d, want 1", ft.Generation)
	}
	if n := b.countCalls("create swapchain"); n != 1 {
		t.Errorf("swapchains created = %d, want 1", n)
	}
	if n := b.countCalls("wait"); n != 0 {
		t.Errorf("device waits = %d, want 0", n)
	}
}

func TestResizeTriggersRebuild(t *testing.T) {
	c, _, w := newTestCoordinator(t, hd)
	mustInit(t, c)

	w.size = Extent{Width: 1920, Height: 1080}
	if !c.ShouldRebuild() {
		t.Fatalf("ShouldRebuild() = false after resize")
	}
	ft := mustFrame(t, c)
	if ft.Extent != w.size {
		t.Errorf("Extent = %v, want %v", ft.Extent, w.size)
	}
	if ft.Generation != 2 {
		t.Errorf("Generation = %d, want 2", ft.Generation)
	}
	if c.ShouldRebuild() {
		t.Errorf("ShouldRebuild() = true right after rebuild")
	}
}

func TestZeroExtentNeedsRetry(t *testing.T) {
	c, b, w := newTestCoordinator(t, Extent{})
	if err := c.Initialize(); err != nil {
		t.Fatalf("Initialize with zero extent: %v", err)
	}

	for i := 0; i < 5; i++ {
		_, err := c.BeginFrame()
		if !errors.Is(err, ErrNeedsRetry) {
			t.Errorf("frame %d: got %v, want ErrNeedsRetry", i, err)
		}
	}
	if got := b.countCalls("create swapchain"); got != 0 {
		t.Errorf("swapchain created %d times while minimized", got)
	}
	if c.Generation() != 0 {
		t.Errorf("Generation() = %d, want 0", c.Generation())
	}

	w.size = hd
	ft := mustFrame(t, c)
	if ft.Generation != 1 {
		t.Errorf("Generation = %d, want 1", ft.Generation)
	}
}

func TestZeroCurrentExtentNeedsRetry(t *testing.T) {
	c, b, _ := newTestCoordinator(t, hd)
	b.support.Capabilities.CurrentExtent = Extent{}
	mustInit(t, c)

	if _, err := c.BeginFrame(); !errors.Is(err, ErrNeedsRetry) {
		t.Errorf("got %v, want ErrNeedsRetry", err)
	}
	if got := b.countCalls("create swapchain"); got != 0 {
		t.Errorf("swapchain created %d times for an empty surface", got)
	}
}

func TestMinimizeReleasesChain(t *testing.T) {
	c, b, w := newTestCoordinator(t, hd)
	mustInit(t, c)

	w.size = Extent{}
	for i := 0; i < 3; i++ {
		if _, err := c.BeginFrame(); !errors.Is(err, ErrNeedsRetry) {
			t.Errorf("frame %d: got %v, want ErrNeedsRetry", i, err)
		}
	}
	if got := b.countLive("swapchain"); got != 0 {
		t.Errorf("live swapchains while minimized = %d, want 0", got)
	}
	if got := b.countCalls("wait"); got != 1 {
		t.Errorf("waited %d times, want once for the first teardown", got)
	}

	w.size = hd
	ft := mustFrame(t, c)
	if ft.Generation != 2 {
		t.Errorf("Generation = %d, want 2", ft.Generation)
	}
}

func TestRebuildTeardownOrder(t *testing.T) {
	c, b, _ := newTestCoordinator(t, hd)
	mustInit(t, c)
	b.resetCalls()

	c.NotifyInvalidated()
	mustFrame(t, c)

	calls := b.calls
	if len(calls) == 0 || calls[0] != "wait" {
		t.Fatalf("rebuild did not start with a device wait: %v", calls)
	}
	lastFb := indexOf(calls, "destroy fb", true)
	firstView := indexOf(calls, "destroy view", false)
	lastView := indexOf(calls, "destroy view", true)
	sc := indexOf(calls, "destroy swapchain", false)
	query := indexOf(calls, "query", false)
	if lastFb < 0 || firstView < 0 || sc < 0 || query < 0 {
		t.Fatalf("missing teardown steps: %v", calls)
	}
	if !(lastFb < firstView && lastView < sc && sc < query) {
		t.Errorf("wrong teardown order: %v", calls)
	}
	if n := b.countCalls("destroy pass") + b.countCalls("create pass"); n != 0 {
		t.Errorf("render pass recreated with an unchanged format: %v", calls)
	}
}

func TestRenderPassRecreatedOnFormatChange(t *testing.T) {
	c, b, _ := newTestCoordinator(t, hd)
	mustInit(t, c)
	b.resetCalls()

	b.support.Formats = []SurfaceFormat{{Format: FormatR8G8B8A8Unorm, ColorSpace: ColorSpaceSrgbNonlinear}}
	c.NotifyInvalidated()
	ft := mustFrame(t, c)

	if ft.Format.Format != FormatR8G8B8A8Unorm {
		t.Errorf("Format = %v, want fallback %v", ft.Format, FormatR8G8B8A8Unorm)
	}
	if b.countCalls("destroy pass") != 1 || b.countCalls("create pass") != 1 {
		t.Errorf("render pass not replaced: %v", b.calls)
	}
	if got := b.countLive("pass"); got != 1 {
		t.Errorf("live render passes = %d, want 1", got)
	}
}

func TestRenderPassWithoutReuse(t *testing.T) {
	b := newFakeBackend(t)
	cfg := DefaultConfig()
	cfg.ReuseRenderPass = false
	c := NewCoordinator(b, &fakeWindow{size: hd}, NewQueueIndices(0, 0), cfg)
	mustInit(t, c)
	b.resetCalls()

	c.NotifyInvalidated()
	mustFrame(t, c)

	if b.countCalls("destroy pass") != 1 || b.countCalls("create pass") != 1 {
		t.Errorf("render pass not recreated: %v", b.calls)
	}
	if indexOf(b.calls, "destroy pass", false) > indexOf(b.calls, "destroy view", false) {
		t.Errorf("render pass destroyed after the views: %v", b.calls)
	}
	c.Shutdown()
	if len(b.live) != 0 {
		t.Errorf("leaked objects: %v", b.live)
	}
}

func TestSplitQueuesShareConcurrently(t *testing.T) {
	b := newFakeBackend(t)
	c := NewCoordinator(b, &fakeWindow{size: hd}, NewQueueIndices(0, 1), DefaultConfig())
	mustInit(t, c)

	req := b.requests[0]
	if req.Sharing != SharingConcurrent {
		t.Errorf("Sharing = %v, want %v", req.Sharing, SharingConcurrent)
	}
	if len(req.QueueFamilies) != 2 || req.QueueFamilies[0] != 0 || req.QueueFamilies[1] != 1 {
		t.Errorf("QueueFamilies = %v, want [0 1]", req.QueueFamilies)
	}
}

func TestResourcesFollowAllocatedImages(t *testing.T) {
	c, b, _ := newTestCoordinator(t, hd)
	b.extraAllocated = 2
	mustInit(t, c)

	ft := mustFrame(t, c)
	if ft.ImageCount() != 5 || len(ft.Framebuffers) != 5 {
		t.Errorf("images = %d framebuffers = %d, want 5 each", ft.ImageCount(), len(ft.Framebuffers))
	}
	if ft.Framebuffer(4) == nil {
		t.Errorf("no framebuffer for the last image")
	}
}

func TestResourceCreationErrorIsFatal(t *testing.T) {
	c, b, _ := newTestCoordinator(t, hd)
	mustInit(t, c)

	b.failFramebuffer = errors.New("out of host memory")
	c.NotifyInvalidated()
	_, err := c.BeginFrame()

	var rce *ResourceCreationError
	if !errors.As(err, &rce) {
		t.Fatalf("got %v, want *ResourceCreationError", err)
	}
	if IsRetryable(err) {
		t.Errorf("IsRetryable(%v) = true", err)
	}
	if errors.Is(err, ErrNeedsRetry) {
		t.Errorf("fatal error reported as retry")
	}
	for _, kind := range []string{"swapchain", "view", "fb"} {
		if got := b.countLive(kind); got != 0 {
			t.Errorf("live %s after failed build = %d, want 0", kind, got)
		}
	}

	c.Shutdown()
	if len(b.live) != 0 {
		t.Errorf("leaked objects: %v", b.live)
	}
}

func TestInitializeResourceFailure(t *testing.T) {
	c, b, _ := newTestCoordinator(t, hd)
	b.failImageViewAt = 2
	err := c.Initialize()

	var ie *InitError
	if !errors.As(err, &ie) {
		t.Fatalf("got %v, want *InitError", err)
	}
	var rce *ResourceCreationError
	if !errors.As(err, &rce) {
		t.Errorf("InitError does not wrap *ResourceCreationError: %v", err)
	}
	if got := b.countLive("view") + b.countLive("swapchain"); got != 0 {
		t.Errorf("%d objects left after rollback", got)
	}
}

func TestRetryableFailuresDeferRebuild(t *testing.T) {
	cases := []struct {
		name  string
		setup func(b *fakeBackend)
		clear func(b *fakeBackend)
	}{
		{
			"swapchain rejected",
			func(b *fakeBackend) { b.failSwapchain = errors.New("native window in use") },
			func(b *fakeBackend) { b.failSwapchain = nil },
		},
		{
			"surface lost",
			func(b *fakeBackend) { b.failQuery = errors.New("surface lost") },
			func(b *fakeBackend) { b.failQuery = nil },
		},
		{
			"no formats",
			func(b *fakeBackend) { b.support.Formats = nil },
			func(b *fakeBackend) {
				b.support.Formats = []SurfaceFormat{preferred}
			},
		},
	}
	for _, tc := range cases {
		c, b, _ := newTestCoordinator(t, hd)
		mustInit(t, c)

		tc.setup(b)
		c.NotifyInvalidated()
		for i := 0; i < 2; i++ {
			if _, err := c.BeginFrame(); !errors.Is(err, ErrNeedsRetry) {
				t.Errorf("%s: frame %d: got %v, want ErrNeedsRetry", tc.name, i, err)
			}
		}
		if c.State() != StateInvalidated {
			t.Errorf("%s: State() = %v, want %v", tc.name, c.State(), StateInvalidated)
		}

		tc.clear(b)
		ft, err := c.BeginFrame()
		if err != nil {
			t.Errorf("%s: recovery frame: %v", tc.name, err)
			continue
		}
		if ft.Generation != 2 {
			t.Errorf("%s: Generation = %d, want 2", tc.name, ft.Generation)
		}
		c.Shutdown()
		if len(b.live) != 0 {
			t.Errorf("%s: leaked objects: %v", tc.name, b.live)
		}
	}
}

func TestWaitIdleFailureKeepsChain(t *testing.T) {
	c, b, _ := newTestCoordinator(t, hd)
	mustInit(t, c)

	b.failWaitIdle = errors.New("device lost")
	c.NotifyInvalidated()
	if _, err := c.BeginFrame(); !errors.Is(err, ErrNeedsRetry) {
		t.Errorf("got %v, want ErrNeedsRetry", err)
	}
	if got := b.countCalls("destroy"); got != 0 {
		t.Errorf("tore down without an idle device: %v", b.calls)
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	c, b, _ := newTestCoordinator(t, hd)
	mustInit(t, c)

	c.Shutdown()
	c.Shutdown()

	if len(b.live) != 0 {
		t.Errorf("leaked objects: %v", b.live)
	}
	if got := b.countCalls("wait"); got != 1 {
		t.Errorf("waited %d times, want 1", got)
	}
	if c.State() != StateDestroyed {
		t.Errorf("State() = %v, want %v", c.State(), StateDestroyed)
	}
	if _, err := c.BeginFrame(); !errors.Is(err, ErrDestroyed) {
		t.Errorf("BeginFrame after Shutdown: got %v, want ErrDestroyed", err)
	}
	c.NotifyInvalidated()
	if c.State() != StateDestroyed {
		t.Errorf("NotifyInvalidated revived the coordinator: %v", c.State())
	}
}

func TestShutdownWithoutChain(t *testing.T) {
	c, b, _ := newTestCoordinator(t, Extent{})
	mustInit(t, c)
	c.Shutdown()
	if got := b.countCalls("wait"); got != 0 {
		t.Errorf("waited %d times with nothing to destroy", got)
	}

	c2, b2, _ := newTestCoordinator(t, hd)
	c2.Shutdown()
	if len(b2.calls) != 0 {
		t.Errorf("shutdown before Initialize touched the backend: %v", b2.calls)
	}
}

func TestInitializeErrors(t *testing.T) {
	b := newFakeBackend(t)
	c := NewCoordinator(b, &fakeWindow{size: hd}, QueueIndices{}, DefaultConfig())
	err := c.Initialize()
	var ie *InitError
	if !errors.As(err, &ie) || !errors.Is(err, ErrQueuesUnresolved) {
		t.Errorf("unresolved queues: got %v", err)
	}
	if len(b.calls) != 0 {
		t.Errorf("unresolved queues reached the backend: %v", b.calls)
	}

	c, _, _ = newTestCoordinator(t, hd)
	if _, err := c.BeginFrame(); err == nil || errors.Is(err, ErrNeedsRetry) {
		t.Errorf("BeginFrame before Initialize: got %v", err)
	}
	mustInit(t, c)
	if err := c.Initialize(); !errors.As(err, &ie) {
		t.Errorf("second Initialize: got %v, want *InitError", err)
	}
}
