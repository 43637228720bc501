package presentation

import (
	"fmt"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

// fakeWindow reports a settable framebuffer size.
type fakeWindow struct {
	size Extent
}

func (w *fakeWindow) FramebufferSize() Extent { return w.size }

// handle is what fakeBackend hands out. kind keeps the handle types apart in the call log.
type handle struct {
	kind string
	id   int
}

func (h handle) String() string { return fmt.Sprintf("%s#%d", h.kind, h.id) }

// fakeBackend records every call and tracks live objects so tests can assert ordering, leaks and
// double frees without a GPU.
type fakeBackend struct {
	t *testing.T

	support SurfaceSupport
	// extraAllocated images are added on top of the requested minimum, like drivers are free to.
	extraAllocated int

	failQuery       error
	failWaitIdle    error
	failSwapchain   error
	failImageViewAt int // 1 based, 0 disables
	failRenderPass  error
	failFramebuffer error

	nextID   int
	live     map[handle]bool
	calls    []string
	requests []SwapchainRequest
	// images maps a swapchain handle to its platform owned images.
	images map[handle][]Image
}

func newFakeBackend(t *testing.T) *fakeBackend {
	return &fakeBackend{
		t: t,
		support: SurfaceSupport{
			Capabilities: SurfaceCapabilities{
				MinImageCount: 2,
				MaxImageCount: 0,
				CurrentExtent: UndefinedExtent,
				MinExtent:     Extent{Width: 1, Height: 1},
				MaxExtent:     Extent{Width: 4096, Height: 4096},
			},
			Formats: []SurfaceFormat{
				{Format: FormatB8G8R8A8Unorm, ColorSpace: ColorSpaceSrgbNonlinear},
				{Format: FormatB8G8R8A8Srgb, ColorSpace: ColorSpaceSrgbNonlinear},
			},
			PresentModes: []PresentMode{PresentModeFIFO, PresentModeMailbox},
		},
		live:   map[handle]bool{},
		images: map[handle][]Image{},
	}
}

func (b *fakeBackend) create(kind string) handle {
	b.nextID++
	h := handle{kind: kind, id: b.nextID}
	b.live[h] = true
	b.calls = append(b.calls, "create "+h.String())
	return h
}

func (b *fakeBackend) destroy(kind string, v any) {
	h, ok := v.(handle)
	if !ok || h.kind != kind {
		b.t.Errorf("destroy %s called with %v", kind, v)
		return
	}
	if !b.live[h] {
		b.t.Errorf("double free or unknown handle %s", h)
		return
	}
	delete(b.live, h)
	b.calls = append(b.calls, "destroy "+h.String())
}

func (b *fakeBackend) QuerySurface() (SurfaceSupport, error) {
	b.calls = append(b.calls, "query")
	if b.failQuery != nil {
		return SurfaceSupport{}, b.failQuery
	}
	return b.support, nil
}

func (b *fakeBackend) WaitIdle() error {
	b.calls = append(b.calls, "wait")
	return b.failWaitIdle
}

func (b *fakeBackend) CreateSwapchain(req SwapchainRequest) (Swapchain, error) {
	if b.failSwapchain != nil {
		return nil, b.failSwapchain
	}
	b.requests = append(b.requests, req)
	h := b.create("swapchain")
	n := int(req.MinImageCount) + b.extraAllocated
	imgs := make([]Image, n)
	for i := range imgs {
		imgs[i] = handle{kind: "image", id: h.id*100 + i}
	}
	b.images[h] = imgs
	return h, nil
}

func (b *fakeBackend) SwapchainImages(sc Swapchain) ([]Image, error) {
	h := sc.(handle)
	if !b.live[h] {
		b.t.Errorf("images requested from dead swapchain %s", h)
	}
	return b.images[h], nil
}

func (b *fakeBackend) DestroySwapchain(sc Swapchain) { b.destroy("swapchain", sc) }

func (b *fakeBackend) CreateImageView(img Image, format ColorFormat) (ImageView, error) {
	if b.failImageViewAt > 0 && b.countLive("view")+1 == b.failImageViewAt {
		return nil, errors.New("out of device memory")
	}
	return b.create("view"), nil
}

func (b *fakeBackend) DestroyImageView(v ImageView) { b.destroy("view", v) }

func (b *fakeBackend) CreateRenderPass(format ColorFormat) (RenderPass, error) {
	if b.failRenderPass != nil {
		return nil, b.failRenderPass
	}
	return b.create("pass"), nil
}

func (b *fakeBackend) DestroyRenderPass(p RenderPass) { b.destroy("pass", p) }

func (b *fakeBackend) CreateFramebuffer(p RenderPass, v ImageView, e Extent) (Framebuffer, error) {
	if !b.live[p.(handle)] || !b.live[v.(handle)] {
		b.t.Errorf("framebuffer created from dead pass %v or view %v", p, v)
	}
	if b.failFramebuffer != nil {
		return nil, b.failFramebuffer
	}
	return b.create("fb"), nil
}

func (b *fakeBackend) DestroyFramebuffer(fb Framebuffer) { b.destroy("fb", fb) }

func (b *fakeBackend) countLive(kind string) int {
	n := 0
	for h := range b.live {
		if h.kind == kind {
			n++
		}
	}
	return n
}

func (b *fakeBackend) countCalls(prefix string) int {
	n := 0
	for _, c := range b.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (b *fakeBackend) resetCalls() {
	b.calls = nil
}

func newTestCoordinator(t *testing.T, size Extent) (*Coordinator, *fakeBackend, *fakeWindow) {
	b := newFakeBackend(t)
	w := &fakeWindow{size: size}
	c := NewCoordinator(b, w, NewQueueIndices(0, 0), DefaultConfig())
	return c, b, w
}
