package presentation

import (
	"github.com/pkg/errors"

	"GPU_render_base/logging"
)

// Chain is one built presentation chain. The images belong to the platform and are released
// together with the swapchain handle.
type Chain struct {
	Handle      Swapchain
	Images      []Image
	Format      SurfaceFormat
	Extent      Extent
	PresentMode PresentMode
	Sharing     SharingMode
	Generation  uint64
}

// ImageCount returns the number of images to request: the minimum plus extra, capped at the
// maximum when the surface has one.
func ImageCount(caps SurfaceCapabilities, extra uint32) uint32 {
	n := caps.MinImageCount + extra
	if caps.MaxImageCount > 0 && n > caps.MaxImageCount {
		n = caps.MaxImageCount
	}
	return n
}

// SharingFor returns exclusive ownership when graphics and presentation use the same queue
// family. Otherwise images are shared concurrently between both families, which avoids explicit
// ownership transfers.
func SharingFor(q QueueIndices) (SharingMode, []uint32) {
	if q.Unified() {
		return SharingExclusive, nil
	}
	return SharingConcurrent, []uint32{*q.Graphics, *q.Present}
}

type chainParams struct {
	format     SurfaceFormat
	mode       PresentMode
	extent     Extent
	caps       SurfaceCapabilities
	queues     QueueIndices
	extra      uint32
	generation uint64
}

// buildChain creates the swapchain and reads back its images. A zero extent is rejected before
// the platform is involved.
func buildChain(b Backend, p chainParams) (*Chain, error) {
	if p.extent.IsZero() {
		return nil, &ChainCreationError{Op: "validate extent " + p.extent.String(), Err: ErrZeroExtent}
	}
	if !p.queues.Resolved() {
		return nil, &ChainCreationError{Op: "resolve queues", Err: ErrQueuesUnresolved}
	}

	sharing, families := SharingFor(p.queues)
	req := SwapchainRequest{
		MinImageCount: ImageCount(p.caps, p.extra),
		Format:        p.format,
		Extent:        p.extent,
		PresentMode:   p.mode,
		Sharing:       sharing,
		QueueFamilies: families,
		Transform:     p.caps.CurrentTransform,
	}
	logging.Logger().Debug("creating presentation chain",
		"minImages", req.MinImageCount,
		"extent", req.Extent.String(),
		"sharing", sharing.String(),
		"presentMode", p.mode.String(),
	)

	handle, err := b.CreateSwapchain(req)
	if err != nil {
		return nil, &ChainCreationError{Op: "create swapchain", Err: err}
	}
	images, err := b.SwapchainImages(handle)
	if err != nil {
		b.DestroySwapchain(handle)
		return nil, &ChainCreationError{Op: "read swapchain images", Err: err}
	}
	if len(images) == 0 {
		b.DestroySwapchain(handle)
		return nil, &ChainCreationError{Op: "read swapchain images", Err: errors.New("platform returned no images")}
	}

	return &Chain{
		Handle:      handle,
		Images:      images,
		Format:      p.format,
		Extent:      p.extent,
		PresentMode: p.mode,
		Sharing:     sharing,
		Generation:  p.generation,
	}, nil
}

// destroy releases the swapchain. Dependent resources must be gone already.
func (c *Chain) destroy(b Backend) {
	b.DestroySwapchain(c.Handle)
	c.Handle = nil
	c.Images = nil
}
