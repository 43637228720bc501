package presentation

// FrameTarget is what draw submission may use for one frame. It borrows the coordinator's handles
// and is only valid until the next BeginFrame call. The slices must not be modified.
type FrameTarget struct {
	Generation   uint64
	Swapchain    Swapchain
	Images       []Image
	RenderPass   RenderPass
	Framebuffers []Framebuffer
	Extent       Extent
	Format       SurfaceFormat
	PresentMode  PresentMode
}

// Framebuffer returns the framebuffer for the image index reported by the platform on acquire.
func (t FrameTarget) Framebuffer(imageIndex uint32) Framebuffer {
	return t.Framebuffers[imageIndex]
}

// ImageCount is the number of images the platform actually allocated.
func (t FrameTarget) ImageCount() int {
	return len(t.Images)
}

// Aspect is width divided by height, handy for projection setup.
func (t FrameTarget) Aspect() float32 {
	return float32(t.Extent.Width) / float32(t.Extent.Height)
}
