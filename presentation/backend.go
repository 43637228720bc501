package presentation

// Window is the windowing collaborator. The size is polled, never pushed.
type Window interface {
	// FramebufferSize returns the drawable size of the window in pixels. It is zero in either
	// dimension while the window is minimized.
	FramebufferSize() Extent
}

// SwapchainRequest carries the negotiated parameters for one chain.
type SwapchainRequest struct {
	// MinImageCount is a minimum, the platform may allocate more images.
	MinImageCount uint32
	Format        SurfaceFormat
	Extent        Extent
	PresentMode   PresentMode
	Sharing       SharingMode
	// QueueFamilies lists the families sharing the images. Empty for SharingExclusive.
	QueueFamilies []uint32
	Transform     SurfaceTransform
}

// Backend is the device collaborator. Handles it returns are owned by the coordinator until they
// are handed back to the matching Destroy method. Destroy methods must accept nothing but handles
// the backend created.
type Backend interface {
	// QuerySurface reads the surface capabilities, formats and present modes. It is called fresh
	// for every rebuild attempt.
	QuerySurface() (SurfaceSupport, error)

	// WaitIdle blocks until the device finished all submitted work.
	WaitIdle() error

	CreateSwapchain(req SwapchainRequest) (Swapchain, error)
	// SwapchainImages returns the platform owned images of sc. They are released together with
	// the swapchain and must not be destroyed one by one.
	SwapchainImages(sc Swapchain) ([]Image, error)
	DestroySwapchain(sc Swapchain)

	CreateImageView(img Image, format ColorFormat) (ImageView, error)
	DestroyImageView(view ImageView)

	CreateRenderPass(format ColorFormat) (RenderPass, error)
	DestroyRenderPass(pass RenderPass)

	CreateFramebuffer(pass RenderPass, view ImageView, extent Extent) (Framebuffer, error)
	DestroyFramebuffer(fb Framebuffer)
}
