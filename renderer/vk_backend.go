package renderer

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"

	"GPU_render_base/common"
	"GPU_render_base/presentation"
)

// vkBackend implements presentation.Backend with goki/vulkan. Handles cross the interface as the plain vk types.
type vkBackend struct {
	device  *common.Device
	surface vk.Surface

	// compositeAlpha is picked from the last capability query.
	compositeAlpha vk.CompositeAlphaFlagBits
}

func newVkBackend(device *common.Device, surface vk.Surface) *vkBackend {
	return &vkBackend{
		device:         device,
		surface:        surface,
		compositeAlpha: vk.CompositeAlphaOpaqueBit,
	}
}

func (b *vkBackend) QuerySurface() (presentation.SurfaceSupport, error) {
	details, err := common.ReadSurfaceSupportDetails(b.device.PhysicalDevice, b.surface)
	if err != nil {
		return presentation.SurfaceSupport{}, &presentation.CapabilityQueryError{Op: "read surface support", Err: err}
	}
	b.compositeAlpha = common.ChooseCompositeAlpha(details.Capabilities.SupportedCompositeAlpha)
	return surfaceSupportFromVk(details), nil
}

func (b *vkBackend) WaitIdle() error {
	return b.device.WaitIdle()
}

func (b *vkBackend) CreateSwapchain(req presentation.SwapchainRequest) (presentation.Swapchain, error) {
	createInfo := common.NewSwapChainCreateInfo(b.surface, common.SwapChainConfig{
		MinImageCount:  req.MinImageCount,
		Format:         surfaceFormatToVk(req.Format),
		Extent:         extentToVk(req.Extent),
		PresentMode:    presentModeToVk(req.PresentMode),
		QueueFamilies:  req.QueueFamilies,
		PreTransform:   vk.SurfaceTransformFlagBits(req.Transform),
		CompositeAlpha: b.compositeAlpha,
	})
	sc, err := common.VkCreateSwapChain(b.device.D, createInfo, nil)
	if err != nil {
		return nil, err
	}
	return sc, nil
}

func (b *vkBackend) SwapchainImages(sc presentation.Swapchain) ([]presentation.Image, error) {
	imgs, err := common.ReadSwapChainImages(b.device.D, sc.(vk.Swapchain))
	if err != nil {
		return nil, err
	}
	out := make([]presentation.Image, len(imgs))
	for i := range imgs {
		out[i] = imgs[i]
	}
	return out, nil
}

func (b *vkBackend) DestroySwapchain(sc presentation.Swapchain) {
	vk.DestroySwapchain(b.device.D, sc.(vk.Swapchain), nil)
}

func (b *vkBackend) CreateImageView(img presentation.Image, format presentation.ColorFormat) (presentation.ImageView, error) {
	view, err := common.VKCreate2DColorImageView(b.device.D, img.(vk.Image), vk.Format(format))
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (b *vkBackend) DestroyImageView(view presentation.ImageView) {
	vk.DestroyImageView(b.device.D, view.(vk.ImageView), nil)
}

// CreateRenderPass creates a single subpass pass with one color attachment that is cleared on load and handed to
// the presentation engine at the end.
func (b *vkBackend) CreateRenderPass(format presentation.ColorFormat) (presentation.RenderPass, error) {
	colorAttachment := vk.AttachmentDescription{
		Flags:          0,
		Format:         vk.Format(format),
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}
	colorAttachmentRef := vk.AttachmentReference{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}
	subpass := vk.SubpassDescription{
		Flags:                   0,
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		InputAttachmentCount:    0,
		PInputAttachments:       nil,
		ColorAttachmentCount:    1,
		PColorAttachments:       []vk.AttachmentReference{colorAttachmentRef},
		PResolveAttachments:     nil,
		PDepthStencilAttachment: nil,
		PreserveAttachmentCount: 0,
		PPreserveAttachments:    nil,
	}
	// The acquire semaphore is waited on at color attachment output, the layout transition must not start earlier.
	dependency := vk.SubpassDependency{
		SrcSubpass:      vk.SubpassExternal,
		DstSubpass:      0,
		SrcStageMask:    vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstStageMask:    vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask:   0,
		DstAccessMask:   vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
		DependencyFlags: 0,
	}
	renderPassInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		PNext:           nil,
		Flags:           0,
		AttachmentCount: 1,
		PAttachments:    []vk.AttachmentDescription{colorAttachment},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}
	pass, err := common.VkCreateRenderPass(b.device.D, &renderPassInfo, nil)
	if err != nil {
		return nil, err
	}
	return pass, nil
}

func (b *vkBackend) DestroyRenderPass(pass presentation.RenderPass) {
	vk.DestroyRenderPass(b.device.D, pass.(vk.RenderPass), nil)
}

func (b *vkBackend) CreateFramebuffer(pass presentation.RenderPass, view presentation.ImageView, extent presentation.Extent) (presentation.Framebuffer, error) {
	framebufferInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		PNext:           nil,
		Flags:           0,
		RenderPass:      pass.(vk.RenderPass),
		AttachmentCount: 1,
		PAttachments:    []vk.ImageView{view.(vk.ImageView)},
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}
	fb, err := common.VkCreateFrameBuffer(b.device.D, &framebufferInfo, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "framebuffer %s", extent)
	}
	return fb, nil
}

func (b *vkBackend) DestroyFramebuffer(fb presentation.Framebuffer) {
	vk.DestroyFramebuffer(b.device.D, fb.(vk.Framebuffer), nil)
}
