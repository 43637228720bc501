package common

import (
	vk "github.com/goki/vulkan"
)

// compositeAlphaPreference is scanned in order, opaque first since window system blending is never wanted here.
var compositeAlphaPreference = []vk.CompositeAlphaFlagBits{
	vk.CompositeAlphaOpaqueBit,
	vk.CompositeAlphaPreMultipliedBit,
	vk.CompositeAlphaPostMultipliedBit,
	vk.CompositeAlphaInheritBit,
}

// ChooseCompositeAlpha returns the first supported composite alpha mode. Surfaces must support at least one, opaque is
// returned if the driver reports none anyway.
func ChooseCompositeAlpha(supported vk.CompositeAlphaFlags) vk.CompositeAlphaFlagBits {
	for _, bit := range compositeAlphaPreference {
		if supported&vk.CompositeAlphaFlags(bit) != 0 {
			return bit
		}
	}
	return vk.CompositeAlphaOpaqueBit
}

// SwapChainConfig is the negotiated configuration a swap chain is created from.
type SwapChainConfig struct {
	MinImageCount  uint32
	Format         vk.SurfaceFormat
	Extent         vk.Extent2D
	PresentMode    vk.PresentMode
	QueueFamilies  []uint32
	PreTransform   vk.SurfaceTransformFlagBits
	CompositeAlpha vk.CompositeAlphaFlagBits
}

// NewSwapChainCreateInfo fills the create info with reasonable defaults. Depending on whether our queue families are
// the same for graphics and presentation, we need to choose different swap chain configurations:
// https://vulkan-tutorial.com/Drawing_a_triangle/Presentation/Swap_chain
// No old swap chain is handed over, the previous one is always destroyed before a new one is created.
func NewSwapChainCreateInfo(surface vk.Surface, cfg SwapChainConfig) *vk.SwapchainCreateInfo {
	sharingMode := vk.SharingModeExclusive
	var qFamIndices []uint32
	if len(cfg.QueueFamilies) > 1 {
		sharingMode = vk.SharingModeConcurrent
		qFamIndices = cfg.QueueFamilies
	}
	return &vk.SwapchainCreateInfo{
		SType:                 vk.StructureTypeSwapchainCreateInfo,
		PNext:                 nil,
		Flags:                 0,
		Surface:               surface,
		MinImageCount:         cfg.MinImageCount,
		ImageFormat:           cfg.Format.Format,
		ImageColorSpace:       cfg.Format.ColorSpace,
		ImageExtent:           cfg.Extent,
		ImageArrayLayers:      1,
		ImageUsage:            vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode:      sharingMode,
		QueueFamilyIndexCount: uint32(len(qFamIndices)),
		PQueueFamilyIndices:   qFamIndices,
		PreTransform:          cfg.PreTransform,
		CompositeAlpha:        cfg.CompositeAlpha,
		PresentMode:           cfg.PresentMode,
		Clipped:               vk.True,
		OldSwapchain:          nil,
	}
}

func checkSwapChainAdequacy(pd vk.PhysicalDevice, surface vk.Surface) bool {
	scDetails, err := ReadSurfaceSupportDetails(pd, surface)
	if err != nil {
		return false
	}
	return len(scDetails.Formats) > 0 && len(scDetails.PresentModes) > 0
}
