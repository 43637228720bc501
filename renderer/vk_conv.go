package renderer

import (
	vk "github.com/goki/vulkan"

	"GPU_render_base/common"
	"GPU_render_base/presentation"
)

// Conversions between goki/vulkan values and the API independent presentation types. Formats, color spaces and
// transforms share Vulkan's numbering, present modes do not.

func extentFromVk(e vk.Extent2D) presentation.Extent {
	return presentation.Extent{Width: e.Width, Height: e.Height}
}

func extentToVk(e presentation.Extent) vk.Extent2D {
	return vk.Extent2D{Width: e.Width, Height: e.Height}
}

func surfaceFormatFromVk(f vk.SurfaceFormat) presentation.SurfaceFormat {
	return presentation.SurfaceFormat{
		Format:     presentation.ColorFormat(f.Format),
		ColorSpace: presentation.ColorSpace(f.ColorSpace),
	}
}

func surfaceFormatToVk(f presentation.SurfaceFormat) vk.SurfaceFormat {
	return vk.SurfaceFormat{
		Format:     vk.Format(f.Format),
		ColorSpace: vk.ColorSpace(f.ColorSpace),
	}
}

// presentModeFromVk reports false for modes the negotiator does not rank, e.g. FIFO relaxed.
func presentModeFromVk(m vk.PresentMode) (presentation.PresentMode, bool) {
	switch m {
	case vk.PresentModeFifo:
		return presentation.PresentModeFIFO, true
	case vk.PresentModeImmediate:
		return presentation.PresentModeImmediate, true
	case vk.PresentModeMailbox:
		return presentation.PresentModeMailbox, true
	}
	return 0, false
}

func presentModeToVk(m presentation.PresentMode) vk.PresentMode {
	switch m {
	case presentation.PresentModeImmediate:
		return vk.PresentModeImmediate
	case presentation.PresentModeMailbox:
		return vk.PresentModeMailbox
	}
	return vk.PresentModeFifo
}

func surfaceSupportFromVk(d common.SurfaceSupportDetails) presentation.SurfaceSupport {
	caps := d.Capabilities
	support := presentation.SurfaceSupport{
		Capabilities: presentation.SurfaceCapabilities{
			MinImageCount:       caps.MinImageCount,
			MaxImageCount:       caps.MaxImageCount,
			CurrentExtent:       extentFromVk(caps.CurrentExtent),
			MinExtent:           extentFromVk(caps.MinImageExtent),
			MaxExtent:           extentFromVk(caps.MaxImageExtent),
			CurrentTransform:    presentation.SurfaceTransform(caps.CurrentTransform),
			SupportedTransforms: presentation.SurfaceTransform(caps.SupportedTransforms),
		},
		Formats:      make([]presentation.SurfaceFormat, 0, len(d.Formats)),
		PresentModes: make([]presentation.PresentMode, 0, len(d.PresentModes)),
	}
	for _, f := range d.Formats {
		support.Formats = append(support.Formats, surfaceFormatFromVk(f))
	}
	for _, m := range d.PresentModes {
		if pm, ok := presentModeFromVk(m); ok {
			support.PresentModes = append(support.PresentModes, pm)
		}
	}
	return support
}
