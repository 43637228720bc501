package presentation

// ResolveExtent returns the current extent when the platform defines one. Otherwise the live
// framebuffer size is clamped, each axis on its own, into the reported min/max bounds.
func ResolveExtent(caps SurfaceCapabilities, framebuffer Extent) Extent {
	if !caps.CurrentExtent.IsUndefined() {
		return caps.CurrentExtent
	}
	return Extent{
		Width:  clamp(framebuffer.Width, caps.MinExtent.Width, caps.MaxExtent.Width),
		Height: clamp(framebuffer.Height, caps.MinExtent.Height, caps.MaxExtent.Height),
	}
}

func clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
