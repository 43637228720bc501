package presentation

import (
	"fmt"
	"math"
)

// Extent is a two-dimensional size in pixels.
type Extent struct {
	Width  uint32
	Height uint32
}

// UndefinedExtent is reported as the current extent by platforms that let the application pick
// the surface size itself.
var UndefinedExtent = Extent{Width: math.MaxUint32, Height: math.MaxUint32}

// IsUndefined reports whether e is the UndefinedExtent sentinel. Only the width is compared,
// platforms set both dimensions but the width is what the display contract guarantees.
func (e Extent) IsUndefined() bool {
	return e.Width == UndefinedExtent.Width
}

// IsZero reports whether either dimension is zero, which is the case for minimized windows.
func (e Extent) IsZero() bool {
	return e.Width == 0 || e.Height == 0
}

func (e Extent) String() string {
	if e.IsUndefined() {
		return "undefined"
	}
	return fmt.Sprintf("%dx%d", e.Width, e.Height)
}

// ColorFormat is a pixel format. Values share their numbering with the Vulkan format enum so the
// backend can convert with a plain cast.
type ColorFormat uint32

const (
	FormatUndefined     ColorFormat = 0
	FormatR8G8B8A8Unorm ColorFormat = 37
	FormatR8G8B8A8Srgb  ColorFormat = 43
	FormatB8G8R8A8Unorm ColorFormat = 44
	FormatB8G8R8A8Srgb  ColorFormat = 50
)

// ColorSpace shares its numbering with the Vulkan color space enum.
type ColorSpace uint32

const (
	ColorSpaceSrgbNonlinear ColorSpace = 0
)

// SurfaceFormat pairs a color format with the color space the presentation engine interprets it in.
type SurfaceFormat struct {
	Format     ColorFormat
	ColorSpace ColorSpace
}

func (f SurfaceFormat) String() string {
	return fmt.Sprintf("format=%d colorSpace=%d", f.Format, f.ColorSpace)
}

// PresentMode selects how finished images are queued for display.
type PresentMode uint32

const (
	// PresentModeFIFO waits for vertical blank. Every display supports it.
	PresentModeFIFO PresentMode = iota
	// PresentModeImmediate presents without waiting and may tear.
	PresentModeImmediate
	// PresentModeMailbox replaces the queued image with the newest one (triple buffering).
	PresentModeMailbox
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeFIFO:
		return "V-Sync"
	case PresentModeImmediate:
		return "Uncapped"
	case PresentModeMailbox:
		return "Triple-Buffering"
	}
	return fmt.Sprintf("PresentMode(%d)", uint32(m))
}

// SurfaceTransform is a bit set of surface transforms, numbered as in Vulkan.
type SurfaceTransform uint32

// SurfaceCapabilities is a snapshot of what the surface supports at the time of the query. It is
// re-read for every rebuild and never cached across rebuilds.
type SurfaceCapabilities struct {
	MinImageCount uint32
	// MaxImageCount of 0 means there is no upper bound.
	MaxImageCount       uint32
	CurrentExtent       Extent
	MinExtent           Extent
	MaxExtent           Extent
	CurrentTransform    SurfaceTransform
	SupportedTransforms SurfaceTransform
}

// SurfaceSupport bundles the result of one capability query.
type SurfaceSupport struct {
	Capabilities SurfaceCapabilities
	Formats      []SurfaceFormat
	PresentModes []PresentMode
}

// QueueIndices holds the queue family used for graphics submission and the one used for
// presentation. Both are nil until device selection resolved them.
type QueueIndices struct {
	Graphics *uint32
	Present  *uint32
}

// NewQueueIndices returns resolved indices.
func NewQueueIndices(graphics, present uint32) QueueIndices {
	return QueueIndices{Graphics: &graphics, Present: &present}
}

// Resolved reports whether both indices are known.
func (q QueueIndices) Resolved() bool {
	return q.Graphics != nil && q.Present != nil
}

// Unified reports whether graphics and presentation share one queue family. It is false for
// unresolved indices.
func (q QueueIndices) Unified() bool {
	return q.Resolved() && *q.Graphics == *q.Present
}

// SharingMode tells the platform whether chain images are owned by one queue family at a time.
type SharingMode uint32

const (
	SharingExclusive SharingMode = iota
	SharingConcurrent
)

func (s SharingMode) String() string {
	if s == SharingConcurrent {
		return "concurrent"
	}
	return "exclusive"
}

// Opaque platform handles. The backend stores its native objects in them and type asserts them
// back when they are passed in again.
type (
	Swapchain   any
	Image       any
	ImageView   any
	RenderPass  any
	Framebuffer any
)
