package common

import (
	"fmt"
	"log/slog"

	vk "github.com/goki/vulkan"
)

// physicalDeviceAttrs describes a device and its queue families as structured log attributes.
func physicalDeviceAttrs(pdProps vk.PhysicalDeviceProperties, qFamilies []vk.QueueFamilyProperties) []any {
	vendor := vk.VendorId(pdProps.VendorID)
	attrs := []any{
		slog.String("name", vk.ToString(pdProps.DeviceName[:])),
		slog.String("api", vk.Version(pdProps.ApiVersion).String()),
		slog.String("driver", driverVersion(vendor, pdProps.DriverVersion)),
		slog.String("vendor", vendorName(vendor)),
		slog.Uint64("deviceId", uint64(pdProps.DeviceID)),
		slog.String("type", deviceTypeName(pdProps.DeviceType)),
	}
	for i, q := range qFamilies {
		attrs = append(attrs, slog.Group(fmt.Sprintf("queueFamily%d", i),
			slog.Uint64("count", uint64(q.QueueCount)),
			slog.Uint64("timestampBits", uint64(q.TimestampValidBits)),
			slog.Any("flags", queueFlagNames(q.QueueFlags)),
		))
	}
	return attrs
}

// vendorName maps the PCI vendor ids that ship Vulkan drivers.
func vendorName(v vk.VendorId) string {
	switch v {
	case 0x1002:
		return "AMD"
	case 0x1010:
		return "ImgTec"
	case 0x10DE:
		return "NVIDIA"
	case 0x13B5:
		return "ARM"
	case 0x5143:
		return "Qualcomm"
	case 0x8086:
		return "INTEL"
	case 0x10005:
		return "Mesa"
	}
	return "unknown"
}

// driverVersion decodes the vendor specific packing, NVIDIA uses 10.8.8.6 bits.
func driverVersion(vendor vk.VendorId, raw uint32) string {
	if vendor != 0x10DE {
		return vk.Version(raw).String()
	}
	return fmt.Sprintf("%d.%d.%d.%d", (raw>>22)&0x3ff, (raw>>14)&0xff, (raw>>6)&0xff, raw&0x3f)
}

func deviceTypeName(dt vk.PhysicalDeviceType) string {
	switch dt {
	case vk.PhysicalDeviceTypeOther:
		return "other"
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return "integrated"
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return "discrete"
	case vk.PhysicalDeviceTypeVirtualGpu:
		return "virtual"
	case vk.PhysicalDeviceTypeCpu:
		return "cpu"
	}
	return "unknown"
}

func queueFlagNames(bits vk.QueueFlags) []string {
	names := []struct {
		bit  vk.QueueFlagBits
		name string
	}{
		{vk.QueueGraphicsBit, "graphics"},
		{vk.QueueComputeBit, "compute"},
		{vk.QueueTransferBit, "transfer"},
		{vk.QueueSparseBindingBit, "sparse"},
		{vk.QueueProtectedBit, "protected"},
	}
	var out []string
	for _, n := range names {
		if vk.QueueFlagBits(bits)&n.bit != 0 {
			out = append(out, n.name)
		}
	}
	return out
}
