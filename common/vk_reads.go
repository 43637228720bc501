package common

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
)

// Read operations that require duplicated function calls, allocations and dereferencing. They are pulled out to
// provide a more go-lang feel and tidy the core code.

// ReadInstanceExtensionPropertyNames is a convenience method obfuscating the spec defined []vk.ExtensionProperties
// type in favor of their respective names in order to simplify support checks to a point of string comparisons.
func ReadInstanceExtensionPropertyNames() ([]string, error) {
	supportedExts, err := readInstanceExtensionProperties()
	if err != nil {
		return nil, err
	}
	supportedExtNames := make([]string, len(supportedExts))
	for i, ext := range supportedExts {
		supportedExtNames[i] = vk.ToString(ext.ExtensionName[:])
	}
	return supportedExtNames, nil
}

// readInstanceExtensionProperties wraps the raw vulkan call to retrieve all supported instance extensions as their
// spec defined type and dereferences all necessary pointer values.
func readInstanceExtensionProperties() ([]vk.ExtensionProperties, error) {
	extensionCount := uint32(0)
	err := vk.Error(vk.EnumerateInstanceExtensionProperties("", &extensionCount, nil))
	if err != nil {
		return nil, errors.Wrap(err, "read number of InstanceExtensionProperties")
	}
	extensionProperties := make([]vk.ExtensionProperties, extensionCount)
	err = vk.Error(vk.EnumerateInstanceExtensionProperties("", &extensionCount, extensionProperties))
	if err != nil {
		return nil, errors.Wrapf(err, "read %d InstanceExtensionProperties", extensionCount)
	}
	for i := range extensionProperties {
		extensionProperties[i].Deref()
	}
	return extensionProperties, nil
}

// ReadInstanceLayerPropertyNames is a convenience method obfuscating the spec defined []vk.LayerProperties
// type in favor of their respective names in order to simplify support checks to a point of string comparisons.
func ReadInstanceLayerPropertyNames() ([]string, error) {
	layerCount := uint32(0)
	err := vk.Error(vk.EnumerateInstanceLayerProperties(&layerCount, nil))
	if err != nil {
		return nil, errors.Wrap(err, "read number of InstanceLayerProperties")
	}
	layers := make([]vk.LayerProperties, layerCount)
	err = vk.Error(vk.EnumerateInstanceLayerProperties(&layerCount, layers))
	if err != nil {
		return nil, errors.Wrapf(err, "read %d InstanceLayerProperties", layerCount)
	}
	names := make([]string, len(layers))
	for i := range layers {
		layers[i].Deref()
		names[i] = vk.ToString(layers[i].LayerName[:])
	}
	return names, nil
}

func ReadPhysicalDevices(instance vk.Instance) ([]vk.PhysicalDevice, error) {
	var gpuCount uint32
	err := vk.Error(vk.EnumeratePhysicalDevices(instance, &gpuCount, nil))
	if err != nil {
		return nil, errors.Wrap(err, "read number of PhysicalDevices")
	}
	if gpuCount == 0 {
		return nil, errors.New("there are 0 physical devices available")
	}
	physDevices := make([]vk.PhysicalDevice, gpuCount)
	err = vk.Error(vk.EnumeratePhysicalDevices(instance, &gpuCount, physDevices))
	if err != nil {
		return nil, errors.Wrapf(err, "read %d PhysicalDevices", gpuCount)
	}
	return physDevices, nil
}

func ReadPhysicalDeviceProperties(pd vk.PhysicalDevice) vk.PhysicalDeviceProperties {
	var pdProps vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(pd, &pdProps)
	pdProps.Deref()
	return pdProps
}

func ReadQueueFamilies(pd vk.PhysicalDevice) []vk.QueueFamilyProperties {
	qFamilyCount := uint32(0)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &qFamilyCount, nil)
	qFamilyProps := make([]vk.QueueFamilyProperties, qFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &qFamilyCount, qFamilyProps)
	for i := range qFamilyProps {
		qFamilyProps[i].Deref()
		qFamilyProps[i].MinImageTransferGranularity.Deref()
	}
	return qFamilyProps
}

func ReadDeviceExtensionPropertyNames(pd vk.PhysicalDevice) ([]string, error) {
	extensionCount := uint32(0)
	err := vk.Error(vk.EnumerateDeviceExtensionProperties(pd, "", &extensionCount, nil))
	if err != nil {
		return nil, errors.Wrap(err, "read number of DeviceExtensionProperties")
	}
	extensionProperties := make([]vk.ExtensionProperties, extensionCount)
	err = vk.Error(vk.EnumerateDeviceExtensionProperties(pd, "", &extensionCount, extensionProperties))
	if err != nil {
		return nil, errors.Wrapf(err, "read %d DeviceExtensionProperties", extensionCount)
	}
	names := make([]string, len(extensionProperties))
	for i := range extensionProperties {
		extensionProperties[i].Deref()
		names[i] = vk.ToString(extensionProperties[i].ExtensionName[:])
	}
	return names, nil
}

// SurfaceSupportDetails is the raw result of one surface capability query.
type SurfaceSupportDetails struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// ReadSurfaceSupportDetails queries capabilities, formats and present modes of a surface. Every call hits the
// driver; the results change with the window and must not be cached. Failing calls return the raw vk.Result as
// cause so callers can tell a lost surface apart.
func ReadSurfaceSupportDetails(pd vk.PhysicalDevice, surface vk.Surface) (SurfaceSupportDetails, error) {
	details := SurfaceSupportDetails{}
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(pd, surface, &details.Capabilities)); err != nil {
		return details, errors.Wrap(err, "read surface capabilities")
	}
	details.Capabilities.Deref()
	details.Capabilities.CurrentExtent.Deref()
	details.Capabilities.MinImageExtent.Deref()
	details.Capabilities.MaxImageExtent.Deref()

	var formatCount uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(pd, surface, &formatCount, nil)); err != nil {
		return details, errors.Wrap(err, "read number of surface formats")
	}
	details.Formats = make([]vk.SurfaceFormat, formatCount)
	if formatCount > 0 {
		if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(pd, surface, &formatCount, details.Formats)); err != nil {
			return details, errors.Wrapf(err, "read %d surface formats", formatCount)
		}
	}
	details.Formats = details.Formats[:formatCount]
	for i := range details.Formats {
		details.Formats[i].Deref()
	}

	var presentModeCount uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(pd, surface, &presentModeCount, nil)); err != nil {
		return details, errors.Wrap(err, "read number of present modes")
	}
	details.PresentModes = make([]vk.PresentMode, presentModeCount)
	if presentModeCount > 0 {
		if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(pd, surface, &presentModeCount, details.PresentModes)); err != nil {
			return details, errors.Wrapf(err, "read %d present modes", presentModeCount)
		}
	}
	details.PresentModes = details.PresentModes[:presentModeCount]
	return details, nil
}

func ReadSwapChainImages(device vk.Device, swapChain vk.Swapchain) ([]vk.Image, error) {
	var imgCount uint32
	if err := vk.Error(vk.GetSwapchainImages(device, swapChain, &imgCount, nil)); err != nil {
		return nil, errors.Wrap(err, "read number of swap chain images")
	}
	imgs := make([]vk.Image, imgCount)
	if err := vk.Error(vk.GetSwapchainImages(device, swapChain, &imgCount, imgs)); err != nil {
		return nil, errors.Wrapf(err, "read %d swap chain images", imgCount)
	}
	return imgs[:imgCount], nil
}
