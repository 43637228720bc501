package common

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"

	"GPU_render_base/logging"
)

var VALIDATION_LAYERS = []string{
	"VK_LAYER_KHRONOS_validation",
}

var DEVICE_EXTENSIONS = []string{
	"VK_KHR_swapchain",
}

// Device represents the interfacing objects between the SDL window, the Hardware running Vulkan
// and the rest of the rendering engine. Its main purpose is to encapsulate the corresponding objects
// to make the initialization and teardown of a given application neater.
type Device struct {
	PhysicalDevice vk.PhysicalDevice
	PdProps        vk.PhysicalDeviceProperties
	QFamilies      QueueFamilyIndices

	D         vk.Device
	GraphicsQ vk.Queue
	PresentQ  vk.Queue
}

// NewDevice picks the most suitable GPU for the window's surface and creates the logical device with one graphics
// and one present queue. validationLayers may be empty.
func NewDevice(w *Window, extensions []string, validationLayers []string) (*Device, error) {
	if len(extensions) == 0 {
		extensions = DEVICE_EXTENSIONS
	}
	dc := &Device{}
	if err := dc.selectPhysicalDevice(*w.Inst, *w.Surf, extensions); err != nil {
		return nil, err
	}
	if err := dc.createLogicalDevice(extensions, validationLayers); err != nil {
		return nil, err
	}
	return dc, nil
}

// Destroy all objects created by itself. It does not destroy the sdl.window object provided for instantiation.
func (dc *Device) Destroy() {
	if dc.D != nil {
		vk.DestroyDevice(dc.D, nil)
		dc.D = nil
	}
}

// WaitIdle blocks until all queues of the device finished their work.
func (dc *Device) WaitIdle() error {
	return vk.Error(vk.DeviceWaitIdle(dc.D))
}

// Name is the driver reported device name.
func (dc *Device) Name() string {
	return vk.ToString(dc.PdProps.DeviceName[:])
}

func (dc *Device) selectPhysicalDevice(in vk.Instance, su vk.Surface, extensions []string) error {
	availableDevices, err := ReadPhysicalDevices(in)
	if err != nil {
		return err
	}
	var pd vk.PhysicalDevice
	bestScore := 0
	for i := range availableDevices {
		if score := deviceScore(availableDevices[i], su, extensions); score > bestScore {
			pd, bestScore = availableDevices[i], score
		}
	}
	if pd == nil {
		return errors.Errorf("no suitable physical device (GPU) found among %d", len(availableDevices))
	}
	dc.PhysicalDevice = pd

	// Also set related member variables for dc.physicalDevice as they are needed later
	qf, err := findQueueFamilies(dc.PhysicalDevice, su)
	if err != nil {
		return errors.Wrap(err, "read queue families from selected device")
	}
	dc.QFamilies = *qf
	dc.PdProps = ReadPhysicalDeviceProperties(dc.PhysicalDevice)
	logging.Logger().Info("selected physical device",
		"name", dc.Name(),
		"type", deviceTypeName(dc.PdProps.DeviceType),
		"graphicsFamily", *dc.QFamilies.GraphicsFamily,
		"presentFamily", *dc.QFamilies.PresentFamily,
	)
	return nil
}

// deviceScore returns how suitable a device is for presenting to su. Zero means it cannot be used at all, discrete
// GPUs beat everything else.
func deviceScore(pd vk.PhysicalDevice, su vk.Surface, extensions []string) int {
	pdProps := ReadPhysicalDeviceProperties(pd)
	pdQueueFams := ReadQueueFamilies(pd)

	logging.Logger().Debug("physical device", physicalDeviceAttrs(pdProps, pdQueueFams)...)

	if _, err := findQueueFamilies(pd, su); err != nil {
		logging.Logger().Debug("device lacks required queue families", "err", err)
		return 0
	}
	if !checkDeviceExtensionSupport(pd, extensions) {
		return 0
	}
	if !checkSwapChainAdequacy(pd, su) {
		return 0
	}

	score := 1
	switch pdProps.DeviceType {
	case vk.PhysicalDeviceTypeDiscreteGpu:
		score += 1000
	case vk.PhysicalDeviceTypeIntegratedGpu:
		score += 100
	}
	return score
}

func (dc *Device) createLogicalDevice(extensions []string, validationLayers []string) error {
	queueInfos := dc.QFamilies.toQueueCreateInfos()
	deviceCreatInfo := &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		PNext:                   nil,
		Flags:                   0,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledLayerCount:       0,
		PpEnabledLayerNames:     nil,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: TerminatedStrs(extensions),
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
	}
	if len(validationLayers) > 0 {
		deviceCreatInfo.EnabledLayerCount = uint32(len(validationLayers))
		deviceCreatInfo.PpEnabledLayerNames = TerminatedStrs(validationLayers)
	}

	var err error
	dc.D, err = VkCreateDevice(dc.PhysicalDevice, deviceCreatInfo, nil)
	if err != nil {
		return errors.Wrap(err, "create logical device")
	}
	dc.GraphicsQ, err = VkGetDeviceQueue(dc.D, dc.QFamilies.GraphicsFamily, 0)
	if err != nil {
		return errors.Wrap(err, "get 'graphics' device queue")
	}
	dc.PresentQ, err = VkGetDeviceQueue(dc.D, dc.QFamilies.PresentFamily, 0)
	if err != nil {
		return errors.Wrap(err, "get 'present' device queue")
	}
	return nil
}

func checkDeviceExtensionSupport(pd vk.PhysicalDevice, requiredDeviceExt []string) bool {
	supportedExtNames, err := ReadDeviceExtensionPropertyNames(pd)
	if err != nil {
		logging.Logger().Debug("failed to read device extensions", "err", err)
		return false
	}
	missing := Missing(requiredDeviceExt, supportedExtNames)
	if len(missing) > 0 {
		logging.Logger().Debug("device extensions missing", "missing", missing, "available", len(supportedExtNames))
	}
	return len(missing) == 0
}
