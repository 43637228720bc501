package common

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"

	"GPU_render_base/presentation"
)

type QueueFamilyIndices struct {
	GraphicsFamily *uint32
	PresentFamily  *uint32
}

func NewQueueFamilyIndices(graphics, present uint32) QueueFamilyIndices {
	return QueueFamilyIndices{GraphicsFamily: &graphics, PresentFamily: &present}
}

func findQueueFamilies(pd vk.PhysicalDevice, surf vk.Surface) (*QueueFamilyIndices, error) {
	indices := &QueueFamilyIndices{
		GraphicsFamily: nil,
		PresentFamily:  nil,
	}
	qFamilies := ReadQueueFamilies(pd)

	// A family that does both is preferred, it saves the concurrent image sharing later on.
	for i := range qFamilies {
		if !isBitSet(qFamilies[i], vk.QueueGraphicsBit) {
			continue
		}
		if supportsPresent(pd, uint32(i), surf) {
			idx := uint32(i)
			indices.GraphicsFamily, indices.PresentFamily = &idx, &idx
			return indices, nil
		}
	}

	// Find first family supporting VK_QUEUE_GRAPHICS_BIT and first one able to present
	for i := range qFamilies {
		if indices.GraphicsFamily == nil && isBitSet(qFamilies[i], vk.QueueGraphicsBit) {
			indices.GraphicsFamily = new(uint32)
			*indices.GraphicsFamily = uint32(i)
		}
		if indices.PresentFamily == nil && supportsPresent(pd, uint32(i), surf) {
			indices.PresentFamily = new(uint32)
			*indices.PresentFamily = uint32(i)
		}
		if indices.isAllQueuesFound() {
			break
		}
	}
	if indices.GraphicsFamily == nil {
		return nil, errors.New("unable to find graphics capable queue family")
	}
	if indices.PresentFamily == nil {
		return nil, errors.New("unable to find present capable queue family for given surface")
	}
	return indices, nil
}

func supportsPresent(pd vk.PhysicalDevice, family uint32, surf vk.Surface) bool {
	var presentSupport vk.Bool32
	if vk.Error(vk.GetPhysicalDeviceSurfaceSupport(pd, family, surf, &presentSupport)) != nil {
		return false
	}
	return presentSupport == vk.True
}

func isBitSet(qFamily vk.QueueFamilyProperties, bit vk.QueueFlagBits) bool {
	return vk.QueueFlagBits(qFamily.QueueFlags)&bit > 0
}

func (q QueueFamilyIndices) isAllQueuesFound() bool {
	return q.GraphicsFamily != nil && q.PresentFamily != nil
}

// ToPresentation converts the indices into the form the presentation coordinator consumes.
func (q QueueFamilyIndices) ToPresentation() presentation.QueueIndices {
	return presentation.QueueIndices{Graphics: q.GraphicsFamily, Present: q.PresentFamily}
}

func (q QueueFamilyIndices) toQueueCreateInfos() []vk.DeviceQueueCreateInfo {
	var uniqIndices []uint32
	for _, idx := range []*uint32{q.GraphicsFamily, q.PresentFamily} {
		if idx != nil && !inList(*idx, uniqIndices) {
			uniqIndices = append(uniqIndices, *idx)
		}
	}
	infos := make([]vk.DeviceQueueCreateInfo, len(uniqIndices))
	for i := range uniqIndices {
		infos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			PNext:            nil,
			Flags:            0,
			QueueFamilyIndex: uniqIndices[i],
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}
	return infos
}
