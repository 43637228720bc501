package common

import (
	vk "github.com/goki/vulkan"
)

// Utility functions that reduce visual clutter by abstracting some of the common default values into very obvious
// functions that should cover their respective use case most of the time. This is done to cut down on labor writing
// things out that are unlikely to change or are not relevant now. The main way typing is reduced by moving or
// defaulting parameters from 'createInfo' structs.

func VKAllocateCommandBuffersPrimary(device vk.Device, cmdPool vk.CommandPool, count uint32) ([]vk.CommandBuffer, error) {
	cbAllocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		PNext:              nil,
		CommandPool:        cmdPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	}
	return VKSAllocateCommandBuffers(device, &cbAllocateInfo)
}

// VKCreate2DColorImageView creates an identity swizzled view over the first mip level and layer of a color image,
// which is all a presentable image ever has.
func VKCreate2DColorImageView(device vk.Device, image vk.Image, format vk.Format) (vk.ImageView, error) {
	createInfo := &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		PNext:    nil,
		Flags:    0,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	return VkCreateImageView(device, createInfo, nil)
}
