package common

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
	"github.com/veandco/go-sdl2/sdl"
)

// Utility functions wrapping the raw go bindings to provide a more go-lang style interface. This should not
// hide or alter behavior and only allow for more tidy core code by tweaking signatures.

func VkCreateInstance(pCreateInfo *vk.InstanceCreateInfo, pAllocator *vk.AllocationCallbacks) (vk.Instance, error) {
	var in vk.Instance
	err := vk.Error(vk.CreateInstance(pCreateInfo, pAllocator, &in))
	if err != nil {
		return nil, err
	}
	err = vk.InitInstance(in)
	if err != nil {
		return nil, err
	}
	return in, nil
}

func SdlCreateVkSurface(win *sdl.Window, instance vk.Instance) (vk.Surface, error) {
	surfPtr, err := win.VulkanCreateSurface(instance)
	if err != nil {
		return nil, err
	}
	return vk.SurfaceFromPointer(uintptr(surfPtr)), nil
}

func VkCreateDevice(physicalDevice vk.PhysicalDevice, pCreateInfo *vk.DeviceCreateInfo, pAllocator *vk.AllocationCallbacks) (vk.Device, error) {
	var d vk.Device
	err := vk.Error(vk.CreateDevice(physicalDevice, pCreateInfo, pAllocator, &d))
	if err != nil {
		return nil, err
	}
	return d, nil
}

func VkGetDeviceQueue(device vk.Device, queueFamilyIndex *uint32, queueIndex uint32) (vk.Queue, error) {
	var q vk.Queue
	if queueFamilyIndex == nil {
		return nil, errors.New("QueueFamily index was nil")
	}
	vk.GetDeviceQueue(device, *queueFamilyIndex, queueIndex, &q)
	return q, nil
}

func VkCreateSwapChain(device vk.Device, pCreateInfo *vk.SwapchainCreateInfo, pAllocator *vk.AllocationCallbacks) (vk.Swapchain, error) {
	var sc vk.Swapchain
	err := vk.Error(vk.CreateSwapchain(device, pCreateInfo, pAllocator, &sc))
	if err != nil {
		return nil, err
	}
	return sc, nil
}

func VkCreateImageView(device vk.Device, pCreateInfo *vk.ImageViewCreateInfo, pAllocator *vk.AllocationCallbacks) (vk.ImageView, error) {
	var iv vk.ImageView
	err := vk.Error(vk.CreateImageView(device, pCreateInfo, pAllocator, &iv))
	if err != nil {
		return nil, err
	}
	return iv, nil
}

func VkCreateRenderPass(device vk.Device, pCreateInfo *vk.RenderPassCreateInfo, pAllocator *vk.AllocationCallbacks) (vk.RenderPass, error) {
	var pr vk.RenderPass
	err := vk.Error(vk.CreateRenderPass(device, pCreateInfo, pAllocator, &pr))
	if err != nil {
		return nil, err
	}
	return pr, nil
}

func VkCreateFrameBuffer(device vk.Device, pCreateInfo *vk.FramebufferCreateInfo, pAllocator *vk.AllocationCallbacks) (vk.Framebuffer, error) {
	var fb vk.Framebuffer
	err := vk.Error(vk.CreateFramebuffer(device, pCreateInfo, pAllocator, &fb))
	if err != nil {
		return nil, err
	}
	return fb, nil
}

func VkCreateCommandPool(device vk.Device, pCreateInfo *vk.CommandPoolCreateInfo, pAllocator *vk.AllocationCallbacks) (vk.CommandPool, error) {
	var cp vk.CommandPool
	err := vk.Error(vk.CreateCommandPool(device, pCreateInfo, pAllocator, &cp))
	if err != nil {
		return nil, err
	}
	return cp, nil
}

func VkCreateSemaphore(device vk.Device, pCreateInfo *vk.SemaphoreCreateInfo, pAllocator *vk.AllocationCallbacks) (vk.Semaphore, error) {
	var s vk.Semaphore
	err := vk.Error(vk.CreateSemaphore(device, pCreateInfo, pAllocator, &s))
	if err != nil {
		return nil, err
	}
	return s, nil
}

func VkCreateFence(device vk.Device, pCreateInfo *vk.FenceCreateInfo, pAllocator *vk.AllocationCallbacks) (vk.Fence, error) {
	var f vk.Fence
	err := vk.Error(vk.CreateFence(device, pCreateInfo, pAllocator, &f))
	if err != nil {
		return nil, err
	}
	return f, nil
}
