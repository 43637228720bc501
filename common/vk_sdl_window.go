package common

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
	"github.com/veandco/go-sdl2/sdl"

	"GPU_render_base/logging"
	"GPU_render_base/presentation"
)

const APPLICATION_NAME = "GPU render base"
const APP_MAJOR, APP_MINOR, APP_PATCH = 1, 0, 0
const ENGINE_NAME = "No Engine"
const ENGINE_MAJOR, ENGINE_MINOR, ENGINE_PATCH = 1, 0, 0

const SDL_MAJOR, SDL_MINOR, SDL_PATCH = int(sdl.MAJOR_VERSION), int(sdl.MINOR_VERSION), int(sdl.PATCHLEVEL)

// Vulkan spec go bindings = v1.0.7, as per: https://github.com/goki/vulkan = 1.3.239
const VK_SPEC_MAJOR, VK_SPEC_MINOR, VK_SPEC_PATCH int = 1, 3, 239

// Window encapsulates all window handling components and vulkan access objects to talk, to actual draw on screen. It
// uses SDL for window management and user input, for a Vulkan application. Thus simplifying the process of getting a
// vk.surface to draw on and interact with. It is the windowing collaborator of the presentation coordinator, which
// polls FramebufferSize once per frame.
type Window struct {
	sdlVersion string
	vkVersion  string

	Win        *sdl.Window
	Minimized  bool
	Close      bool
	Fullscreen bool

	Inst *vk.Instance
	Surf *vk.Surface
}

// NewWindow constructs a new Window struct by default initializing things, stating some meta information and
// calling the corresponding init functions for the SDL window, Vulkan API instance and so on. On tear down,
// we need to destroy the: vk.surface, vk.instance and sdl.window. Everything created before a failing step is
// released again.
func NewWindow(title string, w int32, h int32, validationLayers []string) (*Window, error) {
	window := &Window{
		sdlVersion: fmt.Sprintf("v%d.%d.%d", SDL_MAJOR, SDL_MINOR, SDL_PATCH),
		vkVersion:  fmt.Sprintf("v%d.%d.%d", VK_SPEC_MAJOR, VK_SPEC_MINOR, VK_SPEC_PATCH),
	}
	if err := window.initSDLWindow(title, w, h); err != nil {
		return nil, err
	}
	if err := window.initVulkan(); err != nil {
		window.Destroy()
		return nil, err
	}
	if err := window.createVulkanInstance(len(validationLayers) > 0, validationLayers); err != nil {
		window.Destroy()
		return nil, err
	}
	if err := window.createSdlVkSurface(); err != nil {
		window.Destroy()
		return nil, err
	}
	logging.Logger().Info("generated SDL/Vulkan window", "sdl", window.sdlVersion, "vulkanSpec", window.vkVersion)
	return window, nil
}

// Destroy is a convenience method to tear down all relevant instances (vk.surface, vk.instance and sdl.window)
// that have been initialized by itself.
func (w *Window) Destroy() {
	if w.Surf != nil {
		vk.DestroySurface(*w.Inst, *w.Surf, nil)
		w.Surf = nil
	}
	if w.Inst != nil {
		vk.DestroyInstance(*w.Inst, nil)
		w.Inst = nil
	}
	if w.Win != nil {
		if err := w.Win.Destroy(); err != nil {
			logging.Logger().Warn("failed to destroy SDL window", "err", err)
		}
		w.Win = nil
	}
	sdl.Quit()
}

// FramebufferSize reports the drawable size in pixels, which differs from the window size on high DPI displays.
// A minimized window reports a zero extent.
func (w *Window) FramebufferSize() presentation.Extent {
	if w.Minimized {
		return presentation.Extent{}
	}
	width, height := w.Win.VulkanGetDrawableSize()
	if width < 0 || height < 0 {
		return presentation.Extent{}
	}
	return presentation.Extent{Width: uint32(width), Height: uint32(height)}
}

// ToggleFullscreen switches between borderless desktop fullscreen and windowed mode. The surface size changes with
// it, the coordinator picks that up on the next frame.
func (w *Window) ToggleFullscreen() error {
	var flags uint32
	if !w.Fullscreen {
		flags = sdl.WINDOW_FULLSCREEN_DESKTOP
	}
	if err := w.Win.SetFullscreen(flags); err != nil {
		return errors.Wrap(err, "toggle fullscreen")
	}
	w.Fullscreen = !w.Fullscreen
	logging.Logger().Debug("toggled fullscreen", "fullscreen", w.Fullscreen)
	return nil
}

// SetTitle replaces the window title, used for the frame statistics.
func (w *Window) SetTitle(title string) {
	w.Win.SetTitle(title)
}

func (w *Window) initSDLWindow(title string, width int32, height int32) error {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return errors.Wrap(err, "initialize SDL")
	}
	logging.Logger().Debug("initialized SDL")
	win, err := sdl.CreateWindow(
		title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		width,
		height,
		sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE|sdl.WINDOW_VULKAN|sdl.WINDOW_ALLOW_HIGHDPI,
	)
	if err != nil {
		sdl.Quit()
		return errors.Wrap(err, "create SDL window for use with Vulkan")
	}
	logging.Logger().Info("created SDL window", "title", title, "width", width, "height", height)
	w.Win = win
	return nil
}

func (w *Window) initVulkan() error {
	// Find and load Vulkan addresses to be able to call driver level functions via provided mechanism
	vk.SetGetInstanceProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err := vk.Init(); err != nil {
		return errors.Wrap(err, "initialize Vulkan API")
	}
	return nil
}

func (w *Window) createVulkanInstance(enableValidation bool, validationLayers []string) error {
	requiredExtensions := w.Win.VulkanGetInstanceExtensions()
	if err := checkInstanceExtensionSupport(requiredExtensions); err != nil {
		return err
	}

	if enableValidation {
		logging.Logger().Debug("validation enabled, checking layer support")
		if err := checkValidationLayerSupport(validationLayers); err != nil {
			return err
		}
	}
	applicationInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PNext:              nil,
		PApplicationName:   TerminatedStr(APPLICATION_NAME),
		ApplicationVersion: vk.MakeVersion(APP_MAJOR, APP_MINOR, APP_PATCH),
		PEngineName:        TerminatedStr(ENGINE_NAME),
		EngineVersion:      vk.MakeVersion(ENGINE_MAJOR, ENGINE_MINOR, ENGINE_PATCH),
		ApiVersion:         vk.MakeVersion(VK_SPEC_MAJOR, VK_SPEC_MINOR, VK_SPEC_PATCH),
	}
	createInfo := &vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PNext:                   nil,
		Flags:                   0,
		PApplicationInfo:        applicationInfo,
		EnabledLayerCount:       0,
		PpEnabledLayerNames:     nil,
		EnabledExtensionCount:   uint32(len(requiredExtensions)),
		PpEnabledExtensionNames: TerminatedStrs(requiredExtensions),
	}
	if enableValidation {
		createInfo.EnabledLayerCount = uint32(len(validationLayers))
		createInfo.PpEnabledLayerNames = TerminatedStrs(validationLayers)
	}
	ins, err := VkCreateInstance(createInfo, nil)
	if err != nil {
		return errors.Wrap(err, "create vk instance")
	}
	w.Inst = &ins
	return nil
}

func checkInstanceExtensionSupport(requiredInstanceExt []string) error {
	supportedExtNames, err := ReadInstanceExtensionPropertyNames()
	if err != nil {
		return err
	}
	logging.Logger().Debug("instance extensions", "required", requiredInstanceExt, "available", len(supportedExtNames))

	if missing := Missing(requiredInstanceExt, supportedExtNames); len(missing) > 0 {
		return errors.Errorf("required instance extensions not supported: %v", missing)
	}
	return nil
}

func checkValidationLayerSupport(requiredLayers []string) error {
	supportedLayerNames, err := ReadInstanceLayerPropertyNames()
	if err != nil {
		return err
	}
	logging.Logger().Debug("validation layers", "desired", requiredLayers, "supported", supportedLayerNames)

	if missing := Missing(requiredLayers, supportedLayerNames); len(missing) > 0 {
		return errors.Errorf("validation layers not supported: %v", missing)
	}
	return nil
}

func (w *Window) createSdlVkSurface() error {
	surf, err := SdlCreateVkSurface(w.Win, *w.Inst)
	if err != nil {
		return errors.Wrap(err, "create SDL window's Vulkan surface")
	}
	w.Surf = &surf
	return nil
}
