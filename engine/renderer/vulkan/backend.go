package vulkan

import (
	"runtime"
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// SurfaceProvider is the window side of the backend: which instance extensions
// it needs and how to create a presentable surface on it.
type SurfaceProvider interface {
	RequiredExtensions() []string
	CreateSurface(instance vk.Instance) (vk.Surface, error)
}

type VulkanRenderer struct {
	surface           SurfaceProvider
	context           *VulkanContext
	maxFramesInFlight uint32

	debug bool
}

func New(surface SurfaceProvider, maxFramesInFlight uint32) *VulkanRenderer {
	return &VulkanRenderer{
		surface:           surface,
		maxFramesInFlight: maxFramesInFlight,
		context: &VulkanContext{
			Allocator: nil,
			lockPool:  NewVulkanLockPool(),
		},
	}
}

// Initialize creates the instance, the surface, the logical device and the
// global descriptor layout. The Vulkan loader must already be initialized.
func (vr *VulkanRenderer) Initialize(appName string, validation bool) error {
	if vr.maxFramesInFlight == 0 {
		return core.Precondition("at least one frame in flight is required")
	}
	vr.debug = validation

	if err := vr.createInstance(appName); err != nil {
		return err
	}
	core.LogInfo("Vulkan Instance created.")

	if vr.debug {
		if err := vr.createDebugger(); err != nil {
			return err
		}
	}

	core.LogDebug("Creating Vulkan surface...")
	surface, err := vr.surface.CreateSurface(vr.context.Instance)
	if err != nil {
		return errors.Wrap(err, "failed to create platform surface")
	}
	vr.context.Surface = surface
	core.LogDebug("Vulkan surface created.")

	if err := DeviceCreate(vr.context); err != nil {
		return errors.Wrap(err, "failed to create device")
	}

	if err := createGlobalSetLayout(vr.context); err != nil {
		return err
	}
	if err := createDescriptorPool(vr.context, VULKAN_MAX_GLOBAL_DESCRIPTOR_SETS); err != nil {
		return err
	}

	core.LogInfo("Vulkan renderer initialized successfully.")
	return nil
}

func (vr *VulkanRenderer) createInstance(appName string) error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 1, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		PEngineName:        VulkanSafeString("Lumen Engine"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	requiredExtensions := append([]string{}, vr.surface.RequiredExtensions()...)
	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}
	if vr.debug {
		requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)
	}
	core.LogDebug("Required extensions: %v", requiredExtensions)

	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)

	// Validation layers should only be enabled on non-release builds.
	if vr.debug {
		requiredLayers := []string{VULKAN_VALIDATION_LAYER}
		if err := checkValidationLayers(requiredLayers); err != nil {
			return err
		}
		createInfo.EnabledLayerCount = uint32(len(requiredLayers))
		createInfo.PpEnabledLayerNames = VulkanSafeStrings(requiredLayers)
	}

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, vr.context.Allocator, &instance); res != vk.Success {
		return resultError(res, "vkCreateInstance")
	}
	vr.context.Instance = instance
	if err := vk.InitInstance(vr.context.Instance); err != nil {
		return errors.Wrap(err, "failed to load instance functions")
	}
	return nil
}

func checkValidationLayers(required []string) error {
	core.LogInfo("Validation layers enabled. Enumerating...")

	var availableLayerCount uint32
	if res := vk.EnumerateInstanceLayerProperties(&availableLayerCount, nil); res != vk.Success {
		return resultError(res, "vkEnumerateInstanceLayerProperties")
	}
	availableLayers := make([]vk.LayerProperties, availableLayerCount)
	if res := vk.EnumerateInstanceLayerProperties(&availableLayerCount, availableLayers); res != vk.Success {
		return resultError(res, "vkEnumerateInstanceLayerProperties")
	}

	for _, name := range required {
		core.LogDebug("Searching for layer: %s...", name)
		found := false
		for i := range availableLayers {
			availableLayers[i].Deref()
			if cString(availableLayers[i].LayerName[:]) == name {
				found = true
				break
			}
		}
		if !found {
			return errors.Newf("required validation layer is missing: %s", name)
		}
	}
	core.LogInfo("All required validation layers are present.")
	return nil
}

func (vr *VulkanRenderer) createDebugger() error {
	core.LogDebug("Creating Vulkan debugger...")
	debugCreateInfo := vk.DebugReportCallbackCreateInfo{
		SType: vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags: vk.DebugReportFlags(vk.DebugReportErrorBit |
			vk.DebugReportWarningBit |
			vk.DebugReportPerformanceWarningBit |
			vk.DebugReportInformationBit),
		PfnCallback: dbgCallbackFunc,
	}

	var dbg vk.DebugReportCallback
	if err := vk.Error(vk.CreateDebugReportCallback(vr.context.Instance, &debugCreateInfo, vr.context.Allocator, &dbg)); err != nil {
		return errors.Wrap(err, "vkCreateDebugReportCallbackEXT failed")
	}
	vr.context.debugMessenger = dbg
	core.LogDebug("Vulkan debugger created.")
	return nil
}

// Shutdown destroys device level objects in the opposite order of creation.
// Swapchains, pipelines and buffers must already be destroyed.
func (vr *VulkanRenderer) Shutdown() error {
	context := vr.context
	if context.Device != nil && context.Device.LogicalDevice != nil {
		if err := vr.WaitIdle(); err != nil {
			core.LogWarn("failed to wait for device idle on shutdown: %s", err)
		}
		destroyDescriptors(context)
	}

	core.LogDebug("Destroying Vulkan device...")
	DeviceDestroy(context)

	if context.Surface != vk.NullSurface {
		core.LogDebug("Destroying Vulkan surface...")
		vk.DestroySurface(context.Instance, context.Surface, context.Allocator)
		context.Surface = vk.NullSurface
	}

	if context.debugMessenger != vk.NullDebugReportCallback {
		core.LogDebug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(context.Instance, context.debugMessenger, context.Allocator)
		context.debugMessenger = vk.NullDebugReportCallback
	}

	if context.Instance != nil {
		core.LogDebug("Destroying Vulkan instance...")
		vk.DestroyInstance(context.Instance, context.Allocator)
		context.Instance = nil
	}
	return nil
}

func (vr *VulkanRenderer) WaitIdle() error {
	if res := vk.DeviceWaitIdle(vr.context.Device.LogicalDevice); !VulkanResultIsSuccess(res) {
		return resultError(res, "vkDeviceWaitIdle")
	}
	return nil
}

func (vr *VulkanRenderer) CreateSwapchain(extent metadata.Extent, previous metadata.Swapchain) (metadata.Swapchain, error) {
	var old *VulkanSwapchain
	if previous != nil {
		var ok bool
		if old, ok = previous.(*VulkanSwapchain); !ok {
			return nil, core.Precondition("cannot recreate from a %T swapchain", previous)
		}
	}
	swapchain, err := SwapchainCreate(vr.context, extent, old, vr.maxFramesInFlight)
	if err != nil {
		return nil, err
	}
	return swapchain, nil
}

func (vr *VulkanRenderer) AllocateCommandBuffers(count int) ([]metadata.CommandBuffer, error) {
	buffers, err := NewVulkanCommandBuffers(vr.context, vr.context.Device.GraphicsCommandPool, count, true)
	if err != nil {
		return nil, err
	}
	out := make([]metadata.CommandBuffer, len(buffers))
	for i, b := range buffers {
		out[i] = b
	}
	core.LogDebug("Vulkan command buffers created.")
	return out, nil
}

func (vr *VulkanRenderer) FreeCommandBuffers(buffers []metadata.CommandBuffer) {
	for _, b := range buffers {
		if cb, ok := b.(*VulkanCommandBuffer); ok {
			cb.Free()
		}
	}
}

func (vr *VulkanRenderer) CreatePipeline(config *metadata.PipelineConfig, target metadata.Swapchain) (metadata.Pipeline, error) {
	swapchain, ok := target.(*VulkanSwapchain)
	if !ok {
		return nil, core.Precondition("cannot create a pipeline for a %T swapchain", target)
	}
	pipeline, err := NewGraphicsPipeline(vr.context, config, swapchain.Renderpass)
	if err != nil {
		return nil, err
	}
	return pipeline, nil
}

func (vr *VulkanRenderer) CreateUniformBuffer(size uint64) (metadata.UniformBuffer, error) {
	buffer, err := NewUniformBuffer(vr.context, size)
	if err != nil {
		return nil, err
	}
	return buffer, nil
}

func (vr *VulkanRenderer) AllocateGlobalDescriptorSet(buffer metadata.UniformBuffer) (metadata.DescriptorSet, error) {
	ub, ok := buffer.(*VulkanUniformBuffer)
	if !ok {
		return nil, core.Precondition("cannot bind a %T uniform buffer", buffer)
	}
	set, err := AllocateGlobalSet(vr.context, ub)
	if err != nil {
		return nil, err
	}
	return set, nil
}

func (vr *VulkanRenderer) CreateGeometry(vertices []metadata.Vertex, indices []uint32) (metadata.Geometry, error) {
	geometry, err := NewGeometry(vr.context, vertices, indices)
	if err != nil {
		return nil, err
	}
	return geometry, nil
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportInformationBit) != 0:
		core.LogInfo("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogDebug("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
