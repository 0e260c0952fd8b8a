package vulkan

// Upper bound of global descriptor sets allocated from the context pool.
const VULKAN_MAX_GLOBAL_DESCRIPTOR_SETS uint32 = 16

const VULKAN_MAX_PUSH_CONSTANT_SIZE uint32 = 128

const VULKAN_VALIDATION_LAYER = "VK_LAYER_KHRONOS_validation"

// Wait forever on fences and image acquisition.
const VULKAN_NO_TIMEOUT = ^uint64(0)
