package renderer

import (
	"github.com/spaghettifunk/lumen/engine/renderer/components"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/scene"
)

/**
 * @brief Everything a render system needs for one frame. Built after a
 * successful BeginFrame and dropped at EndFrame; systems must not keep it.
 */
type FrameInfo struct {
	/** @brief Frame-in-flight slot. Selects the per-frame uniform buffer and descriptor set. */
	FrameIndex uint32
	/** @brief Seconds since the previous frame. */
	FrameTime           float32
	CommandBuffer       metadata.CommandBuffer
	Camera              *components.Camera
	GlobalDescriptorSet metadata.DescriptorSet
	GameObjects         *scene.Scene
}
