package renderer

import "github.com/spaghettifunk/lumen/engine/renderer/metadata"

// RendererBackend is a graphics API implementation. It owns the instance,
// the logical device and the command pool, and creates everything else.
type RendererBackend interface {
	metadata.Device
	Initialize(appName string, validation bool) error
	Shutdown() error
}

type RendererType uint8

const (
	Vulkan RendererType = iota
)
