package rendertest

import (
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

type Swapchain struct {
	ID     int
	Format int
	Images int
	Size   metadata.Extent

	device    *Device
	nextImage uint32
	Acquired  []uint32
	Submitted []uint32
	Destroyed bool
	Previous  metadata.Swapchain
}

func (s *Swapchain) Extent() metadata.Extent {
	return s.Size
}

func (s *Swapchain) ImageCount() int {
	return s.Images
}

func (s *Swapchain) AcquireNextImage(frameIndex uint32) (uint32, metadata.Result, error) {
	result, err := s.device.popAcquire()
	if err != nil {
		return 0, metadata.RESULT_ERROR, err
	}
	if result != metadata.RESULT_SUCCESS && result != metadata.RESULT_SUBOPTIMAL {
		return 0, result, nil
	}
	image := s.nextImage
	s.nextImage = (s.nextImage + 1) % uint32(s.Images)
	s.Acquired = append(s.Acquired, frameIndex)
	return image, result, nil
}

func (s *Swapchain) Submit(buffer metadata.CommandBuffer, frameIndex, imageIndex uint32) (metadata.Result, error) {
	s.Submitted = append(s.Submitted, frameIndex)
	return s.device.popPresent()
}

func (s *Swapchain) CompareFormats(other metadata.Swapchain) bool {
	o, ok := other.(*Swapchain)
	return ok && o.Format == s.Format
}

// Destroy releases the images the same way the Vulkan swapchain does.
func (s *Swapchain) Destroy() {
	s.Destroyed = true
	s.Images = 0
}
