package rendertest

import (
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// Window serves extents from a queue. The head is the current extent;
// WaitEvents advances to the next one and sticks on the last.
type Window struct {
	Extents         []metadata.Extent
	Resized         bool
	Closed          bool
	WaitEventsCalls int
}

func NewWindow(width, height uint32) *Window {
	return &Window{Extents: []metadata.Extent{{Width: width, Height: height}}}
}

// Queue replaces the current extent with the given sequence.
func (w *Window) Queue(extents ...metadata.Extent) {
	w.Extents = append([]metadata.Extent(nil), extents...)
}

func (w *Window) Extent() metadata.Extent {
	if len(w.Extents) == 0 {
		return metadata.Extent{}
	}
	return w.Extents[0]
}

func (w *Window) ShouldClose() bool {
	return w.Closed
}

func (w *Window) WasResized() bool {
	return w.Resized
}

func (w *Window) ResetResized() {
	w.Resized = false
}

func (w *Window) WaitEvents() {
	w.WaitEventsCalls++
	if len(w.Extents) > 1 {
		w.Extents = w.Extents[1:]
	}
}
