// Package rendertest provides in-memory implementations of the renderer
// backend interfaces. They record what the frame renderer and the render
// systems ask of the GPU and let tests script swapchain results and window
// extents.
package rendertest
