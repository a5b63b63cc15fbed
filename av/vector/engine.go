package vector

// Engine parses vector-animation documents. Implementations are opaque to
// the decoder beyond this contract.
type Engine interface {
	// Name identifies the engine in logs.
	Name() string
	// Parse builds an animation from a decompressed document.
	Parse(doc []byte) (Animation, error)
}

// Animation is an engine-owned decode handle.
type Animation interface {
	// FrameCount returns the number of frames in the animation.
	FrameCount() int
	// FrameRate returns frames per second.
	FrameRate() float64
	// Size returns the native pixel dimensions.
	Size() (width, height int)
	// Render draws frame index into dst as premultiplied 0xAARRGGBB pixels,
	// row-major with a stride of width. len(dst) == width*height.
	Render(index int, dst []uint32, width, height int) error
	// Close releases engine resources.
	Close() error
}
