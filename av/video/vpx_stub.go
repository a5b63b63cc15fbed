//go:build !((darwin || linux) && !novpx)

package video

// VPXAvailable reports whether libmedia_vpx could be loaded.
func VPXAvailable() bool {
	return false
}

// VPXEngine is unavailable on this platform or build.
type VPXEngine struct{}

// NewVPXEngine always fails with ErrVPXUnavailable.
func NewVPXEngine(codec Codec) (*VPXEngine, error) {
	return nil, ErrVPXUnavailable
}

// Decode implements Engine.
func (e *VPXEngine) Decode(payload []byte) (*VideoFrame, error) {
	return nil, ErrVPXUnavailable
}

// Close implements Engine.
func (e *VPXEngine) Close() error {
	return nil
}
