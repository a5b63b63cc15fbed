package player

import "github.com/opd-ai/stickerplay/av"

// Frame is a produced frame delivered through a channel.
type Frame struct {
	Index  int
	Raster *av.Raster
}

// ChannelHandler adapts a channel to a FrameHandler. Sends never block; a
// frame is dropped when ch is full.
func ChannelHandler(ch chan<- Frame) FrameHandler {
	return func(raster *av.Raster, index int) {
		select {
		case ch <- Frame{Index: index, Raster: raster}:
		default:
		}
	}
}
