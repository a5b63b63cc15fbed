// Package player implements the sticker playback controller.
//
// A Controller owns one loaded sticker, exposed through the FrameSource
// interface, and steps through its frames each time the host calls
// Advance. Vector stickers render any frame on demand; video stickers decode
// forward and are rewound when playback loops.
//
// The controller has no clock. Hosts tick it at TickInterval, typically
// with a time.Ticker, and receive frames through the handler set with
// OnFrameReady or a channel wrapped by ChannelHandler.
package player
