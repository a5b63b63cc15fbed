package video

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/stickerplay/av"
)

// ErrVPXUnavailable is returned when the native libvpx engine cannot be used.
var ErrVPXUnavailable = errors.New("libmedia_vpx not available")

// Codec identifies a supported video bitstream.
type Codec uint8

const (
	// CodecVP9 is the default for clips whose codec id names neither codec.
	CodecVP9 Codec = iota
	// CodecVP8 is the older WebM codec.
	CodecVP8
)

// String returns the codec name.
func (c Codec) String() string {
	switch c {
	case CodecVP8:
		return "VP8"
	case CodecVP9:
		return "VP9"
	default:
		return fmt.Sprintf("codec(%d)", uint8(c))
	}
}

// Other returns the codec tried when the engine for c cannot be created.
func (c Codec) Other() Codec {
	if c == CodecVP8 {
		return CodecVP9
	}
	return CodecVP8
}

// CodecFromID maps a container codec id such as "V_VP8" onto a Codec.
// Unknown ids select VP9.
func CodecFromID(id string) Codec {
	id = strings.ToUpper(id)
	switch {
	case strings.Contains(id, "VP8"):
		return CodecVP8
	case strings.Contains(id, "VP9"):
		return CodecVP9
	default:
		return CodecVP9
	}
}

// PeekKeyFrame inspects the uncompressed frame header. ok is false when the
// payload does not carry a recognisable header for codec, in which case the
// container flag should be trusted instead.
func PeekKeyFrame(codec Codec, data []byte) (key, ok bool) {
	switch codec {
	case CodecVP8:
		return peekVP8(data)
	default:
		return peekVP9(data)
	}
}

// peekVP8 reads the 3-byte frame tag. Key frames carry the 9d 01 2a start
// code right after it.
func peekVP8(data []byte) (key, ok bool) {
	if len(data) < 6 {
		return false, false
	}
	if data[0]&0x01 != 0 {
		return false, true
	}
	if data[3] == 0x9d && data[4] == 0x01 && data[5] == 0x2a {
		return true, true
	}
	return false, false
}

// peekVP9 reads the uncompressed header prefix: frame marker, profile,
// show_existing_frame and frame_type. Key frames are followed by the
// 49 83 42 sync code.
func peekVP9(data []byte) (key, ok bool) {
	if len(data) < 5 || data[0]>>6 != 0x2 {
		return false, false
	}
	profile := (data[0]>>5)&1 | ((data[0]>>4)&1)<<1

	// Bit positions shift by one for profile 3, which has a reserved bit.
	showExisting, frameType := data[0]>>3&1, data[0]>>2&1
	if profile == 3 {
		showExisting, frameType = data[0]>>2&1, data[0]>>1&1
	}
	if showExisting == 1 || frameType == 1 {
		return false, true
	}

	var sync uint32
	if profile == 3 {
		v := uint32(data[1])<<24 | uint32(data[2])<<16 | uint32(data[3])<<8 | uint32(data[4])
		sync = (v >> 7) & 0xffffff
	} else {
		sync = uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3])
	}
	if sync == 0x498342 {
		return true, true
	}
	return false, false
}

// Engine decodes single compressed frames. Decode returns a nil frame and a
// nil error while the engine is buffering. The returned frame may share
// memory with the engine and is valid until the next Decode call.
type Engine interface {
	Decode(payload []byte) (*VideoFrame, error)
	Close() error
}

// EngineFactory creates an engine for a codec.
type EngineFactory func(Codec) (Engine, error)

// DefaultEngineFactory uses the native libvpx engine for VP9 when the shared
// library can be loaded and the pure Go engine for VP8.
func DefaultEngineFactory(codec Codec) (Engine, error) {
	switch codec {
	case CodecVP8:
		return NewVP8Engine(), nil
	case CodecVP9:
		e, err := NewVPXEngine(codec)
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unsupported codec %v", codec)
	}
}

// CodecDecoder owns one codec engine. Its lifecycle is independent of the
// demuxer that feeds it.
type CodecDecoder struct {
	codec  Codec
	engine Engine
}

// NewCodecDecoder creates an engine for codec. When that fails the other
// codec is tried once before giving up with ErrCodec.
func NewCodecDecoder(codec Codec, factory EngineFactory) (*CodecDecoder, error) {
	const op = "video.NewCodecDecoder"

	if factory == nil {
		factory = DefaultEngineFactory
	}

	engine, err := createSafely(factory, codec)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "NewCodecDecoder",
			"codec":    codec.String(),
			"fallback": codec.Other().String(),
			"error":    err.Error(),
		}).Warn("Codec engine unavailable, trying fallback")

		codec = codec.Other()
		engine, err = createSafely(factory, codec)
		if err != nil {
			return nil, av.Wrap(av.ErrCodec, op, err)
		}
	}

	return &CodecDecoder{codec: codec, engine: engine}, nil
}

// Codec returns the codec the engine was created for.
func (d *CodecDecoder) Codec() Codec {
	return d.codec
}

// Decode hands one payload to the engine. Engine failures and panics are
// reported as ErrCodec.
func (d *CodecDecoder) Decode(payload []byte) (frame *VideoFrame, err error) {
	const op = "video.Decode"

	if d.engine == nil {
		return nil, &av.Error{Op: op, Kind: av.ErrClosed}
	}

	defer func() {
		if r := recover(); r != nil {
			frame = nil
			err = av.Errorf(av.ErrCodec, op, "engine panic: %v", r)
		}
	}()

	frame, err = d.engine.Decode(payload)
	if err != nil {
		return nil, av.Wrap(av.ErrCodec, op, err)
	}
	return frame, nil
}

// Close releases the engine. It is safe to call more than once.
func (d *CodecDecoder) Close() error {
	if d.engine == nil {
		return nil
	}
	err := d.engine.Close()
	d.engine = nil
	return err
}

func createSafely(factory EngineFactory, codec Codec) (engine Engine, err error) {
	defer func() {
		if r := recover(); r != nil {
			engine = nil
			err = fmt.Errorf("engine factory panic: %v", r)
		}
	}()
	engine, err = factory(codec)
	if err == nil && engine == nil {
		err = fmt.Errorf("no engine for %v", codec)
	}
	return engine, err
}
