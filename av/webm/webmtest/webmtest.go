// Package webmtest builds small WebM streams for tests.
package webmtest

import (
	"encoding/binary"
	"math"
)

// Element IDs exported for building custom layouts.
const (
	IDEBML            = 0x1A45DFA3
	IDDocType         = 0x4282
	IDSegment         = 0x18538067
	IDInfo            = 0x1549A966
	IDTimecodeScale   = 0x2AD7B1
	IDDuration        = 0x4489
	IDTracks          = 0x1654AE6B
	IDTrackEntry      = 0xAE
	IDTrackNumber     = 0xD7
	IDTrackType       = 0x83
	IDCodecID         = 0x86
	IDDefaultDuration = 0x23E383
	IDVideo           = 0xE0
	IDPixelWidth      = 0xB0
	IDPixelHeight     = 0xBA
	IDCluster         = 0x1F43B675
	IDTimecode        = 0xE7
	IDSimpleBlock     = 0xA3
	IDBlockGroup      = 0xA0
	IDBlock           = 0xA1
	IDReferenceBlock  = 0xFB
	IDVoid            = 0xEC
	IDCues            = 0x1C53BB6B
)

// Lacing modes for LacedSimpleBlock.
const (
	LacingXiph  = 1
	LacingFixed = 2
	LacingEBML  = 3
)

// ID encodes an element ID, which already carries its length marker.
func ID(id uint64) []byte {
	switch {
	case id > 0xFFFFFF:
		return []byte{byte(id >> 24), byte(id >> 16), byte(id >> 8), byte(id)}
	case id > 0xFFFF:
		return []byte{byte(id >> 16), byte(id >> 8), byte(id)}
	case id > 0xFF:
		return []byte{byte(id >> 8), byte(id)}
	default:
		return []byte{byte(id)}
	}
}

// Size encodes n as the shortest vint that does not collide with the
// unknown-size marker.
func Size(n uint64) []byte {
	for length := 1; length <= 8; length++ {
		if n < (uint64(1)<<uint(7*length))-1 {
			out := make([]byte, length)
			v := n
			for i := length - 1; i >= 0; i-- {
				out[i] = byte(v)
				v >>= 8
			}
			out[0] |= 0x80 >> uint(length-1)
			return out
		}
	}
	panic("webmtest: size too large")
}

// UnknownSize is the 8-byte all-ones size marker.
func UnknownSize() []byte {
	return []byte{0x01, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Element builds an element from its children.
func Element(id uint64, children ...[]byte) []byte {
	body := concat(children...)
	return concat(ID(id), Size(uint64(len(body))), body)
}

// UnknownSizeElement builds an element with an unknown size.
func UnknownSizeElement(id uint64, children ...[]byte) []byte {
	return concat(ID(id), UnknownSize(), concat(children...))
}

// Uint builds an unsigned integer element.
func Uint(id, v uint64) []byte {
	var b []byte
	for v > 0 {
		b = append([]byte{byte(v)}, b...)
		v >>= 8
	}
	if len(b) == 0 {
		b = []byte{0}
	}
	return Element(id, b)
}

// Float builds an 8-byte float element.
func Float(id uint64, v float64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, math.Float64bits(v))
	return Element(id, b)
}

// String builds a string element.
func String(id uint64, s string) []byte {
	return Element(id, []byte(s))
}

func blockHead(track uint64, timecode int16, flags byte) []byte {
	return concat(Size(track), []byte{byte(uint16(timecode) >> 8), byte(timecode), flags})
}

// SimpleBlock builds an unlaced SimpleBlock.
func SimpleBlock(track uint64, timecode int16, key bool, frame []byte) []byte {
	var flags byte
	if key {
		flags |= 0x80
	}
	return Element(IDSimpleBlock, blockHead(track, timecode, flags), frame)
}

// LacedSimpleBlock builds a SimpleBlock holding several frames.
func LacedSimpleBlock(track uint64, timecode int16, key bool, lacing int, frames ...[]byte) []byte {
	flags := byte(lacing&3) << 1
	if key {
		flags |= 0x80
	}
	head := concat(blockHead(track, timecode, flags), []byte{byte(len(frames) - 1)})

	switch lacing {
	case LacingXiph:
		for _, f := range frames[:len(frames)-1] {
			n := len(f)
			for n >= 255 {
				head = append(head, 0xFF)
				n -= 255
			}
			head = append(head, byte(n))
		}
	case LacingEBML:
		if len(frames) > 1 {
			head = append(head, Size(uint64(len(frames[0])))...)
			for i := 1; i < len(frames)-1; i++ {
				head = append(head, signed(int64(len(frames[i])-len(frames[i-1])))...)
			}
		}
	}
	return Element(IDSimpleBlock, head, concat(frames...))
}

// signed encodes a signed lace-size difference as a 2-byte vint.
func signed(v int64) []byte {
	const bias = (1 << 13) - 1
	u := uint64(v + bias)
	return []byte{0x40 | byte(u>>8), byte(u)}
}

// BlockGroup builds a BlockGroup. Groups with a reference are delta frames.
func BlockGroup(track uint64, timecode int16, reference bool, frame []byte) []byte {
	children := [][]byte{Element(IDBlock, blockHead(track, timecode, 0), frame)}
	if reference {
		children = append(children, Element(IDReferenceBlock, []byte{0xFF}))
	}
	return Element(IDBlockGroup, children...)
}

// Cluster builds a sized cluster.
func Cluster(timecode uint64, blocks ...[]byte) []byte {
	return Element(IDCluster, append([][]byte{Uint(IDTimecode, timecode)}, blocks...)...)
}

// Clip describes a single-video-track stream.
type Clip struct {
	DocType         string
	CodecID         string
	TrackType       uint64
	Width           uint64
	Height          uint64
	DefaultDuration uint64
	// Duration is in timecode ticks; zero omits the element.
	Duration      float64
	TimecodeScale uint64
	// Clusters are appended verbatim after the track list.
	Clusters [][]byte
}

// NewClip returns a 64x64 VP9 clip at 25 fps lasting two seconds.
func NewClip() Clip {
	return Clip{
		DocType:         "webm",
		CodecID:         "V_VP9",
		TrackType:       1,
		Width:           64,
		Height:          64,
		DefaultDuration: 40000000,
		Duration:        2000,
		TimecodeScale:   1000000,
	}
}

// Header returns the EBML header element.
func (c Clip) Header() []byte {
	return Element(IDEBML, String(IDDocType, c.DocType))
}

// SegmentChildren returns the Info and Tracks elements.
func (c Clip) SegmentChildren() [][]byte {
	info := [][]byte{Uint(IDTimecodeScale, c.TimecodeScale)}
	if c.Duration != 0 {
		info = append(info, Float(IDDuration, c.Duration))
	}

	entry := [][]byte{
		Uint(IDTrackNumber, 1),
		Uint(IDTrackType, c.TrackType),
		String(IDCodecID, c.CodecID),
		Element(IDVideo, Uint(IDPixelWidth, c.Width), Uint(IDPixelHeight, c.Height)),
	}
	if c.DefaultDuration != 0 {
		entry = append(entry, Uint(IDDefaultDuration, c.DefaultDuration))
	}

	return [][]byte{
		Element(IDInfo, info...),
		Element(IDTracks, Element(IDTrackEntry, entry...)),
	}
}

// Bytes encodes the clip with a sized segment.
func (c Clip) Bytes() []byte {
	children := append(c.SegmentChildren(), c.Clusters...)
	return concat(c.Header(), Element(IDSegment, children...))
}

// UnsizedBytes encodes the clip with an unknown-size segment.
func (c Clip) UnsizedBytes() []byte {
	children := append(c.SegmentChildren(), c.Clusters...)
	return concat(c.Header(), UnknownSizeElement(IDSegment, children...))
}

// Payload returns a frame payload of n bytes starting with a VP8 or VP9
// key-frame signature when key is set.
func Payload(codec string, n int, key bool) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	if n < 10 {
		return b
	}
	switch codec {
	case "V_VP8":
		if key {
			b[0], b[1], b[2] = 0x10, 0x02, 0x00
		} else {
			b[0], b[1], b[2] = 0x11, 0x02, 0x00
		}
		b[3], b[4], b[5] = 0x9d, 0x01, 0x2a
	default:
		if key {
			b[0] = 0x82
		} else {
			b[0] = 0x86
		}
		b[1], b[2], b[3] = 0x49, 0x83, 0x42
	}
	return b
}
