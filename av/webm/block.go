package webm

import (
	"errors"
	"fmt"
	"io"
)

// Lacing modes from the block flags.
const (
	lacingNone  = 0
	lacingXiph  = 1
	lacingFixed = 2
	lacingEBML  = 3
)

// ErrLacing is returned for a block whose lace sizes do not fit its payload.
var ErrLacing = errors.New("webm: invalid lacing")

// blockHeader is the decoded head of a Block or SimpleBlock.
type blockHeader struct {
	track    uint64
	timecode int16
	flags    byte
	// headerLen is the number of bytes before the first frame.
	headerLen int
	// frames holds the size of each laced frame.
	frames []int64
}

func (h blockHeader) keyFlag() bool {
	return h.flags&0x80 != 0
}

// parseBlockHeader decodes a block header from prefix, the first bytes of a
// block whose payload is size bytes long. prefix must contain the whole
// header, lace sizes included.
func parseBlockHeader(prefix []byte, size int64) (blockHeader, error) {
	var h blockHeader

	track, n, err := readSize(prefix)
	if err != nil {
		return h, err
	}
	if track == unknownSize {
		return h, fmt.Errorf("%w: track number", ErrBadVint)
	}
	if len(prefix) < n+3 {
		return h, io.ErrUnexpectedEOF
	}
	h.track = uint64(track)
	h.timecode = int16(uint16(prefix[n])<<8 | uint16(prefix[n+1]))
	h.flags = prefix[n+2]
	pos := n + 3

	lacing := (h.flags >> 1) & 0x03
	if lacing == lacingNone {
		h.headerLen = pos
		data := size - int64(pos)
		if data < 0 {
			return h, ErrLacing
		}
		h.frames = []int64{data}
		return h, nil
	}

	if len(prefix) <= pos {
		return h, io.ErrUnexpectedEOF
	}
	count := int(prefix[pos]) + 1
	pos++
	h.frames = make([]int64, count)

	var sum int64
	switch lacing {
	case lacingXiph:
		for i := 0; i < count-1; i++ {
			var v int64
			for {
				if pos >= len(prefix) {
					return h, io.ErrUnexpectedEOF
				}
				b := prefix[pos]
				pos++
				v += int64(b)
				if b != 0xFF {
					break
				}
			}
			h.frames[i] = v
			sum += v
		}
	case lacingEBML:
		if count == 1 {
			break
		}
		first, m, err := readSize(prefix[pos:])
		if err != nil {
			return h, err
		}
		if first == unknownSize {
			return h, ErrLacing
		}
		pos += m
		h.frames[0] = first
		sum = first
		prev := first
		for i := 1; i < count-1; i++ {
			diff, m, err := readSigned(prefix[pos:])
			if err != nil {
				return h, err
			}
			pos += m
			cur := prev + diff
			if cur < 0 {
				return h, ErrLacing
			}
			h.frames[i] = cur
			sum += cur
			prev = cur
		}
	case lacingFixed:
		data := size - int64(pos)
		if data < 0 || data%int64(count) != 0 {
			return h, ErrLacing
		}
		for i := range h.frames {
			h.frames[i] = data / int64(count)
		}
		h.headerLen = pos
		return h, nil
	}

	h.headerLen = pos
	last := size - int64(pos) - sum
	if last < 0 {
		return h, ErrLacing
	}
	h.frames[count-1] = last
	return h, nil
}
