package webm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Element IDs used by the demuxer. IDs keep their length marker bits.
const (
	idEBML     = 0x1A45DFA3
	idDocType  = 0x4282
	idSegment  = 0x18538067
	idSeekHead = 0x114D9B74
	idInfo     = 0x1549A966
	idTracks   = 0x1654AE6B
	idCluster  = 0x1F43B675
	idCues     = 0x1C53BB6B
	idTags     = 0x1254C367
	idChapters = 0x1043A770
	idAttach   = 0x1941A469
	idVoid     = 0xEC
	idCRC32    = 0xBF

	idTimecodeScale = 0x2AD7B1
	idDuration      = 0x4489

	idTrackEntry      = 0xAE
	idTrackNumber     = 0xD7
	idTrackType       = 0x83
	idCodecID         = 0x86
	idDefaultDuration = 0x23E383
	idVideo           = 0xE0
	idPixelWidth      = 0xB0
	idPixelHeight     = 0xBA

	idTimecode       = 0xE7
	idSimpleBlock    = 0xA3
	idBlockGroup     = 0xA0
	idBlock          = 0xA1
	idReferenceBlock = 0xFB
)

// unknownSize marks an element whose size field is all ones.
const unknownSize = -1

// maxHeaderLen is the longest element header: a 4-byte ID and an 8-byte size.
const maxHeaderLen = 12

var (
	// ErrBadVint is returned for a variable-length integer with no marker bit.
	ErrBadVint = errors.New("webm: invalid variable-length integer")

	// ErrTruncated is returned when an element extends past its parent.
	ErrTruncated = errors.New("webm: truncated element")
)

// element is a parsed element header.
type element struct {
	id     uint64
	offset int64 // header start
	data   int64 // payload start
	size   int64 // payload size or unknownSize
}

func (e element) end() int64 {
	return e.data + e.size
}

// vintLength returns the encoded length of a vint from its first byte, or 0
// when the byte has no marker bit.
func vintLength(first byte) int {
	for i := 0; i < 8; i++ {
		if first&(0x80>>uint(i)) != 0 {
			return i + 1
		}
	}
	return 0
}

// readID decodes an element ID, keeping the marker bits.
func readID(b []byte) (uint64, int, error) {
	if len(b) == 0 {
		return 0, 0, io.ErrUnexpectedEOF
	}
	n := vintLength(b[0])
	if n == 0 || n > 4 {
		return 0, 0, ErrBadVint
	}
	if len(b) < n {
		return 0, 0, io.ErrUnexpectedEOF
	}
	var id uint64
	for i := 0; i < n; i++ {
		id = id<<8 | uint64(b[i])
	}
	return id, n, nil
}

// readSize decodes an element size. An all-ones value yields unknownSize.
func readSize(b []byte) (int64, int, error) {
	if len(b) == 0 {
		return 0, 0, io.ErrUnexpectedEOF
	}
	n := vintLength(b[0])
	if n == 0 {
		return 0, 0, ErrBadVint
	}
	if len(b) < n {
		return 0, 0, io.ErrUnexpectedEOF
	}
	v := uint64(b[0] & (0xFF >> uint(n)))
	for i := 1; i < n; i++ {
		v = v<<8 | uint64(b[i])
	}
	if v == (uint64(1)<<uint(7*n))-1 {
		return unknownSize, n, nil
	}
	if v > math.MaxInt64/2 {
		return 0, 0, fmt.Errorf("%w: size %d", ErrBadVint, v)
	}
	return int64(v), n, nil
}

// readSigned decodes a signed vint as used by EBML lacing.
func readSigned(b []byte) (int64, int, error) {
	if len(b) == 0 {
		return 0, 0, io.ErrUnexpectedEOF
	}
	n := vintLength(b[0])
	if n == 0 {
		return 0, 0, ErrBadVint
	}
	if len(b) < n {
		return 0, 0, io.ErrUnexpectedEOF
	}
	v := uint64(b[0] & (0xFF >> uint(n)))
	for i := 1; i < n; i++ {
		v = v<<8 | uint64(b[i])
	}
	bias := int64(1)<<uint(7*n-1) - 1
	return int64(v) - bias, n, nil
}

func parseUint(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

func parseFloat(b []byte) (float64, bool) {
	switch len(b) {
	case 0:
		return 0, true
	case 4:
		return float64(math.Float32frombits(binary.BigEndian.Uint32(b))), true
	case 8:
		return math.Float64frombits(binary.BigEndian.Uint64(b)), true
	default:
		return 0, false
	}
}

func parseString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// walk calls fn for each child element in an in-memory master payload.
// Unknown-size children are not allowed inside buffered masters.
func walk(b []byte, fn func(id uint64, payload []byte) error) error {
	for len(b) > 0 {
		id, n, err := readID(b)
		if err != nil {
			return err
		}
		size, m, err := readSize(b[n:])
		if err != nil {
			return err
		}
		start := n + m
		if size == unknownSize || int64(len(b)-start) < size {
			return ErrTruncated
		}
		if err := fn(id, b[start:start+int(size)]); err != nil {
			return err
		}
		b = b[start+int(size):]
	}
	return nil
}

// isTopLevel reports whether id is a segment child. Such an ID terminates
// an unknown-size cluster.
func isTopLevel(id uint64) bool {
	switch id {
	case idCluster, idCues, idTags, idInfo, idTracks, idSeekHead, idChapters, idAttach, idEBML, idSegment:
		return true
	}
	return false
}
