package webm

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/stickerplay/limits"
)

var (
	// ErrNotEBML is returned when the stream does not start with an EBML header.
	ErrNotEBML = errors.New("webm: not an EBML stream")

	// ErrDocType is returned for EBML documents that are neither WebM nor Matroska.
	ErrDocType = errors.New("webm: unsupported document type")

	// ErrNoSegment is returned when no Segment follows the EBML header.
	ErrNoSegment = errors.New("webm: no segment")

	// ErrNoVideoTrack is returned when the track list has no video track.
	ErrNoVideoTrack = errors.New("webm: no video track")

	// ErrScanLimit is returned by NextPacket when a call exhausts its
	// iteration budget without finding a packet.
	ErrScanLimit = errors.New("webm: scan iteration limit reached")
)

// maxMasterSize bounds the header masters (Info, Tracks) read into memory.
const maxMasterSize = 16 << 20

// blockPrefixLen is how much of a block is read to decode its header.
const blockPrefixLen = 64 << 10

const defaultTimecodeScale = 1000000

// Track describes the video track selected by the demuxer.
type Track struct {
	Number          uint64
	CodecID         string
	Width           int
	Height          int
	DefaultDuration uint64 // nanoseconds per frame, 0 when absent
}

// FrameRate derives frames per second from DefaultDuration, or 0 when the
// track does not declare one.
func (t Track) FrameRate() float64 {
	if t.DefaultDuration == 0 {
		return 0
	}
	return 1e9 / float64(t.DefaultDuration)
}

// Info holds the segment information element.
type Info struct {
	TimecodeScale uint64  // nanoseconds per timecode tick
	Duration      float64 // in timecode ticks, 0 when absent
}

// DurationSeconds converts Duration into seconds.
func (i Info) DurationSeconds() float64 {
	return i.Duration * float64(i.TimecodeScale) / 1e9
}

// Packet is one frame payload of the video track.
type Packet struct {
	Data []byte
	// KeyFrame reports the container's key-frame flag.
	KeyFrame bool
	// Timestamp is the presentation time in nanoseconds.
	Timestamp int64
}

// Cursor is the resumable scan position.
type Cursor struct {
	// ClusterStart and ClusterEnd bound the current cluster payload. Both
	// are zero between clusters.
	ClusterStart int64
	ClusterEnd   int64
	// Next is the offset of the next element to read.
	Next int64
	// Frame is the index of the next frame within the pending block.
	Frame int

	inCluster bool
	unsized   bool
	timecode  int64
	block     []frameRef
	blockKey  bool
	blockTime int64
}

type frameRef struct {
	offset int64
	size   int64
}

// Demuxer reads the video track of a WebM or Matroska stream.
type Demuxer struct {
	r    io.ReadSeeker
	size int64

	docType      string
	info         Info
	track        Track
	segmentEnd   int64
	firstCluster int64

	cursor        Cursor
	maxIterations int
	scanned       int
}

// Open parses the EBML header, the segment header and the track list, and
// positions the cursor on the first cluster.
func Open(r io.ReadSeeker, size int64) (*Demuxer, error) {
	d := &Demuxer{
		r:             r,
		size:          size,
		info:          Info{TimecodeScale: defaultTimecodeScale},
		maxIterations: limits.MaxDemuxIterations,
	}

	if err := d.readEBMLHeader(); err != nil {
		return nil, err
	}
	if err := d.readSegmentHeader(); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function":      "Open",
		"doc_type":      d.docType,
		"codec":         d.track.CodecID,
		"width":         d.track.Width,
		"height":        d.track.Height,
		"duration_s":    d.info.DurationSeconds(),
		"first_cluster": d.firstCluster,
	}).Debug("Opened WebM stream")

	d.Reset()
	return d, nil
}

// Track returns the selected video track.
func (d *Demuxer) Track() Track {
	return d.track
}

// Info returns the segment information.
func (d *Demuxer) Info() Info {
	return d.info
}

// DocType returns the EBML document type.
func (d *Demuxer) DocType() string {
	return d.docType
}

// Cursor returns a copy of the scan position.
func (d *Demuxer) Cursor() Cursor {
	return d.cursor
}

// SetMaxIterations changes the per-call scan budget. Non-positive values
// restore limits.MaxDemuxIterations.
func (d *Demuxer) SetMaxIterations(n int) {
	if n <= 0 {
		n = limits.MaxDemuxIterations
	}
	d.maxIterations = n
}

// Scanned reports how many iterations the last NextPacket or SkipPacket
// call spent.
func (d *Demuxer) Scanned() int {
	return d.scanned
}

// Reset moves the cursor back to the first cluster.
func (d *Demuxer) Reset() {
	d.cursor = Cursor{Next: d.firstCluster}
}

func (d *Demuxer) readEBMLHeader() error {
	el, err := d.readElement(0, d.size)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, ErrBadVint) {
			return ErrNotEBML
		}
		return err
	}
	if el.id != idEBML {
		return ErrNotEBML
	}
	payload, err := d.readPayload(el)
	if err != nil {
		return err
	}

	d.docType = "matroska"
	err = walk(payload, func(id uint64, b []byte) error {
		if id == idDocType {
			d.docType = parseString(b)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ebml header: %w", err)
	}
	if d.docType != "webm" && d.docType != "matroska" {
		return fmt.Errorf("%w: %q", ErrDocType, d.docType)
	}
	d.firstCluster = el.end()
	return nil
}

// readSegmentHeader finds the Segment, reads Info and Tracks and records
// where the first Cluster starts.
func (d *Demuxer) readSegmentHeader() error {
	off := d.firstCluster
	var segment element
	for {
		el, err := d.readElement(off, d.size)
		if err != nil {
			return ErrNoSegment
		}
		if el.id == idSegment {
			segment = el
			break
		}
		if el.size == unknownSize {
			return ErrNoSegment
		}
		off = el.end()
	}

	d.segmentEnd = d.size
	if segment.size != unknownSize && segment.end() < d.size {
		d.segmentEnd = segment.end()
	}

	haveTracks := false
	off = segment.data
	d.firstCluster = d.segmentEnd
	for off < d.segmentEnd {
		el, err := d.readElement(off, d.segmentEnd)
		if err != nil {
			break
		}
		if el.id == idCluster {
			d.firstCluster = el.offset
			break
		}
		if el.size == unknownSize {
			break
		}

		switch el.id {
		case idInfo:
			payload, err := d.readPayload(el)
			if err != nil {
				return fmt.Errorf("info: %w", err)
			}
			if err := d.parseInfo(payload); err != nil {
				return fmt.Errorf("info: %w", err)
			}
		case idTracks:
			payload, err := d.readPayload(el)
			if err != nil {
				return fmt.Errorf("tracks: %w", err)
			}
			found, err := d.parseTracks(payload)
			if err != nil {
				return fmt.Errorf("tracks: %w", err)
			}
			haveTracks = haveTracks || found
		}
		off = el.end()
	}

	if !haveTracks {
		return ErrNoVideoTrack
	}
	return nil
}

func (d *Demuxer) parseInfo(b []byte) error {
	return walk(b, func(id uint64, p []byte) error {
		switch id {
		case idTimecodeScale:
			if v := parseUint(p); v > 0 {
				d.info.TimecodeScale = v
			}
		case idDuration:
			if v, ok := parseFloat(p); ok {
				d.info.Duration = v
			}
		}
		return nil
	})
}

// parseTracks selects the first video track and reports whether one was found.
func (d *Demuxer) parseTracks(b []byte) (bool, error) {
	found := false
	err := walk(b, func(id uint64, p []byte) error {
		if id != idTrackEntry || found {
			return nil
		}
		var t Track
		var kind uint64
		err := walk(p, func(id uint64, v []byte) error {
			switch id {
			case idTrackNumber:
				t.Number = parseUint(v)
			case idTrackType:
				kind = parseUint(v)
			case idCodecID:
				t.CodecID = parseString(v)
			case idDefaultDuration:
				t.DefaultDuration = parseUint(v)
			case idVideo:
				return walk(v, func(id uint64, vv []byte) error {
					switch id {
					case idPixelWidth:
						t.Width = clampInt(parseUint(vv))
					case idPixelHeight:
						t.Height = clampInt(parseUint(vv))
					}
					return nil
				})
			}
			return nil
		})
		if err != nil {
			return err
		}
		if kind == 1 || (kind == 0 && strings.HasPrefix(t.CodecID, "V_")) {
			d.track = t
			found = true
		}
		return nil
	})
	return found, err
}

func clampInt(v uint64) int {
	if v > 1<<30 {
		return 1 << 30
	}
	return int(v)
}

// NextPacket returns the next video-track frame in decode order. It returns
// io.EOF at the end of the stream and ErrScanLimit when the iteration budget
// is spent. Frames outside limits.MinFramePayload..limits.MaxFramePayload
// are skipped without being read.
func (d *Demuxer) NextPacket() (Packet, error) {
	return d.advance(true)
}

// SkipPacket moves the cursor past the next video-track frame like
// NextPacket but leaves the payload unread. The returned Packet carries
// the key flag and timestamp with a nil Data.
func (d *Demuxer) SkipPacket() (Packet, error) {
	return d.advance(false)
}

func (d *Demuxer) advance(read bool) (Packet, error) {
	c := &d.cursor

	for d.scanned = 1; d.scanned <= d.maxIterations; d.scanned++ {
		if c.Frame < len(c.block) {
			ref := c.block[c.Frame]
			c.Frame++

			if ref.size < limits.MinFramePayload {
				logrus.WithFields(logrus.Fields{
					"function": "NextPacket",
					"offset":   ref.offset,
					"size":     ref.size,
				}).Debug("Skipping undersized payload")
				continue
			}
			if ref.size > limits.MaxFramePayload {
				logrus.WithFields(logrus.Fields{
					"function": "NextPacket",
					"offset":   ref.offset,
					"size":     ref.size,
					"max":      limits.MaxFramePayload,
				}).Warn("Skipping oversized payload")
				continue
			}

			pkt := Packet{KeyFrame: c.blockKey, Timestamp: c.blockTime}
			if !read {
				if ref.offset+ref.size > d.size {
					return Packet{}, d.streamEnd(io.ErrUnexpectedEOF)
				}
				return pkt, nil
			}
			data, err := d.readAt(ref.offset, ref.size)
			if err != nil {
				return Packet{}, d.streamEnd(err)
			}
			pkt.Data = data
			return pkt, nil
		}
		c.block, c.Frame = nil, 0

		if c.inCluster && c.Next >= c.ClusterEnd {
			d.leaveCluster()
		}

		if !c.inCluster {
			if c.Next >= d.segmentEnd {
				return Packet{}, io.EOF
			}
			el, err := d.readElement(c.Next, d.segmentEnd)
			if err != nil {
				return Packet{}, d.streamEnd(err)
			}
			if el.id != idCluster {
				if el.size == unknownSize {
					return Packet{}, io.EOF
				}
				c.Next = el.end()
				continue
			}
			c.inCluster = true
			c.timecode = 0
			c.ClusterStart = el.data
			c.ClusterEnd = el.end()
			c.unsized = el.size == unknownSize
			if c.unsized || c.ClusterEnd > d.segmentEnd {
				c.ClusterEnd = d.segmentEnd
			}
			c.Next = el.data
			continue
		}

		el, err := d.readElement(c.Next, c.ClusterEnd)
		if err != nil {
			return Packet{}, d.streamEnd(err)
		}
		if c.unsized && isTopLevel(el.id) {
			d.leaveCluster()
			c.Next = el.offset
			continue
		}
		if el.size == unknownSize || el.end() > c.ClusterEnd {
			return Packet{}, d.streamEnd(ErrTruncated)
		}

		switch el.id {
		case idTimecode:
			b, err := d.readAt(el.data, el.size)
			if err != nil {
				return Packet{}, d.streamEnd(err)
			}
			c.timecode = int64(parseUint(b))
		case idSimpleBlock:
			d.enterBlock(el, nil)
		case idBlockGroup:
			if err := d.enterBlockGroup(el); err != nil {
				return Packet{}, d.streamEnd(err)
			}
		}
		c.Next = el.end()
	}

	d.scanned = d.maxIterations
	return Packet{}, ErrScanLimit
}

func (d *Demuxer) leaveCluster() {
	c := &d.cursor
	c.inCluster = false
	c.unsized = false
	c.Next = c.ClusterEnd
	c.ClusterStart, c.ClusterEnd = 0, 0
}

// streamEnd logs a malformed-stream condition and converts it to an error
// the caller treats as end of stream.
func (d *Demuxer) streamEnd(err error) error {
	logrus.WithFields(logrus.Fields{
		"function": "NextPacket",
		"offset":   d.cursor.Next,
		"error":    err.Error(),
	}).Warn("Malformed stream, stopping scan")
	return fmt.Errorf("%w: %v", ErrTruncated, err)
}

// enterBlock queues the frames of a Block or SimpleBlock belonging to the
// video track. key overrides the SimpleBlock key flag for BlockGroups.
func (d *Demuxer) enterBlock(el element, key *bool) {
	n := el.size
	if n > blockPrefixLen {
		n = blockPrefixLen
	}
	prefix, err := d.readAt(el.data, n)
	if err != nil {
		return
	}
	h, err := parseBlockHeader(prefix, el.size)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "NextPacket",
			"offset":   el.offset,
			"error":    err.Error(),
		}).Warn("Skipping block with unreadable header")
		return
	}
	if h.track != d.track.Number {
		return
	}

	c := &d.cursor
	c.block = c.block[:0]
	off := el.data + int64(h.headerLen)
	for _, size := range h.frames {
		c.block = append(c.block, frameRef{offset: off, size: size})
		off += size
	}
	c.Frame = 0
	c.blockKey = h.keyFlag()
	if key != nil {
		c.blockKey = *key
	}
	c.blockTime = (c.timecode + int64(h.timecode)) * int64(d.info.TimecodeScale)
}

// enterBlockGroup locates the Block inside a BlockGroup. The group is a key
// frame when it carries no ReferenceBlock.
func (d *Demuxer) enterBlockGroup(group element) error {
	var block element
	haveBlock, haveRef := false, false

	off := group.data
	for off < group.end() {
		el, err := d.readElement(off, group.end())
		if err != nil {
			return err
		}
		if el.size == unknownSize || el.end() > group.end() {
			return ErrTruncated
		}
		switch el.id {
		case idBlock:
			block, haveBlock = el, true
		case idReferenceBlock:
			haveRef = true
		}
		off = el.end()
	}

	if haveBlock {
		key := !haveRef
		d.enterBlock(block, &key)
	}
	return nil
}

// readElement reads the element header at off. The header must end at or
// before limit.
func (d *Demuxer) readElement(off, limit int64) (element, error) {
	if off >= limit {
		return element{}, io.EOF
	}
	n := int64(maxHeaderLen)
	if limit-off < n {
		n = limit - off
	}
	b, err := d.readAt(off, n)
	if err != nil {
		return element{}, err
	}
	id, idLen, err := readID(b)
	if err != nil {
		return element{}, err
	}
	size, sizeLen, err := readSize(b[idLen:])
	if err != nil {
		return element{}, err
	}
	return element{
		id:     id,
		offset: off,
		data:   off + int64(idLen+sizeLen),
		size:   size,
	}, nil
}

// readPayload reads a bounded master element into memory.
func (d *Demuxer) readPayload(el element) ([]byte, error) {
	if el.size == unknownSize || el.size > maxMasterSize {
		return nil, fmt.Errorf("%w: element 0x%X of size %d", ErrTruncated, el.id, el.size)
	}
	if el.end() > d.size {
		return nil, ErrTruncated
	}
	return d.readAt(el.data, el.size)
}

func (d *Demuxer) readAt(off, n int64) ([]byte, error) {
	if n < 0 || off < 0 || off+n > d.size {
		return nil, io.ErrUnexpectedEOF
	}
	if _, err := d.r.Seek(off, io.SeekStart); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
