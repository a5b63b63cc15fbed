package player

import (
	"bytes"
	"errors"

	"github.com/opd-ai/stickerplay/av"
	"github.com/opd-ai/stickerplay/av/bundle"
	"github.com/opd-ai/stickerplay/av/vector"
	"github.com/opd-ai/stickerplay/av/vector/lottie"
	"github.com/opd-ai/stickerplay/av/video"
)

// FrameSource is a loaded sticker as seen by the controller. Both encodings
// implement the same contract.
type FrameSource interface {
	// Descriptor returns the track descriptor derived at load time.
	Descriptor() av.TrackDescriptor
	// Frame produces the frame at index. Sources that can only decode
	// forward ignore index and return the next frame in decode order.
	Frame(index int) (*av.Raster, av.Outcome)
	// Rewind prepares the source to produce frame 0 again.
	Rewind()
	SetRenderSize(width, height int) error
	RenderSize() (width, height int)
	Close() error
}

// Loader opens sticker data into a FrameSource.
type Loader interface {
	LoadFile(path string) (FrameSource, error)
	LoadBytes(data []byte) (FrameSource, error)
}

// VectorLoader loads compressed vector bundles.
type VectorLoader struct {
	source av.Source
	cache  *bundle.Cache
	engine vector.Engine
}

// NewVectorLoader creates a loader for gzip-compressed Lottie bundles. Nil
// arguments select the local filesystem, an uncached decompressor and the
// built-in Lottie engine.
func NewVectorLoader(source av.Source, cache *bundle.Cache, engine vector.Engine) *VectorLoader {
	if source == nil {
		source = av.OSSource{}
	}
	if cache == nil {
		cache = bundle.NewCache(0, nil)
	}
	if engine == nil {
		engine = lottie.New()
	}
	return &VectorLoader{source: source, cache: cache, engine: engine}
}

// LoadFile implements Loader.
func (l *VectorLoader) LoadFile(path string) (FrameSource, error) {
	doc, err := l.cache.DecompressFile(l.source, path)
	if err != nil {
		return nil, err
	}
	return l.load(doc)
}

// LoadBytes implements Loader.
func (l *VectorLoader) LoadBytes(data []byte) (FrameSource, error) {
	doc, err := l.cache.Decompress(data)
	if err != nil {
		return nil, err
	}
	return l.load(doc)
}

func (l *VectorLoader) load(doc []byte) (FrameSource, error) {
	dec := vector.NewDecoder(l.engine)
	if err := dec.Load(doc); err != nil {
		return nil, err
	}
	return &vectorSource{dec: dec}, nil
}

// VideoLoader loads WebM and Matroska clips.
type VideoLoader struct {
	source  av.Source
	factory video.EngineFactory
}

// NewVideoLoader creates a clip loader. Nil arguments select the local
// filesystem and video.DefaultEngineFactory.
func NewVideoLoader(source av.Source, factory video.EngineFactory) *VideoLoader {
	if source == nil {
		source = av.OSSource{}
	}
	if factory == nil {
		factory = video.DefaultEngineFactory
	}
	return &VideoLoader{source: source, factory: factory}
}

// LoadFile implements Loader.
func (l *VideoLoader) LoadFile(path string) (FrameSource, error) {
	clip := video.NewClip(l.source, l.factory)
	if err := clip.Load(path); err != nil {
		return nil, err
	}
	return &videoSource{clip: clip}, nil
}

// LoadBytes implements Loader. data must not be modified while the source
// is loaded.
func (l *VideoLoader) LoadBytes(data []byte) (FrameSource, error) {
	clip := video.NewClip(l.source, l.factory)
	if err := clip.LoadReader(bytes.NewReader(data), int64(len(data))); err != nil {
		return nil, err
	}
	return &videoSource{clip: clip}, nil
}

type vectorSource struct {
	dec *vector.Decoder
}

func (s *vectorSource) Descriptor() av.TrackDescriptor { return s.dec.Descriptor() }

// Frame renders index. A render failure costs only this frame.
func (s *vectorSource) Frame(index int) (*av.Raster, av.Outcome) {
	raster, err := s.dec.Render(index)
	if err != nil {
		if errors.Is(err, av.ErrNotLoaded) {
			return nil, av.OutcomeFatal
		}
		return nil, av.OutcomeRetry
	}
	return raster, av.OutcomeFrame
}

func (s *vectorSource) Rewind() {}

func (s *vectorSource) SetRenderSize(width, height int) error {
	return s.dec.SetRenderSize(width, height)
}

func (s *vectorSource) RenderSize() (int, int) { return s.dec.RenderSize() }

func (s *vectorSource) Close() error { return s.dec.Close() }

type videoSource struct {
	clip *video.Clip
}

func (s *videoSource) Descriptor() av.TrackDescriptor { return s.clip.Descriptor() }

func (s *videoSource) Frame(int) (*av.Raster, av.Outcome) {
	return s.clip.DecodeNextFrame()
}

func (s *videoSource) Rewind() { s.clip.Rewind() }

func (s *videoSource) SetRenderSize(width, height int) error {
	return s.clip.SetRenderSize(width, height)
}

func (s *videoSource) RenderSize() (int, int) { return s.clip.RenderSize() }

func (s *videoSource) Close() error { return s.clip.Close() }
