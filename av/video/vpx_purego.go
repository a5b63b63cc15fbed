//go:build (darwin || linux) && !novpx

package video

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/sirupsen/logrus"
)

var (
	vpxOnce    sync.Once
	vpxInitErr error
)

// libmedia_vpx function pointers
var (
	vpxDecoderCreate   func(codec, threads int32) uint64
	vpxDecoderDecodeV2 func(decoder uint64, data uintptr, dataLen int32, resultOut uintptr) int32
	vpxDecoderDestroy  func(decoder uint64)
	vpxGetError        func() uintptr
	vpxCodecAvailable  func(codec int32) int32
)

// vpxDecodeResult matches media_vpx_decode_result_t. It must live on the heap
// while the library writes to it.
type vpxDecodeResult struct {
	YPtr     uint64
	UPtr     uint64
	VPtr     uint64
	YStride  int32
	UVStride int32
	Width    int32
	Height   int32
	Result   int32 // 1=decoded, 0=buffering, <0=error
	Reserved int32
}

const (
	vpxCodecVP8 = 0
	vpxCodecVP9 = 1

	vpxDecodeThreads = 2
)

func loadVPX() error {
	vpxOnce.Do(func() {
		vpxInitErr = loadVPXLib()
		if vpxInitErr != nil {
			logrus.WithFields(logrus.Fields{
				"function": "loadVPX",
				"error":    vpxInitErr.Error(),
			}).Debug("libmedia_vpx not available")
		}
	})
	return vpxInitErr
}

func loadVPXLib() error {
	var lastErr error
	for _, path := range vpxLibPaths() {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			lastErr = err
			continue
		}
		err = bindVPXSymbols(func(name string) (uintptr, error) {
			return purego.Dlsym(handle, name)
		})
		if err != nil {
			purego.Dlclose(handle)
			lastErr = err
			continue
		}
		return nil
	}

	if lastErr != nil {
		return fmt.Errorf("%w: %v", ErrVPXUnavailable, lastErr)
	}
	return ErrVPXUnavailable
}

type vpxSymbol struct {
	name string
	fptr interface{}
}

func vpxSymbols() []vpxSymbol {
	return []vpxSymbol{
		{"media_vpx_decoder_create", &vpxDecoderCreate},
		{"media_vpx_decoder_decode_v2", &vpxDecoderDecodeV2},
		{"media_vpx_decoder_destroy", &vpxDecoderDestroy},
		{"media_vpx_get_error", &vpxGetError},
		{"media_vpx_codec_available", &vpxCodecAvailable},
	}
}

// bindVPXSymbols resolves every symbol before registering any of them, so
// a library missing one leaves all function pointers unset.
func bindVPXSymbols(lookup func(name string) (uintptr, error)) error {
	symbols := vpxSymbols()
	addrs := make([]uintptr, len(symbols))
	for i, sym := range symbols {
		addr, err := lookup(sym.name)
		if err != nil {
			return fmt.Errorf("symbol %s: %w", sym.name, err)
		}
		if addr == 0 {
			return fmt.Errorf("symbol %s: nil address", sym.name)
		}
		addrs[i] = addr
	}
	for i, sym := range symbols {
		purego.RegisterFunc(sym.fptr, addrs[i])
	}
	return nil
}

func vpxLibPaths() []string {
	libName := "libmedia_vpx.so"
	if runtime.GOOS == "darwin" {
		libName = "libmedia_vpx.dylib"
	}

	var paths []string
	if env := os.Getenv("MEDIA_VPX_LIB_PATH"); env != "" {
		paths = append(paths, env)
	}
	paths = append(paths, libName)
	switch runtime.GOOS {
	case "darwin":
		paths = append(paths,
			"/usr/local/lib/"+libName,
			"/opt/homebrew/lib/"+libName,
		)
	case "linux":
		paths = append(paths,
			"/usr/local/lib/"+libName,
			"/usr/lib/"+libName,
		)
	}
	return paths
}

// VPXAvailable reports whether libmedia_vpx could be loaded.
func VPXAvailable() bool {
	return loadVPX() == nil
}

func vpxError() string {
	ptr := vpxGetError()
	if ptr == 0 {
		return "unknown error"
	}
	return goStringFromPtr(ptr)
}

func goStringFromPtr(ptr uintptr) string {
	var n int
	for *(*byte)(unsafe.Pointer(ptr + uintptr(n))) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(ptr)), n))
}

// VPXEngine decodes VP8 or VP9 through libvpx loaded at runtime.
type VPXEngine struct {
	codec  Codec
	handle uint64
	result *vpxDecodeResult
}

// NewVPXEngine creates a native decoder for codec. It fails with
// ErrVPXUnavailable when the shared library cannot be loaded.
func NewVPXEngine(codec Codec) (*VPXEngine, error) {
	if err := loadVPX(); err != nil {
		return nil, err
	}

	codecType := int32(vpxCodecVP9)
	if codec == CodecVP8 {
		codecType = vpxCodecVP8
	}
	if vpxCodecAvailable(codecType) == 0 {
		return nil, fmt.Errorf("%w: %v not built into libmedia_vpx", ErrVPXUnavailable, codec)
	}

	handle := vpxDecoderCreate(codecType, vpxDecodeThreads)
	if handle == 0 {
		return nil, fmt.Errorf("failed to create %v decoder: %s", codec, vpxError())
	}

	return &VPXEngine{
		codec:  codec,
		handle: handle,
		result: &vpxDecodeResult{},
	}, nil
}

// Decode implements Engine. The planes are copied out of library memory.
func (e *VPXEngine) Decode(payload []byte) (*VideoFrame, error) {
	if e.handle == 0 {
		return nil, errors.New("vpx: engine closed")
	}
	if len(payload) == 0 {
		return nil, errors.New("vpx: empty payload")
	}

	out := e.result
	rc := vpxDecoderDecodeV2(
		e.handle,
		uintptr(unsafe.Pointer(&payload[0])),
		int32(len(payload)),
		uintptr(unsafe.Pointer(out)),
	)
	runtime.KeepAlive(payload)
	runtime.KeepAlive(out)

	if rc < 0 {
		return nil, fmt.Errorf("vpx: decode failed: %s", vpxError())
	}
	if rc == 0 {
		return nil, nil
	}

	w, h := int(out.Width), int(out.Height)
	if w <= 0 || h <= 0 || out.YPtr == 0 || out.UPtr == 0 || out.VPtr == 0 ||
		int(out.YStride) < w || int(out.UVStride) < (w+1)/2 {
		return nil, fmt.Errorf("vpx: invalid decoder output: stride=%d/%d, size=%dx%d",
			out.YStride, out.UVStride, w, h)
	}

	frame := NewVideoFrame(w, h)
	copyPlane(frame.Y, frame.YStride, out.YPtr, int(out.YStride), w, h)
	cw, ch := (w+1)/2, (h+1)/2
	copyPlane(frame.U, frame.UStride, out.UPtr, int(out.UVStride), cw, ch)
	copyPlane(frame.V, frame.VStride, out.VPtr, int(out.UVStride), cw, ch)
	return frame, nil
}

func copyPlane(dst []byte, dstStride int, src uint64, srcStride, w, h int) {
	for row := 0; row < h; row++ {
		line := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(src)+uintptr(row*srcStride))), w)
		copy(dst[row*dstStride:row*dstStride+w], line)
	}
}

// Close implements Engine.
func (e *VPXEngine) Close() error {
	if e.handle != 0 {
		vpxDecoderDestroy(e.handle)
		e.handle = 0
	}
	return nil
}
