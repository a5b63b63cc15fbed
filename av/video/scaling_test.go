package video

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/stickerplay/av"
)

func TestNewScaler(t *testing.T) {
	scaler := NewScaler()
	assert.NotNil(t, scaler)
}

func TestScaler_Scale_BasicFunctionality(t *testing.T) {
	scaler := NewScaler()

	srcFrame := createTestFrame(320, 240)

	result, err := scaler.Scale(srcFrame, 640, 480)

	require.NoError(t, err)
	assert.Equal(t, 640, result.Width)
	assert.Equal(t, 480, result.Height)
	assert.Equal(t, 640, result.YStride)
	assert.Equal(t, 320, result.UStride)
	assert.Equal(t, 320, result.VStride)

	assert.Len(t, result.Y, 640*480)
	assert.Len(t, result.U, 320*240)
	assert.Len(t, result.V, 320*240)
}

func TestScaler_Scale_DownScaling(t *testing.T) {
	scaler := NewScaler()

	srcFrame := createTestFrame(640, 480)

	result, err := scaler.Scale(srcFrame, 320, 240)

	require.NoError(t, err)
	assert.Equal(t, 320, result.Width)
	assert.Equal(t, 240, result.Height)
	assert.Len(t, result.Y, 320*240)
	assert.Len(t, result.U, 160*120)
	assert.Len(t, result.V, 160*120)
}

func TestScaler_Scale_OddDimensions(t *testing.T) {
	scaler := NewScaler()

	result, err := scaler.Scale(createTestFrame(33, 17), 7, 5)

	require.NoError(t, err)
	assert.Len(t, result.Y, 7*5)
	assert.Len(t, result.U, 4*3)
	assert.Len(t, result.V, 4*3)

	tiny, err := scaler.Scale(createTestFrame(1, 1), 3, 3)
	require.NoError(t, err)
	assert.Len(t, tiny.Y, 9)
}

func TestScaler_Scale_SameDimensions(t *testing.T) {
	scaler := NewScaler()

	srcFrame := createTestFrame(640, 480)
	srcFrame.Y[100] = 123 // Add unique marker

	result, err := scaler.Scale(srcFrame, 640, 480)

	require.NoError(t, err)
	assert.Equal(t, byte(123), result.Y[100])

	// Verify it's a copy, not the same slice
	srcFrame.Y[100] = 200
	assert.Equal(t, byte(123), result.Y[100])
}

func TestScaler_Scale_ErrorCases(t *testing.T) {
	scaler := NewScaler()
	srcFrame := createTestFrame(320, 240)

	short := createTestFrame(320, 240)
	short.Y = short.Y[:100]

	tests := []struct {
		name   string
		frame  *VideoFrame
		width  int
		height int
	}{
		{"nil frame", nil, 640, 480},
		{"zero width", srcFrame, 0, 480},
		{"zero height", srcFrame, 640, 0},
		{"negative", srcFrame, -2, 480},
		{"above render cap", srcFrame, 1025, 480},
		{"short source plane", short, 160, 120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := scaler.Scale(tt.frame, tt.width, tt.height)
			assert.True(t, errors.Is(err, av.ErrValidation), "got %v", err)
			assert.Nil(t, result)
		})
	}
}

func TestScaler_Scale_UniformPlanesStayUniform(t *testing.T) {
	scaler := NewScaler()
	src := NewVideoFrame(16, 16)
	for i := range src.Y {
		src.Y[i] = 77
	}
	for i := range src.U {
		src.U[i], src.V[i] = 128, 128
	}

	result, err := scaler.Scale(src, 37, 23)
	require.NoError(t, err)

	for _, v := range result.Y {
		require.Equal(t, byte(77), v)
	}
	for _, v := range result.U {
		require.Equal(t, byte(128), v)
	}
}

func TestScaler_Scale_DataIntegrity(t *testing.T) {
	scaler := NewScaler()

	srcFrame := createTestFrame(160, 120)

	// Fill with gradient pattern
	for y := 0; y < 120; y++ {
		for x := 0; x < 160; x++ {
			srcFrame.Y[y*160+x] = byte((x + y) % 256)
		}
	}

	result, err := scaler.Scale(srcFrame, 320, 240)
	require.NoError(t, err)

	var sum int
	for _, val := range result.Y {
		sum += int(val)
	}
	average := sum / len(result.Y)

	assert.Greater(t, average, 10)
	assert.Less(t, average, 245)
}

func TestScaler_IsScalingRequired(t *testing.T) {
	scaler := NewScaler()

	assert.False(t, scaler.IsScalingRequired(640, 480, 640, 480))
	assert.True(t, scaler.IsScalingRequired(640, 480, 320, 240))
	assert.True(t, scaler.IsScalingRequired(640, 480, 640, 240))
}

func TestScaler_FitRenderSize(t *testing.T) {
	scaler := NewScaler()

	tests := []struct {
		name       string
		w, h       int
		wantW, wan int
	}{
		{"within cap", 512, 512, 512, 512},
		{"square over cap", 4096, 4096, 1024, 1024},
		{"wide", 2048, 1024, 1024, 512},
		{"tall", 1000, 3000, 341, 1024},
		{"sliver", 4096, 1, 1024, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := scaler.FitRenderSize(tt.w, tt.h)
			assert.Equal(t, []int{tt.wantW, tt.wan}, []int{w, h})
		})
	}
}

func createTestFrame(width, height int) *VideoFrame {
	frame := NewVideoFrame(width, height)

	for i := range frame.Y {
		frame.Y[i] = byte(i % 256)
	}
	for i := range frame.U {
		frame.U[i] = 128 // Neutral chroma
	}
	for i := range frame.V {
		frame.V[i] = 128 // Neutral chroma
	}

	return frame
}
