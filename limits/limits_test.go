package limits

import (
	"errors"
	"testing"
	"time"
)

// TestPixelCapMatchesMaxDimension verifies that a MaxDimension square frame
// exactly fills MaxFramePixels.
func TestPixelCapMatchesMaxDimension(t *testing.T) {
	if MaxDimension*MaxDimension != MaxFramePixels {
		t.Errorf("MaxDimension^2 = %d, want %d", MaxDimension*MaxDimension, MaxFramePixels)
	}
}

// TestSizeHierarchy verifies the ordering of the size caps.
func TestSizeHierarchy(t *testing.T) {
	if MaxCompressedBundle >= MaxDecompressedBundle {
		t.Errorf("MaxCompressedBundle (%d) should be < MaxDecompressedBundle (%d)",
			MaxCompressedBundle, MaxDecompressedBundle)
	}
	if DecompressChunk >= MaxCompressedBundle {
		t.Errorf("DecompressChunk (%d) should be < MaxCompressedBundle (%d)",
			DecompressChunk, MaxCompressedBundle)
	}
	if MinFramePayload >= MaxFramePayload {
		t.Errorf("MinFramePayload should be < MaxFramePayload")
	}
	if MaxVideoRenderDimension > MaxDimension {
		t.Errorf("MaxVideoRenderDimension should be <= MaxDimension")
	}
}

func TestValidateSize(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		maxSize int
		wantErr error
	}{
		{"empty", 0, 100, ErrEmpty},
		{"at limit", 100, 100, nil},
		{"under limit", 1, 100, nil},
		{"over limit", 101, 100, ErrTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSize(make([]byte, tt.size), tt.maxSize)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateSize() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateSize() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDimensions(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		valid         bool
	}{
		{"minimum", 1, 1, true},
		{"maximum", MaxDimension, MaxDimension, true},
		{"zero width", 0, 10, false},
		{"zero height", 10, 0, false},
		{"negative", -1, 10, false},
		{"too wide", MaxDimension + 1, 10, false},
		{"too tall", 10, MaxDimension + 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDimensions(tt.width, tt.height, MaxDimension)
			if tt.valid && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrOutOfRange) {
				t.Errorf("got %v, want ErrOutOfRange", err)
			}
		})
	}
}

func TestValidatePixelCount(t *testing.T) {
	if err := ValidatePixelCount(MaxDimension, MaxDimension); err != nil {
		t.Errorf("cap-sized buffer: unexpected error %v", err)
	}
	if err := ValidatePixelCount(MaxDimension+1, MaxDimension); !errors.Is(err, ErrTooLarge) {
		t.Errorf("oversized buffer: got %v, want ErrTooLarge", err)
	}
	if err := ValidatePixelCount(-1, 4); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("negative width: got %v, want ErrOutOfRange", err)
	}
}

func TestTickInterval(t *testing.T) {
	tests := []struct {
		rate float64
		want time.Duration
	}{
		{30, 33 * time.Millisecond},
		{60, 17 * time.Millisecond},
		{24, 42 * time.Millisecond},
		{120, 16 * time.Millisecond},
		{1000, 16 * time.Millisecond},
		{0, 16 * time.Millisecond},
		{-5, 16 * time.Millisecond},
	}

	for _, tt := range tests {
		if got := TickInterval(tt.rate); got != tt.want {
			t.Errorf("TickInterval(%v) = %v, want %v", tt.rate, got, tt.want)
		}
	}
}
