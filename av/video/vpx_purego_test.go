//go:build (darwin || linux) && !novpx

package video

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipIfVPXLoaded(t *testing.T) {
	t.Helper()
	if VPXAvailable() {
		t.Skip("libmedia_vpx is installed; function pointers are already bound")
	}
}

func TestBindVPXSymbols_MissingSymbol(t *testing.T) {
	skipIfVPXLoaded(t)
	var asked []string
	lookup := func(name string) (uintptr, error) {
		asked = append(asked, name)
		if name == "media_vpx_decoder_destroy" {
			return 0, errors.New("undefined symbol")
		}
		return 0x1000, nil
	}

	err := bindVPXSymbols(lookup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "media_vpx_decoder_destroy")
	assert.Len(t, asked, 3)

	// Nothing was registered from the partial library.
	assert.Nil(t, vpxDecoderCreate)
	assert.Nil(t, vpxDecoderDecodeV2)
}

func TestBindVPXSymbols_NilAddress(t *testing.T) {
	skipIfVPXLoaded(t)
	err := bindVPXSymbols(func(string) (uintptr, error) { return 0, nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "media_vpx_decoder_create")
	assert.Nil(t, vpxDecoderCreate)
}

func TestVPXSymbols_CoverEveryBinding(t *testing.T) {
	names := map[string]bool{}
	for _, sym := range vpxSymbols() {
		names[sym.name] = true
	}
	assert.Len(t, names, 5)
}
