package pixel

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidCanvas(r, g, b byte) []byte {
	pixels := make([]byte, CanvasSize)
	for i := 0; i < CanvasSize; i += BytesPerPixel {
		pixels[i], pixels[i+1], pixels[i+2] = r, g, b
	}
	return pixels
}

func TestEncodePNG_RoundTripDimensions(t *testing.T) {
	data, err := EncodePNG(solidCanvas(12, 34, 56))
	require.NoError(t, err)

	w, h, err := ValidatePNG(data)
	require.NoError(t, err)
	assert.Equal(t, Width, w)
	assert.Equal(t, Height, h)
}

// The stdlib decoder is used as an independent referee: the hand-rolled
// chunk layout must be a real PNG, not just one our own validator accepts.
func TestEncodePNG_DecodableByStdlib(t *testing.T) {
	pixels := solidCanvas(200, 100, 50)
	pixels[0], pixels[1], pixels[2] = 1, 2, 3 // distinguish the first pixel

	data, err := EncodePNG(pixels)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	bounds := img.Bounds()
	assert.Equal(t, Width, bounds.Dx())
	assert.Equal(t, Height, bounds.Dy())

	r, g, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(1), r>>8)
	assert.Equal(t, uint32(2), g>>8)
	assert.Equal(t, uint32(3), b>>8)

	r, g, b, _ = img.At(5, 5).RGBA()
	assert.Equal(t, uint32(200), r>>8)
	assert.Equal(t, uint32(100), g>>8)
	assert.Equal(t, uint32(50), b>>8)
}

func TestEncodePNG_RejectsWrongSize(t *testing.T) {
	for _, size := range []int{0, CanvasSize - 1, CanvasSize + 1} {
		_, err := EncodePNG(make([]byte, size))
		assert.ErrorIs(t, err, ErrDataSizeMismatch, "size %d", size)
	}
}

func TestDefaultAvatar_Validates(t *testing.T) {
	data := DefaultAvatar()

	w, h, err := ValidatePNG(data)
	require.NoError(t, err)
	assert.Equal(t, 32, w)
	assert.Equal(t, 32, h)

	// center square is red, border is grey, in the decoded image too
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	r, g, b, _ := img.At(16, 16).RGBA()
	assert.Equal(t, uint32(255), r>>8)
	assert.Equal(t, uint32(0), g>>8)
	assert.Equal(t, uint32(0), b>>8)

	r, g, b, _ = img.At(0, 0).RGBA()
	assert.Equal(t, uint32(100), r>>8)
	assert.Equal(t, uint32(100), g>>8)
	assert.Equal(t, uint32(100), b>>8)
}

func TestBlankCanvas_Encodes(t *testing.T) {
	data, err := EncodePNG(BlankCanvas())
	require.NoError(t, err)

	_, _, err = ValidatePNG(data)
	assert.NoError(t, err)
}
