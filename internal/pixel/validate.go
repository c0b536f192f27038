package pixel

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidSignature  = errors.New("invalid PNG format")
	ErrDimensionMismatch = errors.New("image must be exactly 32x32 pixels")
	ErrInvalidEncoding   = errors.New("invalid base64 image data")
	ErrDataSizeMismatch  = errors.New("raw canvas data must be exactly 3072 bytes")
)

// ihdrOffset is where the IHDR width field sits: 8 signature bytes plus the
// 4-byte length and 4-byte type of the IHDR chunk.
const ihdrOffset = 16

// ValidatePNG checks that data is a PNG with the expected dimensions and
// returns them. Width and height are read from the IHDR chunk's fixed
// position; the accepted producers are constrained to single-IHDR
// well-formed PNGs, so no generic chunk walk or CRC verification is done
// here. If third-party PNGs are ever accepted this must become a real chunk
// iteration.
func ValidatePNG(data []byte) (width, height int, err error) {
	if len(data) < ihdrOffset+8 || !bytes.HasPrefix(data, pngSignature) {
		return 0, 0, ErrInvalidSignature
	}

	width = int(binary.BigEndian.Uint32(data[ihdrOffset : ihdrOffset+4]))
	height = int(binary.BigEndian.Uint32(data[ihdrOffset+4 : ihdrOffset+8]))

	if width != Width || height != Height {
		return width, height, fmt.Errorf("%w: got %dx%d", ErrDimensionMismatch, width, height)
	}
	return width, height, nil
}

// DecodeBase64Image decodes inline image payloads as submitted by the paint
// canvas (canvas.toDataURL), stripping an optional data-URL header such as
// "data:image/png;base64," first.
func DecodeBase64Image(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		if i := strings.IndexByte(s, ','); i >= 0 {
			s = s[i+1:]
		}
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return data, nil
}

// ValidateCanvas checks a raw unframed pixel buffer by byte length alone.
func ValidateCanvas(data []byte) error {
	if len(data) != CanvasSize {
		return fmt.Errorf("%w: got %d bytes", ErrDataSizeMismatch, len(data))
	}
	return nil
}
