package pixel

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// Canvas geometry. Every image in the system is a 32x32 truecolor raster,
// 3 bytes per pixel, row-major, no alpha.
const (
	Width         = 32
	Height        = 32
	BytesPerPixel = 3
	CanvasSize    = Width * Height * BytesPerPixel // 3072
)

// pngSignature is the fixed 8-byte PNG magic sequence.
var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// EncodePNG builds a minimal PNG from a raw 32x32 RGB pixel buffer.
// The output is signature + IHDR + a single IDAT (zlib-compressed scanlines,
// each prefixed with a filter-type-0 byte) + IEND. Each chunk is
// length(4B BE) + type(4B) + payload + CRC32(type||payload).
func EncodePNG(pixels []byte) ([]byte, error) {
	if err := ValidateCanvas(pixels); err != nil {
		return nil, err
	}

	// Prefix every scanline with filter type 0 (no filtering).
	raw := make([]byte, 0, Height*(1+Width*BytesPerPixel))
	stride := Width * BytesPerPixel
	for y := 0; y < Height; y++ {
		raw = append(raw, 0)
		raw = append(raw, pixels[y*stride:(y+1)*stride]...)
	}

	var compressed bytes.Buffer
	zw, err := zlib.NewWriterLevel(&compressed, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	// IHDR payload: width, height, bit depth 8, color type 2 (truecolor),
	// compression 0, filter 0, interlace 0.
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], Width)
	binary.BigEndian.PutUint32(ihdr[4:8], Height)
	ihdr[8] = 8
	ihdr[9] = 2

	var out bytes.Buffer
	out.Write(pngSignature)
	writeChunk(&out, "IHDR", ihdr)
	writeChunk(&out, "IDAT", compressed.Bytes())
	writeChunk(&out, "IEND", nil)

	return out.Bytes(), nil
}

// writeChunk frames a single PNG chunk: length, type, payload, CRC.
// The CRC covers the type bytes followed by the payload.
func writeChunk(out *bytes.Buffer, chunkType string, payload []byte) {
	var header [8]byte
	binary.BigEndian.PutUint32(header[0:4], uint32(len(payload)))
	copy(header[4:8], chunkType)
	out.Write(header[:])
	out.Write(payload)

	crc := crc32.NewIEEE()
	crc.Write([]byte(chunkType))
	crc.Write(payload)

	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	out.Write(sum[:])
}

// DefaultAvatar synthesizes the fallback avatar served for users without a
// stored image: a red 16x16 square centered on a dark background with a grey
// single-pixel border.
func DefaultAvatar() []byte {
	pixels := make([]byte, 0, CanvasSize)
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			var r, g, b byte
			switch {
			case x >= 8 && x < 24 && y >= 8 && y < 24:
				r, g, b = 255, 0, 0
			case x == 0 || x == Width-1 || y == 0 || y == Height-1:
				r, g, b = 100, 100, 100
			default:
				r, g, b = 40, 40, 40
			}
			pixels = append(pixels, r, g, b)
		}
	}

	data, err := EncodePNG(pixels)
	if err != nil {
		// The buffer above is always exactly CanvasSize bytes; failing here
		// is a programmer error, not an input error.
		panic(fmt.Sprintf("pixel: default avatar encoding failed: %v", err))
	}
	return data
}

// BlankCanvas returns a raw pixel buffer filled with the background color,
// used for boards that have not been painted yet.
func BlankCanvas() []byte {
	pixels := make([]byte, CanvasSize)
	for i := 0; i < CanvasSize; i += BytesPerPixel {
		pixels[i], pixels[i+1], pixels[i+2] = 40, 40, 40
	}
	return pixels
}
