package main

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodePCX пишет заголовок и RLE-строки; одиночные байты >= 192 экранируются счётчиком 1.
func encodePCX(t *testing.T, hdr PCXHeader, lines [][]byte, palette []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, hdr))
	for _, line := range lines {
		for _, b := range line {
			if b >= RLEThreshold {
				buf.WriteByte(0xC1)
			}
			buf.WriteByte(b)
		}
	}
	if palette != nil {
		buf.WriteByte(PCXPaletteMarker)
		buf.Write(palette)
	}
	return buf.Bytes()
}

func pcxHeader(w, h, planes int) PCXHeader {
	return PCXHeader{
		Manufacturer: PCXManufacturer,
		Version:      5,
		Encoding:     1,
		BitsPerPixel: 8,
		XMax:         uint16(w - 1),
		YMax:         uint16(h - 1),
		NumPlanes:    byte(planes),
		BytesPerLine: uint16(w),
	}
}

func nrgbaAt(t *testing.T, img image.Image, x, y int) color.NRGBA {
	t.Helper()
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func TestDecodePCXPalette(t *testing.T) {
	palette := make([]byte, PCXPaletteSize)
	copy(palette[0:], []byte{10, 20, 30})
	copy(palette[3:], []byte{200, 100, 50})
	copy(palette[200*3:], []byte{1, 2, 3})
	data := encodePCX(t, pcxHeader(3, 2, 1), [][]byte{{0, 1, 200}, {200, 200, 0}}, palette)

	img, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "pcx", format)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
	assert.Equal(t, color.NRGBA{10, 20, 30, 255}, nrgbaAt(t, img, 0, 0))
	assert.Equal(t, color.NRGBA{200, 100, 50, 255}, nrgbaAt(t, img, 1, 0))
	assert.Equal(t, color.NRGBA{1, 2, 3, 255}, nrgbaAt(t, img, 2, 0))
	assert.Equal(t, color.NRGBA{1, 2, 3, 255}, nrgbaAt(t, img, 1, 1))
	assert.Equal(t, color.NRGBA{10, 20, 30, 255}, nrgbaAt(t, img, 2, 1))

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "pcx", format)
	assert.Equal(t, 3, cfg.Width)
	assert.Equal(t, 2, cfg.Height)
}

func TestDecodePCXHeaderColormap(t *testing.T) {
	hdr := pcxHeader(4, 1, 1)
	copy(hdr.Colormap[3:], []byte{7, 8, 9})
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, hdr))
	buf.Write([]byte{0xC3, 1, 0}) // три пикселя цвета 1, затем цвет 0

	img, err := DecodePCX(&buf)
	require.NoError(t, err)
	for x := 0; x < 3; x++ {
		assert.Equal(t, color.NRGBA{7, 8, 9, 255}, nrgbaAt(t, img, x, 0))
	}
	assert.Equal(t, color.NRGBA{0, 0, 0, 255}, nrgbaAt(t, img, 3, 0))
}

func TestDecodePCXTrueColor(t *testing.T) {
	line := []byte{255, 0, 0, 128, 10, 250}
	data := encodePCX(t, pcxHeader(2, 1, 3), [][]byte{line}, nil)

	img, err := DecodePCX(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{255, 0, 10, 255}, nrgbaAt(t, img, 0, 0))
	assert.Equal(t, color.NRGBA{0, 128, 250, 255}, nrgbaAt(t, img, 1, 0))
}

func TestDecodePCXErrors(t *testing.T) {
	data := encodePCX(t, pcxHeader(2, 2, 3), [][]byte{{1, 2, 3, 4, 5, 6}, {1, 2, 3, 4, 5, 6}}, nil)

	_, err := DecodePCX(bytes.NewReader(data[:len(data)-3]))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = DecodePCX(bytes.NewReader(data[:40]))
	assert.Error(t, err)

	bad := append([]byte(nil), data...)
	bad[3] = 1
	_, err = DecodePCX(bytes.NewReader(bad))
	assert.ErrorIs(t, err, ErrUnsupportedPCX)

	bad = append([]byte(nil), data...)
	bad[0] = 0x0B
	_, err = DecodePCX(bytes.NewReader(bad))
	assert.Error(t, err)

	// заголовок обещает ~17 ГБ пикселей при трёх байтах данных
	hdr := pcxHeader(0xFFFF, 0xFFFF, 3)
	var huge bytes.Buffer
	require.NoError(t, binary.Write(&huge, binary.LittleEndian, hdr))
	huge.Write([]byte{1, 2, 3})
	_, _, err = LoadImage(bytes.NewReader(huge.Bytes()))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestLoadImageGarbage(t *testing.T) {
	_, _, err := LoadImage(bytes.NewReader([]byte("definitely not an image")))
	assert.Error(t, err)
}
