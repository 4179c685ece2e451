package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type PCXHeader struct {
	Manufacturer byte
	Version      byte
	Encoding     byte
	BitsPerPixel byte
	XMin, YMin   uint16
	XMax, YMax   uint16
	HDpi, VDpi   uint16
	Colormap     [48]byte
	Reserved     byte
	NumPlanes    byte
	BytesPerLine uint16
	PaletteInfo  uint16
	HScreenSize  uint16
	VScreenSize  uint16
	Filler       [54]byte
}

const (
	PCXManufacturer  = 0x0A
	PCXPaletteMarker = 0x0C
	RLEThreshold     = 192
	PCXPaletteSize   = 768
	PCXHeaderSize    = 128
	PCXPaletteOffset = 769
)

var ErrUnsupportedPCX = errors.New("unsupported pcx variant")

func init() {
	image.RegisterFormat("pcx", "\x0a", DecodePCX, DecodePCXConfig)
}

func readPCXHeader(r io.Reader) (PCXHeader, int, int, error) {
	var hdr PCXHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return hdr, 0, 0, err
	}
	if hdr.Manufacturer != PCXManufacturer {
		return hdr, 0, 0, fmt.Errorf("pcx: bad manufacturer byte 0x%02x", hdr.Manufacturer)
	}
	if hdr.BitsPerPixel != 8 || (hdr.NumPlanes != 1 && hdr.NumPlanes != 3) {
		return hdr, 0, 0, fmt.Errorf("%w: %d bpp, %d planes", ErrUnsupportedPCX, hdr.BitsPerPixel, hdr.NumPlanes)
	}
	w := int(hdr.XMax) - int(hdr.XMin) + 1
	h := int(hdr.YMax) - int(hdr.YMin) + 1
	if w <= 0 || h <= 0 || int(hdr.BytesPerLine) < w {
		return hdr, 0, 0, fmt.Errorf("pcx: bad dimensions %dx%d, %d bytes per line", w, h, hdr.BytesPerLine)
	}
	return hdr, w, h, nil
}

func DecodePCXConfig(r io.Reader) (image.Config, error) {
	_, w, h, err := readPCXHeader(r)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{ColorModel: color.NRGBAModel, Width: w, Height: h}, nil
}

// DecodePCX читает 8-битный PCX: палитровый (1 плоскость) или TrueColor (3 плоскости).
func DecodePCX(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	hdr, w, h, err := readPCXHeader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	end := len(data)
	var palette [256]color.NRGBA
	if hdr.NumPlanes == 1 {
		if len(data) >= PCXHeaderSize+PCXPaletteOffset && data[len(data)-PCXPaletteOffset] == PCXPaletteMarker {
			end = len(data) - PCXPaletteOffset
			palData := data[end+1:]
			for i := 0; i < 256; i++ {
				palette[i] = color.NRGBA{R: palData[i*3+0], G: palData[i*3+1], B: palData[i*3+2], A: 0xff}
			}
		} else {
			for i := 0; i < 16; i++ {
				palette[i] = color.NRGBA{R: hdr.Colormap[i*3+0], G: hdr.Colormap[i*3+1], B: hdr.Colormap[i*3+2], A: 0xff}
			}
			for i := 16; i < 256; i++ {
				palette[i] = color.NRGBA{A: 0xff}
			}
		}
	}

	bpl := int(hdr.BytesPerLine)
	// пара RLE раскрывается максимум в 63 байта; заголовок не может обещать больше
	if need := int64(bpl) * int64(hdr.NumPlanes) * int64(h); need > int64(end-PCXHeaderSize)*63/2 {
		return nil, fmt.Errorf("pcx: %d scanline bytes from %d data bytes: %w", need, end-PCXHeaderSize, io.ErrUnexpectedEOF)
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	line := make([]byte, bpl*int(hdr.NumPlanes))
	pos := PCXHeaderSize
	for y := 0; y < h; y++ {
		// RLE: старшие два бита задают повтор следующего байта
		for x := 0; x < len(line); {
			if pos >= end {
				return nil, fmt.Errorf("pcx: scanline %d: %w", y, io.ErrUnexpectedEOF)
			}
			b := data[pos]
			pos++
			count := 1
			if hdr.Encoding == 1 && b >= RLEThreshold {
				count = int(b & 0x3F)
				if pos >= end {
					return nil, fmt.Errorf("pcx: scanline %d: %w", y, io.ErrUnexpectedEOF)
				}
				b = data[pos]
				pos++
			}
			for ; count > 0 && x < len(line); count-- {
				line[x] = b
				x++
			}
		}
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			var c color.NRGBA
			if hdr.NumPlanes == 1 {
				c = palette[line[x]]
			} else {
				c = color.NRGBA{R: line[x], G: line[bpl+x], B: line[2*bpl+x], A: 0xff}
			}
			row[x*4+0] = c.R
			row[x*4+1] = c.G
			row[x*4+2] = c.B
			row[x*4+3] = c.A
		}
	}
	return img, nil
}

func LoadImage(r io.Reader) (image.Image, string, error) {
	return image.Decode(r)
}

// AddImage учитывает все пиксели изображения; альфа-канал отбрасывается.
func (h *Histogram) AddImage(img image.Image) {
	bounds := img.Bounds()
	if m, ok := img.(*image.NRGBA); ok {
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			i := m.PixOffset(bounds.Min.X, y)
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				h.Add(m.Pix[i], m.Pix[i+1], m.Pix[i+2])
				i += 4
			}
		}
		return
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			h.Add(c.R, c.G, c.B)
		}
	}
}
