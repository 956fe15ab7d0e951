package heightfield

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/png" // registers PNG with image.Decode
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"  // registers BMP with image.Decode
	_ "golang.org/x/image/tiff" // registers TIFF with image.Decode
)

// FromImage converts an image to a grid, one sample per pixel. Image y is
// the row and x the column. Luminance is taken at 16 bits and halved into
// the non-negative raw range.
func FromImage(img image.Image) (*Grid, error) {
	b := img.Bounds()
	g, err := New(b.Dy(), b.Dx())
	if err != nil {
		return nil, err
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			lum := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16).Y
			g.Set(y-b.Min.Y, x-b.Min.X, int16(lum>>1))
		}
	}
	return g, nil
}

// ToImage renders the grid as a 16-bit grayscale image, the inverse of
// FromImage. Negative samples render black.
func (g *Grid) ToImage() *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, g.cols, g.rows))
	for r := range g.rows {
		for c := range g.cols {
			v := max(g.Get(r, c), 0)
			img.SetGray16(c, r, color.Gray16{Y: uint16(v)<<1 | uint16(v)>>14})
		}
	}
	return img
}

// Decode reads a PNG, TIFF or BMP heightmap.
func Decode(r io.Reader) (*Grid, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	g, err := FromImage(img)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	return g, nil
}

// Load reads a heightmap file, choosing the decoder by extension:
// .pgm, .tga, .ter (Terragen) or any format image.Decode knows.
func Load(path string) (*Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read heightmap: %w", err)
	}

	var g *Grid
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pgm":
		g, err = ReadPGM(bytes.NewReader(data), MaxRaw)
	case ".tga":
		var img image.Image
		img, err = DecodeTGA(data)
		if err == nil {
			g, err = FromImage(img)
		}
	case ".ter":
		g, err = ReadTerragen(bytes.NewReader(data))
	case ".gat":
		g, err = ReadGAT(bytes.NewReader(data))
	default:
		g, err = Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	return g, nil
}
