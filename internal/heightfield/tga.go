package heightfield

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"io"
)

// TGA image types.
const (
	tgaTrueColor    = 2
	tgaGray         = 3
	tgaTrueColorRLE = 10
	tgaGrayRLE      = 11
)

// DecodeTGA decodes an uncompressed or RLE compressed TGA image in 8-bit
// grayscale or 24/32-bit true color.
func DecodeTGA(data []byte) (image.Image, error) {
	if len(data) < 18 {
		return nil, fmt.Errorf("%w: tga header too short", ErrFormat)
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(binary.LittleEndian.Uint16(data[12:]))
	height := int(binary.LittleEndian.Uint16(data[14:]))
	bpp := int(data[16])
	topToBottom := data[17]&0x20 != 0

	if colorMapType != 0 {
		return nil, fmt.Errorf("%w: color-mapped tga", ErrFormat)
	}
	gray := imageType == tgaGray || imageType == tgaGrayRLE
	switch {
	case gray && bpp != 8:
		return nil, fmt.Errorf("%w: tga grayscale depth %d", ErrFormat, bpp)
	case !gray && imageType != tgaTrueColor && imageType != tgaTrueColorRLE:
		return nil, fmt.Errorf("%w: tga type %d", ErrFormat, imageType)
	case !gray && bpp != 24 && bpp != 32:
		return nil, fmt.Errorf("%w: tga depth %d", ErrFormat, bpp)
	}

	offset := 18 + idLength
	if offset > len(data) {
		return nil, fmt.Errorf("%w: tga data truncated", ErrFormat)
	}
	pix := data[offset:]
	bytesPerPixel := bpp / 8

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	put := func(n int, p []byte) {
		x, y := n%width, n/width
		if !topToBottom {
			y = height - 1 - y
		}
		c := color.RGBA{A: 255}
		if gray {
			c.R, c.G, c.B = p[0], p[0], p[0]
		} else {
			c.R, c.G, c.B = p[2], p[1], p[0]
			if bytesPerPixel == 4 {
				c.A = p[3]
			}
		}
		img.SetRGBA(x, y, c)
	}

	count := width * height
	if imageType == tgaTrueColor || imageType == tgaGray {
		if len(pix) < count*bytesPerPixel {
			return nil, fmt.Errorf("%w: tga pixel data truncated", ErrFormat)
		}
		for n := range count {
			put(n, pix[n*bytesPerPixel:])
		}
		return img, nil
	}

	n, i := 0, 0
	for n < count && i < len(pix) {
		packet := pix[i]
		i++
		run := int(packet&0x7F) + 1
		if packet&0x80 != 0 {
			if i+bytesPerPixel > len(pix) {
				break
			}
			for ; run > 0 && n < count; run-- {
				put(n, pix[i:])
				n++
			}
			i += bytesPerPixel
			continue
		}
		for ; run > 0 && n < count && i+bytesPerPixel <= len(pix); run-- {
			put(n, pix[i:])
			n++
			i += bytesPerPixel
		}
	}
	return img, nil
}

// EncodeTGA writes the grid as an uncompressed 8-bit grayscale TGA, one
// gray level per 128 raw units. Negative samples are written black.
func EncodeTGA(w io.Writer, g *Grid) error {
	if g.cols > 0xFFFF || g.rows > 0xFFFF {
		return fmt.Errorf("%w: %dx%d too large for tga", ErrSize, g.rows, g.cols)
	}
	var hdr [18]byte
	hdr[2] = tgaGray
	binary.LittleEndian.PutUint16(hdr[12:], uint16(g.cols))
	binary.LittleEndian.PutUint16(hdr[14:], uint16(g.rows))
	hdr[16] = 8
	hdr[17] = 0x20

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(hdr[:]); err != nil {
		return err
	}
	for _, v := range g.data {
		if err := bw.WriteByte(byte(max(v, 0) >> 7)); err != nil {
			return err
		}
	}
	return bw.Flush()
}
