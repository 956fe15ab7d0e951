package heightfield

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	stdmath "math"
)

// Terragen terrain files: an 8 byte name and 8 byte type, then 4 byte
// tagged segments in little endian. ALTW carries the samples and must come
// last; absolute height is base + sample*heightScale/65536.
const (
	terragenMagic = "TERRAGENTERRAIN "
	terragenUnit  = 65536
)

// ReadTerragen reads a Terragen .ter heightfield.
func ReadTerragen(r io.Reader) (*Grid, error) {
	br := bufio.NewReader(r)
	var magic [16]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil || string(magic[:]) != terragenMagic {
		return nil, fmt.Errorf("%w: not a terragen file", ErrFormat)
	}

	var rows, cols int
	var tag [4]byte
	for {
		if _, err := io.ReadFull(br, tag[:]); err != nil {
			return nil, fmt.Errorf("%w: terragen segment missing", ErrFormat)
		}
		switch string(tag[:]) {
		case "SIZE":
			n, err := readPadded(br)
			if err != nil {
				return nil, err
			}
			rows, cols = n+1, n+1
		case "XPTS":
			n, err := readPadded(br)
			if err != nil {
				return nil, err
			}
			cols = n
		case "YPTS":
			n, err := readPadded(br)
			if err != nil {
				return nil, err
			}
			rows = n
		case "SCAL":
			if _, err := br.Discard(12); err != nil {
				return nil, fmt.Errorf("%w: terragen SCAL truncated", ErrFormat)
			}
		case "CRAD", "CRVM":
			if _, err := br.Discard(4); err != nil {
				return nil, fmt.Errorf("%w: terragen %s truncated", ErrFormat, tag[:])
			}
		case "ALTW":
			return readAltitudes(br, rows, cols)
		default:
			return nil, fmt.Errorf("%w: terragen segment %q", ErrFormat, tag[:])
		}
	}
}

func readPadded(r io.Reader) (int, error) {
	var v struct {
		N   uint16
		Pad uint16
	}
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return 0, fmt.Errorf("%w: terragen header truncated", ErrFormat)
	}
	return int(v.N), nil
}

func readAltitudes(r io.Reader, rows, cols int) (*Grid, error) {
	var hdr struct {
		HeightScale uint16
		Base        int16
	}
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: terragen ALTW truncated", ErrFormat)
	}
	g, err := New(rows, cols)
	if err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, g.data); err != nil {
		return nil, fmt.Errorf("%w: terragen samples truncated", ErrFormat)
	}
	g.SetQuantization(float32(hdr.Base), float32(hdr.HeightScale)/terragenUnit)
	return g, nil
}

// WriteTerragen writes the grid as a Terragen .ter file. The quantization
// is stored with 1/65536 precision and an integer base, so the scale must
// lie in (0, 1).
func WriteTerragen(w io.Writer, g *Grid) error {
	hs := stdmath.Round(float64(g.scale) * terragenUnit)
	if hs < 1 || hs > 0xFFFF || g.base < stdmath.MinInt16 || g.base > stdmath.MaxInt16 {
		return fmt.Errorf("%w: quantization base %g scale %g has no terragen form", ErrFormat, g.base, g.scale)
	}

	bw := bufio.NewWriter(w)
	le := func(v any) {
		// bufio.Writer keeps the first error; Flush reports it.
		_ = binary.Write(bw, binary.LittleEndian, v)
	}

	bw.WriteString(terragenMagic)
	bw.WriteString("SIZE")
	le([2]uint16{uint16(min(g.rows, g.cols) - 1), 0})
	bw.WriteString("XPTS")
	le([2]uint16{uint16(g.cols), 0})
	bw.WriteString("YPTS")
	le([2]uint16{uint16(g.rows), 0})
	bw.WriteString("ALTW")
	le(uint16(hs))
	le(int16(g.base))
	le(g.data)
	bw.WriteString("EOF ")
	return bw.Flush()
}
