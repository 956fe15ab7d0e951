package heightfield

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ReadPGM reads an ASCII (P2) or binary (P5) portable graymap. Samples are
// rescaled from [0, maxval] to [0, desiredMax].
func ReadPGM(r io.Reader, desiredMax int) (*Grid, error) {
	br := bufio.NewReader(r)
	magic, err := pgmToken(br)
	if err != nil {
		return nil, err
	}
	if magic != "P2" && magic != "P5" {
		return nil, fmt.Errorf("%w: pgm magic %q", ErrFormat, magic)
	}

	var hdr [3]int
	for i := range hdr {
		tok, err := pgmToken(br)
		if err != nil {
			return nil, err
		}
		if hdr[i], err = strconv.Atoi(tok); err != nil {
			return nil, fmt.Errorf("%w: pgm header %q", ErrFormat, tok)
		}
	}
	width, height, maxGrey := hdr[0], hdr[1], hdr[2]
	if maxGrey < 1 || maxGrey > 0xFFFF {
		return nil, fmt.Errorf("%w: pgm maxval %d", ErrFormat, maxGrey)
	}
	g, err := New(height, width)
	if err != nil {
		return nil, err
	}

	conv := func(v int) int16 {
		return clampRaw(float64(int64(v) * int64(desiredMax) / int64(maxGrey)))
	}
	wide := maxGrey > 0xFF
	var buf [2]byte
	for row := range height {
		for col := range width {
			var v int
			switch {
			case magic == "P2":
				tok, err := pgmToken(br)
				if err != nil {
					return nil, err
				}
				if v, err = strconv.Atoi(tok); err != nil {
					return nil, fmt.Errorf("%w: pgm sample %q", ErrFormat, tok)
				}
			case wide:
				if _, err := io.ReadFull(br, buf[:2]); err != nil {
					return nil, fmt.Errorf("%w: pgm data truncated", ErrFormat)
				}
				v = int(binary.BigEndian.Uint16(buf[:]))
			default:
				b, err := br.ReadByte()
				if err != nil {
					return nil, fmt.Errorf("%w: pgm data truncated", ErrFormat)
				}
				v = int(b)
			}
			g.Set(row, col, conv(v))
		}
	}
	return g, nil
}

// WritePGM writes the grid as a 16-bit binary graymap with maxval MaxRaw.
// Negative samples are written as 0.
func WritePGM(w io.Writer, g *Grid) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P5\n%d %d\n%d\n", g.cols, g.rows, MaxRaw); err != nil {
		return err
	}
	var buf [2]byte
	for _, v := range g.data {
		binary.BigEndian.PutUint16(buf[:], uint16(max(v, 0)))
		if _, err := bw.Write(buf[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// pgmToken returns the next whitespace separated header token, skipping
// comments. The delimiter after the token is consumed.
func pgmToken(br *bufio.Reader) (string, error) {
	var tok []byte
	for {
		b, err := br.ReadByte()
		if errors.Is(err, io.EOF) && len(tok) > 0 {
			return string(tok), nil
		}
		if err != nil {
			return "", fmt.Errorf("%w: pgm truncated", ErrFormat)
		}
		switch {
		case b == '#' && len(tok) == 0:
			if _, err := br.ReadString('\n'); err != nil {
				return "", fmt.Errorf("%w: pgm truncated", ErrFormat)
			}
		case b == ' ' || b == '\t' || b == '\n' || b == '\r':
			if len(tok) > 0 {
				return string(tok), nil
			}
		default:
			tok = append(tok, b)
		}
	}
}
