package sensordata

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// PCDField describes one column of a PCD file.
type PCDField struct {
	Name  string
	Size  int  // bytes per value
	Type  byte // 'F' float, 'I' signed, 'U' unsigned
	Count int
}

// PCD is a decoded point cloud. Rows hold one value per field element, in
// header order.
type PCD struct {
	Version string
	Fields  []PCDField
	Width   int
	Height  int
	Points  int
	Rows    [][]float64
}

// Column returns the row offset of a named field, or -1.
func (p *PCD) Column(name string) int {
	off := 0
	for _, f := range p.Fields {
		if f.Name == name {
			return off
		}
		off += f.Count
	}
	return -1
}

// ParsePCD decodes a PCD v0.7 file with ascii or binary data.
func ParsePCD(data []byte) (*PCD, error) {
	r := bufio.NewReader(bytes.NewReader(data))
	p := &PCD{}
	var (
		sizes, counts []int
		types         []byte
		names         []string
		encoding      string
	)
	for encoding == "" {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("pcd header: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, rest, _ := strings.Cut(line, " ")
		vals := strings.Fields(rest)
		switch strings.ToUpper(key) {
		case "VERSION":
			p.Version = rest
		case "FIELDS":
			names = vals
		case "SIZE":
			if sizes, err = atois(vals); err != nil {
				return nil, fmt.Errorf("pcd SIZE: %w", err)
			}
		case "TYPE":
			for _, v := range vals {
				if len(v) != 1 || !strings.Contains("FIU", v) {
					return nil, fmt.Errorf("pcd TYPE: unknown type %q", v)
				}
				types = append(types, v[0])
			}
		case "COUNT":
			if counts, err = atois(vals); err != nil {
				return nil, fmt.Errorf("pcd COUNT: %w", err)
			}
		case "WIDTH":
			p.Width, err = strconv.Atoi(rest)
		case "HEIGHT":
			p.Height, err = strconv.Atoi(rest)
		case "POINTS":
			p.Points, err = strconv.Atoi(rest)
		case "VIEWPOINT":
		case "DATA":
			encoding = rest
		default:
			return nil, fmt.Errorf("pcd header: unknown key %q", key)
		}
		if err != nil {
			return nil, fmt.Errorf("pcd %s: %w", key, err)
		}
	}

	if counts == nil {
		counts = make([]int, len(names))
		for i := range counts {
			counts[i] = 1
		}
	}
	if len(sizes) != len(names) || len(types) != len(names) || len(counts) != len(names) {
		return nil, fmt.Errorf("pcd header: %d fields but %d sizes, %d types, %d counts",
			len(names), len(sizes), len(types), len(counts))
	}
	if p.Points == 0 {
		p.Points = p.Width * p.Height
	}
	rowLen := 0
	for i, name := range names {
		f := PCDField{Name: name, Size: sizes[i], Type: types[i], Count: counts[i]}
		if !validSize(f) {
			return nil, fmt.Errorf("pcd field %s: unsupported %c%d", name, f.Type, f.Size)
		}
		p.Fields = append(p.Fields, f)
		rowLen += f.Count
	}

	var err error
	switch encoding {
	case "binary":
		p.Rows, err = readBinary(r, p.Fields, p.Points, rowLen)
	case "ascii":
		p.Rows, err = readASCII(r, p.Points, rowLen)
	default:
		err = fmt.Errorf("unsupported DATA encoding %q", encoding)
	}
	if err != nil {
		return nil, fmt.Errorf("pcd data: %w", err)
	}
	return p, nil
}

func atois(vals []string) ([]int, error) {
	out := make([]int, len(vals))
	for i, v := range vals {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func validSize(f PCDField) bool {
	switch f.Type {
	case 'F':
		return f.Size == 4 || f.Size == 8
	default:
		return f.Size == 1 || f.Size == 2 || f.Size == 4 || f.Size == 8
	}
}

func readBinary(r io.Reader, fields []PCDField, points, rowLen int) ([][]float64, error) {
	stride := 0
	for _, f := range fields {
		stride += f.Size * f.Count
	}
	buf := make([]byte, stride)
	rows := make([][]float64, 0, points)
	for n := 0; n < points; n++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("point %d of %d: %w", n, points, err)
		}
		row := make([]float64, 0, rowLen)
		off := 0
		for _, f := range fields {
			for c := 0; c < f.Count; c++ {
				row = append(row, decode(buf[off:off+f.Size], f))
				off += f.Size
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func decode(b []byte, f PCDField) float64 {
	le := binary.LittleEndian
	switch f.Type {
	case 'F':
		if f.Size == 4 {
			return float64(math.Float32frombits(le.Uint32(b)))
		}
		return math.Float64frombits(le.Uint64(b))
	case 'I':
		switch f.Size {
		case 1:
			return float64(int8(b[0]))
		case 2:
			return float64(int16(le.Uint16(b)))
		case 4:
			return float64(int32(le.Uint32(b)))
		}
		return float64(int64(le.Uint64(b)))
	}
	switch f.Size {
	case 1:
		return float64(b[0])
	case 2:
		return float64(le.Uint16(b))
	case 4:
		return float64(le.Uint32(b))
	}
	return float64(le.Uint64(b))
}

func readASCII(r io.Reader, points, rowLen int) ([][]float64, error) {
	sc := bufio.NewScanner(r)
	rows := make([][]float64, 0, points)
	for sc.Scan() && len(rows) < points {
		vals := strings.Fields(sc.Text())
		if len(vals) == 0 {
			continue
		}
		if len(vals) != rowLen {
			return nil, fmt.Errorf("point %d: %d values, want %d", len(rows), len(vals), rowLen)
		}
		row := make([]float64, rowLen)
		for i, v := range vals {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("point %d: %w", len(rows), err)
			}
			row[i] = f
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(rows) != points {
		return nil, fmt.Errorf("got %d points, header says %d", len(rows), points)
	}
	return rows, nil
}
