package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/couchcryptid/synthetic-met-data/internal/domain"
)

// Cube is a (time, lat, lon) grid that serializes as nested [t][i][j] arrays
// with null for missing cells.
type Cube struct {
	T, H, W int
	Data    []float32
}

// CubeFromGrid wraps g without copying.
func CubeFromGrid(g *domain.Grid) Cube {
	return Cube{T: g.T, H: g.H, W: g.W, Data: g.Data}
}

// Grid converts back to a domain grid. Nulls become domain.Missing.
func (c Cube) Grid() *domain.Grid {
	return &domain.Grid{T: c.T, H: c.H, W: c.W, Data: c.Data}
}

// MarshalJSON writes float32 values in their shortest round-trip form.
func (c Cube) MarshalJSON() ([]byte, error) {
	if len(c.Data) != c.T*c.H*c.W {
		return nil, fmt.Errorf("cube data length %d does not match shape %dx%dx%d", len(c.Data), c.T, c.H, c.W)
	}
	buf := make([]byte, 0, len(c.Data)*8+c.T*c.H*2+2)
	buf = append(buf, '[')
	for t := 0; t < c.T; t++ {
		if t > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, '[')
		for i := 0; i < c.H; i++ {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = append(buf, '[')
			row := c.Data[(t*c.H+i)*c.W : (t*c.H+i+1)*c.W]
			for j, v := range row {
				if j > 0 {
					buf = append(buf, ',')
				}
				buf = appendValue(buf, v)
			}
			buf = append(buf, ']')
		}
		buf = append(buf, ']')
	}
	return append(buf, ']'), nil
}

func appendValue(buf []byte, v float32) []byte {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return append(buf, "null"...)
	}
	return strconv.AppendFloat(buf, f, 'g', -1, 32)
}

// UnmarshalJSON reads nested arrays back, requiring a rectangular shape.
func (c *Cube) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*c = Cube{}
		return nil
	}
	var nested [][][]*float32
	if err := json.Unmarshal(b, &nested); err != nil {
		return err
	}
	out := Cube{T: len(nested)}
	if out.T > 0 {
		out.H = len(nested[0])
		if out.H > 0 {
			out.W = len(nested[0][0])
		}
	}
	out.Data = make([]float32, 0, out.T*out.H*out.W)
	for t, frame := range nested {
		if len(frame) != out.H {
			return fmt.Errorf("day %d has %d rows, want %d", t, len(frame), out.H)
		}
		for i, row := range frame {
			if len(row) != out.W {
				return fmt.Errorf("day %d row %d has %d columns, want %d", t, i, len(row), out.W)
			}
			for _, v := range row {
				if v == nil {
					out.Data = append(out.Data, domain.Missing)
					continue
				}
				out.Data = append(out.Data, *v)
			}
		}
	}
	*c = out
	return nil
}
