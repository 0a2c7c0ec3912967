package render

import (
	"image/color"
	"math"

	"gonum.org/v1/plot/palette"
)

// viridisMap is a palette.ColorMap over Viridis.
type viridisMap struct {
	min, max float64
	alpha    float64
}

func newViridisMap(lo, hi float64) *viridisMap {
	return &viridisMap{min: lo, max: hi, alpha: 1}
}

func (m *viridisMap) At(v float64) (color.Color, error) {
	switch {
	case math.IsNaN(v):
		return nil, palette.ErrNaN
	case v < m.min:
		return nil, palette.ErrUnderflow
	case v > m.max:
		return nil, palette.ErrOverflow
	}
	return m.withAlpha(Viridis((v - m.min) / (m.max - m.min))), nil
}

func (m *viridisMap) Max() float64 { return m.max }
func (m *viridisMap) SetMax(v float64) { m.max = v }
func (m *viridisMap) Min() float64 { return m.min }
func (m *viridisMap) SetMin(v float64) { m.min = v }
func (m *viridisMap) Alpha() float64 { return m.alpha }
func (m *viridisMap) SetAlpha(a float64) { m.alpha = a }

// Palette samples n evenly spaced colours, both ends included.
func (m *viridisMap) Palette(n int) palette.Palette {
	cs := make(colors, n)
	for k := range cs {
		t := 0.0
		if n > 1 {
			t = float64(k) / float64(n-1)
		}
		cs[k] = m.withAlpha(Viridis(t))
	}
	return cs
}

func (m *viridisMap) withAlpha(c color.RGBA) color.Color {
	if m.alpha >= 1 {
		return c
	}
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(math.Round(255 * math.Max(m.alpha, 0)))}
}

type colors []color.Color

func (c colors) Colors() []color.Color { return c }
