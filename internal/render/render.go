// Package render draws the habitat index grid as a pseudocolour PNG map.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"mazishark/habitat-api/internal/grid"
)

const (
	MinWidth  = 400
	MinHeight = 300

	// dpi fixes the pixel size of a point so Width and Height are exact.
	dpi = 150

	// barFraction is the share of the image width given to the colour bar.
	barFraction = 0.13

	paletteSize = 256
)

var ErrImageTooSmall = errors.New("image size too small")

type Options struct {
	Width    int
	Height   int
	Title    string
	XLabel   string
	YLabel   string
	BarLabel string
}

// DefaultOptions matches a 10x6 inch figure at 150 dpi.
func DefaultOptions() Options {
	return Options{
		Width:    1500,
		Height:   900,
		Title:    "Habitat suitability index H(x,y)",
		XLabel:   "Longitude",
		YLabel:   "Latitude",
		BarLabel: "H (0-1)",
	}
}

var background = color.RGBA{0xff, 0xff, 0xff, 0xff}

// figure is a drawn map plus what is needed to locate data on it.
type figure struct {
	canvas *vgimg.Canvas
	plot   *plot.Plot
	area   draw.Canvas
}

// PNG renders g and writes it to w as a PNG image.
func PNG(w io.Writer, g *grid.Grid, opts Options) error {
	f, err := newFigure(g, opts)
	if err != nil {
		return err
	}
	if _, err := (vgimg.PngCanvas{Canvas: f.canvas}).WriteTo(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// Image renders g over the (lon, lat) plane: one filled cell per grid value,
// viridis scaled to the finite data range, with axes, title and colour bar.
// NaN cells are left unpainted.
func Image(g *grid.Grid, opts Options) (image.Image, error) {
	f, err := newFigure(g, opts)
	if err != nil {
		return nil, err
	}
	return f.canvas.Image(), nil
}

func newFigure(g *grid.Grid, opts Options) (*figure, error) {
	if g == nil {
		return nil, errors.New("render: nil grid")
	}
	if opts.Width < MinWidth || opts.Height < MinHeight {
		return nil, fmt.Errorf("%w: %dx%d, need at least %dx%d", ErrImageTooSmall, opts.Width, opts.Height, MinWidth, MinHeight)
	}
	useGoFont()

	c := newCells(g)
	lo, hi := spread(c.valueRange())
	cmap := newViridisMap(lo, hi)

	p := plot.New()
	p.BackgroundColor = background
	p.Title.Text = opts.Title
	p.X.Label.Text = opts.XLabel
	p.Y.Label.Text = opts.YLabel

	hm := plotter.NewHeatMap(c, cmap.Palette(paletteSize))
	hm.Min, hm.Max = lo, hi
	hm.NaN = nil
	p.Add(hm)
	p.X.Min, p.X.Max = spread(p.X.Min, p.X.Max)
	p.Y.Min, p.Y.Max = spread(p.Y.Min, p.Y.Max)

	bar := plot.New()
	bar.BackgroundColor = background
	bar.Add(&plotter.ColorBar{ColorMap: cmap, Vertical: true})
	bar.HideX()
	bar.Y.Padding = 0
	bar.Y.Label.Text = opts.BarLabel

	setFont(p)
	setFont(bar)

	canvas := vgimg.NewWith(
		vgimg.UseWH(pixels(opts.Width), pixels(opts.Height)),
		vgimg.UseDPI(dpi),
		vgimg.UseBackgroundColor(background),
	)
	dc := draw.New(canvas)
	width := dc.Max.X - dc.Min.X
	barWidth := width * barFraction

	area := draw.Crop(dc, 0, -barWidth, 0, 0)
	p.Draw(area)

	// Line the colour bar up with the map's data area.
	data := p.DataCanvas(area)
	bar.Draw(draw.Crop(dc, width-barWidth+vg.Millimeter, -2*vg.Millimeter, data.Min.Y-dc.Min.Y, data.Max.Y-dc.Max.Y))

	return &figure{canvas: canvas, plot: p, area: area}, nil
}

// pixels converts an image dimension to a length at the fixed dpi.
func pixels(n int) vg.Length {
	return vg.Length(n) / dpi * vg.Inch
}

// spread widens ranges too narrow to tick or normalise: equal bounds, or
// bounds that differ only by rounding noise.
func spread(lo, hi float64) (float64, float64) {
	if hi-lo > 1e-9*math.Max(math.Abs(lo), math.Abs(hi)) {
		return lo, hi
	}
	pad := 0.5 * math.Max(1, math.Max(math.Abs(lo), math.Abs(hi)))
	return lo - pad, hi + pad
}
