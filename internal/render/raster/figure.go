// Package raster draws render layouts with gonum/plot, one plot per cell,
// and writes the grid as a single PNG.
package raster

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/banshee-data/nuview/internal/fsutil"
	"github.com/banshee-data/nuview/internal/render"
)

// Figure is a persistent grid of plots. Reset with an unchanged shape keeps
// the figure, so a viewer watching the saved file sees it refresh in place.
type Figure struct {
	Width     vg.Length
	RowHeight vg.Length
	DPI       int

	fs     fsutil.FileSystem
	rows   int
	cols   int
	cells  []*plot.Plot // nil cells are hidden
	resets int
}

var _ render.Surface = (*Figure)(nil)

// New creates an empty figure.
func New(fs fsutil.FileSystem, width, rowHeight vg.Length, dpi int) *Figure {
	return &Figure{Width: width, RowHeight: rowHeight, DPI: dpi, fs: fs}
}

// Reset sizes the grid, reallocating only when the shape changes.
func (f *Figure) Reset(rows, cols int) {
	if rows == f.rows && cols == f.cols && f.cells != nil {
		return
	}
	f.rows, f.cols = rows, cols
	f.cells = make([]*plot.Plot, rows*cols)
	f.resets++
}

// Shape returns the grid size and how many times it has been reallocated.
func (f *Figure) Shape() (rows, cols, reallocations int) {
	return f.rows, f.cols, f.resets
}

// Clear replaces a cell with an empty titled plot.
func (f *Figure) Clear(cell int, title string) {
	if cell < 0 || cell >= len(f.cells) {
		return
	}
	p := plot.New()
	p.Title.Text = title
	f.cells[cell] = p
}

// Hide blanks a cell.
func (f *Figure) Hide(cell int) {
	if cell < 0 || cell >= len(f.cells) {
		return
	}
	f.cells[cell] = nil
}

// Visible reports whether a cell will be drawn.
func (f *Figure) Visible(cell int) bool {
	return cell >= 0 && cell < len(f.cells) && f.cells[cell] != nil
}

// Draw adds a layer's content to a cell.
func (f *Figure) Draw(cell int, layer render.Layer) error {
	if cell < 0 || cell >= len(f.cells) {
		return fmt.Errorf("cell %d outside %dx%d grid", cell, f.rows, f.cols)
	}
	p := f.cells[cell]
	if p == nil {
		p = plot.New()
		p.Title.Text = layer.Title()
		f.cells[cell] = p
	}
	switch l := layer.(type) {
	case *render.ImageLayer:
		return drawImage(p, l)
	case *render.PointLayer:
		return drawPoints(p, l)
	}
	return fmt.Errorf("unsupported layer %T", layer)
}

func drawImage(p *plot.Plot, l *render.ImageLayer) error {
	w, h := float64(l.Width), float64(l.Height)
	p.Add(plotter.NewImage(l.Image, 0, 0, w, h))
	for _, o := range l.Outlines {
		// pixel rows grow downward, plot y grows upward
		xys := make(plotter.XYs, 0, len(o.Points)+1)
		for _, pt := range o.Points {
			xys = append(xys, plotter.XY{X: pt.X, Y: h - pt.Y})
		}
		if err := addOutline(p, xys, o); err != nil {
			return err
		}
	}
	if o := l.Overlay; o != nil && len(o.Points) > 0 {
		xys := make(plotter.XYs, len(o.Points))
		for i, pt := range o.Points {
			xys[i] = plotter.XY{X: pt.X, Y: h - pt.Y}
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		colors := o.PointColors()
		sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
			return draw.GlyphStyle{Color: colors[i], Radius: vg.Points(1), Shape: draw.CircleGlyph{}}
		}
		p.Add(sc)
	}
	p.HideAxes()
	p.X.Min, p.X.Max = 0, w
	p.Y.Min, p.Y.Max = 0, h
	return nil
}

func drawPoints(p *plot.Plot, l *render.PointLayer) error {
	if len(l.Points) > 0 {
		xys := make(plotter.XYs, len(l.Points))
		for i, pt := range l.Points {
			xys[i] = plotter.XY{X: pt.X, Y: pt.Y}
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		colors := l.PointColors()
		sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
			return draw.GlyphStyle{Color: colors[i], Radius: vg.Points(1), Shape: draw.CircleGlyph{}}
		}
		p.Add(sc)
	}

	for _, a := range l.Arrows {
		line, err := plotter.NewLine(plotter.XYs{{X: a[0].X, Y: a[0].Y}, {X: a[1].X, Y: a[1].Y}})
		if err != nil {
			return err
		}
		line.Color = color.RGBA{R: 200, A: 255}
		line.Width = vg.Points(0.5)
		p.Add(line)
	}

	for _, o := range l.Outlines {
		xys := make(plotter.XYs, 0, len(o.Points)+1)
		for _, pt := range o.Points {
			xys = append(xys, plotter.XY{X: pt.X, Y: pt.Y})
		}
		if err := addOutline(p, xys, o); err != nil {
			return err
		}
	}

	// ego vehicle at the origin
	ego, err := plotter.NewScatter(plotter.XYs{{X: 0, Y: 0}})
	if err != nil {
		return err
	}
	ego.GlyphStyle = draw.GlyphStyle{Color: color.Black, Radius: vg.Points(4), Shape: draw.CrossGlyph{}}
	p.Add(ego)

	limit := l.Limit
	if limit <= 0 {
		limit = render.DefaultOptions().AxesLimit
	}
	p.X.Min, p.X.Max = -limit, limit
	p.Y.Min, p.Y.Max = -limit, limit
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"
	return nil
}

func addOutline(p *plot.Plot, xys plotter.XYs, o render.Outline) error {
	if o.Closed && len(xys) > 0 {
		xys = append(xys, xys[0])
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return err
	}
	line.Color = render.BoxColor(o.Label)
	line.Width = vg.Points(1)
	p.Add(line)
	return nil
}

// Encode renders the grid to PNG bytes. Hidden cells stay blank.
func (f *Figure) Encode() ([]byte, error) {
	if f.rows == 0 || f.cols == 0 {
		return nil, fmt.Errorf("figure has no cells")
	}
	img := vgimg.NewWith(
		vgimg.UseWH(f.Width, f.RowHeight*vg.Length(f.rows)),
		vgimg.UseDPI(f.DPI),
	)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: f.rows, Cols: f.cols,
		PadX: vg.Millimeter, PadY: vg.Millimeter,
		PadTop: vg.Millimeter, PadBottom: vg.Millimeter,
		PadLeft: vg.Millimeter, PadRight: vg.Millimeter,
	}
	for i, p := range f.cells {
		if p == nil {
			continue
		}
		p.Draw(tiles.At(dc, i%f.cols, i/f.cols))
	}

	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the PNG atomically so an open viewer never reads a partial file.
func (f *Figure) Save(path string) error {
	data, err := f.Encode()
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(f.fs, path, data, 0644); err != nil {
		return fmt.Errorf("save figure: %w", err)
	}
	return nil
}
