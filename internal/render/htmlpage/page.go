// Package htmlpage renders a layout as a single go-echarts HTML page: one
// chart per cell laid out in a flex grid.
package htmlpage

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/color"
	"image/jpeg"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/nuview/internal/fsutil"
	"github.com/banshee-data/nuview/internal/render"
)

// grid margins in pixels; camera frames stretch to fill what is left.
const (
	marginLeft   = 40
	marginRight  = 20
	marginTop    = 40
	marginBottom = 30
)

type cell struct {
	title  string
	layers []render.Layer
}

// Page accumulates layers per cell and builds the charts on Save.
type Page struct {
	Title      string
	CellWidth  int // pixels
	CellHeight int
	AssetsHost string // empty uses the go-echarts default

	fs     fsutil.FileSystem
	rows   int
	cols   int
	cells  []*cell // nil cells are hidden
	resets int
}

var _ render.Surface = (*Page)(nil)

// New creates an empty page.
func New(fs fsutil.FileSystem, title string, cellWidth, cellHeight int) *Page {
	return &Page{Title: title, CellWidth: cellWidth, CellHeight: cellHeight, fs: fs}
}

// Reset sizes the grid, reallocating only when the shape changes.
func (p *Page) Reset(rows, cols int) {
	if rows == p.rows && cols == p.cols && p.cells != nil {
		return
	}
	p.rows, p.cols = rows, cols
	p.cells = make([]*cell, rows*cols)
	p.resets++
}

// Shape returns the grid size and how many times it has been reallocated.
func (p *Page) Shape() (rows, cols, reallocations int) {
	return p.rows, p.cols, p.resets
}

// Clear empties a cell and sets its title.
func (p *Page) Clear(i int, title string) {
	if i < 0 || i >= len(p.cells) {
		return
	}
	p.cells[i] = &cell{title: title}
}

// Hide blanks a cell.
func (p *Page) Hide(i int) {
	if i < 0 || i >= len(p.cells) {
		return
	}
	p.cells[i] = nil
}

// Draw queues a layer for a cell.
func (p *Page) Draw(i int, layer render.Layer) error {
	if i < 0 || i >= len(p.cells) {
		return fmt.Errorf("cell %d outside %dx%d grid", i, p.rows, p.cols)
	}
	switch layer.(type) {
	case *render.ImageLayer, *render.PointLayer:
	default:
		return fmt.Errorf("unsupported layer %T", layer)
	}
	if p.cells[i] == nil {
		p.cells[i] = &cell{title: layer.Title()}
	}
	p.cells[i].layers = append(p.cells[i].layers, layer)
	return nil
}

// Render writes the page HTML to buf.
func (p *Page) Render(buf *bytes.Buffer) error {
	if p.rows == 0 || p.cols == 0 {
		return fmt.Errorf("page has no cells")
	}
	page := components.NewPage()
	page.SetPageTitle(p.Title)
	page.SetLayout(components.PageFlexLayout)
	if p.AssetsHost != "" {
		page.SetAssetsHost(p.AssetsHost)
	}
	for _, c := range p.cells {
		chart, err := p.chart(c)
		if err != nil {
			return err
		}
		page.AddCharts(chart)
	}
	if err := page.Render(buf); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

// Save writes the page atomically.
func (p *Page) Save(path string) error {
	var buf bytes.Buffer
	if err := p.Render(&buf); err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(p.fs, path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("save page: %w", err)
	}
	return nil
}

func (p *Page) chart(c *cell) (*charts.Scatter, error) {
	scatter := charts.NewScatter()
	init := opts.Initialization{
		PageTitle: p.Title,
		Width:     fmt.Sprintf("%dpx", p.CellWidth),
		Height:    fmt.Sprintf("%dpx", p.CellHeight),
	}
	if p.AssetsHost != "" {
		init.AssetsHost = p.AssetsHost
	}
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(init),
		charts.WithGridOpts(opts.Grid{
			Left:   fmt.Sprintf("%dpx", marginLeft),
			Right:  fmt.Sprintf("%dpx", marginRight),
			Top:    fmt.Sprintf("%dpx", marginTop),
			Bottom: fmt.Sprintf("%dpx", marginBottom),
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
	)
	if c == nil {
		// keeps the flex grid aligned
		scatter.SetGlobalOptions(
			charts.WithXAxisOpts(opts.XAxis{Show: opts.Bool(false)}),
			charts.WithYAxisOpts(opts.YAxis{Show: opts.Bool(false)}),
		)
		return scatter, nil
	}
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: c.title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	for _, layer := range c.layers {
		var err error
		switch l := layer.(type) {
		case *render.ImageLayer:
			err = p.addImage(scatter, l)
		case *render.PointLayer:
			addPoints(scatter, l)
		}
		if err != nil {
			return nil, err
		}
	}
	return scatter, nil
}

// addImage shows the frame as an image symbol centred in the grid, with
// outlines flipped into plot coordinates.
func (p *Page) addImage(scatter *charts.Scatter, l *render.ImageLayer) error {
	var jpg bytes.Buffer
	if err := jpeg.Encode(&jpg, l.Image, &jpeg.Options{Quality: 85}); err != nil {
		return fmt.Errorf("encode %s frame: %w", l.Channel, err)
	}
	w, h := float64(l.Width), float64(l.Height)
	scatter.SetGlobalOptions(
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Min: 0, Max: w, Show: opts.Bool(false)}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Min: 0, Max: h, Show: opts.Bool(false)}),
	)
	symbol := "image://data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpg.Bytes())
	size := []int{p.CellWidth - marginLeft - marginRight, p.CellHeight - marginTop - marginBottom}
	scatter.AddSeries(l.Channel, []opts.ScatterData{{Value: []interface{}{w / 2, h / 2}}},
		charts.WithScatterChartOpts(opts.ScatterChart{Symbol: symbol, SymbolSize: size}))

	for _, o := range l.Outlines {
		flipped := make([][2]float64, len(o.Points))
		for i, pt := range o.Points {
			flipped[i] = [2]float64{pt.X, h - pt.Y}
		}
		scatter.Overlap(outline(o.Label, flipped, o.Closed, render.BoxColor(o.Label)))
	}
	if o := l.Overlay; o != nil {
		colors := o.PointColors()
		pts := make([][2]float64, len(o.Points))
		for i, pt := range o.Points {
			pts[i] = [2]float64{pt.X, h - pt.Y}
		}
		addColored(scatter, o.Channel, pts, colors, 2)
	}
	return nil
}

// addColored adds pts as one scatter series per colour, which keeps the page
// small.
func addColored(scatter *charts.Scatter, name string, pts [][2]float64, colors []color.Color, size int) {
	groups := make(map[string][]opts.ScatterData)
	for i, pt := range pts {
		key := hexColor(colors[i])
		groups[key] = append(groups[key], opts.ScatterData{Value: []interface{}{pt[0], pt[1]}})
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		scatter.AddSeries(name, groups[k],
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: size}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: k}))
	}
}

func addPoints(scatter *charts.Scatter, l *render.PointLayer) {
	limit := l.Limit
	if limit <= 0 {
		limit = render.DefaultOptions().AxesLimit
	}
	scatter.SetGlobalOptions(
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Min: -limit, Max: limit, Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Min: -limit, Max: limit, Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
	)

	colors := l.PointColors()
	var pts [][2]float64
	var kept []color.Color
	for i, pt := range l.Points {
		if pt.X < -limit || pt.X > limit || pt.Y < -limit || pt.Y > limit {
			continue
		}
		pts = append(pts, [2]float64{pt.X, pt.Y})
		kept = append(kept, colors[i])
	}
	addColored(scatter, l.Channel, pts, kept, 3)

	for _, a := range l.Arrows {
		arrow := [][2]float64{{a[0].X, a[0].Y}, {a[1].X, a[1].Y}}
		scatter.Overlap(outline("velocity", arrow, false, color.RGBA{R: 200, A: 255}))
	}
	for _, o := range l.Outlines {
		pts := make([][2]float64, len(o.Points))
		for i, pt := range o.Points {
			pts[i] = [2]float64{pt.X, pt.Y}
		}
		scatter.Overlap(outline(o.Label, pts, o.Closed, render.BoxColor(o.Label)))
	}

	scatter.AddSeries("ego", []opts.ScatterData{{Value: []interface{}{0, 0}}},
		charts.WithScatterChartOpts(opts.ScatterChart{Symbol: "triangle", SymbolSize: 10}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#000000"}))
}

func outline(name string, pts [][2]float64, closed bool, c color.Color) *charts.Line {
	if closed && len(pts) > 0 {
		pts = append(pts, pts[0])
	}
	data := make([]opts.LineData, len(pts))
	for i, pt := range pts {
		data[i] = opts.LineData{Value: []interface{}{pt[0], pt[1]}}
	}
	line := charts.NewLine()
	line.AddSeries(name, data,
		charts.WithLineChartOpts(opts.LineChart{Symbol: "none"}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: hexColor(c), Width: 1}))
	return line
}

// hexColor quantizes to 16 levels per channel.
func hexColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	q := func(v uint32) uint32 { return (v >> 8) &^ 0x0f }
	return fmt.Sprintf("#%02x%02x%02x", q(r), q(g), q(b))
}
