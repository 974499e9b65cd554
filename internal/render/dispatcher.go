// Package render plans how a sample's sensors are laid out on a grid and
// drives a Surface to draw them.
package render

import (
	"context"
	"errors"
	"fmt"

	"github.com/banshee-data/nuview/internal/monitoring"
	"github.com/banshee-data/nuview/internal/sensors"
)

// Surface is a grid of cells that can be drawn into and written to disk.
type Surface interface {
	// Reset sizes the grid. Calling it with the current shape keeps the surface.
	Reset(rows, cols int)
	Clear(cell int, title string)
	Hide(cell int)
	Draw(cell int, layer Layer) error
	Save(path string) error
}

// Source loads drawable layers for single channels.
type Source interface {
	Image(ctx context.Context, ch sensors.Channel, opts Options) (*ImageLayer, error)
	// Points returns a top-down layer; withBoxes adds annotation outlines.
	Points(ctx context.Context, ch sensors.Channel, opts Options, withBoxes bool) (*PointLayer, error)
}

// RenderFailure reports one channel that could not be drawn. Other cells of
// the same render are unaffected.
type RenderFailure struct {
	Channel string
	Token   string
	Err     error
}

func (f *RenderFailure) Error() string {
	return fmt.Sprintf("render %s (%s): %v", f.Channel, f.Token, f.Err)
}

func (f *RenderFailure) Unwrap() error { return f.Err }

// Dispatcher draws layouts using one Source.
type Dispatcher struct {
	Source Source
}

// Render resets s to the layout's shape and draws every cell. Failing
// channels are collected and returned together; drawing continues past them.
func (d *Dispatcher) Render(ctx context.Context, s Surface, layout Layout, opts Options) error {
	s.Reset(layout.Rows, layout.Cols)

	var errs []error
	for i, cell := range layout.Cells {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		if cell.Kind == CellEmpty {
			s.Hide(i)
			continue
		}
		s.Clear(i, cell.Title)

		switch cell.Kind {
		case CellCamera:
			ch := cell.Channels[0]
			layer, err := d.Source.Image(ctx, ch, opts)
			if err != nil {
				errs = append(errs, &RenderFailure{Channel: ch.Name, Token: ch.Token, Err: err})
				continue
			}
			if err := s.Draw(i, layer); err != nil {
				errs = append(errs, &RenderFailure{Channel: ch.Name, Token: ch.Token, Err: err})
			}
		case CellRadar, CellLidar:
			merged := &PointLayer{Channel: cell.Title, Limit: opts.AxesLimit}
			for j, ch := range cell.Channels {
				// fused channels share one ego frame; boxes are drawn once
				layer, err := d.Source.Points(ctx, ch, opts, j == 0)
				if err != nil {
					errs = append(errs, &RenderFailure{Channel: ch.Name, Token: ch.Token, Err: err})
					continue
				}
				merged.Merge(layer)
			}
			if err := s.Draw(i, merged); err != nil {
				errs = append(errs, &RenderFailure{Channel: cell.Title, Err: err})
			}
		}
	}

	if len(errs) > 0 {
		monitoring.Logf("[render] %d of %d cells had failures", len(errs), layout.ContentCells())
	}
	return errors.Join(errs...)
}
