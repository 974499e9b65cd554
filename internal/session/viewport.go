package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/banshee-data/nuview/internal/launcher"
	"github.com/banshee-data/nuview/internal/monitoring"
	"github.com/banshee-data/nuview/internal/navigation"
	"github.com/banshee-data/nuview/internal/render"
	"github.com/banshee-data/nuview/internal/sensors"
)

// ViewportConfig configures a Viewport.
type ViewportConfig struct {
	Name       string
	View       render.View
	Samples    Samples
	Dispatcher *render.Dispatcher
	Surface    render.Surface
	Options    render.Options
	// OutputPath is rewritten on every refresh.
	OutputPath string
	// ViewerArgv opens OutputPath in an external viewer after the first
	// refresh. Empty means no viewer.
	ViewerArgv []string
	Launcher   launcher.Launcher
}

// Viewport renders one view in-process. The surface and the output file
// persist across refreshes; the viewer is launched once and left to reload
// the file.
type Viewport struct {
	cfg    ViewportConfig
	viewer launcher.Handle
	token  string
}

// NewViewport creates a viewport.
func NewViewport(cfg ViewportConfig) *Viewport {
	return &Viewport{cfg: cfg}
}

// Name returns the viewport name.
func (v *Viewport) Name() string { return v.cfg.Name }

// Token returns the token last drawn.
func (v *Viewport) Token() string { return v.token }

// Refresh draws state's current sample. Per-channel failures are returned
// after the rest of the view has been saved.
func (v *Viewport) Refresh(ctx context.Context, state *navigation.State) error {
	token := state.Token()
	sample, err := v.cfg.Samples.Sample(token)
	if err != nil {
		return err
	}
	group, err := sensors.Classify(v.cfg.Samples, sample)
	if err != nil {
		return err
	}
	layout := render.PlanLayout(group, v.cfg.View)

	renderErr := v.cfg.Dispatcher.Render(ctx, v.cfg.Surface, layout, v.cfg.Options)
	if errors.Is(renderErr, context.Canceled) || errors.Is(renderErr, context.DeadlineExceeded) {
		return renderErr
	}
	if err := v.cfg.Surface.Save(v.cfg.OutputPath); err != nil {
		return errors.Join(renderErr, fmt.Errorf("save %s: %w", v.cfg.Name, err))
	}
	v.token = token
	monitoring.Logf("[session] %s drew %s (%d cells) to %s", v.cfg.Name, token, layout.ContentCells(), v.cfg.OutputPath)

	if err := v.openViewer(ctx); err != nil {
		return errors.Join(renderErr, err)
	}
	return renderErr
}

func (v *Viewport) openViewer(ctx context.Context) error {
	if v.viewer != nil || len(v.cfg.ViewerArgv) == 0 || v.cfg.Launcher == nil {
		return nil
	}
	h, err := v.cfg.Launcher.Start(ctx, v.cfg.ViewerArgv)
	if err != nil {
		return fmt.Errorf("open viewer for %s: %w", v.cfg.Name, err)
	}
	v.viewer = h
	return nil
}

// Close kills the external viewer, if one was started.
func (v *Viewport) Close() error {
	if v.viewer == nil {
		return nil
	}
	err := v.viewer.Kill()
	v.viewer = nil
	return err
}
