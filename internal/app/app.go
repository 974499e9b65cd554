// Package app wires configuration into the datasets, surfaces and sessions
// the nuview commands run.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/nuview/internal/config"
	"github.com/banshee-data/nuview/internal/fsutil"
	"github.com/banshee-data/nuview/internal/geometry"
	"github.com/banshee-data/nuview/internal/journal"
	"github.com/banshee-data/nuview/internal/launcher"
	"github.com/banshee-data/nuview/internal/monitoring"
	"github.com/banshee-data/nuview/internal/navigation"
	"github.com/banshee-data/nuview/internal/nuscenes"
	"github.com/banshee-data/nuview/internal/render"
	"github.com/banshee-data/nuview/internal/render/htmlpage"
	"github.com/banshee-data/nuview/internal/render/raster"
	"github.com/banshee-data/nuview/internal/security"
	"github.com/banshee-data/nuview/internal/sensordata"
	"github.com/banshee-data/nuview/internal/session"
	"github.com/banshee-data/nuview/internal/window"
)

// WorkerBinaryName is looked up next to the running executable when the
// config does not name a worker binary.
const WorkerBinaryName = "nuview-worker"

// RenderOptions builds per-cell render options from cfg.
func RenderOptions(cfg *config.ViewerConfig) (render.Options, error) {
	vis, err := geometry.ParseVisibility(cfg.GetBoxVisibility())
	if err != nil {
		return render.Options{}, err
	}
	return render.Options{
		BoxVisibility:  vis,
		NSweeps:        cfg.GetNSweeps(),
		AxesLimit:      cfg.GetAxesLimit(),
		Lidarseg:       cfg.GetShowLidarseg(),
		LidarsegFilter: cfg.GetLidarsegFilter(),
	}, nil
}

// OpenDataset loads the configured dataset version.
func OpenDataset(cfg *config.ViewerConfig, fs fsutil.FileSystem) (*nuscenes.Dataset, error) {
	ds, err := nuscenes.Load(fs, cfg.GetDataroot(), cfg.GetVersion())
	if err != nil {
		return nil, fmt.Errorf("load %s from %s: %w", cfg.GetVersion(), cfg.GetDataroot(), err)
	}
	return ds, nil
}

// NewSurface creates the configured surface kind.
func NewSurface(cfg *config.ViewerConfig, fs fsutil.FileSystem, title string) render.Surface {
	width := cfg.GetFigureWidthIn()
	rowHeight := cfg.GetRowHeightIn()
	dpi := cfg.GetDPI()
	if cfg.GetSurface() == config.SurfaceHTML {
		return htmlpage.New(fs, title, int(width*float64(dpi)/2), int(rowHeight*float64(dpi)))
	}
	return raster.New(fs, vg.Length(width)*vg.Inch, vg.Length(rowHeight)*vg.Inch, dpi)
}

// OutputPath is the fixed file a named view is written to.
func OutputPath(cfg *config.ViewerConfig, name string) string {
	return filepath.Join(cfg.GetOutputDir(), security.SanitizeFilename(name)+"."+cfg.GetSurface())
}

// WorkerBinary resolves the worker executable.
func WorkerBinary(cfg *config.ViewerConfig) string {
	if b := cfg.GetWorkerBinary(); b != "" {
		return b
	}
	if exe, err := os.Executable(); err == nil {
		return filepath.Join(filepath.Dir(exe), WorkerBinaryName)
	}
	return WorkerBinaryName
}

// NewViewport builds an in-process session drawing view into its own
// output file, shown by the configured viewer at pos.
func NewViewport(cfg *config.ViewerConfig, ds *nuscenes.Dataset, fs fsutil.FileSystem, name string, view render.View, pos window.Position, l launcher.Launcher) (*session.Viewport, error) {
	opts, err := RenderOptions(cfg)
	if err != nil {
		return nil, err
	}
	path := OutputPath(cfg, name)
	geom := window.Geometry(pos, cfg.GetScreenWidth(), cfg.GetScreenHeight())
	return session.NewViewport(session.ViewportConfig{
		Name:       name,
		View:       view,
		Samples:    ds,
		Dispatcher: &render.Dispatcher{Source: sensordata.NewLoader(ds)},
		Surface:    NewSurface(cfg, fs, "nuview "+name),
		Options:    opts,
		OutputPath: path,
		ViewerArgv: window.ViewerArgv(cfg.GetViewerCommand(), geom, "nuview "+name, path),
		Launcher:   l,
	}), nil
}

// StartToken picks the first token to show: token when given, else the
// journal's last token for scene when resume is set and one exists, else
// the scene's first sample. A journaled token this dataset cannot place in
// scene is skipped; an explicit one is an error. j may be nil.
func StartToken(ctx context.Context, ds *nuscenes.Dataset, j *journal.Journal, scene int, token string, resume bool) (string, error) {
	if token == "" && resume && j != nil {
		last, ok, err := j.LastToken(ctx, scene)
		if err != nil {
			return "", err
		}
		if ok {
			start, err := navigation.StartToken(ds, scene, last)
			if err == nil {
				monitoring.Logf("[app] resuming scene %d at %s", scene, last)
				return start, nil
			}
			monitoring.Logf("[app] ignoring journaled token %s for scene %d: %v", last, scene, err)
		}
	}
	return navigation.StartToken(ds, scene, token)
}
