// Command nuview-render draws nuScenes samples to files without opening any
// window: one sample, or with --play every sample of a scene from the start
// token onwards, pausing between frames.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/banshee-data/nuview/internal/app"
	"github.com/banshee-data/nuview/internal/config"
	"github.com/banshee-data/nuview/internal/fsutil"
	"github.com/banshee-data/nuview/internal/navigation"
	"github.com/banshee-data/nuview/internal/nuscenes"
	"github.com/banshee-data/nuview/internal/render"
	"github.com/banshee-data/nuview/internal/sensordata"
	"github.com/banshee-data/nuview/internal/sensors"
	"github.com/banshee-data/nuview/internal/timeutil"
	"github.com/banshee-data/nuview/internal/version"
	"github.com/banshee-data/nuview/internal/worker"
)

var (
	scene       = flag.Int("scene", 0, "scene index (0..10)")
	token       = flag.String("token", "", "sample token to render (default: the scene's first sample)")
	view        = flag.String("view", string(render.ViewAll), "sensors to draw: all, camera or lidar-radar")
	out         = flag.String("out", "", "output file (default: <output_dir>/scene<N>-<view>.<format>)")
	format      = flag.String("format", "", "png or html (default: the config's surface)")
	play        = flag.Bool("play", false, "render every sample from the start token to the end of the scene")
	interval    = flag.Duration("interval", 0, "pause between --play frames (default: the config's play_interval)")
	configPath  = flag.String("config", "", "path to viewer config JSON")
	showVersion = flag.Bool("version", false, "print version and exit")
)

// job is one invocation's resolved parameters.
type job struct {
	Scene    int
	Token    string
	View     render.View
	Out      string
	Play     bool
	Interval time.Duration
}

// framePath names frame i of a play run: scene0-all.png becomes
// scene0-all-007.png.
func framePath(out string, i int) string {
	ext := filepath.Ext(out)
	return fmt.Sprintf("%s-%03d%s", strings.TrimSuffix(out, ext), i, ext)
}

// renderer draws samples of one dataset onto one reused surface.
type renderer struct {
	ds         *nuscenes.Dataset
	surface    render.Surface
	dispatcher *render.Dispatcher
	opts       render.Options
	clock      timeutil.Clock
}

// draw renders token into path. Failed channels leave blank cells and are
// logged; the file is still written.
func (r *renderer) draw(ctx context.Context, token string, v render.View, path string) error {
	sample, err := r.ds.Sample(token)
	if err != nil {
		return err
	}
	group, err := sensors.Classify(r.ds, sample)
	if err != nil {
		return err
	}
	layout := render.PlanLayout(group, v)
	renderErr := r.dispatcher.Render(ctx, r.surface, layout, r.opts)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if renderErr != nil {
		log.Printf("render %s: %v", token, renderErr)
	}
	if err := r.surface.Save(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	log.Printf("wrote %s (%s, %d cells)", path, token, layout.ContentCells())
	return nil
}

// run renders j and returns the files written, in order.
func (r *renderer) run(ctx context.Context, j job) ([]string, error) {
	start, err := navigation.StartToken(r.ds, j.Scene, j.Token)
	if err != nil {
		return nil, err
	}
	if !j.Play {
		if err := r.draw(ctx, start, j.View, j.Out); err != nil {
			return nil, err
		}
		return []string{j.Out}, nil
	}

	var written []string
	for i, tok := 0, start; ; i++ {
		path := framePath(j.Out, i)
		if err := r.draw(ctx, tok, j.View, path); err != nil {
			return written, err
		}
		written = append(written, path)

		next, ok, err := r.ds.Next(tok)
		if err != nil {
			return written, err
		}
		if !ok {
			return written, nil
		}
		r.clock.Sleep(j.Interval)
		if ctx.Err() != nil {
			return written, ctx.Err()
		}
		tok = next
	}
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("nuview-render"))
		return
	}
	if *scene < worker.MinScene || *scene > worker.MaxScene {
		fmt.Fprintf(os.Stderr, "--scene %d outside %d..%d\n", *scene, worker.MinScene, worker.MaxScene)
		flag.Usage()
		os.Exit(1)
	}
	v, err := render.ParseView(*view)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *format != "" {
		cfg.Surface = format
		if err := cfg.Validate(); err != nil {
			log.Fatalf("--format: %v", err)
		}
	}

	j := job{
		Scene:    *scene,
		Token:    *token,
		View:     v,
		Out:      *out,
		Play:     *play,
		Interval: *interval,
	}
	if j.Out == "" {
		j.Out = filepath.Join(cfg.GetOutputDir(), fmt.Sprintf("scene%d-%s.%s", j.Scene, j.View, cfg.GetSurface()))
	}
	if j.Interval <= 0 {
		j.Interval = cfg.GetPlayInterval()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r, err := newRenderer(cfg, fsutil.OSFileSystem{}, timeutil.RealClock{})
	if err != nil {
		log.Fatalf("%v", err)
	}
	written, err := r.run(ctx, j)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("nuview-render: %v", err)
	}
	log.Printf("rendered %d file(s)", len(written))
}

func newRenderer(cfg *config.ViewerConfig, fs fsutil.FileSystem, clock timeutil.Clock) (*renderer, error) {
	ds, err := app.OpenDataset(cfg, fs)
	if err != nil {
		return nil, err
	}
	opts, err := app.RenderOptions(cfg)
	if err != nil {
		return nil, err
	}
	return &renderer{
		ds:         ds,
		surface:    app.NewSurface(cfg, fs, "nuview-render"),
		dispatcher: &render.Dispatcher{Source: sensordata.NewLoader(ds)},
		opts:       opts,
		clock:      clock,
	}, nil
}
