// Command nuview steps through a nuScenes scene from the terminal, drawing
// the camera and lidar/radar views in-process after every key press.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/banshee-data/nuview/internal/app"
	"github.com/banshee-data/nuview/internal/config"
	"github.com/banshee-data/nuview/internal/fsutil"
	"github.com/banshee-data/nuview/internal/journal"
	"github.com/banshee-data/nuview/internal/launcher"
	"github.com/banshee-data/nuview/internal/monitoring"
	"github.com/banshee-data/nuview/internal/navigation"
	"github.com/banshee-data/nuview/internal/render"
	"github.com/banshee-data/nuview/internal/tui"
	"github.com/banshee-data/nuview/internal/version"
	"github.com/banshee-data/nuview/internal/window"
	"github.com/banshee-data/nuview/internal/worker"
)

var (
	scene       = flag.Int("scene", 0, "scene index (0..10)")
	token       = flag.String("token", "", "sample token to start at (default: the scene's first sample)")
	configPath  = flag.String("config", "", "path to viewer config JSON (default: "+config.DefaultConfigPath+" if present)")
	resume      = flag.Bool("resume", false, "start at the last sample visited in this scene")
	showVersion = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("nuview"))
		return
	}
	if *scene < worker.MinScene || *scene > worker.MaxScene {
		fmt.Fprintf(os.Stderr, "--scene %d outside %d..%d\n", *scene, worker.MinScene, worker.MaxScene)
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logFile, err := monitoring.LogToFile(filepath.Join(cfg.GetOutputDir(), "nuview.log"))
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logFile); err != nil {
		log.Printf("nuview: %v", err)
		fmt.Fprintf(os.Stderr, "nuview: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.ViewerConfig, logFile io.Writer) error {
	fs := fsutil.OSFileSystem{}
	ds, err := app.OpenDataset(cfg, fs)
	if err != nil {
		return err
	}

	j, err := journal.Open(cfg.GetJournalPath())
	if err != nil {
		return err
	}
	defer j.Close()
	j.Scene = *scene

	start, err := app.StartToken(ctx, ds, j, *scene, *token, *resume)
	if err != nil {
		return err
	}

	ctrl := navigation.NewController(ds, start)
	ctrl.Recorder = j
	defer func() {
		if err := ctrl.Close(); err != nil {
			log.Printf("close sessions: %v", err)
		}
	}()

	viewers := launcher.NewExec(true)
	viewers.Stdout = logFile
	viewers.Stderr = logFile
	viewers.SetLogger(launcher.LoggerFunc(monitoring.Logf))
	for _, v := range []struct {
		view render.View
		pos  window.Position
	}{
		{render.ViewCamera, window.TopLeft},
		{render.ViewLidarRadar, window.TopRight},
	} {
		vp, err := app.NewViewport(cfg, ds, fs, string(v.view), v.view, v.pos, viewers)
		if err != nil {
			return err
		}
		if err := ctrl.Register(ctx, vp); err != nil {
			return err
		}
	}

	if err := ctrl.Start(ctx); err != nil {
		// partial draws are still shown; keep going
		log.Printf("initial refresh: %v", err)
	}

	title := fmt.Sprintf("nuview scene %d (%s)", *scene, cfg.GetVersion())
	p := tea.NewProgram(tui.New(ctx, title, ctrl, ds), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("terminal UI: %w", err)
	}
	return nil
}
