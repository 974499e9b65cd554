// Command nuview-master steps through a nuScenes scene by relaunching a
// camera worker and a lidar/radar worker at the current sample on every key
// press.
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
	"github.com/banshee-data/nuview/internal/session"
	"github.com/banshee-data/nuview/internal/tui"
	"github.com/banshee-data/nuview/internal/version"
	"github.com/banshee-data/nuview/internal/window"
	"github.com/banshee-data/nuview/internal/worker"
)

var (
	scene       = flag.Int("scene", 0, "scene index (0..10)")
	configPath  = flag.String("config", "", "path to viewer config JSON, passed on to workers")
	resume      = flag.Bool("resume", false, "start at the last sample visited in this scene")
	showVersion = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("nuview-master"))
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

	logFile, err := monitoring.LogToFile(filepath.Join(cfg.GetOutputDir(), "nuview-master.log"))
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logFile); err != nil {
		log.Printf("nuview-master: %v", err)
		fmt.Fprintf(os.Stderr, "nuview-master: %v\n", err)
		os.Exit(1)
	}
}

// newWorkerLauncher starts each worker in its own process group with its
// output, and its viewer's, appended to the master's log.
func newWorkerLauncher(logFile io.Writer) *launcher.Exec {
	l := launcher.NewExec(true)
	l.Stdout = logFile
	l.Stderr = logFile
	l.SetLogger(launcher.LoggerFunc(monitoring.Logf))
	return l
}

// workerSessions builds the two worker sessions the master drives.
func workerSessions(binary string, scene int, configPath string, l launcher.Launcher, rec session.LaunchRecorder) []*session.Process {
	var out []*session.Process
	for _, w := range []struct {
		sensor string
		pos    window.Position
	}{
		{worker.SensorCamera, window.TopLeft},
		{worker.SensorLidarRadar, window.TopRight},
	} {
		p := session.NewProcess(binary, worker.Args{
			Scene:      scene,
			SensorType: w.sensor,
			WindowPos:  w.pos,
			Config:     configPath,
		}, l)
		p.Recorder = rec
		out = append(out, p)
	}
	return out
}

func run(ctx context.Context, cfg *config.ViewerConfig, logFile io.Writer) error {
	ds, err := app.OpenDataset(cfg, fsutil.OSFileSystem{})
	if err != nil {
		return err
	}

	j, err := journal.Open(cfg.GetJournalPath())
	if err != nil {
		return err
	}
	defer j.Close()
	j.Scene = *scene

	start, err := app.StartToken(ctx, ds, j, *scene, "", *resume)
	if err != nil {
		return err
	}

	ctrl := navigation.NewController(ds, start)
	ctrl.Recorder = j
	defer func() {
		if err := ctrl.Close(); err != nil {
			log.Printf("close workers: %v", err)
		}
	}()

	binary := app.WorkerBinary(cfg)
	log.Printf("using worker binary %s", binary)

	var cfgArg string
	if *configPath != "" {
		if abs, err := filepath.Abs(*configPath); err == nil {
			cfgArg = abs
		} else {
			cfgArg = *configPath
		}
	}
	for _, p := range workerSessions(binary, *scene, cfgArg, newWorkerLauncher(logFile), j) {
		if err := ctrl.Register(ctx, p); err != nil {
			return err
		}
	}

	if err := ctrl.Start(ctx); err != nil {
		log.Printf("initial launch: %v", err)
	}

	title := fmt.Sprintf("nuview-master scene %d (%s)", *scene, cfg.GetVersion())
	p := tea.NewProgram(tui.New(ctx, title, ctrl, ds), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("terminal UI: %w", err)
	}
	return nil
}
