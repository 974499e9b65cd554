// Command nuview-worker draws one sample of a nuScenes scene for one sensor
// type into a file, opens it in the configured viewer at a window position,
// and stays up until it is killed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/nuview/internal/app"
	"github.com/banshee-data/nuview/internal/config"
	"github.com/banshee-data/nuview/internal/fsutil"
	"github.com/banshee-data/nuview/internal/launcher"
	"github.com/banshee-data/nuview/internal/monitoring"
	"github.com/banshee-data/nuview/internal/navigation"
	"github.com/banshee-data/nuview/internal/version"
	"github.com/banshee-data/nuview/internal/worker"
)

const program = "nuview-worker"

func main() {
	for _, a := range os.Args[1:] {
		if a == "--version" || a == "-version" {
			fmt.Println(version.String(program))
			return
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// the viewer shares this process group and stderr, which the master
	// points at its log
	viewers := launcher.NewExec(false)
	viewers.Stdout = os.Stderr
	viewers.Stderr = os.Stderr
	viewers.SetLogger(launcher.LoggerFunc(monitoring.Logf))

	os.Exit(run(ctx, os.Args[1:], os.Stderr, viewers))
}

// run returns the process exit status. Argument errors are reported before
// any dataset is loaded or surface created.
func run(ctx context.Context, argv []string, stderr io.Writer, viewers launcher.Launcher) int {
	args, err := worker.Parse(program, argv, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		return 1
	}

	cfg, err := config.Load(args.Config)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", program, err)
		return 1
	}

	fs := fsutil.OSFileSystem{}
	ds, err := app.OpenDataset(cfg, fs)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", program, err)
		return 1
	}
	start, err := navigation.StartToken(ds, args.Scene, args.Token)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", program, err)
		return 1
	}

	name := fmt.Sprintf("%s-scene%d", args.SensorType, args.Scene)
	vp, err := app.NewViewport(cfg, ds, fs, name, args.View(), args.WindowPos, viewers)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", program, err)
		return 1
	}
	defer func() {
		if err := vp.Close(); err != nil {
			log.Printf("close viewer: %v", err)
		}
	}()

	if err := vp.Refresh(ctx, navigation.NewState(start)); err != nil {
		if ctx.Err() != nil {
			return 0
		}
		// failed channels are blank cells; the rest of the view is still shown
		log.Printf("%s %s at %s: %v", program, args.SensorType, start, err)
	}

	<-ctx.Done()
	return 0
}
