package session

import (
	"context"
	"fmt"

	"github.com/banshee-data/nuview/internal/journal"
	"github.com/banshee-data/nuview/internal/launcher"
	"github.com/banshee-data/nuview/internal/monitoring"
	"github.com/banshee-data/nuview/internal/navigation"
	"github.com/banshee-data/nuview/internal/worker"
)

// LaunchRecorder receives every worker launch attempt.
type LaunchRecorder interface {
	RecordLaunch(ctx context.Context, l journal.Launch) error
}

// Process shows a view in a separate worker process. Each refresh kills the
// running worker and starts a new one at the current token; there is no
// channel to update a live worker.
type Process struct {
	Binary   string
	Args     worker.Args // Token is replaced on every refresh
	Launcher launcher.Launcher
	// Recorder is optional.
	Recorder LaunchRecorder

	current launcher.Handle
}

// NewProcess creates a process session for args.
func NewProcess(binary string, args worker.Args, l launcher.Launcher) *Process {
	return &Process{Binary: binary, Args: args, Launcher: l}
}

// Name returns the worker's sensor type.
func (p *Process) Name() string { return p.Args.SensorType }

// Pid returns the running worker's pid, or 0.
func (p *Process) Pid() int {
	if p.current == nil {
		return 0
	}
	return p.current.Pid()
}

// Refresh replaces the running worker with one started at state's token.
// Launch failures are returned and not retried.
func (p *Process) Refresh(ctx context.Context, state *navigation.State) error {
	p.kill()

	args := p.Args
	args.Token = state.Token()
	h, err := p.Launcher.Start(ctx, args.Argv(p.Binary))

	launch := journal.Launch{
		Scene:      args.Scene,
		SensorType: args.SensorType,
		WindowPos:  string(args.WindowPos),
		Token:      args.Token,
		Err:        err,
	}
	if err == nil {
		launch.Pid = h.Pid()
	}
	if p.Recorder != nil {
		if rerr := p.Recorder.RecordLaunch(ctx, launch); rerr != nil {
			monitoring.Logf("[session] failed to record %s launch: %v", p.Name(), rerr)
		}
	}

	if err != nil {
		return fmt.Errorf("launch %s worker: %w", p.Name(), err)
	}
	p.current = h
	monitoring.Logf("[session] %s worker pid %d at %s", p.Name(), h.Pid(), args.Token)
	return nil
}

// kill stops the running worker, best effort.
func (p *Process) kill() {
	if p.current == nil {
		return
	}
	if err := p.current.Kill(); err != nil {
		monitoring.Logf("[session] kill %s worker pid %d: %v", p.Name(), p.current.Pid(), err)
	}
	p.current = nil
}

// Close kills the running worker.
func (p *Process) Close() error {
	p.kill()
	return nil
}
