// Package launcher spawns child processes from an argument list and kills
// them, together with anything they started, on request.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// Logger defines the interface for debug logging.
type Logger interface {
	Debugf(format string, args ...interface{})
}

// nopLogger is a no-op logger implementation.
type nopLogger struct{}

func (n nopLogger) Debugf(format string, args ...interface{}) {}

// LoggerFunc adapts a printf-style function, such as monitoring.Logf, to Logger.
type LoggerFunc func(format string, args ...interface{})

// Debugf calls f.
func (f LoggerFunc) Debugf(format string, args ...interface{}) { f(format, args...) }

// Handle is a running child process.
type Handle interface {
	Pid() int
	// Kill terminates the child, and its group when it has its own.
	// Killing an exited child is not an error.
	Kill() error
	// Wait blocks until the child exits. It may be called more than once.
	Wait() error
}

// Launcher starts processes.
type Launcher interface {
	Start(ctx context.Context, argv []string) (Handle, error)
}

// Exec launches real OS processes.
type Exec struct {
	// OwnGroup starts each child in a new process group so Kill also reaches
	// anything the child spawned. Without it children share the caller's
	// group and Kill signals only the child itself.
	OwnGroup bool
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   Logger
}

var _ Launcher = (*Exec)(nil)

// NewExec creates a launcher.
func NewExec(ownGroup bool) *Exec {
	return &Exec{OwnGroup: ownGroup, Logger: nopLogger{}}
}

// SetLogger sets the debug logger for the launcher.
func (e *Exec) SetLogger(logger Logger) {
	if logger != nil {
		e.Logger = logger
	}
}

// Start launches argv[0] with the remaining arguments. The child is not
// tied to ctx; only Kill stops it.
func (e *Exec) Start(ctx context.Context, argv []string) (Handle, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, errors.New("empty command")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr
	if e.OwnGroup {
		setProcessGroup(cmd)
	}

	e.Logger.Debugf("Starting: %v", argv)
	if err := cmd.Start(); err != nil {
		e.Logger.Debugf("Start failed: %v", err)
		return nil, fmt.Errorf("start %s: %w", argv[0], err)
	}

	p := &process{cmd: cmd, ownGroup: e.OwnGroup, done: make(chan struct{}), logger: e.Logger}
	go p.reap()
	return p, nil
}

type process struct {
	cmd      *exec.Cmd
	ownGroup bool
	logger   Logger

	done    chan struct{}
	waitErr error
	mu      sync.Mutex
}

func (p *process) reap() {
	err := p.cmd.Wait()
	p.mu.Lock()
	p.waitErr = err
	p.mu.Unlock()
	close(p.done)
}

func (p *process) Pid() int { return p.cmd.Process.Pid }

// Kill signals the whole group when the child leads one, even after the
// leader has exited, so anything it left running still goes. A group with no
// members left is not an error.
func (p *process) Kill() error {
	if p.ownGroup {
		p.logger.Debugf("Killing group %d", p.Pid())
		if err := killProcessGroup(p.cmd); err != nil {
			return fmt.Errorf("kill group %d: %w", p.Pid(), err)
		}
		return nil
	}

	select {
	case <-p.done:
		return nil
	default:
	}
	p.logger.Debugf("Killing %d", p.Pid())
	if err := p.cmd.Process.Kill(); err != nil {
		select {
		case <-p.done:
			// exited between the check and the signal
			return nil
		default:
		}
		return fmt.Errorf("kill %d: %w", p.Pid(), err)
	}
	return nil
}

func (p *process) Wait() error {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waitErr
}
