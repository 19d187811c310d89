package peer

import (
	"bytes"
	"fmt"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Process is a peer engine started by the arbiter.
type Process struct {
	cmd  *exec.Cmd
	log  *zap.SugaredLogger
	done chan struct{}
	err  error
}

// Launch starts the peer engine binary at path, telling it to connect to
// host:port. Extra args come first; "-H <host> -p <port>" is appended.
// The engine's output is forwarded to the debug log.
func Launch(path string, args []string, host string, port int, log *zap.SugaredLogger) (*Process, error) {
	argv := append(append([]string{}, args...), "-H", host, "-p", strconv.Itoa(port))
	cmd := exec.Command(path, argv...)
	out := &lineLogger{log: log.With("peer", path)}
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start peer engine %s: %w", path, err)
	}
	log.Infow("peer engine started", "path", path, "args", argv, "pid", cmd.Process.Pid)

	p := &Process{cmd: cmd, log: log, done: make(chan struct{})}
	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

// Close waits up to grace for the engine to exit on its own, then kills it.
func (p *Process) Close(grace time.Duration) error {
	select {
	case <-p.done:
	case <-time.After(grace):
		p.log.Warnw("peer engine did not exit, killing", "pid", p.cmd.Process.Pid)
		if err := p.cmd.Process.Kill(); err != nil {
			return fmt.Errorf("kill peer engine: %w", err)
		}
		<-p.done
	}
	return p.err
}

// Done is closed when the engine process exits.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// lineLogger writes each complete output line to the debug log.
type lineLogger struct {
	mu  sync.Mutex
	buf bytes.Buffer
	log *zap.SugaredLogger
}

func (l *lineLogger) Write(b []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf.Write(b)
	for {
		i := bytes.IndexByte(l.buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		line := string(bytes.TrimRight(l.buf.Next(i+1), "\r\n"))
		if line != "" {
			l.log.Debugw("peer output", "line", line)
		}
	}
	return len(b), nil
}
