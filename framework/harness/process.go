package harness

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"time"

	"github.com/funcworker/worker-e2e-tests/framework"
)

type hostProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

func startHostProcess(cmd *exec.Cmd, logger framework.Logger) (*hostProcess, error) {
	stdout := framework.NewLineWriter(logger)
	stderr := framework.NewLineWriter(framework.PrefixedLogger(logger, "stderr: "))
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	p := &hostProcess{cmd: cmd, done: make(chan struct{})}
	go func() {
		p.err = cmd.Wait()
		stdout.Flush()
		stderr.Flush()
		if p.err != nil {
			logger.Printf("process exited: %s", p.err)
		} else {
			logger.Printf("process exited")
		}
		close(p.done)
	}()
	return p, nil
}

func (p *hostProcess) pid() int {
	return p.cmd.Process.Pid
}

func (p *hostProcess) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *hostProcess) waitForExit(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-p.done:
		return true
	case <-timer.C:
		return false
	}
}

func (p *hostProcess) exitError(scriptDir string) error {
	if p.err != nil {
		return fmt.Errorf("%w (script dir %s): %s", ErrHostExited, scriptDir, p.err)
	}
	return fmt.Errorf("%w (script dir %s)", ErrHostExited, scriptDir)
}

func (p *hostProcess) stop(timeout time.Duration) error {
	if p.exited() {
		return nil
	}
	if err := p.cmd.Process.Signal(os.Interrupt); err != nil {
		// Interrupt is not supported on every platform; fall through to Kill.
		timeout = 0
	}
	if p.waitForExit(timeout) {
		return nil
	}
	if err := p.cmd.Process.Kill(); err != nil && !p.exited() {
		return fmt.Errorf("could not kill host process %d: %w", p.pid(), err)
	}
	<-p.done
	return nil
}

// freePort asks the OS for a TCP port that is not in use. The port is released before
// returning, so another process could take it first; that shows up as a startup failure.
func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	port := l.Addr().(*net.TCPAddr).Port
	_ = l.Close()
	return port, nil
}
