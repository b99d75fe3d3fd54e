package framework

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const timestampFormat = "2006-01-02 15:04:05.000"

type Logger interface {
	Printf(message string, args ...interface{})
}

type nullLogger struct{}

func (n nullLogger) Printf(message string, args ...interface{}) {}

func NullLogger() Logger { return nullLogger{} }

type CapturedMessage struct {
	Time    time.Time
	Message string
}

type CapturedOutput []CapturedMessage

// CapturingLogger accumulates messages in memory so that they can be shown only if a test
// fails (or if verbose output was requested).
type CapturingLogger struct {
	output []CapturedMessage
	lock   sync.Mutex
}

func (l *CapturingLogger) Printf(message string, args ...interface{}) {
	l.lock.Lock()
	l.output = append(l.output, CapturedMessage{Time: time.Now(), Message: fmt.Sprintf(message, args...)})
	l.lock.Unlock()
}

func (l *CapturingLogger) Output() CapturedOutput {
	l.lock.Lock()
	ret := append([]CapturedMessage(nil), l.output...)
	l.lock.Unlock()
	return ret
}

func (output CapturedOutput) Dump(dest io.Writer, prefix string) {
	for _, m := range output {
		fmt.Fprintf(dest, "%s[%s] %s\n",
			prefix,
			m.Time.Format(timestampFormat),
			m.Message,
		)
	}
}

type prefixedLogger struct {
	prefix string
	target Logger
}

// PrefixedLogger returns a Logger that prepends a fixed prefix to every message. This is
// used to tell apart the output of different host processes in the same debug log.
func PrefixedLogger(target Logger, prefix string) Logger {
	if target == nil {
		return NullLogger()
	}
	return prefixedLogger{prefix: prefix, target: target}
}

func (p prefixedLogger) Printf(message string, args ...interface{}) {
	p.target.Printf("%s%s", p.prefix, fmt.Sprintf(message, args...))
}

// LineWriter adapts a Logger to an io.Writer, logging one message per line of output. It is
// meant for capturing the stdout/stderr of a child process. Incomplete trailing lines are
// held until the next write or until Flush is called.
type LineWriter struct {
	logger  Logger
	pending strings.Builder
	lock    sync.Mutex
}

func NewLineWriter(logger Logger) *LineWriter {
	return &LineWriter{logger: logger}
}

func (w *LineWriter) Write(p []byte) (int, error) {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.pending.Write(p)
	s := w.pending.String()
	lines := strings.Split(s, "\n")
	for _, line := range lines[:len(lines)-1] {
		w.logger.Printf("%s", strings.TrimSuffix(line, "\r"))
	}
	w.pending.Reset()
	w.pending.WriteString(lines[len(lines)-1])
	return len(p), nil
}

func (w *LineWriter) Flush() {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.pending.Len() > 0 {
		w.logger.Printf("%s", w.pending.String())
		w.pending.Reset()
	}
}
