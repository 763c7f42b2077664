package build

import (
	"fmt"
	"io"
	"sync"
)

// logger serializes per-task progress lines under a single mutex so
// parallel tasks never interleave output.
type logger struct {
	mu    sync.Mutex
	w     io.Writer
	quiet bool
}

func newLogger(w io.Writer, quiet bool) *logger {
	return &logger{w: w, quiet: quiet}
}

func (l *logger) printf(format string, args ...interface{}) {
	if l.quiet {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, format+"\n", args...)
}
