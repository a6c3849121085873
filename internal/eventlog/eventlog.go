// Package eventlog appends audit events to a log file kept alongside the
// process. The format is line oriented and tab separated so existing tooling
// that tails the file keeps working.
package eventlog

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Logger struct {
	mu   sync.Mutex
	path string

	// Now is overridable in tests; defaults to time.Now.
	Now func() time.Time
}

func New(path string) *Logger {
	return &Logger{path: path}
}

// Log appends one event line: "<timestamp>\t<event id>\t<message>\n".
func (l *Logger) Log(message string) error {
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	line := fmt.Sprintf("%s\t%s\t%s\n", now().UTC().Format("20060102\t15:04:05"), uuid.NewString(), message)

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}
