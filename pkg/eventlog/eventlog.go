// Package eventlog implements the engine's second, append-only text log
// of "important" events — rehash forced, overflow recovered, layer
// reused from disk — distinct from the general per-run log file (spec
// §6 names both files: output_N_TIMESTAMP.txt and ..._events.txt).
//
// Grounded on original_source/src/eventLog.cpp: a timestamped line per
// write, an in-memory history (every message kept; History returns the
// most recent ones) for recent-event queries, and a flag
// distinguishing "event" writes (event log only) from writes that also
// belong in the general log.
package eventlog

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Log is an append-only event log writer with an in-memory history of
// recent messages.
type Log struct {
	mu         sync.Mutex
	eventOut   io.Writer
	generalOut io.Writer
	echoTarget io.Writer
	history    []string
}

// New returns a Log writing timestamped lines to eventOut, and also to
// generalOut for non-event (ordinary) writes. Either writer may be nil.
func New(eventOut, generalOut io.Writer) *Log {
	return &Log{eventOut: eventOut, generalOut: generalOut}
}

// SetEchoStdout controls whether every write is additionally echoed,
// as the same timestamped line, to the log's own stdout mirror, for
// interactive runs.
func (l *Log) SetEchoStdout(echo io.Writer) { l.echoTarget = echo }

func (l *Log) write(event bool, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := time.Now().Format("2006-01-02.15:04:05") + " " + message
	if l.eventOut != nil {
		fmt.Fprintln(l.eventOut, line)
	}
	if l.generalOut != nil && !event {
		fmt.Fprintln(l.generalOut, line)
	}
	if l.echoTarget != nil {
		fmt.Fprintln(l.echoTarget, line)
	}
	l.history = append(l.history, message)
}

// Event records a message that belongs only in the event log — rehash
// notices, overflow recoveries, layer-reuse decisions.
func (l *Log) Event(format string, args ...any) {
	l.write(true, fmt.Sprintf(format, args...))
}

// Note records a message that belongs in both the event log and the
// general run log.
func (l *Log) Note(format string, args ...any) {
	l.write(false, fmt.Sprintf(format, args...))
}

// History returns up to limit of the most recent messages, oldest first.
func (l *Log) History(limit int) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	begin := 0
	if len(l.history) > limit {
		begin = len(l.history) - limit
	}
	out := make([]string, len(l.history)-begin)
	copy(out, l.history[begin:])
	return out
}
