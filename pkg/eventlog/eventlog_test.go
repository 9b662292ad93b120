package eventlog

import (
	"bytes"
	"strings"
	"testing"
)

func TestEventOnlyGoesToEventLog(t *testing.T) {
	var eventBuf, generalBuf bytes.Buffer
	l := New(&eventBuf, &generalBuf)

	l.Event("rehash forced: capacity=%d", 1033)
	if !strings.Contains(eventBuf.String(), "rehash forced") {
		t.Fatalf("event log missing message: %q", eventBuf.String())
	}
	if generalBuf.Len() != 0 {
		t.Fatalf("general log should be untouched by Event(): %q", generalBuf.String())
	}
}

func TestNoteGoesToBoth(t *testing.T) {
	var eventBuf, generalBuf bytes.Buffer
	l := New(&eventBuf, &generalBuf)

	l.Note("layer %d resolved", 5)
	if !strings.Contains(eventBuf.String(), "layer 5 resolved") {
		t.Fatalf("event log missing note")
	}
	if !strings.Contains(generalBuf.String(), "layer 5 resolved") {
		t.Fatalf("general log missing note")
	}
}

func TestHistoryLimit(t *testing.T) {
	l := New(nil, nil)
	for i := 0; i < 5; i++ {
		l.Note("event %d", i)
	}
	h := l.History(2)
	if len(h) != 2 {
		t.Fatalf("len(History(2))=%d want 2", len(h))
	}
	if h[1] != "event 4" {
		t.Fatalf("History(2)[1]=%q want %q", h[1], "event 4")
	}
}
