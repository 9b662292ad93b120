package profiler

import (
	"strings"
	"testing"
	"time"
)

func TestStartStopAccumulates(t *testing.T) {
	timer := NewTimer()
	timer.Start(SectionForwardPhase1)
	time.Sleep(time.Millisecond)
	timer.Stop(SectionForwardPhase1)

	summary := timer.Summary()
	if !strings.Contains(summary, string(SectionForwardPhase1)) {
		t.Fatalf("summary missing section: %q", summary)
	}
}

func TestNoopDoesNothing(t *testing.T) {
	p := Noop()
	p.Start(SectionOther)
	p.Stop(SectionOther)
}
