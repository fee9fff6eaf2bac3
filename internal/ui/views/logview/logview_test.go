package logview

import (
	"fmt"
	"strings"
	"testing"
)

func TestAddCapsBuffer(t *testing.T) {
	m := New()
	for i := 0; i < maxEntries+50; i++ {
		m.Add("out", fmt.Sprintf("line %d", i))
	}
	if m.Len() != maxEntries {
		t.Fatalf("Len() = %d, want %d", m.Len(), maxEntries)
	}
	// Oldest rows dropped, newest kept.
	if got := m.Last(); got != fmt.Sprintf("line %d", maxEntries+49) {
		t.Errorf("newest row = %q", got)
	}
}

func TestAddCollapsesRepeats(t *testing.T) {
	m := New()
	m.Add("out", "retrying board")
	m.Add("out", "retrying board")
	m.Add("out", "retrying board")
	m.Add("out", "board ready")

	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 after collapsing repeats", m.Len())
	}
	if out := m.View(80, 24); !strings.Contains(out, "×3") {
		t.Errorf("View() missing repeat count:\n%s", out)
	}

	// The same message on a different stream is a distinct row.
	m.Add("err", "board ready")
	if m.Len() != 3 {
		t.Errorf("Len() = %d, want 3 across streams", m.Len())
	}
}

func TestAddResetsScroll(t *testing.T) {
	m := New()
	for i := 0; i < 10; i++ {
		m.Add("out", fmt.Sprintf("x%d", i))
	}
	m.ScrollUp(5)
	if _, below := m.tail(3); below != 5 {
		t.Fatalf("rows below viewport = %d, want 5", below)
	}
	m.Add("out", "new")
	if _, below := m.tail(3); below != 0 {
		t.Errorf("rows below after Add = %d, want 0", below)
	}
}

func TestScrollClamping(t *testing.T) {
	m := New()
	m.Add("out", "a")
	m.Add("err", "b")

	m.ScrollUp(100)
	if _, below := m.tail(1); below != 1 {
		t.Errorf("rows below = %d, want clamped to 1", below)
	}
	m.ScrollDown(100)
	if _, below := m.tail(1); below != 0 {
		t.Errorf("rows below = %d, want clamped to 0", below)
	}
}

func TestLast(t *testing.T) {
	m := New()
	if m.Last() != "" {
		t.Errorf("Last() on empty = %q, want empty", m.Last())
	}
	m.Add("out", "first")
	m.Add("err", "second")
	if m.Last() != "stderr: second" {
		t.Errorf("Last() = %q, want stderr-tagged second", m.Last())
	}
}

func TestViewCountsStderr(t *testing.T) {
	m := New()
	m.Add("out", "ok")
	m.Add("err", "bad channel")
	m.Add("err", "bad channel")

	out := m.View(80, 24)
	if !strings.Contains(out, "2 stderr") {
		t.Errorf("View() missing stderr count:\n%s", out)
	}
}
