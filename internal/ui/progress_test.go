package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"rill/internal/driver"
)

func TestApplyEventTracksStages(t *testing.T) {
	events := make(chan driver.Event)
	m := NewProgressModel("expanding", []string{"a.rl", "b.rl"}, events).(*progressModel)

	m.applyEvent(driver.Event{File: "a.rl", Stage: driver.StageExpand, Status: driver.StatusWorking})
	if m.items[0].status != "expanding" {
		t.Errorf("status = %q", m.items[0].status)
	}
	m.applyEvent(driver.Event{File: "a.rl", Stage: driver.StageRender, Status: driver.StatusDone})
	m.applyEvent(driver.Event{File: "b.rl", Stage: driver.StageParse, Status: driver.StatusError, Err: errors.New("boom")})
	// события после финального статуса игнорируются
	m.applyEvent(driver.Event{File: "a.rl", Stage: driver.StageParse, Status: driver.StatusWorking})
	m.applyEvent(driver.Event{File: "unknown.rl", Status: driver.StatusDone})

	if m.items[0].status != "done" || m.items[1].status != "error" {
		t.Errorf("items = %+v", m.items)
	}
	if m.finished() != 2 || m.failed != 1 || m.percent() != 1.0 {
		t.Errorf("finished = %d, failed = %d, percent = %v", m.finished(), m.failed, m.percent())
	}
	view := m.View()
	if !strings.Contains(view, "(2/2), 1 failed") || !strings.Contains(view, "b.rl") {
		t.Errorf("view:\n%s", view)
	}
}

func TestPercentByStage(t *testing.T) {
	m := NewProgressModel("x", []string{"a.rl"}, nil).(*progressModel)
	if m.percent() != 0 {
		t.Errorf("queued percent = %v", m.percent())
	}
	m.applyEvent(driver.Event{File: "a.rl", Stage: driver.StageExpand, Status: driver.StatusWorking})
	if m.percent() != 0.5 {
		t.Errorf("expand percent = %v", m.percent())
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short.rl", 20); got != "short.rl" {
		t.Errorf("short path changed: %q", got)
	}
	if got := truncate("any", 0); got != "any" {
		t.Errorf("zero width changed: %q", got)
	}
	for _, in := range []string{"very/long/path/file.rl", "漢字漢字漢字.rl"} {
		for _, width := range []int{2, 7, 10} {
			got := truncate(in, width)
			if runewidth.StringWidth(got) > width {
				t.Errorf("truncate(%q, %d) = %q is too wide", in, width, got)
			}
			if width > 3 && !strings.HasSuffix(got, "...") {
				t.Errorf("truncate(%q, %d) = %q lacks an ellipsis", in, width, got)
			}
		}
	}
}

func TestCtrlCInterrupts(t *testing.T) {
	m := NewProgressModel("x", []string{"a.rl"}, nil).(*progressModel)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c returned no command")
	}
	if !m.Interrupted() {
		t.Error("model not marked as interrupted")
	}
}
