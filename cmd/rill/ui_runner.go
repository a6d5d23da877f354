package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"rill/internal/driver"
	"rill/internal/ui"
)

type expandOutcome struct {
	results []*driver.FileResult
	err     error
}

// runExpandWithUI expands paths while a progress view reads events. d must
// have been created with a ChannelSink over events; the channel is closed
// here once expansion is over.
func runExpandWithUI(ctx context.Context, title string, d *driver.Driver, paths []string, events chan driver.Event) ([]*driver.FileResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	outcomeCh := make(chan expandOutcome, 1)
	files := make([]string, len(paths))
	for i, p := range paths {
		files[i] = driver.DisplayPath(p)
	}

	go func() {
		res, err := d.ExpandPaths(ctx, paths)
		outcomeCh <- expandOutcome{results: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	final, uiErr := program.Run()
	if m, ok := final.(interface{ Interrupted() bool }); uiErr != nil || (ok && m.Interrupted()) {
		cancel()
	}
	// UI мог выйти раньше: дочитываем события, чтобы драйвер не заблокировался
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
