package driver

import "time"

// Stage is a phase of expanding one file.
type Stage string

const (
	StageParse  Stage = "parse"
	StageScan   Stage = "scan"
	StageExpand Stage = "expand"
	StageRender Stage = "render"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the file is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the file is in Stage.
	StatusWorking Status = "working"
	// StatusDone indicates the file is expanded.
	StatusDone Status = "done"
	// StatusError indicates the file failed to load or expand.
	StatusError Status = "error"
)

// Event reports progress for a file. Elapsed is set on done and error.
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. It is called from the goroutines
// expanding files.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

func (d *Driver) emit(ev Event) {
	if d.opts.Progress == nil {
		return
	}
	d.opts.Progress.OnEvent(ev)
}
