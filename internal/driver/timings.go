package driver

import (
	"encoding/json"
	"fmt"

	"rill/internal/diag"
	"rill/internal/observ"
	"rill/internal/source"
)

type timingPayload struct {
	Kind    string               `json:"kind"`
	Path    string               `json:"path,omitempty"`
	Calls   int64                `json:"calls"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

// appendTimingDiagnostic records the phase timings of one file as an info
// diagnostic whose note carries the JSON payload.
func appendTimingDiagnostic(bag *diag.Bag, file source.FileID, payload timingPayload) {
	if bag == nil {
		return
	}
	if payload.Kind == "" {
		payload.Kind = "expand"
	}
	msg := fmt.Sprintf("timings (%s): total %.2f ms, %d calls", payload.Kind, payload.TotalMS, payload.Calls)
	if payload.Path != "" {
		msg = fmt.Sprintf("%s in %s", msg, payload.Path)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	at := source.FileRange{File: file}
	entry := diag.New(diag.SevInfo, diag.ObsTimings, at, msg).WithNote(at, string(data))

	if bag.Add(entry) {
		return
	}
	// лимит исчерпан, но тайминги всё равно нужны
	overflow := diag.NewBag(len(bag.Items()) + 1)
	overflow.Add(entry)
	bag.Merge(overflow)
}
