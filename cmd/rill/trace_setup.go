package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"rill/internal/trace"
)

// setupTracing inspects trace-related flags and the [trace] section and
// initializes the tracer. Flags set on the command line win over the file.
// progress feeds the heartbeat and may be nil.
// It returns a cleanup function and an error if initialization fails.
func setupTracing(cmd *cobra.Command, file traceConfig, progress trace.ProgressFunc) (func(), error) {
	root := cmd.Root()
	pf := root.PersistentFlags()

	traceOutput, err := pf.GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := pf.GetString("trace-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := pf.GetString("trace-mode")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	ringSize, err := pf.GetInt("trace-ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	heartbeatInterval, err := pf.GetDuration("trace-heartbeat")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	// Значения из rill.toml, если флаг не задан явно
	if !pf.Changed("trace") && file.Output != "" {
		traceOutput = file.Output
	}
	if !pf.Changed("trace-level") && file.Level != "" {
		levelStr = file.Level
	}
	if !pf.Changed("trace-mode") && file.Mode != "" {
		modeStr = file.Mode
	}
	if !pf.Changed("trace-ring-size") && file.RingSize > 0 {
		ringSize = file.RingSize
	}
	if !pf.Changed("trace-heartbeat") && file.Heartbeat != "" {
		if heartbeatInterval, err = time.ParseDuration(file.Heartbeat); err != nil {
			return nil, fmt.Errorf("invalid trace heartbeat: %w", err)
		}
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace level: %w", err)
	}

	// --trace без уровня включает фазы
	if level == trace.LevelOff && traceOutput != "" {
		level = trace.LevelPhase
	}
	if level == trace.LevelOff {
		ctx := trace.WithTracer(cmd.Context(), trace.Nop)
		cmd.SetContext(ctx)
		return func() {}, nil
	}

	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace mode: %w", err)
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: traceOutput,
		RingSize:   ringSize,
		Heartbeat:  heartbeatInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)

	heartbeat := trace.StartHeartbeat(tracer, heartbeatInterval, progress)

	cleanup := func() {
		// сначала останавливаем heartbeat
		heartbeat.Stop()

		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return cleanup, nil
}
