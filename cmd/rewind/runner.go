package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/dshills/rewind/internal/config"
	"github.com/dshills/rewind/internal/history"
	"github.com/dshills/rewind/internal/script"
	"github.com/dshills/rewind/internal/state"
)

// runner executes a script against a fresh store and engine.
type runner struct {
	cfg     config.Config
	logger  *slog.Logger
	metrics *history.Metrics
	out     io.Writer
}

// runOnce runs the script at path and prints the resulting history. The
// summary is printed even when the script fails part way.
func (r *runner) runOnce(ctx context.Context, path string) error {
	store := state.NewStore()
	engine := history.New(store,
		history.WithMaxFrames(r.cfg.History.MaxFrames),
		history.WithLogger(r.logger),
		history.WithMetrics(r.metrics))
	defer engine.Close()

	if r.cfg.History.Record {
		var onCommitted func()
		if r.cfg.History.AutoSave {
			onCommitted = func() { engine.SaveFrame() }
		}
		engine.StartRecording(onCommitted)
	}

	rt := script.New(store, engine,
		script.WithOutput(r.out),
		script.WithLogger(r.logger),
		script.WithTimeout(time.Duration(r.cfg.Script.TimeoutMS)*time.Millisecond))
	defer rt.Close()

	err := rt.RunFile(ctx, path)
	r.summarize(engine, rt.Names())
	return err
}

// summarize prints the saved frames with the current one marked.
func (r *runner) summarize(engine *history.Engine, names []string) {
	frames := engine.Frames()
	current := engine.CurrentFrame()

	fmt.Fprintf(r.out, "objects: %d tracked, %d held\n", engine.Tracked(), len(names))
	fmt.Fprintf(r.out, "frames: %d, current: %d\n", len(frames), current)
	if len(frames) == 0 {
		return
	}

	tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	for _, f := range frames {
		marker := " "
		if f.Index == current {
			marker = ">"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d objects\t%s\n",
			marker, f.Index, f.ID[:8], f.Size, f.Time.Format(time.TimeOnly))
	}
	tw.Flush()
}
