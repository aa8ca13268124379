package report

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Progress renders the stage sequence as a terminal progress bar. Warnings
// are ignored; pair it with a Log through Multi to keep them.
type Progress struct {
	p   *mpb.Progress
	bar *mpb.Bar

	// current is read by the render goroutine, so it is not guarded by mu.
	current atomic.Value
	mu      sync.Mutex
	done    bool
}

// NewProgress starts a bar on w with one step per stage.
func NewProgress(w io.Writer) *Progress {
	pr := &Progress{}
	pr.p = mpb.New(mpb.WithWidth(64), mpb.WithOutput(w))
	pr.bar = pr.p.AddBar(int64(len(Stages)),
		mpb.PrependDecorators(
			decor.Name("Harmonizing: "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.Any(func(decor.Statistics) string { return " " + string(pr.Current()) }),
		),
	)
	return pr
}

// Current returns the stage most recently reported.
func (pr *Progress) Current() Stage {
	s, _ := pr.current.Load().(Stage)
	return s
}

// Report advances the bar to the completion of the previous stage.
func (pr *Progress) Report(stage Stage, _ string) {
	idx := stage.Index()
	if idx < 0 {
		return
	}
	pr.mu.Lock()
	defer pr.mu.Unlock()
	if pr.done || stage == pr.Current() {
		return
	}
	pr.current.Store(stage)
	pr.bar.SetCurrent(int64(idx))
}

func (*Progress) Warn(Stage, string) {}

// Finish completes the bar and waits for the final render.
// Later calls to Finish or Abort are no-ops.
func (pr *Progress) Finish() {
	pr.mu.Lock()
	if pr.done {
		pr.mu.Unlock()
		return
	}
	pr.done = true
	pr.bar.SetCurrent(int64(len(Stages)))
	pr.mu.Unlock()
	pr.p.Wait()
}

// Abort stops the bar where it is, leaving it on screen.
func (pr *Progress) Abort() {
	pr.mu.Lock()
	if pr.done {
		pr.mu.Unlock()
		return
	}
	pr.done = true
	pr.bar.Abort(false)
	pr.mu.Unlock()
	pr.p.Wait()
}

// Stopped reports whether Finish or Abort has been called.
func (pr *Progress) Stopped() bool {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	return pr.done
}
