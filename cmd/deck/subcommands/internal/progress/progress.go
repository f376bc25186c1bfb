package progress

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	pb "github.com/cheggaaa/pb/v3"
	apitasks "github.com/opst/pipedeck/pkg/api/types/tasks"
	"github.com/opst/pipedeck/pkg/tasks"
)

const stepBar pb.ProgressBarTemplate = `{{with string . "prefix"}}{{.}} {{end}}{{counters . }} {{bar . }} {{with string . "suffix"}}{{.}}{{end}}`

// Bar shows progress of a task, in steps.
type Bar struct {
	once sync.Once
	bar  *pb.ProgressBar
}

// Start shows a bar titled title in w.
func Start(w io.Writer, title string) *Bar {
	bar := stepBar.New(0)
	bar.SetWriter(w)
	bar.Set("prefix", title+":")
	bar.Start()
	return &Bar{bar: bar}
}

// Watch returns a SubmitOption which updates the bar with each polled task.
func (b *Bar) Watch() tasks.SubmitOption {
	return tasks.WithProgress(b.Update)
}

// Update shows progress of t.
func (b *Bar) Update(t apitasks.Task) {
	done, total := t.Progress()
	b.bar.SetTotal(int64(total))
	b.bar.SetCurrent(int64(done))
	b.bar.Set("suffix", fmt.Sprintf("[%s]", t.Status))
}

// Follow updates the bar with the task monitor has, until it is settled or ctx is done.
func (b *Bar) Follow(ctx context.Context, m *tasks.Monitor, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.Done():
			if t := m.Task(); t != nil {
				b.Update(*t)
			}
			return
		case <-ticker.C:
			if t := m.Task(); t != nil {
				b.Update(*t)
			}
		}
	}
}

// Finish stops the bar. It is safe to be called many times.
func (b *Bar) Finish() {
	b.once.Do(func() { b.bar.Finish() })
}
