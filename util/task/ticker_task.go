package task

import (
	"time"
)

type Runner interface {
	Run() error
}

// TickerTask runs its runner once at Start and then on every interval
// tick. A zero or negative interval disables the recurrence, leaving a
// run-once task.
type TickerTask struct {
	interval time.Duration
	runner   Runner
	done     chan struct{}
}

func NewTickerTask(interval time.Duration, runner Runner) *TickerTask {
	return &TickerTask{
		interval: interval,
		runner:   runner,
		done:     make(chan struct{}),
	}
}

func (t *TickerTask) Start() {
	t.runner.Run()

	if t.interval > 0 {
		go t.runRecurring()
	}
}

// Stop ends the recurrence; the runner keeps whatever state it holds.
func (t *TickerTask) Stop() {
	close(t.done)
}

func (t *TickerTask) runRecurring() {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.runner.Run()
		case <-t.done:
			return
		}
	}
}
