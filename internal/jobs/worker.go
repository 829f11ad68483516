// Package jobs runs the daemon's background work: periodic index refresh and
// the corpus file watcher. Both drive a JobProcessor.
package jobs

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// JobProcessor runs one round of background work.
type JobProcessor interface {
	ProcessJobs(ctx context.Context) error
}

// Worker calls a JobProcessor every interval until stopped. A round that
// panics is logged and the next tick runs as usual.
type Worker struct {
	name      string
	processor JobProcessor
	interval  time.Duration

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewWorker(name string, processor JobProcessor, interval time.Duration) *Worker {
	return &Worker{
		name:      name,
		processor: processor,
		interval:  interval,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start blocks until ctx is cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	defer close(w.done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.Printf("%s worker: running every %v", w.name, w.interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("%s worker: context cancelled", w.name)
			return
		case <-w.stop:
			return
		case <-ticker.C:
			if err := runRound(ctx, w.processor); err != nil {
				log.Printf("%s worker: %v", w.name, err)
			}
		}
	}
}

// Stop ends the loop and waits for the round in flight. Calling it more than
// once is safe; it must not be called before Start.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
	log.Printf("%s worker: stopped", w.name)
}

func runRound(ctx context.Context, p JobProcessor) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("round panicked: %v", rec)
		}
	}()
	return p.ProcessJobs(ctx)
}
