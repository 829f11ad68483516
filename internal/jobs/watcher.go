package jobs

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events an editor or a copy emits
// for one save.
const DefaultDebounce = 500 * time.Millisecond

// CorpusWatcher runs a JobProcessor whenever the corpus file is written,
// created, or renamed into place. Events are debounced.
type CorpusWatcher struct {
	path      string
	processor JobProcessor
	debounce  time.Duration

	watcher *fsnotify.Watcher
	done    chan struct{}
	once    sync.Once
}

// NewCorpusWatcher watches the directory holding path, so atomic replaces
// of the file are still seen.
func NewCorpusWatcher(path string, processor JobProcessor, debounce time.Duration) (*CorpusWatcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve corpus path: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	return &CorpusWatcher{
		path:      abs,
		processor: processor,
		debounce:  debounce,
		watcher:   w,
		done:      make(chan struct{}),
	}, nil
}

// Start blocks until ctx is cancelled or Stop is called.
func (cw *CorpusWatcher) Start(ctx context.Context) {
	defer close(cw.done)

	timer := time.NewTimer(cw.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	log.Printf("watcher: watching %s", cw.path)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if !cw.relevant(event) {
				continue
			}
			timer.Reset(cw.debounce)
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("watcher: %v", err)
		case <-timer.C:
			if err := runRound(ctx, cw.processor); err != nil {
				log.Printf("watcher: %v", err)
			}
		}
	}
}

// Stop closes the underlying watcher and waits for Start to return.
func (cw *CorpusWatcher) Stop() {
	cw.once.Do(func() {
		cw.watcher.Close()
	})
	<-cw.done
}

func (cw *CorpusWatcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != cw.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}
