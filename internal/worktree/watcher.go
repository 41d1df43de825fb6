package worktree

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	gitignore "github.com/sabhiram/go-gitignore"
)

// defaultIgnorePatterns are never reported by the watcher.
var defaultIgnorePatterns = []string{
	MarkerFile,
	".git",
	"*.swp",
	"*.tmp",
	"*~",
}

// Watcher observes a worktree directory and reports edits to its prompt
// content files, debounced so editor save bursts collapse into one event.
type Watcher struct {
	root     string
	watcher  *fsnotify.Watcher
	onChange func([]string)
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]bool

	ignore *gitignore.GitIgnore

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher returns a watcher over a worktree directory. Extra ignore
// patterns (gitignore syntax) are merged with the defaults.
func NewWatcher(root string, ignorePatterns []string) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	patterns := append(append([]string{}, defaultIgnorePatterns...), ignorePatterns...)
	return &Watcher{
		root:     root,
		watcher:  fsWatcher,
		debounce: 500 * time.Millisecond,
		pending:  make(map[string]bool),
		ignore:   gitignore.CompileIgnoreLines(patterns...),
	}, nil
}

// OnChange sets the callback receiving changed file paths relative to the
// worktree root.
func (w *Watcher) OnChange(callback func([]string)) {
	w.onChange = callback
}

// Start begins watching until Stop or context cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(2)
	go w.eventLoop(ctx)
	go w.debounceLoop(ctx)
	return nil
}

// Stop shuts the watcher down and waits for its goroutines.
func (w *Watcher) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	return w.watcher.Close()
}

func (w *Watcher) eventLoop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	relPath, err := filepath.Rel(w.root, event.Name)
	if err != nil || strings.HasPrefix(relPath, "..") {
		return
	}
	if w.ignore.MatchesPath(relPath) {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	w.pending[relPath] = true
	w.mu.Unlock()
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.flushPending()
		}
	}
}

func (w *Watcher) flushPending() {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	if w.onChange != nil {
		w.onChange(paths)
	}
}
