package memory

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/rowan/engram/internal/observability"
	"github.com/rowan/engram/pkg/index"
)

// FileWatcher watches the memory directory for external edits and keeps
// the semantic index in sync. Changes made through the Store are indexed
// inline; this catches edits made by other tools.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	logger   zerolog.Logger
	onChange func(name string, removed bool)
	debounce time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewFileWatcher creates a watcher that reports changed markdown files,
// debounced per file.
func NewFileWatcher(logger zerolog.Logger, onChange func(name string, removed bool)) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &FileWatcher{
		watcher:  watcher,
		logger:   logger,
		onChange: onChange,
		debounce: 500 * time.Millisecond,
		timers:   make(map[string]*time.Timer),
		stopCh:   make(chan struct{}),
	}

	go fw.run()

	return fw, nil
}

// Watch starts watching a directory
func (fw *FileWatcher) Watch(path string) error {
	return fw.watcher.Add(path)
}

// Stop stops the file watcher
func (fw *FileWatcher) Stop() error {
	fw.stopOnce.Do(func() { close(fw.stopCh) })
	return fw.watcher.Close()
}

// run processes file system events
func (fw *FileWatcher) run() {
	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			// Only markdown files live in the memory directory
			if !strings.HasSuffix(strings.ToLower(event.Name), ".md") {
				continue
			}

			switch {
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				fw.logger.Debug().
					Str("file", filepath.Base(event.Name)).
					Str("op", event.Op.String()).
					Msg("Memory file removed")
				fw.schedule(event.Name, true)

			case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
				fw.logger.Debug().
					Str("file", filepath.Base(event.Name)).
					Str("op", event.Op.String()).
					Msg("Memory file changed")
				fw.schedule(event.Name, false)
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Error().Err(err).Msg("File watcher error")

		case <-fw.stopCh:
			return
		}
	}
}

// schedule debounces change notifications per file. A remove supersedes
// a pending write for the same file.
func (fw *FileWatcher) schedule(name string, removed bool) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if timer, ok := fw.timers[name]; ok {
		timer.Stop()
	}

	fw.timers[name] = time.AfterFunc(fw.debounce, func() {
		fw.mu.Lock()
		delete(fw.timers, name)
		fw.mu.Unlock()

		select {
		case <-fw.stopCh:
			return
		default:
		}

		fw.onChange(name, removed)
	})
}

// Watch starts re-indexing memory files edited outside the store. It is
// a no-op without a real index backend.
func (s *Store) Watch() error {
	if !s.index.Available() {
		return nil
	}
	if s.watcher != nil {
		return nil
	}

	watcher, err := NewFileWatcher(s.logger, s.handleFileChange)
	if err != nil {
		return err
	}
	if err := watcher.Watch(s.memoryDir); err != nil {
		watcher.Stop()
		return err
	}

	s.watcher = watcher
	s.logger.Info().Str("dir", s.memoryDir).Msg("Watching memory directory")
	return nil
}

// handleFileChange syncs one changed file into the index
func (s *Store) handleFileChange(path string, removed bool) {
	name := filepath.Base(path)
	if !IsDailyFile(name) && name != LongTermFile {
		return
	}

	ctx := context.Background()
	source := SourceForFile(name)

	if removed {
		if err := s.index.DeleteBySource(ctx, source); err != nil {
			s.logger.Warn().Err(err).Str("source", source).Msg("Failed to remove document from index")
			observability.RecordIndexError("delete")
			return
		}
		s.refreshChunkGauge(ctx)
		return
	}

	content, err := readFileOrEmpty(path)
	if err != nil {
		s.logger.Warn().Err(err).Str("file", path).Msg("Failed to read changed memory file")
		return
	}

	docType := index.DocTypeDaily
	if name == LongTermFile {
		docType = index.DocTypeLongTerm
	}
	s.upsertQuietly(ctx, source, content, docType)
}
