package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rowan/engram/internal/observability"
	"github.com/rowan/engram/pkg/index"
)

const (
	// contextSearchLimit bounds results in the relevant-past-memories section
	contextSearchLimit = 5
	// defaultSearchLimit applies when SearchMemory is called with limit <= 0
	defaultSearchLimit = 10

	fragmentSeparator = "\n\n---\n\n"

	// SearchUnavailableMessage is returned by SearchMemory when no index
	// backend is configured, telling the caller to fall back to direct
	// file reads.
	SearchUnavailableMessage = "Semantic search unavailable (no index backend configured). Use read_file to read memory files directly."
)

// Store owns the workspace memory documents and drives the semantic index
type Store struct {
	workspacePath string
	memoryDir     string
	longTermPath  string
	index         index.Index
	logger        zerolog.Logger
	watcher       *FileWatcher

	now func() time.Time

	// per-document locks serialize read-modify-write on the same file
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// Config holds memory store configuration
type Config struct {
	WorkspacePath string
	// Index is the semantic backend; nil means semantic search disabled
	Index  index.Index
	Logger zerolog.Logger
}

// NewStore creates a memory store over the workspace's memory directory.
// When the configured index is real but empty, every document found on
// disk is indexed once before the store is returned.
func NewStore(cfg Config) (*Store, error) {
	observability.EnsureRegistered()

	if cfg.WorkspacePath == "" {
		return nil, errors.New("workspace path is required")
	}

	memoryDir, err := EnsureMemoryDir(cfg.WorkspacePath)
	if err != nil {
		return nil, err
	}

	idx := cfg.Index
	if idx == nil {
		idx = index.NewNoop()
	}

	s := &Store{
		workspacePath: cfg.WorkspacePath,
		memoryDir:     memoryDir,
		longTermPath:  filepath.Join(memoryDir, LongTermFile),
		index:         idx,
		logger:        cfg.Logger,
		now:           time.Now,
		locks:         make(map[string]*sync.Mutex),
	}

	if idx.Available() {
		ctx := context.Background()
		count, err := idx.Count(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Failed to count indexed chunks")
		} else if count == 0 {
			s.reindexAll(ctx)
		}
	}

	return s, nil
}

// todayDate returns today's date string (YYYY-MM-DD)
func (s *Store) todayDate() string {
	return s.now().Format(dateFormat)
}

// TodayFile returns the path of today's memory file
func (s *Store) TodayFile() string {
	return filepath.Join(s.memoryDir, s.todayDate()+".md")
}

// ReadToday reads today's memory notes. A missing file reads as empty.
func (s *Store) ReadToday() (string, error) {
	return readFileOrEmpty(s.TodayFile())
}

// AppendToday appends content to today's memory notes, creating the file
// with a date header on first write, then re-indexes today's document.
func (s *Store) AppendToday(ctx context.Context, content string) error {
	today := s.todayDate()

	lock := s.docLock(today)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	defer func() { observability.RecordMemoryWrite(time.Since(start)) }()

	path := s.TodayFile()
	existing, err := readFileOrEmpty(path)
	if err != nil {
		return err
	}

	var data string
	if existing != "" {
		data = existing + "\n" + content
	} else {
		data = "# " + today + "\n\n" + content
	}

	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	s.upsertQuietly(ctx, today, data, index.DocTypeDaily)
	return nil
}

// ReadLongTerm reads the long-term memory document. A missing file reads
// as empty.
func (s *Store) ReadLongTerm() (string, error) {
	return readFileOrEmpty(s.longTermPath)
}

// WriteLongTerm overwrites the long-term memory document wholesale, then
// re-indexes it.
func (s *Store) WriteLongTerm(ctx context.Context, content string) error {
	lock := s.docLock(LongTermSource)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	defer func() { observability.RecordMemoryWrite(time.Since(start)) }()

	if err := os.WriteFile(s.longTermPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.longTermPath, err)
	}

	s.upsertQuietly(ctx, LongTermSource, content, index.DocTypeLongTerm)
	return nil
}

// RecentMemories returns the contents of up to days consecutive daily
// files ending today, most recent first, joined with a visible separator.
// Missing days are skipped.
func (s *Store) RecentMemories(days int) (string, error) {
	var memories []string
	today := s.now()

	for i := 0; i < days; i++ {
		date := today.AddDate(0, 0, -i).Format(dateFormat)
		path := filepath.Join(s.memoryDir, date+".md")

		content, err := readFileOrEmpty(path)
		if err != nil {
			return "", err
		}
		if content != "" {
			memories = append(memories, content)
		}
	}

	return strings.Join(memories, fragmentSeparator), nil
}

// ListMemoryFiles returns the paths of all daily files, sorted by date
// descending. A missing memory directory yields an empty list.
func (s *Store) ListMemoryFiles() ([]string, error) {
	entries, err := os.ReadDir(s.memoryDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list memory directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !IsDailyFile(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(s.memoryDir, entry.Name()))
	}

	// Date-named files sort lexicographically; reverse for newest first
	sort.Sort(sort.Reverse(sort.StringSlice(files)))
	return files, nil
}

// MemoryContext assembles the memory context for the agent: the full
// long-term document, today's notes, and (when a query is given and an
// index is configured) semantically relevant fragments from past days.
// Today's chunks never appear in the past-memories section; they are
// already shown verbatim.
func (s *Store) MemoryContext(ctx context.Context, query string) (string, error) {
	var parts []string

	longTerm, err := s.ReadLongTerm()
	if err != nil {
		return "", err
	}
	if longTerm != "" {
		parts = append(parts, "## Long-term Memory\n"+longTerm)
	}

	today, err := s.ReadToday()
	if err != nil {
		return "", err
	}
	if today != "" {
		parts = append(parts, "## Today's Notes\n"+today)
	}

	if query != "" && s.index.Available() {
		start := time.Now()

		// Pick up very recent edits before searching
		s.reindexToday(ctx)

		results, err := s.index.Search(ctx, query, contextSearchLimit, &index.Filter{
			Type:          index.DocTypeDaily,
			ExcludeSource: s.todayDate(),
		})
		if err != nil {
			s.logger.Warn().Err(err).Msg("Memory search failed")
			observability.RecordIndexError("search")
			results = nil
		}
		observability.RecordMemorySearch(time.Since(start))

		if len(results) > 0 {
			parts = append(parts, "## Relevant Past Memories\n"+strings.Join(results, fragmentSeparator))
		}
	}

	return strings.Join(parts, "\n\n"), nil
}

// SearchMemory searches all memory semantically and formats the results
// for the memory_search tool. Without an index backend it returns a fixed
// unavailability message.
func (s *Store) SearchMemory(ctx context.Context, query string, limit int) (string, error) {
	if !s.index.Available() {
		return SearchUnavailableMessage, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	start := time.Now()
	defer func() { observability.RecordMemorySearch(time.Since(start)) }()

	s.reindexToday(ctx)

	results, err := s.index.Search(ctx, query, limit, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Memory search failed")
		observability.RecordIndexError("search")
		results = nil
	}

	if len(results) == 0 {
		return "No memories found for: " + query, nil
	}

	lines := make([]string, 0, len(results)+1)
	lines = append(lines, fmt.Sprintf("Found %d relevant memory fragments:\n", len(results)))
	for i, chunk := range results {
		lines = append(lines, fmt.Sprintf("--- Fragment %d ---\n%s\n", i+1, chunk))
	}
	return strings.Join(lines, "\n"), nil
}

// Close stops the watcher, if started, and closes the index
func (s *Store) Close() error {
	if s.watcher != nil {
		s.watcher.Stop()
	}
	return s.index.Close()
}

// reindexAll indexes the long-term document and every daily file found
// on disk. Called once at construction when the index is present but
// empty; individual failures are logged, not fatal.
func (s *Store) reindexAll(ctx context.Context) {
	start := time.Now()
	total := 0

	longTerm, err := s.ReadLongTerm()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read long-term memory for reindex")
	} else if longTerm != "" {
		n, err := s.index.Upsert(ctx, LongTermSource, longTerm, index.DocTypeLongTerm)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Failed to index long-term memory")
			observability.RecordIndexError("upsert")
		} else {
			total += n
		}
	}

	files, err := s.ListMemoryFiles()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to list memory files for reindex")
		return
	}

	for _, path := range files {
		content, err := readFileOrEmpty(path)
		if err != nil {
			s.logger.Warn().Err(err).Str("file", path).Msg("Failed to read memory file for reindex")
			continue
		}

		source := SourceForFile(filepath.Base(path))
		n, err := s.index.Upsert(ctx, source, content, index.DocTypeDaily)
		if err != nil {
			s.logger.Warn().Err(err).Str("source", source).Msg("Failed to index memory file")
			observability.RecordIndexError("upsert")
			continue
		}
		total += n
	}

	s.refreshChunkGauge(ctx)
	s.logger.Info().
		Int("chunks", total).
		Int("daily_files", len(files)).
		Dur("duration", time.Since(start)).
		Msg("Reindexed memory")
}

// reindexToday re-upserts today's file if it exists. Failures are logged
// and swallowed; a stale index must never block a search.
func (s *Store) reindexToday(ctx context.Context) {
	content, err := s.ReadToday()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read today's notes for reindex")
		return
	}
	if content == "" {
		return
	}
	s.upsertQuietly(ctx, s.todayDate(), content, index.DocTypeDaily)
}

// upsertQuietly indexes a document, logging and swallowing any failure.
// A memory write must never fail because indexing failed.
func (s *Store) upsertQuietly(ctx context.Context, source, text string, docType index.DocType) {
	n, err := s.index.Upsert(ctx, source, text, docType)
	if err != nil {
		s.logger.Warn().Err(err).Str("source", source).Msg("Failed to upsert document into index")
		observability.RecordIndexError("upsert")
		return
	}
	if n > 0 {
		observability.RecordIndexUpsert(string(docType), n)
		s.refreshChunkGauge(ctx)
	}
}

func (s *Store) refreshChunkGauge(ctx context.Context) {
	if count, err := s.index.Count(ctx); err == nil {
		observability.SetMemoryChunks(count)
	}
}

// docLock returns the mutex serializing writes to one document
func (s *Store) docLock(key string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}
