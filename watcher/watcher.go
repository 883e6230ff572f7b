// Package watcher mirrors on-disk markdown changes into the graph store,
// debouncing and hash-gating events the way a single-writer indexer must.
package watcher

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ladybug-space/ladybug/mdparser"
	"github.com/ladybug-space/ladybug/model"
)

const (
	debounceWindow = 5 * time.Second
	configFileName = "CONFIG.md"
)

// Parser is the subset of mdparser.Parser the watcher drives.
type Parser interface {
	ParseFile(root, relPath string, expandTransclusions bool) ([]model.Chunk, error)
	ParseTree(root string, expandTransclusions bool) ([]model.Chunk, error)
	GetFolderPaths(root string) ([]string, error)
	GetFolderIndexPages(root string) (map[string]string, error)
	DropCache(pageName string)
}

// Store is the subset of graphstore.Store the watcher mutates.
type Store interface {
	UpsertChunks(ctx context.Context, chunks []model.Chunk) error
	UpsertFolders(ctx context.Context, paths []string, indexPages map[string]string) error
	DeleteByFile(ctx context.Context, filePath string) error
}

// ConfigHandler is dispatched to whenever CONFIG.md changes, ahead of the
// normal delete+upsert cycle.
type ConfigHandler interface {
	OnConfigChanged(ctx context.Context, root, relPath string) error
}

// Embedder fills in a parsed chunk's vector before it reaches the store.
// A Watcher built without one leaves chunks unembedded.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type Config struct {
	Root     string
	Parser   Parser
	Store    Store
	Embedder Embedder // optional
	ConfigHandler ConfigHandler // optional
	Logger   *slog.Logger
}

// Watcher observes Root for markdown changes and keeps Store in sync with
// it, one file at a time, per §4.5.
type Watcher struct {
	root     string
	parser   Parser
	store    Store
	embedder Embedder
	config   ConfigHandler
	logger   *slog.Logger

	fsw *fsnotify.Watcher

	mu           sync.Mutex
	fileHashes   map[string]string
	debounceTime map[string]time.Time
	processing   map[string]bool

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func New(cfg Config) (*Watcher, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	return &Watcher{
		root:         cfg.Root,
		parser:       cfg.Parser,
		store:        cfg.Store,
		embedder:     cfg.Embedder,
		config:       cfg.ConfigHandler,
		logger:       cfg.Logger,
		fsw:          fsw,
		fileHashes:   map[string]string{},
		debounceTime: map[string]time.Time{},
		processing:   map[string]bool{},
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}, nil
}

// ReindexAll parses the whole tree, upserts folders and all chunks, then
// seeds file_hashes for every markdown file, per §4.5's initial reindex.
// It is not cancellable: it runs on context.WithoutCancel(ctx), matching
// the ordering guarantee in §5.
func (w *Watcher) ReindexAll(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	folders, err := w.parser.GetFolderPaths(w.root)
	if err != nil {
		return fmt.Errorf("reindex all: get folder paths: %w", err)
	}
	indexPages, err := w.parser.GetFolderIndexPages(w.root)
	if err != nil {
		return fmt.Errorf("reindex all: get folder index pages: %w", err)
	}
	if err := w.store.UpsertFolders(ctx, folders, indexPages); err != nil {
		return fmt.Errorf("reindex all: upsert folders: %w", err)
	}

	chunks, err := w.parser.ParseTree(w.root, true)
	if err != nil {
		return fmt.Errorf("reindex all: parse tree: %w", err)
	}
	if err := w.embedChunks(ctx, chunks); err != nil {
		return fmt.Errorf("reindex all: embed chunks: %w", err)
	}
	if err := w.store.UpsertChunks(ctx, chunks); err != nil {
		return fmt.Errorf("reindex all: upsert chunks: %w", err)
	}

	files, err := w.markdownFiles()
	if err != nil {
		return fmt.Errorf("reindex all: list files: %w", err)
	}
	w.mu.Lock()
	for _, relPath := range files {
		hash, err := w.hashFile(relPath)
		if err != nil {
			continue
		}
		w.fileHashes[relPath] = hash
	}
	w.mu.Unlock()

	return nil
}

// Start adds root (recursively) to the underlying fsnotify watcher and
// begins the event loop on a background goroutine. Call Stop to end it.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addDirRecursive(w.root); err != nil {
		return fmt.Errorf("watch root: %w", err)
	}
	go w.run(ctx)
	return nil
}

// Stop closes the underlying fsnotify watcher and waits for the event loop
// to exit, with a short grace period.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.fsw.Close()
	})
	select {
	case <-w.doneCh:
	case <-time.After(5 * time.Second):
	}
}

func (w *Watcher) addDirRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && mdparser.ExcludedDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	relPath, ok := w.relevantPath(event.Name)
	if !ok {
		return
	}

	switch {
	case event.Op&fsnotify.Remove == fsnotify.Remove, event.Op&fsnotify.Rename == fsnotify.Rename:
		w.onDelete(ctx, relPath)
	case event.Op&fsnotify.Write == fsnotify.Write, event.Op&fsnotify.Create == fsnotify.Create:
		w.onModifyOrCreate(ctx, relPath)
	}
}

// relevantPath reports whether absPath names a markdown file under root
// that indexing rules do not exclude, returning its root-relative form.
func (w *Watcher) relevantPath(absPath string) (string, bool) {
	if !strings.HasSuffix(absPath, ".md") {
		return "", false
	}
	rel, err := filepath.Rel(w.root, absPath)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if mdparser.ExcludedFile(rel) {
		return "", false
	}
	return rel, true
}

// onModifyOrCreate implements §4.5's modify/create policy: debounce+hash
// gate, in-flight marking, CONFIG.md special-casing, then delete+reparse.
func (w *Watcher) onModifyOrCreate(ctx context.Context, relPath string) {
	accepted, err := w.shouldProcess(relPath)
	if err != nil {
		w.logger.Error("hash file for debounce gate", slog.String("path", relPath), slog.String("error", err.Error()))
		return
	}
	if !accepted {
		return
	}

	w.markProcessing(relPath, true)
	defer w.markProcessing(relPath, false)

	if filepath.Base(relPath) == configFileName && w.config != nil {
		if err := w.config.OnConfigChanged(ctx, w.root, relPath); err != nil {
			w.logger.Error("config changed handler", slog.String("path", relPath), slog.String("error", err.Error()))
		}
	}

	if err := w.store.DeleteByFile(ctx, relPath); err != nil {
		w.logger.Error("delete by file before reindex", slog.String("path", relPath), slog.String("error", err.Error()))
		return
	}

	chunks, err := w.parser.ParseFile(w.root, relPath, true)
	if err != nil {
		w.logger.Error("parse file", slog.String("path", relPath), slog.String("error", err.Error()))
		return
	}
	if err := w.embedChunks(ctx, chunks); err != nil {
		w.logger.Error("embed chunks", slog.String("path", relPath), slog.String("error", err.Error()))
		return
	}
	if err := w.store.UpsertChunks(ctx, chunks); err != nil {
		w.logger.Error("upsert chunks", slog.String("path", relPath), slog.String("error", err.Error()))
		return
	}

	hash, err := w.hashFile(relPath)
	if err != nil {
		w.logger.Error("hash file after reindex", slog.String("path", relPath), slog.String("error", err.Error()))
		return
	}
	w.mu.Lock()
	w.fileHashes[relPath] = hash
	w.mu.Unlock()
}

// onDelete implements §4.5's delete policy: unconditional, no debounce.
func (w *Watcher) onDelete(ctx context.Context, relPath string) {
	if err := w.store.DeleteByFile(ctx, relPath); err != nil {
		w.logger.Error("delete by file", slog.String("path", relPath), slog.String("error", err.Error()))
	}
	w.parser.DropCache(mdparser.PageName(relPath))
	w.mu.Lock()
	delete(w.fileHashes, relPath)
	delete(w.debounceTime, relPath)
	w.mu.Unlock()
}

// shouldProcess implements §4.5's _should_process: reject events inside the
// debounce window, reject paths already in flight, reject unchanged
// content, updating the debounce timestamp even in the no-change case.
func (w *Watcher) shouldProcess(relPath string) (bool, error) {
	w.mu.Lock()
	if w.processing[relPath] {
		w.mu.Unlock()
		return false, nil
	}
	if last, ok := w.debounceTime[relPath]; ok && time.Since(last) < debounceWindow {
		w.mu.Unlock()
		return false, nil
	}
	w.mu.Unlock()

	hash, err := w.hashFile(relPath)
	if err != nil {
		return false, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounceTime[relPath] = time.Now()
	if w.fileHashes[relPath] == hash {
		return false, nil
	}
	return true, nil
}

func (w *Watcher) markProcessing(relPath string, inFlight bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if inFlight {
		w.processing[relPath] = true
	} else {
		delete(w.processing, relPath)
	}
}

func (w *Watcher) hashFile(relPath string) (string, error) {
	data, err := os.ReadFile(filepath.Join(w.root, filepath.FromSlash(relPath)))
	if err != nil {
		return "", err
	}
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:]), nil
}

func (w *Watcher) markdownFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != w.root && mdparser.ExcludedDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(w.root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if strings.HasSuffix(rel, ".md") && !mdparser.ExcludedFile(rel) {
			files = append(files, rel)
		}
		return nil
	})
	return files, err
}

func (w *Watcher) embedChunks(ctx context.Context, chunks []model.Chunk) error {
	if w.embedder == nil || len(chunks) == 0 {
		return nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := w.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	for i := range chunks {
		if i < len(vectors) {
			chunks[i].Embedding = vectors[i]
		}
	}
	return nil
}
