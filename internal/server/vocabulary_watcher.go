package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"resumerank/internal/engine"
	"resumerank/internal/errors"
	"resumerank/internal/observability"

	"github.com/fsnotify/fsnotify"
)

// VocabularyWatcher watches the vocabulary file and calls reload, debounced,
// when its content may have changed
type VocabularyWatcher struct {
	mu sync.Mutex

	file    string
	modTime time.Time
	size    int64
	present bool

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}
	loopDone   chan struct{}

	reload func()
	logger *errors.Logger

	running bool
}

// NewVocabularyWatcher creates a watcher for file
func NewVocabularyWatcher(file string, debounceDelay time.Duration, reload func(), logger *errors.Logger) *VocabularyWatcher {
	if debounceDelay <= 0 {
		debounceDelay = 500 * time.Millisecond
	}
	return &VocabularyWatcher{
		file:          filepath.Clean(file),
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1),
		loopDone:      make(chan struct{}),
		reload:        reload,
		logger:        logger,
	}
}

// Start begins watching. The parent directory is watched so editors that
// replace the file by rename are noticed too.
func (vw *VocabularyWatcher) Start() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()

	if vw.running {
		return fmt.Errorf("vocabulary watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	dir := filepath.Dir(vw.file)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	vw.fsWatcher = watcher
	vw.snapshot()
	vw.running = true
	go vw.watchLoop()

	if vw.logger != nil {
		vw.logger.Info("Vocabulary watcher started",
			"file", vw.file, "debounce", vw.debounceDelay.String())
	}
	return nil
}

// Stop stops watching and waits for the event loop to exit
func (vw *VocabularyWatcher) Stop() error {
	vw.mu.Lock()
	if !vw.running {
		vw.mu.Unlock()
		return nil
	}
	vw.running = false
	if vw.debounceTimer != nil {
		vw.debounceTimer.Stop()
	}
	close(vw.stopChan)
	vw.mu.Unlock()

	<-vw.loopDone

	if err := vw.fsWatcher.Close(); err != nil {
		return fmt.Errorf("failed to close file watcher: %w", err)
	}
	if vw.logger != nil {
		vw.logger.Info("Vocabulary watcher stopped", "file", vw.file)
	}
	return nil
}

// IsRunning returns whether the watcher is currently running
func (vw *VocabularyWatcher) IsRunning() bool {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	return vw.running
}

// File returns the watched path
func (vw *VocabularyWatcher) File() string {
	return vw.file
}

func (vw *VocabularyWatcher) watchLoop() {
	defer close(vw.loopDone)

	for {
		select {
		case event, ok := <-vw.fsWatcher.Events:
			if !ok {
				return
			}
			if vw.shouldProcessEvent(event) {
				vw.scheduleReload()
			}

		case err, ok := <-vw.fsWatcher.Errors:
			if !ok {
				return
			}
			if vw.logger != nil {
				vw.logger.LogError(err, "File watcher error")
			}

		case <-vw.reloadChan:
			if vw.hasChanged() {
				if vw.logger != nil {
					vw.logger.Info("Vocabulary file changed, reloading", "file", vw.file)
				}
				vw.reload()
			}

		case <-vw.stopChan:
			return
		}
	}
}

func (vw *VocabularyWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != vw.file {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// scheduleReload restarts the debounce timer
func (vw *VocabularyWatcher) scheduleReload() {
	vw.mu.Lock()
	defer vw.mu.Unlock()

	if vw.debounceTimer != nil {
		vw.debounceTimer.Stop()
	}
	vw.debounceTimer = time.AfterFunc(vw.debounceDelay, func() {
		select {
		case vw.reloadChan <- struct{}{}:
		default: // a reload is already pending
		}
	})
}

// snapshot records the file's current modification time and size
func (vw *VocabularyWatcher) snapshot() {
	stat, err := os.Stat(vw.file)
	if err != nil {
		vw.present = false
		return
	}
	vw.present = true
	vw.modTime = stat.ModTime()
	vw.size = stat.Size()
}

// hasChanged compares the file against the last snapshot and refreshes it.
// A missing file is never reported as a change; the last good vocabulary
// stays in use until the file comes back.
func (vw *VocabularyWatcher) hasChanged() bool {
	stat, err := os.Stat(vw.file)
	if err != nil {
		vw.present = false
		return false
	}

	changed := !vw.present || !stat.ModTime().Equal(vw.modTime) || stat.Size() != vw.size
	vw.present = true
	vw.modTime = stat.ModTime()
	vw.size = stat.Size()
	return changed
}

// reloadVocabulary loads the vocabulary file into a new engine and swaps it
// in. On any error the current engine keeps serving.
func (s *Server) reloadVocabulary(om *observability.ObservabilityManager, file string) {
	ctx := context.Background()
	metrics := om.GetMetrics()

	vocab, err := engine.LoadVocabularyFile(file)
	if err == nil {
		var eng *engine.Engine
		if eng, err = engine.New(vocab); err == nil {
			s.SwapEngine(eng)
			metrics.RecordVocabularyReload(ctx, true)
			s.Logger.Info("Vocabulary reloaded",
				"file", file,
				"job_titles", len(vocab.JobTitles),
				"skills", len(vocab.Skills),
				"organization_keywords", len(vocab.OrganizationKeywords))
			return
		}
	}

	s.stats.reloadFailures.Add(1)
	metrics.RecordVocabularyReload(ctx, false)
	s.Logger.LogError(err, "Vocabulary reload failed, keeping previous vocabulary", "file", file)
}

// startVocabularyWatcher starts watching the configured vocabulary file when
// hot reload is enabled
func (s *Server) startVocabularyWatcher(om *observability.ObservabilityManager) error {
	if s.AppConfig == nil || !s.AppConfig.Engine.WatchVocabulary || s.AppConfig.Engine.VocabularyFile == "" {
		return nil
	}

	file := s.AppConfig.Engine.VocabularyFile
	watcher := NewVocabularyWatcher(file, s.AppConfig.Engine.WatchDebounce,
		func() { s.reloadVocabulary(om, file) }, s.Logger)
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start vocabulary watcher: %w", err)
	}
	s.VocabularyWatcher = watcher
	return nil
}
