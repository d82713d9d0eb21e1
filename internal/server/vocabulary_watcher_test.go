package server

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"resumerank/internal/config"
	"resumerank/internal/engine"
	"resumerank/internal/errors"
	"resumerank/internal/observability"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeVocab(t *testing.T, path, body string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestVocabularyWatcherReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.yaml")
	base := time.Now().Add(-time.Hour)
	writeVocab(t, path, "skills: [Go]\n", base)

	var reloads atomic.Int32
	vw := NewVocabularyWatcher(path, 20*time.Millisecond, func() { reloads.Add(1) }, errors.Discard())
	require.NoError(t, vw.Start())
	t.Cleanup(func() { _ = vw.Stop() })

	assert.True(t, vw.IsRunning())
	assert.Error(t, vw.Start())

	writeVocab(t, path, "skills: [Go, Rust]\n", base.Add(time.Minute))

	assert.Eventually(t, func() bool { return reloads.Load() == 1 },
		2*time.Second, 10*time.Millisecond)
}

func TestVocabularyWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.yaml")
	writeVocab(t, path, "skills: [Go]\n", time.Now())

	vw := NewVocabularyWatcher(path, time.Millisecond, func() {}, nil)

	assert.True(t, vw.shouldProcessEvent(fsnotify.Event{Name: path, Op: fsnotify.Write}))
	assert.True(t, vw.shouldProcessEvent(fsnotify.Event{Name: path, Op: fsnotify.Rename}))
	assert.False(t, vw.shouldProcessEvent(fsnotify.Event{Name: path, Op: fsnotify.Chmod}))
	assert.False(t, vw.shouldProcessEvent(fsnotify.Event{Name: filepath.Join(dir, "other.yaml"), Op: fsnotify.Write}))
}

func TestVocabularyWatcherHasChanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.yaml")
	base := time.Now().Add(-time.Hour)
	writeVocab(t, path, "skills: [Go]\n", base)

	vw := NewVocabularyWatcher(path, 0, func() {}, nil)
	vw.snapshot()

	assert.False(t, vw.hasChanged())

	writeVocab(t, path, "skills: [Go, C]\n", base)
	assert.True(t, vw.hasChanged(), "size change with same mtime")

	require.NoError(t, os.Remove(path))
	assert.False(t, vw.hasChanged())

	writeVocab(t, path, "skills: [Go, C]\n", base)
	assert.True(t, vw.hasChanged(), "file came back")

	assert.NoError(t, vw.Stop())
}

func TestReloadVocabulary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.yaml")
	writeVocab(t, path, "skills: [Rust]\n", time.Now())

	s := NewServer(&config.Config{}, ServerConfig{}, engine.NewDefault(), errors.Discard())
	om, err := observability.NewObservabilityManager(observability.ObservabilityConfig{})
	require.NoError(t, err)

	s.reloadVocabulary(om, path)
	assert.Equal(t, []string{"Rust"}, s.Engine().Vocabulary().Skills)
	assert.Equal(t, int64(1), s.stats.reloads.Load())
	assert.NotNil(t, s.stats.lastReload.Load())

	writeVocab(t, path, "skills: ['  ']\n", time.Now())
	s.reloadVocabulary(om, path)
	assert.Equal(t, []string{"Rust"}, s.Engine().Vocabulary().Skills, "bad file keeps previous vocabulary")
	assert.Equal(t, int64(1), s.stats.reloadFailures.Load())
}

func TestStartVocabularyWatcherDisabled(t *testing.T) {
	s := NewServer(&config.Config{}, ServerConfig{}, engine.NewDefault(), errors.Discard())
	om, err := observability.NewObservabilityManager(observability.ObservabilityConfig{})
	require.NoError(t, err)

	require.NoError(t, s.startVocabularyWatcher(om))
	assert.Nil(t, s.VocabularyWatcher)
}
