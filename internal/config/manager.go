package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"hhbot/pkg/logx"
)

// Manager holds the current config snapshot and hot-reloads it when the
// file changes. A snapshot is immutable once returned; the pipeline reads
// one snapshot at the start of each cycle, so a reload never changes
// behavior mid-cycle.
type Manager struct {
	path string
	log  logx.Logger

	mu  sync.RWMutex
	cur *Config
}

func NewManager(path string, log logx.Logger) (*Manager, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Manager{path: path, log: log, cur: cfg}, nil
}

// Current returns the latest valid snapshot.
func (m *Manager) Current() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cur
}

// Watch reloads the config on file changes until ctx is done. An invalid
// file is logged and the previous snapshot stays active. Editors often
// emit bursts of events (write + rename + chmod), so reloads are
// debounced.
func (m *Manager) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Watch the directory: many editors replace the file on save, which
	// drops a watch registered on the file itself.
	if err := w.Add(filepath.Dir(m.path)); err != nil {
		_ = w.Close()
		return err
	}

	go func() {
		defer w.Close()

		var pending <-chan time.Time
		base := filepath.Base(m.path)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != base {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				pending = time.After(250 * time.Millisecond)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				m.log.Warn("config watch error", logx.Err(err))
			case <-pending:
				pending = nil
				m.reload()
			}
		}
	}()
	return nil
}

func (m *Manager) reload() {
	cfg, err := Load(m.path)
	if err != nil {
		m.log.Warn("config reload rejected, keeping previous", logx.Err(err))
		return
	}
	m.mu.Lock()
	m.cur = cfg
	m.mu.Unlock()
	m.log.Info("config reloaded", logx.String("path", m.path))
}
