package config

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Manager provides centralized configuration access with optional
// hot-reload: it watches the backing file and swaps in a freshly
// parsed GlobalConfig on write, so a reload is available to any
// caller of Current() without a process restart. Components built
// once at startup from a config snapshot (as the CLI's app does) do
// not automatically pick up a reload; only code that calls Current()
// on each use observes it.
type Manager struct {
	mu     sync.RWMutex
	config *GlobalConfig
	path   string
	logger zerolog.Logger

	watcher    *fsnotify.Watcher
	stopChan   chan struct{}
	reloadOnce sync.Once
}

// NewManager loads path once and wires an optional file watcher for
// hot-reload.
func NewManager(path string, hotReload bool, logger zerolog.Logger) (*Manager, error) {
	cfg, err := LoadGlobalConfig(path)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		config:   cfg,
		path:     path,
		logger:   logger.With().Str("component", "ConfigManager").Logger(),
		stopChan: make(chan struct{}),
	}

	if hotReload && path != "" {
		if err := m.watch(); err != nil {
			m.logger.Warn().Err(err).Msg("failed to start config file watcher, hot-reload disabled")
		}
	}

	return m, nil
}

// Current returns the most recently loaded configuration.
func (m *Manager) Current() *GlobalConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

func (m *Manager) watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(m.path); err != nil {
		watcher.Close()
		return err
	}
	m.watcher = watcher

	go func() {
		debounce := time.NewTimer(0)
		if !debounce.Stop() {
			<-debounce.C
		}
		for {
			select {
			case <-m.stopChan:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					debounce.Reset(2 * time.Second)
				}
			case <-debounce.C:
				m.reload()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				m.logger.Warn().Err(err).Msg("config watcher error")
			}
		}
	}()
	return nil
}

func (m *Manager) reload() {
	cfg, err := LoadGlobalConfig(m.path)
	if err != nil {
		m.logger.Error().Err(err).Msg("failed to reload configuration, keeping previous")
		return
	}
	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
	m.logger.Info().Str("path", m.path).Msg("configuration reloaded")
}

// Close stops the file watcher, if any.
func (m *Manager) Close() error {
	m.reloadOnce.Do(func() {
		close(m.stopChan)
	})
	if m.watcher != nil {
		return m.watcher.Close()
	}
	return nil
}
