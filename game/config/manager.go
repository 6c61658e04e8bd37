package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/wricardo/unblock/game/engine"
	"github.com/wricardo/unblock/game/service"
)

var (
	ErrPackNotFound = service.ErrPackNotFound
	ErrInvalidPack  = errors.New("invalid level pack")
)

// DefaultPackName is the pack used when none is configured
const DefaultPackName = "levels"

// Options configures a pack Manager
type Options struct {
	// DefaultPack overrides the default pack name. It must exist when set.
	DefaultPack string
}

// Manager handles level pack loading and caching
type Manager struct {
	levelsDir   string
	defaultPack string
	packs       map[string][]*engine.Level
	mu          sync.RWMutex
}

// NewManager creates a new pack manager over a directory of level files
func NewManager(levelsDir string, opts Options) (*Manager, error) {
	info, err := os.Stat(levelsDir)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("levels directory does not exist: %s", levelsDir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat levels directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", levelsDir)
	}

	m := &Manager{
		levelsDir: levelsDir,
		packs:     make(map[string][]*engine.Level),
	}

	if opts.DefaultPack != "" {
		if err := m.SetDefault(opts.DefaultPack); err != nil {
			return nil, fmt.Errorf("failed to load default pack: %w", err)
		}
		return m, nil
	}

	m.selectDefault()
	return m, nil
}

// Dir returns the levels directory
func (m *Manager) Dir() string {
	return m.levelsDir
}

// LoadPack loads a pack by name. The name may carry the .dat or .dat.zst
// extension.
func (m *Manager) LoadPack(name string) ([]*engine.Level, error) {
	name = packKey(name)
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, fmt.Errorf("%w: '%s'", ErrPackNotFound, name)
	}

	m.mu.RLock()
	if levels, exists := m.packs[name]; exists {
		m.mu.RUnlock()
		return levels, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if levels, exists := m.packs[name]; exists {
		return levels, nil
	}

	levels, err := engine.LoadLevelsByName(m.levelsDir, name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: '%s'", ErrPackNotFound, name)
		}
		var perr *engine.ParseError
		if errors.As(err, &perr) || errors.Is(err, engine.ErrNoLevels) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPack, err)
		}
		return nil, fmt.Errorf("failed to load pack %s: %w", name, err)
	}

	m.packs[name] = levels
	log.WithFields(log.Fields{"pack": name, "levels": len(levels)}).Debug("pack loaded")
	return levels, nil
}

// ListPacks returns information about all loadable packs in the directory.
// Files that fail to parse are skipped.
func (m *Manager) ListPacks() ([]*service.PackInfo, error) {
	entries, err := os.ReadDir(m.levelsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read levels directory: %w", err)
	}

	def := m.GetDefault()
	seen := make(map[string]bool)
	var packs []*service.PackInfo

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := engine.PackName(entry.Name())
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		levels, err := m.LoadPack(name)
		if err != nil {
			log.WithField("pack", name).WithError(err).Debug("skipping pack")
			continue
		}

		packs = append(packs, &service.PackInfo{
			Filename:   m.packFile(name),
			PackID:     name,
			Levels:     len(levels),
			Compressed: strings.HasSuffix(m.packFile(name), engine.CompressedExt),
			Default:    name == def,
		})
	}

	return packs, nil
}

// GetDefault returns the default pack name
func (m *Manager) GetDefault() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultPack
}

// SetDefault sets the default pack by name
func (m *Manager) SetDefault(name string) error {
	if _, err := m.LoadPack(name); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultPack = packKey(name)
	return nil
}

// RefreshCache drops all cached packs so they are read from disk again
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.packs = make(map[string][]*engine.Level)
	m.mu.Unlock()

	if _, err := m.LoadPack(m.GetDefault()); err != nil {
		log.WithField("pack", m.GetDefault()).WithError(err).Warn("default pack no longer loads")
	}
}

// Invalidate drops one pack from the cache
func (m *Manager) Invalidate(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.packs, packKey(name))
}

// Watch invalidates cached packs when their files change. The watcher is
// registered before Watch returns; the returned channel receives the names
// of changed packs and is closed when ctx is done.
func (m *Manager) Watch(ctx context.Context) (<-chan string, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(m.levelsDir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", m.levelsDir, err)
	}

	changed := make(chan string, 16)
	go m.watchLoop(ctx, w, changed)
	return changed, nil
}

func (m *Manager) watchLoop(ctx context.Context, w *fsnotify.Watcher, changed chan<- string) {
	defer close(changed)
	defer w.Close()

	last := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			name := engine.PackName(event.Name)
			if name == "" {
				continue
			}
			m.Invalidate(name)

			now := time.Now()
			if t, ok := last[name]; ok && now.Sub(t) < 100*time.Millisecond {
				continue
			}
			last[name] = now

			log.WithFields(log.Fields{"pack": name, "op": event.Op.String()}).Info("level pack changed")
			select {
			case changed <- name:
			default:
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			log.WithError(err).Warn("level watcher error")
		case <-ctx.Done():
			return
		}
	}
}

// selectDefault picks DefaultPackName when it loads, otherwise the first
// loadable pack in the directory.
func (m *Manager) selectDefault() {
	if err := m.SetDefault(DefaultPackName); err == nil {
		return
	}

	packs, err := m.ListPacks()
	if err != nil || len(packs) == 0 {
		log.WithField("dir", m.levelsDir).Warn("no loadable level packs found")
		m.mu.Lock()
		m.defaultPack = DefaultPackName
		m.mu.Unlock()
		return
	}

	m.mu.Lock()
	m.defaultPack = packs[0].PackID
	m.mu.Unlock()
}

// packFile returns the file name LoadLevelsByName would read for a pack
func (m *Manager) packFile(name string) string {
	plain := name + engine.LevelFileExt
	if _, err := os.Stat(filepath.Join(m.levelsDir, plain)); err == nil {
		return plain
	}
	return plain + engine.CompressedExt
}

func packKey(name string) string {
	name = strings.TrimSpace(name)
	if n := engine.PackName(name); n != "" {
		return n
	}
	return name
}
