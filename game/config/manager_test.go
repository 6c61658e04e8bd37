package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/unblock/game/engine"
)

const testLevel = `&&&&&&&&
&|*****&
&|*****&
&==****^
&***--*&
&******&
&******&
&&&&&&&&
`

func createTestLevelsDir(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}

func writePack(t *testing.T, dir, filename string, levels int) {
	t.Helper()
	data := []byte(strings.Repeat(testLevel+"\n", levels))
	if strings.HasSuffix(filename, engine.CompressedExt) {
		var err error
		data, err = engine.EncodeLevelData(data)
		if err != nil {
			t.Fatalf("Failed to compress pack: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		t.Fatalf("Failed to write pack file: %v", err)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("valid directory", func(t *testing.T) {
		dir := createTestLevelsDir(t)
		writePack(t, dir, "levels.dat", 2)

		manager, err := NewManager(dir, Options{})
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if manager.GetDefault() != "levels" {
			t.Errorf("Expected default pack 'levels', got '%s'", manager.GetDefault())
		}
	})

	t.Run("non-existent directory", func(t *testing.T) {
		_, err := NewManager("/non/existent/path", Options{})
		if err == nil {
			t.Error("Expected error for non-existent directory")
		}
	})

	t.Run("first pack becomes default", func(t *testing.T) {
		dir := createTestLevelsDir(t)
		writePack(t, dir, "beta.dat", 1)
		writePack(t, dir, "alpha.dat", 1)

		manager, err := NewManager(dir, Options{})
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if manager.GetDefault() != "alpha" {
			t.Errorf("Expected default pack 'alpha', got '%s'", manager.GetDefault())
		}
	})

	t.Run("empty directory", func(t *testing.T) {
		manager, err := NewManager(createTestLevelsDir(t), Options{})
		if err != nil {
			t.Fatalf("NewManager should succeed without pack files, got error: %v", err)
		}
		if manager.GetDefault() != DefaultPackName {
			t.Errorf("Expected default pack name %s, got %s", DefaultPackName, manager.GetDefault())
		}
	})

	t.Run("configured default", func(t *testing.T) {
		dir := createTestLevelsDir(t)
		writePack(t, dir, "levels.dat", 1)
		writePack(t, dir, "hard.dat", 1)

		manager, err := NewManager(dir, Options{DefaultPack: "hard"})
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if manager.GetDefault() != "hard" {
			t.Errorf("Expected default pack 'hard', got '%s'", manager.GetDefault())
		}
	})

	t.Run("configured default missing", func(t *testing.T) {
		_, err := NewManager(createTestLevelsDir(t), Options{DefaultPack: "nope"})
		if !errors.Is(err, ErrPackNotFound) {
			t.Errorf("Expected ErrPackNotFound, got %v", err)
		}
	})
}

func TestManager_LoadPack(t *testing.T) {
	dir := createTestLevelsDir(t)
	writePack(t, dir, "levels.dat", 1)
	writePack(t, dir, "easy.dat", 3)
	writePack(t, dir, "packed.dat.zst", 2)

	manager, err := NewManager(dir, Options{})
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	t.Run("load existing pack", func(t *testing.T) {
		levels, err := manager.LoadPack("easy")
		if err != nil {
			t.Fatalf("Failed to load pack: %v", err)
		}
		if len(levels) != 3 {
			t.Errorf("Expected 3 levels, got %d", len(levels))
		}
		if levels[0].Source() != "easy" {
			t.Errorf("Expected source 'easy', got '%s'", levels[0].Source())
		}
	})

	t.Run("load with extension", func(t *testing.T) {
		levels, err := manager.LoadPack("easy.dat")
		if err != nil {
			t.Fatalf("Failed to load pack with extension: %v", err)
		}
		if len(levels) != 3 {
			t.Errorf("Expected 3 levels, got %d", len(levels))
		}
	})

	t.Run("load compressed pack", func(t *testing.T) {
		levels, err := manager.LoadPack("packed")
		if err != nil {
			t.Fatalf("Failed to load compressed pack: %v", err)
		}
		if len(levels) != 2 {
			t.Errorf("Expected 2 levels, got %d", len(levels))
		}
	})

	t.Run("load from cache", func(t *testing.T) {
		first, _ := manager.LoadPack("easy")
		second, err := manager.LoadPack("easy")
		if err != nil {
			t.Fatalf("Failed to load pack from cache: %v", err)
		}
		if first[0] != second[0] {
			t.Error("Expected pack to be loaded from cache")
		}
	})

	t.Run("load non-existent pack", func(t *testing.T) {
		_, err := manager.LoadPack("non-existent")
		if !errors.Is(err, ErrPackNotFound) {
			t.Errorf("Expected ErrPackNotFound, got %v", err)
		}
	})

	t.Run("path traversal", func(t *testing.T) {
		_, err := manager.LoadPack("../levels")
		if !errors.Is(err, ErrPackNotFound) {
			t.Errorf("Expected ErrPackNotFound, got %v", err)
		}
	})

	t.Run("load invalid pack", func(t *testing.T) {
		bad := strings.Replace(testLevel, "&|*****&\n&|", "&|*****&\n&*", 1)
		if err := os.WriteFile(filepath.Join(dir, "invalid.dat"), []byte(bad), 0644); err != nil {
			t.Fatalf("Failed to write invalid pack: %v", err)
		}

		_, err := manager.LoadPack("invalid")
		if !errors.Is(err, ErrInvalidPack) {
			t.Fatalf("Expected ErrInvalidPack, got %v", err)
		}
		var perr *engine.ParseError
		if !errors.As(err, &perr) {
			t.Errorf("Expected a ParseError in the chain, got %v", err)
		}
	})

	t.Run("load empty pack", func(t *testing.T) {
		if err := os.WriteFile(filepath.Join(dir, "empty.dat"), []byte("# nothing here\n"), 0644); err != nil {
			t.Fatalf("Failed to write empty pack: %v", err)
		}

		_, err := manager.LoadPack("empty")
		if !errors.Is(err, ErrInvalidPack) || !errors.Is(err, engine.ErrNoLevels) {
			t.Errorf("Expected ErrInvalidPack wrapping ErrNoLevels, got %v", err)
		}
	})
}

func TestManager_ListPacks(t *testing.T) {
	dir := createTestLevelsDir(t)
	writePack(t, dir, "levels.dat", 2)
	writePack(t, dir, "packed.dat.zst", 1)
	writePack(t, dir, "both.dat", 1)
	writePack(t, dir, "both.dat.zst", 4)
	if err := os.WriteFile(filepath.Join(dir, "broken.dat"), []byte("&&&&&&&&\n"), 0644); err != nil {
		t.Fatalf("Failed to write broken pack: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a pack"), 0644); err != nil {
		t.Fatalf("Failed to write notes: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "subdir.dat"), 0755); err != nil {
		t.Fatalf("Failed to create subdir: %v", err)
	}

	manager, err := NewManager(dir, Options{})
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	packs, err := manager.ListPacks()
	if err != nil {
		t.Fatalf("Failed to list packs: %v", err)
	}

	got := make(map[string]int)
	for _, p := range packs {
		got[p.PackID] = p.Levels
		switch p.PackID {
		case "levels":
			if !p.Default || p.Compressed || p.Filename != "levels.dat" {
				t.Errorf("Unexpected info for levels: %+v", p)
			}
		case "packed":
			if p.Default || !p.Compressed || p.Filename != "packed.dat.zst" {
				t.Errorf("Unexpected info for packed: %+v", p)
			}
		case "both":
			if p.Compressed || p.Filename != "both.dat" {
				t.Errorf("Expected the plain file to win, got %+v", p)
			}
		}
	}

	want := map[string]int{"levels": 2, "packed": 1, "both": 1}
	if len(got) != len(want) {
		t.Errorf("Expected packs %v, got %v", want, got)
	}
	for id, n := range want {
		if got[id] != n {
			t.Errorf("Pack %s: expected %d levels, got %d", id, n, got[id])
		}
	}
}

func TestManager_SetDefault(t *testing.T) {
	dir := createTestLevelsDir(t)
	writePack(t, dir, "levels.dat", 1)
	writePack(t, dir, "other.dat", 1)

	manager, err := NewManager(dir, Options{})
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if err := manager.SetDefault("other.dat"); err != nil {
		t.Fatalf("Failed to set default: %v", err)
	}
	if manager.GetDefault() != "other" {
		t.Errorf("Expected default 'other', got '%s'", manager.GetDefault())
	}

	if err := manager.SetDefault("missing"); !errors.Is(err, ErrPackNotFound) {
		t.Errorf("Expected ErrPackNotFound, got %v", err)
	}
	if manager.GetDefault() != "other" {
		t.Error("Default should not change on error")
	}
}

func TestManager_RefreshCache(t *testing.T) {
	dir := createTestLevelsDir(t)
	writePack(t, dir, "levels.dat", 1)

	manager, err := NewManager(dir, Options{})
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	writePack(t, dir, "levels.dat", 3)

	levels, _ := manager.LoadPack("levels")
	if len(levels) != 1 {
		t.Fatalf("Expected cached pack with 1 level, got %d", len(levels))
	}

	manager.RefreshCache()

	levels, err = manager.LoadPack("levels")
	if err != nil {
		t.Fatalf("Failed to load pack after refresh: %v", err)
	}
	if len(levels) != 3 {
		t.Errorf("Expected 3 levels after refresh, got %d", len(levels))
	}
}

func TestManager_Watch(t *testing.T) {
	dir := createTestLevelsDir(t)
	writePack(t, dir, "levels.dat", 1)

	manager, err := NewManager(dir, Options{})
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed, err := manager.Watch(ctx)
	if err != nil {
		t.Fatalf("Failed to watch: %v", err)
	}

	// Write next to the pack and rename over it so the pack is never half written.
	writePack(t, dir, "levels.tmp", 2)
	if err := os.Rename(filepath.Join(dir, "levels.tmp"), filepath.Join(dir, "levels.dat")); err != nil {
		t.Fatalf("Failed to replace pack: %v", err)
	}

	select {
	case name := <-changed:
		if name != "levels" {
			t.Errorf("Expected change for 'levels', got '%s'", name)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for change notification")
	}

	levels, err := manager.LoadPack("levels")
	if err != nil {
		t.Fatalf("Failed to load pack after change: %v", err)
	}
	if len(levels) != 2 {
		t.Errorf("Expected 2 levels after change, got %d", len(levels))
	}

	cancel()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-changed:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("Expected change channel to close after cancel")
		}
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	dir := createTestLevelsDir(t)
	writePack(t, dir, "levels.dat", 1)
	writePack(t, dir, "a.dat", 2)
	writePack(t, dir, "b.dat", 3)

	manager, err := NewManager(dir, Options{})
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			name := []string{"levels", "a", "b"}[id%3]
			if _, err := manager.LoadPack(name); err != nil {
				errs <- err
			}
			if id%10 == 0 {
				manager.RefreshCache()
			}
			if _, err := manager.ListPacks(); err != nil {
				errs <- err
			}
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Unexpected error during concurrent access: %v", err)
	}
}
