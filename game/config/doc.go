// Package config provides level pack and settings management for Unblock.
//
// The config package handles:
//   - Loading level packs from a directory of level files
//   - Pack caching, discovery, and listing
//   - Reloading packs when their files change
//   - The YAML settings file and logging setup
//
// Level Packs:
//
// A pack is a file named <name>.dat holding any number of 8x8 level
// blocks, or <name>.dat.zst holding the same text compressed with zstd.
// When both exist the plain file wins. The default pack is "levels" unless
// the settings name another one; with neither, the first loadable pack in
// the directory is used.
//
// Usage:
//
//	manager, err := config.NewManager("levels", config.Options{})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	levels, err := manager.LoadPack("levels")
//
//	packs, err := manager.ListPacks()
//
//	changed, err := manager.Watch(ctx)
//
// Settings:
//
// LoadSettings reads a YAML file over DefaultSettings. The document is
// validated against an embedded JSON Schema before it is decoded, so
// unknown keys and out of range values are reported as ErrInvalidSettings.
//
//	server:
//	  port: 8080
//	levels:
//	  dir: levels
//	  watch: true
//	game:
//	  wrap: saturate
//	  auto_advance: false
//	sessions:
//	  ttl: 24h
//	log:
//	  level: info
//	  format: text
package config
