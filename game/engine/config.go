package engine

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

const (
	// LevelFileExt is the extension of a plain level pack
	LevelFileExt = ".dat"
	// CompressedExt is appended to LevelFileExt for zstd compressed packs
	CompressedExt = ".zst"
)

// zstd frame magic number, little endian
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// DecodeLevelData parses level data that may be zstd compressed. Compressed
// data is recognised by its frame header, not by file name.
func DecodeLevelData(data []byte, source string) ([]*Level, error) {
	if bytes.HasPrefix(data, zstdMagic) {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer dec.Close()

		plain, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress %s: %w", source, err)
		}
		data = plain
	}
	return Parse(data, source)
}

// EncodeLevelData compresses plain level text with zstd.
func EncodeLevelData(plain []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(plain, nil), nil
}

// PackName returns the pack name for a level file path, or "" if the file is
// not a level pack.
func PackName(path string) string {
	base := filepath.Base(path)
	if strings.HasSuffix(base, LevelFileExt+CompressedExt) {
		return strings.TrimSuffix(base, LevelFileExt+CompressedExt)
	}
	if strings.HasSuffix(base, LevelFileExt) {
		return strings.TrimSuffix(base, LevelFileExt)
	}
	return ""
}

// LoadLevelFile reads and parses one level file. An empty result is reported
// as ErrNoLevels.
func LoadLevelFile(path string) ([]*Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	name := PackName(path)
	if name == "" {
		name = filepath.Base(path)
	}

	levels, err := DecodeLevelData(data, name)
	if err != nil {
		return nil, err
	}
	if len(levels) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoLevels)
	}
	return levels, nil
}

// LoadLevelsByName loads the pack called name from dir, preferring the plain
// file over the compressed one.
func LoadLevelsByName(dir, name string) ([]*Level, error) {
	name = strings.TrimSuffix(strings.TrimSuffix(name, CompressedExt), LevelFileExt)

	for _, candidate := range []string{name + LevelFileExt, name + LevelFileExt + CompressedExt} {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			return LoadLevelFile(path)
		}
	}
	return nil, fmt.Errorf("level pack '%s': %w", name, os.ErrNotExist)
}
