// Package artifact stores cached results as zstd-compressed JSON files.
// Writes go to a temporary file in the target directory that is renamed
// into place, so readers never observe a partial file.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// ErrFormat indicates a file that is not valid compressed JSON.
var ErrFormat = errors.New("artifact: malformed file")

// Write encodes v to path, creating parent directories and replacing any
// existing file atomically.
func Write(path string, v any) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("artifact: create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("artifact: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	zw, err := zstd.NewWriter(tmp, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return fmt.Errorf("artifact: %w", err)
	}
	if err = json.NewEncoder(zw).Encode(v); err != nil {
		zw.Close()
		return fmt.Errorf("artifact: encode %s: %w", path, err)
	}
	if err = zw.Close(); err != nil {
		return fmt.Errorf("artifact: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("artifact: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("artifact: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("artifact: %w", err)
	}
	return nil
}

// Read decodes path into v. A missing file yields an error matching
// fs.ErrNotExist; undecodable content one matching ErrFormat.
func Read(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("artifact: %w", err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return fmt.Errorf("artifact: %w", err)
	}
	defer zr.Close()

	if err := json.NewDecoder(zr).Decode(v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrFormat, path, err)
	}
	return nil
}
