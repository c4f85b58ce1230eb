package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

const filePerm = 0o644

// WriteFileAtomic replaces path with data so readers see either the old or the
// new content, never a partial write.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := renameio.WriteFile(path, data, filePerm); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	// persist the rename itself
	return syncDir(dir)
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("failed to open directory %s: %w", dir, err)
	}
	defer d.Close()

	if err := d.Sync(); err != nil {
		return fmt.Errorf("failed to sync directory %s: %w", dir, err)
	}
	return nil
}
