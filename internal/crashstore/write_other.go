//go:build !unix

package crashstore

import (
	"os"
	"path/filepath"
)

// writeAtomic writes body to dir/name via a temp file and a rename.
func writeAtomic(dir, name string, body []byte) error {
	tmpPath := filepath.Join(dir, "."+name+".tmp")
	if err := os.WriteFile(tmpPath, body, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, filepath.Join(dir, name)); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
