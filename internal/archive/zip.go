// Package archive assembles deployment artifacts atomically: output is
// staged into a temporary file inside the destination directory and only
// renamed to its final name once complete, so an interrupted or failed
// packaging attempt never leaves a partial artifact a consumer could
// mistake for valid output.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Entry maps one source file on disk to its path inside the archive.
type Entry struct {
	Source string
	Name   string
}

// CollectDir walks srcDir recursively and returns entries for every
// regular file, placed under prefix inside the archive.
func CollectDir(srcDir string, prefix string) ([]Entry, error) {
	var entries []Entry
	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		entries = append(entries, Entry{
			Source: path,
			Name:   filepath.ToSlash(filepath.Join(prefix, rel)),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// WriteZip creates a zip archive at destPath containing the given entries,
// sorted by archive name for reproducible output. It returns the archive
// size in bytes. On any failure the destination path is left untouched.
func WriteZip(destPath string, entries []Entry) (int64, error) {
	sorted := append([]Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".stackforge-*.zip.tmp")
	if err != nil {
		return 0, fmt.Errorf("failed to create staging file for %s: %w", destPath, err)
	}
	tmpPath := tmp.Name()

	size, err := writeZipEntries(tmp, sorted)
	if err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to assemble %s: %w", destPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to finalize %s: %w", destPath, err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to place artifact %s: %w", destPath, err)
	}
	return size, nil
}

func writeZipEntries(f *os.File, entries []Entry) (int64, error) {
	w := zip.NewWriter(f)
	for _, entry := range entries {
		src, err := os.Open(entry.Source)
		if err != nil {
			w.Close()
			return 0, err
		}
		dst, err := w.Create(entry.Name)
		if err != nil {
			src.Close()
			w.Close()
			return 0, err
		}
		if _, err := io.Copy(dst, src); err != nil {
			src.Close()
			w.Close()
			return 0, err
		}
		src.Close()
	}
	if err := w.Close(); err != nil {
		return 0, err
	}

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// WriteFileAtomic writes data to destPath through the same stage-then-rename
// protocol WriteZip uses.
func WriteFileAtomic(destPath string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".stackforge-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create staging file for %s: %w", destPath, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", destPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize %s: %w", destPath, err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to place %s: %w", destPath, err)
	}
	return nil
}
