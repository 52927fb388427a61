package input

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"
)

// Unit is one file ready for review.
type Unit struct {
	Path   string
	Source string
}

// Skipped records a file that was seen but not collected.
type Skipped struct {
	Path   string
	Reason string
}

// Options controls collection.
type Options struct {
	// Extensions filters directory walks; files named explicitly on
	// the command line bypass it. Empty means no filter.
	Extensions []string
	// MaxBytes rejects files larger than this when positive.
	MaxBytes int64
}

// Collect resolves the given file and directory paths into review
// units. Directories are walked recursively. Empty files and files
// that are not valid UTF-8 are skipped with a recorded reason rather
// than failing the batch. Results are sorted by path.
func Collect(paths []string, opts Options) ([]Unit, []Skipped, error) {
	if len(paths) == 0 {
		return nil, nil, fmt.Errorf("input: no paths given")
	}

	var units []Unit
	var skipped []Skipped
	seen := make(map[string]bool)

	add := func(path string, explicit bool) error {
		if seen[path] {
			return nil
		}
		seen[path] = true
		if !explicit && !matchesExtension(path, opts.Extensions) {
			return nil
		}
		unit, reason, err := readUnit(path, opts.MaxBytes)
		if err != nil {
			return err
		}
		if reason != "" {
			slog.Debug("file skipped", "path", path, "reason", reason)
			skipped = append(skipped, Skipped{Path: path, Reason: reason})
			return nil
		}
		units = append(units, unit)
		return nil
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, nil, fmt.Errorf("input: %w", err)
		}
		if !info.IsDir() {
			if err := add(p, true); err != nil {
				return nil, nil, err
			}
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if strings.HasPrefix(d.Name(), ".") && path != p {
					return filepath.SkipDir
				}
				return nil
			}
			return add(path, false)
		})
		if err != nil {
			return nil, nil, fmt.Errorf("input: walking %s: %w", p, err)
		}
	}

	sort.Slice(units, func(i, j int) bool { return units[i].Path < units[j].Path })
	sort.Slice(skipped, func(i, j int) bool { return skipped[i].Path < skipped[j].Path })
	return units, skipped, nil
}

// readUnit loads one file. A non-empty reason means the file is
// deliberately skipped.
func readUnit(path string, maxBytes int64) (Unit, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Unit{}, "", fmt.Errorf("input: %w", err)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return Unit{}, fmt.Sprintf("larger than %d bytes", maxBytes), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Unit{}, "", fmt.Errorf("input: reading %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return Unit{}, "empty file", nil
	}
	if !utf8.Valid(data) {
		return Unit{}, "not valid UTF-8", nil
	}
	return Unit{Path: path, Source: string(data)}, "", nil
}

func matchesExtension(path string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}
