package otfile

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Collect раскрывает список файлов и директорий в отсортированный список файлов
// с одним из заданных расширений. Директории обходятся рекурсивно.
func Collect(paths []string, suffixes []string) ([]string, error) {
	if len(suffixes) == 0 {
		return nil, fmt.Errorf("no file suffixes given")
	}
	normalized := make([]string, len(suffixes))
	for i, suffix := range suffixes {
		suffix = strings.ToLower(suffix)
		if !strings.HasPrefix(suffix, ".") {
			suffix = "." + suffix
		}
		normalized[i] = suffix
	}

	matches := func(path string) bool {
		lower := strings.ToLower(path)
		for _, suffix := range normalized {
			if strings.HasSuffix(lower, suffix) {
				return true
			}
		}
		return false
	}

	found := make(map[string]bool)
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to access %s: %w", path, err)
		}

		if !info.IsDir() {
			if matches(path) {
				found[filepath.Clean(path)] = true
			}
			continue
		}

		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && matches(p) {
				found[filepath.Clean(p)] = true
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", path, err)
		}
	}

	files := make([]string, 0, len(found))
	for file := range found {
		files = append(files, file)
	}
	sort.Strings(files)
	return files, nil
}
