package security

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrPathOutside путь выходит за пределы разрешенной директории
var ErrPathOutside = errors.New("path is outside the data directory")

// ResolveWithinDirectory превращает путь запроса в абсолютный путь внутри baseDir.
// Относительные пути считаются от baseDir. Символические ссылки раскрываются,
// поэтому ссылка внутри baseDir на внешнюю директорию тоже отклоняется.
func ResolveWithinDirectory(requestPath, baseDir string) (string, error) {
	if strings.TrimSpace(requestPath) == "" {
		return "", fmt.Errorf("%w: empty path", ErrPathOutside)
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve data directory: %w", err)
	}
	canonicalBase, err := filepath.EvalSymlinks(absBase)
	if err != nil {
		return "", fmt.Errorf("failed to resolve data directory symlinks: %w", err)
	}

	path := requestPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(absBase, path)
	}
	path = filepath.Clean(path)

	canonical := canonicalPath(path)
	rel, err := filepath.Rel(canonicalBase, canonical)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrPathOutside, requestPath)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %s", ErrPathOutside, requestPath)
	}
	return canonical, nil
}

// canonicalPath раскрывает символические ссылки пути. Для несуществующего пути
// раскрывается ближайшая существующая родительская директория.
func canonicalPath(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}

	check := path
	for {
		parent := filepath.Dir(check)
		if parent == check {
			return path
		}
		if resolved, err := filepath.EvalSymlinks(parent); err == nil {
			rel, _ := filepath.Rel(parent, path)
			return filepath.Join(resolved, rel)
		}
		check = parent
	}
}
