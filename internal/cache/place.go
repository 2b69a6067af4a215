package cache

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FixPermissions sets 0777 on every regular file under dir, working
// around archives that drop the execute bit on the binaries they
// contain. On Windows os.Chmod only controls the read-only attribute,
// so there this just leaves every file writable.
func FixPermissions(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		return os.Chmod(path, 0o777)
	})
}

// FindPrimaryExecutable locates a tool's main binary within its
// extracted archive tree: the single regular file when there's only
// one, otherwise the file whose stem matches alias (case-insensitive),
// falling back to repo's last path segment.
func FindPrimaryExecutable(dir, alias, repo string) (string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to walk extracted tree: %w", err)
	}

	switch len(files) {
	case 0:
		return "", fmt.Errorf("no files found in extracted archive")
	case 1:
		return files[0], nil
	}

	if match := findByStem(files, alias); match != "" {
		return match, nil
	}

	_, repoName := splitRepo(repo)
	if match := findByStem(files, repoName); match != "" {
		return match, nil
	}

	return "", fmt.Errorf("could not determine primary executable among %d extracted files", len(files))
}

func findByStem(files []string, stem string) string {
	for _, f := range files {
		name := filepath.Base(f)
		base := strings.TrimSuffix(name, filepath.Ext(name))
		if strings.EqualFold(base, stem) || strings.EqualFold(name, stem) {
			return f
		}
	}
	return ""
}
