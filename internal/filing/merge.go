package filing

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// Merge moves src into dest. A missing dest is created by renaming src.
// Otherwise every file under src replaces the file at the same relative
// path under dest and src is removed. A missing src is a no-op, so a
// repeated call with the same arguments changes nothing.
func Merge(src, dest string) error {
	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("stat merge source: %w", err)
	}

	_, destErr := os.Stat(dest)

	switch {
	case errors.Is(destErr, fs.ErrNotExist):
		mkdirErr := os.MkdirAll(filepath.Dir(dest), 0o750)
		if mkdirErr != nil {
			return fmt.Errorf("create merge parent: %w", mkdirErr)
		}

		renameErr := os.Rename(src, dest)
		if renameErr != nil {
			return fmt.Errorf("move %s to %s: %w", src, dest, renameErr)
		}

		return nil
	case destErr != nil:
		return fmt.Errorf("stat merge destination: %w", destErr)
	}

	var dirs []string

	walkErr := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(src, path)
		if relErr != nil {
			return relErr
		}

		target := filepath.Join(dest, rel)

		if d.IsDir() {
			dirs = append(dirs, path)

			return os.MkdirAll(target, 0o750)
		}

		return replaceFile(path, target)
	})
	if walkErr != nil {
		return fmt.Errorf("merge %s into %s: %w", src, dest, walkErr)
	}

	// Deepest first so every directory is empty when removed.
	slices.Reverse(dirs)

	for _, dir := range dirs {
		removeErr := os.Remove(dir)
		if removeErr != nil && !errors.Is(removeErr, fs.ErrNotExist) {
			return fmt.Errorf("remove merged directory: %w", removeErr)
		}
	}

	return nil
}

// replaceFile moves src to target, deleting a same-named target first.
func replaceFile(src, target string) error {
	info, err := os.Lstat(target)

	switch {
	case err == nil && info.IsDir():
		removeErr := os.RemoveAll(target)
		if removeErr != nil {
			return removeErr
		}
	case err == nil:
		removeErr := os.Remove(target)
		if removeErr != nil {
			return removeErr
		}
	case !errors.Is(err, fs.ErrNotExist):
		return err
	}

	return os.Rename(src, target)
}

// Files lists regular files under root as slash-separated relative paths in
// walk order. A missing root yields nothing.
func Files(root string) ([]string, error) {
	var files []string

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == root {
				return fs.SkipAll
			}

			return err
		}

		if !d.Type().IsRegular() {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		files = append(files, filepath.ToSlash(rel))

		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("list %s: %w", root, walkErr)
	}

	return files, nil
}
