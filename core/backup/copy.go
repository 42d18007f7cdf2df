package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// errSourceMissing marks a copy whose source folder does not exist.
var errSourceMissing = errors.New("source folder does not exist")

// errSameFolder marks a copy whose source and destination are one folder.
var errSameFolder = errors.New("source and destination are the same folder")

// copyTree mirrors every file and folder below src into dst, overwriting
// files with the same relative path. Modification times are preserved so
// retention keeps judging copies by the age of the original. When dst lies
// inside src it is not descended into.
func copyTree(ctx context.Context, src, dst string) (int, error) {
	info, err := os.Stat(src)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, errSourceMissing
	}
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("%s is not a directory", src)
	}
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return 0, err
	}
	absDst, err := filepath.Abs(dst)
	if err != nil {
		return 0, err
	}
	if absDst == absSrc {
		return 0, fmt.Errorf("%w: %s", errSameFolder, absSrc)
	}
	if err := os.MkdirAll(absDst, 0o755); err != nil {
		return 0, fmt.Errorf("create %s: %w", absDst, err)
	}

	nested := absDst != absSrc && isWithin(absDst, absSrc)
	copied := 0
	err = filepath.WalkDir(absSrc, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if nested && d.IsDir() && isWithin(path, absDst) {
			return filepath.SkipDir
		}
		rel, err := filepath.Rel(absSrc, path)
		if err != nil {
			return err
		}
		target := filepath.Join(absDst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if err := copyFile(path, target); err != nil {
			return err
		}
		copied++
		return nil
	})
	return copied, err
}

func isWithin(path, dir string) bool {
	return path == dir || strings.HasPrefix(path, dir+string(filepath.Separator))
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()
	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err = out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
