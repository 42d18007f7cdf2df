package logfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kilianp07/logvault/core/category"
)

// DateTokens are the placeholders replaced by the current date (yyyyMMdd)
// in a file name pattern.
var DateTokens = []string{"{date}", "yyyyMMdd"}

const dateLayout = "20060102"

// FileName substitutes the date tokens of pattern with t and appends the
// extension unless the pattern already carries it.
func FileName(pattern string, t time.Time) string {
	name := pattern
	for _, tok := range DateTokens {
		name = strings.ReplaceAll(name, tok, t.Format(dateLayout))
	}
	if !strings.EqualFold(filepath.Ext(name), Extension) {
		name += Extension
	}
	return name
}

// EnsureFile creates path with the header line when it does not exist.
// Existing files are left untouched.
func EnsureFile(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create log file: %w", err)
	}
	_, werr := f.WriteString(Header + "\n")
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return fmt.Errorf("write header: %w", werr)
	}
	return nil
}

// Resolver maps a category to its current log file.
type Resolver struct {
	lookup category.Lookup
	now    func() time.Time
}

// NewResolver creates a Resolver reading configurations from lookup. A nil
// now defaults to time.Now.
func NewResolver(lookup category.Lookup, now func() time.Time) *Resolver {
	if now == nil {
		now = time.Now
	}
	return &Resolver{lookup: lookup, now: now}
}

// ResolveLogFile returns the absolute path of the current file of c,
// creating the folder and the header line when needed. It returns an empty
// path and no error when c is unconfigured or disabled, without touching the
// disk.
func (r *Resolver) ResolveLogFile(c category.Category) (string, error) {
	cfg, ok := r.lookup.GetConfig(c)
	if !ok || !cfg.Enabled {
		return "", nil
	}
	path, err := filepath.Abs(filepath.Join(cfg.DataFolder, FileName(cfg.FileNamePattern, r.now())))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create data folder: %w", err)
	}
	if err := EnsureFile(path); err != nil {
		return "", err
	}
	return path, nil
}
