package logfile

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kilianp07/logvault/core/category"
	"github.com/kilianp07/logvault/core/logger"
)

var (
	// ErrNoConfig is returned when a category has no configuration.
	ErrNoConfig = errors.New("category not configured")
	// ErrDisabled is returned when a category is configured but disabled.
	ErrDisabled = errors.New("category disabled")
	// ErrNoFolder is returned when the data folder of a category is missing.
	ErrNoFolder = errors.New("data folder does not exist")
	// ErrNoFile is returned when a log file to read is missing.
	ErrNoFile = errors.New("log file does not exist")
)

// FileInfo describes one log file for display.
type FileInfo struct {
	FileName      string
	FullPath      string
	LastModified  time.Time
	DisplaySizeKB string
}

// Reader lists and parses log files for display.
type Reader struct {
	lookup category.Lookup
	log    logger.Logger
}

// NewReader creates a Reader.
func NewReader(lookup category.Lookup, log logger.Logger) *Reader {
	return &Reader{lookup: lookup, log: logger.OrNop(log)}
}

// GetLogFiles lists the log files of c, newest first. The returned error
// wraps ErrNoConfig, ErrDisabled or ErrNoFolder when there is nothing to list.
func (r *Reader) GetLogFiles(c category.Category) ([]FileInfo, error) {
	cfg, ok := r.lookup.GetConfig(c)
	if !ok {
		r.log.Warnf("list %s: %v", c, ErrNoConfig)
		return nil, fmt.Errorf("%s: %w", c, ErrNoConfig)
	}
	if !cfg.Enabled {
		r.log.Infof("list %s: %v", c, ErrDisabled)
		return nil, fmt.Errorf("%s: %w", c, ErrDisabled)
	}
	entries, err := os.ReadDir(cfg.DataFolder)
	if errors.Is(err, fs.ErrNotExist) {
		r.log.Warnf("list %s: %v: %s", c, ErrNoFolder, cfg.DataFolder)
		return nil, fmt.Errorf("%s: %w: %s", c, ErrNoFolder, cfg.DataFolder)
	}
	if err != nil {
		return nil, fmt.Errorf("read data folder: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), Extension) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		full, err := filepath.Abs(filepath.Join(cfg.DataFolder, e.Name()))
		if err != nil {
			full = filepath.Join(cfg.DataFolder, e.Name())
		}
		files = append(files, FileInfo{
			FileName:      e.Name(),
			FullPath:      full,
			LastModified:  info.ModTime(),
			DisplaySizeKB: fmt.Sprintf("%d KB", info.Size()/1024),
		})
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].LastModified.After(files[j].LastModified)
	})
	return files, nil
}

// ReadLogFile parses path into entries sorted by timestamp, newest first.
// The header, blank lines and rows that do not parse are skipped.
func (r *Reader) ReadLogFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		r.log.Warnf("read %s: %v", path, ErrNoFile)
		return nil, fmt.Errorf("%s: %w", path, ErrNoFile)
	}
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var out []Entry
	skipped := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	first := true
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if first {
			first = false
			line = strings.TrimPrefix(line, "\ufeff")
			if line == Header {
				continue
			}
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		e, err := ParseLine(line)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan log file: %w", err)
	}
	if skipped > 0 {
		r.log.Debugw("skipped malformed rows", map[string]any{"path": path, "rows": skipped})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}
