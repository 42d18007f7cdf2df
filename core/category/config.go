package category

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ScheduleKind selects how backups of a category are triggered.
type ScheduleKind int

const (
	Manual ScheduleKind = iota
	Daily
	Weekly
	Monthly
)

func (k ScheduleKind) String() string {
	switch k {
	case Daily:
		return "Daily"
	case Weekly:
		return "Weekly"
	case Monthly:
		return "Monthly"
	default:
		return "Manual"
	}
}

// ParseScheduleKind accepts the schedule names case-insensitively. An empty
// string means Manual.
func ParseScheduleKind(s string) (ScheduleKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "manual":
		return Manual, nil
	case "daily":
		return Daily, nil
	case "weekly":
		return Weekly, nil
	case "monthly":
		return Monthly, nil
	}
	return Manual, fmt.Errorf("unknown backup schedule %q", s)
}

// TimeOfDay is an hour and minute in local time.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS"; seconds are ignored.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TimeOfDay{}, nil
	}
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q", s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

// Matches reports whether now falls in the same hour and minute.
func (t TimeOfDay) Matches(now time.Time) bool {
	return now.Hour() == t.Hour && now.Minute() == t.Minute
}

// ParseWeekday accepts full or three-letter English day names.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || (len(s) == 3 && strings.HasPrefix(name, s)) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown day of week %q", s)
}

// Config is the validated policy of one category.
type Config struct {
	Category        Category
	Enabled         bool
	DataFolder      string
	FileNamePattern string
	// RetentionDays deletes files older than this many days. Zero disables.
	RetentionDays int
	// RetentionSizeMB rotates the current file above this size. Zero disables.
	RetentionSizeMB int
	AutoPurge       bool

	BackupSchedule  ScheduleKind
	BackupTime      TimeOfDay
	BackupDayOfWeek time.Weekday
	BackupDay       int
	BackupFolder    string

	SecondaryAssetSourcePath string
	SecondaryAssetBackupPath string
}

// HasSecondaryAssets reports whether both secondary asset paths are set.
func (c Config) HasSecondaryAssets() bool {
	return c.SecondaryAssetSourcePath != "" && c.SecondaryAssetBackupPath != ""
}

// Record is the raw form of a category configuration as stored by a
// provider. Field tags are shared by the koanf, mapstructure and SQLite
// decoders.
type Record struct {
	Category                 string `json:"category"`
	Enabled                  bool   `json:"enabled"`
	DataFolder               string `json:"data_folder"`
	FileNamePattern          string `json:"file_name_pattern"`
	RetentionDays            int    `json:"retention_days"`
	RetentionSizeMB          int    `json:"retention_size_mb"`
	AutoPurge                bool   `json:"auto_purge"`
	BackupSchedule           string `json:"backup_schedule"`
	BackupTime               string `json:"backup_time"`
	BackupDayOfWeek          string `json:"backup_day_of_week"`
	BackupDay                int    `json:"backup_day"`
	BackupFolder             string `json:"backup_folder"`
	SecondaryAssetSourcePath string `json:"secondary_asset_source_path"`
	SecondaryAssetBackupPath string `json:"secondary_asset_backup_path"`
}

// Parse validates the record and converts it to a Config.
//
//gocyclo:ignore
func (r Record) Parse() (Config, error) {
	cat, err := Parse(r.Category)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Category:                 cat,
		Enabled:                  r.Enabled,
		DataFolder:               strings.TrimSpace(r.DataFolder),
		FileNamePattern:          strings.TrimSpace(r.FileNamePattern),
		RetentionDays:            r.RetentionDays,
		RetentionSizeMB:          r.RetentionSizeMB,
		AutoPurge:                r.AutoPurge,
		BackupDay:                r.BackupDay,
		BackupFolder:             strings.TrimSpace(r.BackupFolder),
		SecondaryAssetSourcePath: strings.TrimSpace(r.SecondaryAssetSourcePath),
		SecondaryAssetBackupPath: strings.TrimSpace(r.SecondaryAssetBackupPath),
	}
	if cfg.RetentionDays < 0 || cfg.RetentionSizeMB < 0 {
		return Config{}, fmt.Errorf("%s: retention values must not be negative", cat)
	}
	if cfg.Enabled && (cfg.DataFolder == "" || cfg.FileNamePattern == "") {
		return Config{}, fmt.Errorf("%s: data folder and file name pattern are required", cat)
	}
	if cfg.BackupSchedule, err = ParseScheduleKind(r.BackupSchedule); err != nil {
		return Config{}, fmt.Errorf("%s: %w", cat, err)
	}
	if cfg.BackupTime, err = ParseTimeOfDay(r.BackupTime); err != nil {
		return Config{}, fmt.Errorf("%s: %w", cat, err)
	}
	switch cfg.BackupSchedule {
	case Weekly:
		if cfg.BackupDayOfWeek, err = ParseWeekday(r.BackupDayOfWeek); err != nil {
			return Config{}, fmt.Errorf("%s: %w", cat, err)
		}
	case Monthly:
		if cfg.BackupDay < 1 || cfg.BackupDay > 28 {
			return Config{}, fmt.Errorf("%s: backup day %d out of range 1..28", cat, cfg.BackupDay)
		}
	}
	if sameDir(cfg.DataFolder, cfg.BackupFolder) {
		return Config{}, fmt.Errorf("%s: backup folder must differ from the data folder", cat)
	}
	if sameDir(cfg.SecondaryAssetSourcePath, cfg.SecondaryAssetBackupPath) {
		return Config{}, fmt.Errorf("%s: secondary asset backup path must differ from its source", cat)
	}
	if cfg.BackupSchedule != Manual && cfg.BackupFolder == "" {
		return Config{}, errors.New(string(cat) + ": backup folder is required for scheduled backups")
	}
	return cfg, nil
}

// sameDir reports whether a and b are both set and resolve to the same
// directory.
func sameDir(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
