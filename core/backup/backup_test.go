package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/logvault/core/category"
	"github.com/kilianp07/logvault/core/events"
	"github.com/kilianp07/logvault/core/monitoring"
	"github.com/kilianp07/logvault/internal/eventbus"
)

// 2024-05-06 is a Monday.
func at(day, hour, minute int) time.Time {
	return time.Date(2024, 5, day, hour, minute, 30, 0, time.Local)
}

func TestIsBackupDue(t *testing.T) {
	tod := category.TimeOfDay{Hour: 3, Minute: 15}
	cases := []struct {
		name string
		cfg  category.Config
		now  time.Time
		want bool
	}{
		{"manual never", category.Config{BackupSchedule: category.Manual, BackupTime: tod}, at(6, 3, 15), false},
		{"daily match", category.Config{BackupSchedule: category.Daily, BackupTime: tod}, at(9, 3, 15), true},
		{"daily wrong minute", category.Config{BackupSchedule: category.Daily, BackupTime: tod}, at(9, 3, 16), false},
		{"daily wrong hour", category.Config{BackupSchedule: category.Daily, BackupTime: tod}, at(9, 4, 15), false},
		{"weekly configured day", category.Config{BackupSchedule: category.Weekly, BackupTime: tod, BackupDayOfWeek: time.Thursday}, at(9, 3, 15), true},
		{"weekly monday is not special", category.Config{BackupSchedule: category.Weekly, BackupTime: tod, BackupDayOfWeek: time.Thursday}, at(6, 3, 15), false},
		{"monthly configured day", category.Config{BackupSchedule: category.Monthly, BackupTime: tod, BackupDay: 17}, at(17, 3, 15), true},
		{"monthly first is not special", category.Config{BackupSchedule: category.Monthly, BackupTime: tod, BackupDay: 17}, at(1, 3, 15), false},
		{"monthly wrong minute", category.Config{BackupSchedule: category.Monthly, BackupTime: tod, BackupDay: 17}, at(17, 3, 14), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			first := IsBackupDue(c.cfg, c.now)
			assert.Equal(t, c.want, first)
			assert.Equal(t, first, IsBackupDue(c.cfg, c.now))
		})
	}
}

func TestScheduleForVariants(t *testing.T) {
	assert.Equal(t, category.Manual, ScheduleFor(category.Config{}).Kind())
	s := ScheduleFor(category.Config{BackupSchedule: category.Weekly, BackupDayOfWeek: time.Sunday})
	require.IsType(t, WeeklySchedule{}, s)
	assert.Equal(t, time.Sunday, s.(WeeklySchedule).Day)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestBackupThenRestoreRoundTrip(t *testing.T) {
	root := t.TempDir()
	cfg := category.Config{
		Category:                 category.Production,
		DataFolder:               filepath.Join(root, "data"),
		BackupFolder:             filepath.Join(root, "backup"),
		SecondaryAssetSourcePath: filepath.Join(root, "images"),
		SecondaryAssetBackupPath: filepath.Join(root, "images-backup"),
	}
	writeFile(t, filepath.Join(cfg.DataFolder, "p_20240506.csv"), "Timestamp,Level,Message,Source\nrow\n")
	writeFile(t, filepath.Join(cfg.DataFolder, "archive", "old.csv"), "old content")
	writeFile(t, filepath.Join(cfg.SecondaryAssetSourcePath, "part-1.png"), "\x89PNG binary")

	bus := eventbus.New()
	sub := bus.Subscribe()
	e := NewEngine(nil, WithBus(bus))
	require.NoError(t, e.PerformBackup(context.Background(), cfg))

	ev := (<-sub).(events.BackupEvent)
	assert.Equal(t, "backup", ev.Action)
	assert.Equal(t, 3, ev.Files)
	assert.NotEmpty(t, ev.RunID)

	require.NoError(t, os.RemoveAll(cfg.DataFolder))
	require.NoError(t, os.RemoveAll(cfg.SecondaryAssetSourcePath))
	require.NoError(t, e.PerformRestore(context.Background(), cfg))

	for rel, want := range map[string]string{
		filepath.Join("data", "p_20240506.csv"):     "Timestamp,Level,Message,Source\nrow\n",
		filepath.Join("data", "archive", "old.csv"): "old content",
		filepath.Join("images", "part-1.png"):       "\x89PNG binary",
	} {
		got, err := os.ReadFile(filepath.Join(root, rel))
		require.NoError(t, err, rel)
		assert.Equal(t, want, string(got), rel)
	}
}

func TestBackupOverwritesAndKeepsModTime(t *testing.T) {
	root := t.TempDir()
	cfg := category.Config{Category: category.Audit, DataFolder: filepath.Join(root, "d"), BackupFolder: filepath.Join(root, "b")}
	src := filepath.Join(cfg.DataFolder, "a.csv")
	writeFile(t, src, "new")
	writeFile(t, filepath.Join(cfg.BackupFolder, "a.csv"), "stale and longer")
	old := time.Now().Add(-48 * time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(src, old, old))

	require.NoError(t, NewEngine(nil).PerformBackup(context.Background(), cfg))

	dst := filepath.Join(cfg.BackupFolder, "a.csv")
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(old))
}

func TestBackupMissingSourceIsNoop(t *testing.T) {
	root := t.TempDir()
	mon := monitoring.NewRecorder()
	cfg := category.Config{Category: category.Error, DataFolder: filepath.Join(root, "none"), BackupFolder: filepath.Join(root, "b")}
	e := NewEngine(nil, WithMonitor(mon))
	assert.NoError(t, e.PerformBackup(context.Background(), cfg))
	assert.NoError(t, e.PerformRestore(context.Background(), category.Config{Category: category.Error, DataFolder: filepath.Join(root, "d"), BackupFolder: filepath.Join(root, "nb")}))
	assert.Empty(t, mon.Errors())
}

func TestBackupWithoutFolderFails(t *testing.T) {
	mon := monitoring.NewRecorder()
	err := NewEngine(nil, WithMonitor(mon)).PerformBackup(context.Background(), category.Config{Category: category.Audit, DataFolder: t.TempDir()})
	assert.ErrorIs(t, err, ErrNoBackupFolder)
	require.Len(t, mon.Errors(), 1)
	assert.Equal(t, "backup", mon.Tags(0)["action"])
}

func TestBackupSkipsNestedDestination(t *testing.T) {
	root := t.TempDir()
	cfg := category.Config{Category: category.Audit, DataFolder: root, BackupFolder: filepath.Join(root, "backup")}
	writeFile(t, filepath.Join(root, "a.csv"), "a")
	e := NewEngine(nil)
	require.NoError(t, e.PerformBackup(context.Background(), cfg))
	require.NoError(t, e.PerformBackup(context.Background(), cfg))
	_, err := os.Stat(filepath.Join(root, "backup", "backup"))
	assert.True(t, os.IsNotExist(err))

	// restoring from the nested folder walks it fully
	writeFile(t, filepath.Join(root, "backup", "sub", "b.csv"), "b")
	require.NoError(t, e.PerformRestore(context.Background(), cfg))
	assert.FileExists(t, filepath.Join(root, "sub", "b.csv"))
}

func TestBackupIntoSourceFolderFailsWithoutTouchingFiles(t *testing.T) {
	root := t.TempDir()
	data := filepath.Join(root, "logs")
	content := "Timestamp,Level,Message,Source\nrow\n"
	writeFile(t, filepath.Join(data, "p_20240101.csv"), content)
	mon := monitoring.NewRecorder()
	e := NewEngine(nil, WithMonitor(mon))

	// same folder spelled differently
	cfg := category.Config{Category: category.Production, DataFolder: data, BackupFolder: filepath.Join(root, ".", "logs") + string(filepath.Separator)}
	err := e.PerformBackup(context.Background(), cfg)
	assert.ErrorIs(t, err, errSameFolder)
	err = e.PerformRestore(context.Background(), cfg)
	assert.ErrorIs(t, err, errSameFolder)
	assert.Len(t, mon.Errors(), 2)

	got, err := os.ReadFile(filepath.Join(data, "p_20240101.csv"))
	require.NoError(t, err)
	assert.Equal(t, content, string(got))
}

func TestEngineDueOncePerMinute(t *testing.T) {
	now := at(6, 3, 15)
	cfg := category.Config{
		Category:       category.Production,
		BackupSchedule: category.Daily,
		BackupTime:     category.TimeOfDay{Hour: 3, Minute: 15},
		DataFolder:     t.TempDir(),
		BackupFolder:   t.TempDir(),
	}
	e := NewEngine(nil, WithClock(func() time.Time { return now }))
	assert.True(t, e.IsBackupDue(cfg, now))
	require.NoError(t, e.PerformBackup(context.Background(), cfg))
	assert.False(t, e.IsBackupDue(cfg, now.Add(10*time.Second)))
	assert.True(t, e.IsBackupDue(cfg, now.Add(24*time.Hour)))
}

func TestBackupHonorsCancellation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "d", "a.csv"), "a")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewEngine(nil).PerformBackup(ctx, category.Config{Category: category.Audit, DataFolder: filepath.Join(root, "d"), BackupFolder: filepath.Join(root, "b")})
	assert.ErrorIs(t, err, context.Canceled)
}
