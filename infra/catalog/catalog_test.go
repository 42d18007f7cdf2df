package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/logvault/core/category"
	"github.com/kilianp07/logvault/core/factory"
)

const categoriesYAML = `categories:
  - category: Production
    enabled: true
    data_folder: /data/prod
    file_name_pattern: prod_{date}
    retention_days: 30
    auto_purge: true
    backup_schedule: Weekly
    backup_time: "02:30"
    backup_day_of_week: Sunday
    backup_folder: /backup/prod
  - category: Audit
    enabled: false
`

func TestFileProviderYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yaml")
	require.NoError(t, os.WriteFile(path, []byte(categoriesYAML), 0o644))

	p, err := category.NewProvider(factory.ModuleConfig{Type: "file", Conf: map[string]any{"path": path}})
	require.NoError(t, err)
	recs, err := p.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Production", recs[0].Category)
	assert.Equal(t, 30, recs[0].RetentionDays)
	assert.True(t, recs[0].AutoPurge)
	assert.Equal(t, "Sunday", recs[0].BackupDayOfWeek)

	cfg, err := recs[0].Parse()
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, cfg.BackupDayOfWeek)
	assert.Equal(t, category.TimeOfDay{Hour: 2, Minute: 30}, cfg.BackupTime)
}

func TestFileProviderJSONAndErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "categories.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"categories":[{"category":"Error","enabled":true,"data_folder":"e","file_name_pattern":"err"}]}`), 0o644))
	p, err := NewFileProvider(path)
	require.NoError(t, err)
	recs, err := p.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "err", recs[0].FileNamePattern)

	missing, err := NewFileProvider(filepath.Join(dir, "gone.yaml"))
	require.NoError(t, err)
	_, err = missing.GetAll(context.Background())
	assert.Error(t, err)

	_, err = NewFileProvider(filepath.Join(dir, "categories.ini"))
	assert.Error(t, err)
	_, err = category.NewProvider(factory.ModuleConfig{Type: "file"})
	assert.Error(t, err)
}

func TestFileProviderWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yaml")
	require.NoError(t, os.WriteFile(path, []byte(categoriesYAML), 0o644))
	p, err := NewFileProvider(path)
	require.NoError(t, err)

	changed := make(chan struct{}, 4)
	require.NoError(t, p.Watch(func(err error) {
		if err == nil {
			changed <- struct{}{}
		}
	}))
	defer func() { _ = p.Close() }()

	require.NoError(t, os.WriteFile(path, []byte("categories: []\n"), 0o644))
	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}
	recs, err := p.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestSQLiteProvider(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	p, err := NewSQLiteProvider(dsn)
	require.NoError(t, err)
	defer func() { _ = p.Close() }()
	ctx := context.Background()

	rec := category.Record{
		Category:        "Diagnostics",
		Enabled:         true,
		DataFolder:      "/data/diag",
		FileNamePattern: "diag_yyyyMMdd",
		RetentionSizeMB: 5,
		BackupSchedule:  "Monthly",
		BackupTime:      "23:00",
		BackupDay:       28,
		BackupFolder:    "/backup/diag",
	}
	require.NoError(t, p.Upsert(ctx, rec))
	require.NoError(t, p.Upsert(ctx, category.Record{Category: "Audit"}))
	rec.RetentionSizeMB = 8
	require.NoError(t, p.Upsert(ctx, rec))

	recs, err := p.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Audit", recs[0].Category)
	assert.Equal(t, rec, recs[1])

	reg := category.NewRegistry(p, nil)
	require.NoError(t, reg.Initialize(ctx))
	cfg, ok := reg.GetConfig(category.Diagnostics)
	require.True(t, ok)
	assert.Equal(t, 28, cfg.BackupDay)
	assert.Equal(t, category.Monthly, cfg.BackupSchedule)
}

func TestSQLiteProviderFactory(t *testing.T) {
	_, err := category.NewProvider(factory.ModuleConfig{Type: "sqlite"})
	assert.Error(t, err)

	p, err := category.NewProvider(factory.ModuleConfig{Type: "sqlite", Conf: map[string]any{"dsn": filepath.Join(t.TempDir(), "c.db")}})
	require.NoError(t, err)
	recs, err := p.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recs)
	require.NoError(t, p.(*SQLiteProvider).Close())
}
