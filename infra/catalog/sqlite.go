package catalog

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/logvault/core/category"
)

const schema = `CREATE TABLE IF NOT EXISTS log_categories (
    category TEXT PRIMARY KEY,
    enabled INTEGER NOT NULL DEFAULT 0,
    data_folder TEXT NOT NULL DEFAULT '',
    file_name_pattern TEXT NOT NULL DEFAULT '',
    retention_days INTEGER NOT NULL DEFAULT 0,
    retention_size_mb INTEGER NOT NULL DEFAULT 0,
    auto_purge INTEGER NOT NULL DEFAULT 0,
    backup_schedule TEXT NOT NULL DEFAULT 'Manual',
    backup_time TEXT NOT NULL DEFAULT '',
    backup_day_of_week TEXT NOT NULL DEFAULT '',
    backup_day INTEGER NOT NULL DEFAULT 0,
    backup_folder TEXT NOT NULL DEFAULT '',
    secondary_asset_source_path TEXT NOT NULL DEFAULT '',
    secondary_asset_backup_path TEXT NOT NULL DEFAULT ''
);`

const columns = `category, enabled, data_folder, file_name_pattern, retention_days,
    retention_size_mb, auto_purge, backup_schedule, backup_time, backup_day_of_week,
    backup_day, backup_folder, secondary_asset_source_path, secondary_asset_backup_path`

// SQLiteProvider keeps category configurations in a SQLite table.
type SQLiteProvider struct {
	db *sql.DB
}

// NewSQLiteProvider opens or creates the database at dsn and ensures schema.
func NewSQLiteProvider(dsn string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteProvider{db: db}, nil
}

// GetAll returns every stored record ordered by category.
func (p *SQLiteProvider) GetAll(ctx context.Context) ([]category.Record, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+columns+` FROM log_categories ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []category.Record
	for rows.Next() {
		var r category.Record
		if err := rows.Scan(&r.Category, &r.Enabled, &r.DataFolder, &r.FileNamePattern,
			&r.RetentionDays, &r.RetentionSizeMB, &r.AutoPurge, &r.BackupSchedule,
			&r.BackupTime, &r.BackupDayOfWeek, &r.BackupDay, &r.BackupFolder,
			&r.SecondaryAssetSourcePath, &r.SecondaryAssetBackupPath); err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Upsert inserts r or replaces the stored record of the same category.
func (p *SQLiteProvider) Upsert(ctx context.Context, r category.Record) error {
	_, err := p.db.ExecContext(ctx, `INSERT OR REPLACE INTO log_categories (`+columns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Category, r.Enabled, r.DataFolder, r.FileNamePattern, r.RetentionDays,
		r.RetentionSizeMB, r.AutoPurge, r.BackupSchedule, r.BackupTime, r.BackupDayOfWeek,
		r.BackupDay, r.BackupFolder, r.SecondaryAssetSourcePath, r.SecondaryAssetBackupPath)
	return err
}

// Close closes the underlying database.
func (p *SQLiteProvider) Close() error { return p.db.Close() }
