// Package backup decides when a category is due for backup and copies its
// folders to and from the backup location.
package backup

import (
	"time"

	"github.com/kilianp07/logvault/core/category"
)

// Schedule is the closed set of backup triggers. Due is evaluated against
// the wall clock at minute granularity: a run missed while the process was
// down is not caught up.
type Schedule interface {
	Due(now time.Time) bool
	Kind() category.ScheduleKind
}

// ManualSchedule never fires; backups only run on request.
type ManualSchedule struct{}

func (ManualSchedule) Due(time.Time) bool          { return false }
func (ManualSchedule) Kind() category.ScheduleKind { return category.Manual }

// DailySchedule fires every day at At.
type DailySchedule struct {
	At category.TimeOfDay
}

func (s DailySchedule) Due(now time.Time) bool    { return s.At.Matches(now) }
func (DailySchedule) Kind() category.ScheduleKind { return category.Daily }

// WeeklySchedule fires at At on Day.
type WeeklySchedule struct {
	At  category.TimeOfDay
	Day time.Weekday
}

func (s WeeklySchedule) Due(now time.Time) bool {
	return s.At.Matches(now) && now.Weekday() == s.Day
}
func (WeeklySchedule) Kind() category.ScheduleKind { return category.Weekly }

// MonthlySchedule fires at At on day Day (1..28) of every month.
type MonthlySchedule struct {
	At  category.TimeOfDay
	Day int
}

func (s MonthlySchedule) Due(now time.Time) bool {
	return s.At.Matches(now) && now.Day() == s.Day
}
func (MonthlySchedule) Kind() category.ScheduleKind { return category.Monthly }

// ScheduleFor builds the schedule configured for cfg. Weekly and monthly
// schedules use the configured day.
func ScheduleFor(cfg category.Config) Schedule {
	switch cfg.BackupSchedule {
	case category.Daily:
		return DailySchedule{At: cfg.BackupTime}
	case category.Weekly:
		return WeeklySchedule{At: cfg.BackupTime, Day: cfg.BackupDayOfWeek}
	case category.Monthly:
		return MonthlySchedule{At: cfg.BackupTime, Day: cfg.BackupDay}
	default:
		return ManualSchedule{}
	}
}

// IsBackupDue reports whether cfg's schedule fires at now. It depends on
// nothing but its arguments.
func IsBackupDue(cfg category.Config, now time.Time) bool {
	return ScheduleFor(cfg).Due(now)
}
