// Package logfile owns the on-disk shape of category log files: naming,
// header management, the CSV row format and reading files back.
package logfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Header is the first line of every log file.
const Header = "Timestamp,Level,Message,Source"

// Extension is appended to every resolved file name.
const Extension = ".csv"

// secondsLayout is the part of the row timestamp Go can format directly; the
// milliseconds follow after a colon.
const secondsLayout = "2006-01-02 15:04:05"

// Level is the severity written in the second column.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Entry is one parsed row.
type Entry struct {
	Timestamp time.Time
	Level     Level
	Message   string
	Source    string
}

// FormatTimestamp renders t as yyyy-MM-dd HH:mm:ss:fff.
func FormatTimestamp(t time.Time) string {
	return t.Format(secondsLayout) + fmt.Sprintf(":%03d", t.Nanosecond()/int(time.Millisecond))
}

// ParseTimestamp is the inverse of FormatTimestamp, in local time. A dot
// before the milliseconds is accepted as well.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) < len(secondsLayout) {
		return time.Time{}, fmt.Errorf("timestamp %q too short", s)
	}
	t, err := time.ParseInLocation(secondsLayout, s[:len(secondsLayout)], time.Local)
	if err != nil {
		return time.Time{}, err
	}
	rest := s[len(secondsLayout):]
	if rest == "" {
		return t, nil
	}
	if rest[0] != ':' && rest[0] != '.' {
		return time.Time{}, fmt.Errorf("timestamp %q: unexpected %q", s, rest[0])
	}
	ms, err := strconv.Atoi(rest[1:])
	if err != nil || ms < 0 || ms > 999 || len(rest) != 4 {
		return time.Time{}, fmt.Errorf("timestamp %q: invalid milliseconds", s)
	}
	return t.Add(time.Duration(ms) * time.Millisecond), nil
}

// Quote wraps s in double quotes, doubling embedded quotes.
func Quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// FormatLine renders e as a single CSV row without a trailing newline. The
// message is always quoted; line breaks are flattened so a row never spans
// lines. The source is quoted only when it needs to be.
func FormatLine(e Entry) string {
	src := lineBreaks.Replace(e.Source)
	if strings.ContainsAny(src, `,"`) {
		src = Quote(src)
	}
	return FormatTimestamp(e.Timestamp) + "," + string(e.Level) + "," + Quote(lineBreaks.Replace(e.Message)) + "," + src
}

var errFieldCount = errors.New("expected 4 fields")

// ParseLine splits a row honoring quotes and parses its timestamp.
func ParseLine(line string) (Entry, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	fields, err := r.Read()
	if err != nil {
		return Entry{}, err
	}
	if len(fields) != 4 {
		return Entry{}, fmt.Errorf("%w, got %d", errFieldCount, len(fields))
	}
	ts, err := ParseTimestamp(fields[0])
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Timestamp: ts,
		Level:     Level(strings.TrimSpace(fields[1])),
		Message:   fields[2],
		Source:    fields[3],
	}, nil
}
