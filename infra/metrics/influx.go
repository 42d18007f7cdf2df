package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/logvault/core/category"
	coremetrics "github.com/kilianp07/logvault/core/metrics"
	"github.com/kilianp07/logvault/infra/logger"
)

// InfluxSink writes lifecycle events to an InfluxDB bucket using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
	now      func() time.Time
}

// NewInfluxSink creates a sink writing to the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
		now:      time.Now,
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

// RecordWrite writes one point per appended row.
func (s *InfluxSink) RecordWrite(c category.Category, level string) error {
	p := write.NewPointWithMeasurement("entry_written").
		AddTag("category", c.String()).
		AddTag("level", level).
		AddField("count", 1).
		SetTime(s.now())
	return s.writePoint(p)
}

// RecordDrop records an entry discarded before reaching disk.
func (s *InfluxSink) RecordDrop(c category.Category, reason string) error {
	p := write.NewPointWithMeasurement("entry_dropped").
		AddTag("category", c.String()).
		AddTag("reason", reason).
		AddField("count", 1).
		SetTime(s.now())
	return s.writePoint(p)
}

// RecordRotation records a size based rotation.
func (s *InfluxSink) RecordRotation(c category.Category) error {
	p := write.NewPointWithMeasurement("rotation").
		AddTag("category", c.String()).
		AddField("count", 1).
		SetTime(s.now())
	return s.writePoint(p)
}

// RecordPurge records one retention deletion attempt.
func (s *InfluxSink) RecordPurge(c category.Category, failed bool) error {
	p := write.NewPointWithMeasurement("purge").
		AddTag("category", c.String()).
		AddTag("failed", strconv.FormatBool(failed)).
		AddField("count", 1).
		SetTime(s.now())
	return s.writePoint(p)
}

// RecordBackup records a backup or restore run.
func (s *InfluxSink) RecordBackup(c category.Category, action string, ok bool, files int, elapsed time.Duration) error {
	p := write.NewPointWithMeasurement("backup_run").
		AddTag("category", c.String()).
		AddTag("action", action).
		AddTag("ok", strconv.FormatBool(ok)).
		AddField("files", files).
		AddField("duration_ms", round3(elapsed.Seconds()*1000)).
		SetTime(s.now())
	return s.writePoint(p)
}

// SetQueueDepth records the number of entries waiting for the worker.
func (s *InfluxSink) SetQueueDepth(n int) error {
	p := write.NewPointWithMeasurement("writer_queue").
		AddField("depth", n).
		SetTime(s.now())
	return s.writePoint(p)
}

func (s *InfluxSink) writePoint(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
