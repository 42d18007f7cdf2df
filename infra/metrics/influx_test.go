package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/logvault/core/category"
	"github.com/kilianp07/logvault/core/factory"
	coremetrics "github.com/kilianp07/logvault/core/metrics"
)

type influxRecorder struct {
	mu     sync.Mutex
	bodies []string
}

func (r *influxRecorder) server(t *testing.T, health int) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/health" {
			status := "pass"
			if health != http.StatusOK {
				status = "fail"
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(health)
			_, _ = io.WriteString(w, `{"name":"influxdb","message":"ready","status":"`+status+`","checks":[]}`)
			return
		}
		data, _ := io.ReadAll(req.Body)
		r.mu.Lock()
		r.bodies = append(r.bodies, strings.TrimSpace(string(data)))
		r.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func (r *influxRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.bodies...)
}

func lineProtocol(p *write.Point) string {
	return strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
}

func TestInfluxSinkWritesLifecyclePoints(t *testing.T) {
	rec := &influxRecorder{}
	srv := rec.server(t, http.StatusOK)

	sink := NewInfluxSink(srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()
	now := time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)
	sink.now = func() time.Time { return now }

	require.NoError(t, sink.RecordWrite(category.Audit, "INFO"))
	require.NoError(t, sink.RecordDrop(category.Production, "disabled"))
	require.NoError(t, sink.RecordRotation(category.Diagnostics))
	require.NoError(t, sink.RecordPurge(category.Audit, true))
	require.NoError(t, sink.RecordBackup(category.Production, "restore", false, 3, 1500*time.Millisecond))
	require.NoError(t, sink.SetQueueDepth(4))

	expected := []string{
		lineProtocol(write.NewPointWithMeasurement("entry_written").
			AddTag("category", "Audit").
			AddTag("level", "INFO").
			AddField("count", 1).
			SetTime(now)),
		lineProtocol(write.NewPointWithMeasurement("entry_dropped").
			AddTag("category", "Production").
			AddTag("reason", "disabled").
			AddField("count", 1).
			SetTime(now)),
		lineProtocol(write.NewPointWithMeasurement("rotation").
			AddTag("category", "Diagnostics").
			AddField("count", 1).
			SetTime(now)),
		lineProtocol(write.NewPointWithMeasurement("purge").
			AddTag("category", "Audit").
			AddTag("failed", "true").
			AddField("count", 1).
			SetTime(now)),
		lineProtocol(write.NewPointWithMeasurement("backup_run").
			AddTag("category", "Production").
			AddTag("action", "restore").
			AddTag("ok", "false").
			AddField("files", 3).
			AddField("duration_ms", 1500.0).
			SetTime(now)),
		lineProtocol(write.NewPointWithMeasurement("writer_queue").
			AddField("depth", 4).
			SetTime(now)),
	}
	assert.Equal(t, expected, rec.all())
}

func TestInfluxSinkReturnsWriteErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	assert.Error(t, sink.RecordRotation(category.Audit))
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	rec := &influxRecorder{}
	srv := rec.server(t, http.StatusServiceUnavailable)

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	assert.IsType(t, coremetrics.NopSink{}, sink)

	healthy := (&influxRecorder{}).server(t, http.StatusOK)
	sink = NewInfluxSinkWithFallback(healthy.URL, "tok", "org", "bucket")
	require.IsType(t, &InfluxSink{}, sink)
	sink.(*InfluxSink).Close()
}

func TestInfluxSinkFactory(t *testing.T) {
	_, err := coremetrics.NewSink([]factory.ModuleConfig{{Type: "influx", Conf: map[string]any{"org": "org"}}})
	assert.ErrorContains(t, err, "url and bucket are required")

	rec := &influxRecorder{}
	srv := rec.server(t, http.StatusServiceUnavailable)
	sink, err := coremetrics.NewSink([]factory.ModuleConfig{{Type: "influx", Conf: map[string]any{
		"url":    srv.URL,
		"token":  "tok",
		"org":    "org",
		"bucket": "bucket",
	}}})
	require.NoError(t, err)
	assert.IsType(t, coremetrics.NopSink{}, sink)
}
