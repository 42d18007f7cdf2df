package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/logvault/core/category"
	"github.com/kilianp07/logvault/core/factory"
)

type countingSink struct {
	NopSink
	writes int
	err    error
}

func (c *countingSink) RecordWrite(category.Category, string) error {
	c.writes++
	return c.err
}

func TestNewSinkDefaults(t *testing.T) {
	s, err := NewSink(nil)
	require.NoError(t, err)
	assert.IsType(t, NopSink{}, s)

	s, err = NewSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "nop"}})
	require.NoError(t, err)
	assert.IsType(t, &MultiSink{}, s)

	_, err = NewSink([]factory.ModuleConfig{{Type: "statsd"}})
	assert.Error(t, err)
}

func TestMultiSinkCallsEverySink(t *testing.T) {
	a := &countingSink{err: errors.New("a down")}
	b := &countingSink{}
	m := NewMultiSink(a, b)
	assert.Error(t, m.RecordWrite(category.Audit, "INFO"))
	assert.Equal(t, 1, a.writes)
	assert.Equal(t, 1, b.writes)
	assert.NoError(t, m.RecordBackup(category.Audit, "backup", true, 3, time.Second))
}
