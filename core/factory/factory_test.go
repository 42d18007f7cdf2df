package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Path string
	Size int
}

type sampleConf struct {
	Path string `json:"path"`
	Size int    `json:"size"`
}

func TestRegistry_Create(t *testing.T) {
	reg := NewRegistry[*sample]()
	require.NoError(t, reg.Register("s", func(conf map[string]any) (*sample, error) {
		var c sampleConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &sample{Path: c.Path, Size: c.Size}, nil
	}))
	inst, err := reg.Create(ModuleConfig{Type: "s", Conf: map[string]any{"path": "/tmp/x", "size": "3"}})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x", inst.Path)
	assert.Equal(t, 3, inst.Size)
}

func TestRegistry_NilConf(t *testing.T) {
	reg := NewRegistry[int]()
	require.NoError(t, reg.Register("x", func(conf map[string]any) (int, error) { return len(conf), nil }))
	v, err := reg.Create(ModuleConfig{Type: "x"})
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestRegistry_Errors(t *testing.T) {
	reg := NewRegistry[int]()
	require.NoError(t, reg.Register("x", func(map[string]any) (int, error) { return 1, nil }))
	assert.Error(t, reg.Register("x", func(map[string]any) (int, error) { return 2, nil }))
	assert.Error(t, reg.Register("y", nil))
	_, err := reg.Create(ModuleConfig{Type: "y"})
	assert.ErrorContains(t, err, "unknown module type")
	assert.Equal(t, []string{"x"}, reg.Names())
}
