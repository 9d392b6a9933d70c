package config

import (
	"gotest.tools/assert"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func Test_Default(t *testing.T) {
	c := Default()
	assert.Equal(t, c.Seed, int64(42))
	assert.Equal(t, c.Bits, 2048)
	assert.Equal(t, c.Radius, 2)
	assert.Equal(t, c.BatchSize, 256)
	assert.Equal(t, c.Epochs, 20)
	assert.Equal(t, c.Int8, false)
	assert.Equal(t, c.TestSize, 0.1)
	assert.Equal(t, c.LearningRate, 1e-3)
	assert.Equal(t, c.Calibration, 500)
	assert.DeepEqual(t, c.Hidden, []int{512, 256})
	assert.Equal(t, c.DataPath, "Dataset/250k_rndm_zinc_drugs_clean_3.csv")
	assert.NilError(t, c.Validate())
}

func Test_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logp.yaml")
	assert.NilError(t, os.WriteFile(path, []byte("epochs: 3\nint8: true\nhidden: [16, 8]\nlock_timeout: 2s\n"), 0o644))
	c, err := Load(path)
	assert.NilError(t, err)
	assert.Equal(t, c.Epochs, 3)
	assert.Equal(t, c.Int8, true)
	assert.DeepEqual(t, c.Hidden, []int{16, 8})
	assert.Equal(t, c.LockTimeout, 2*time.Second)
	assert.Equal(t, c.Bits, 2048)
	assert.Equal(t, c.Seed, int64(42))
}

func Test_LoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "cannot read config")
	path := filepath.Join(t.TempDir(), "bad.yaml")
	assert.NilError(t, os.WriteFile(path, []byte("epochs: [\n"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "invalid YAML")
	assert.NilError(t, os.WriteFile(path, []byte("test_size: 1.5\n"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "test size")
	assert.NilError(t, os.WriteFile(path, []byte("hidden: []\n"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "hidden layer")
}

func Test_Validate(t *testing.T) {
	for name, f := range map[string]func(*Config){
		"bits":      func(c *Config) { c.Bits = 0 },
		"batch":     func(c *Config) { c.BatchSize = -1 },
		"epochs":    func(c *Config) { c.Epochs = 0 },
		"lr":        func(c *Config) { c.LearningRate = 0 },
		"hidden":    func(c *Config) { c.Hidden = []int{4, 0} },
		"no hidden": func(c *Config) { c.Hidden = []int{} },
		"data path": func(c *Config) { c.DataPath = "" },
		"radius":    func(c *Config) { c.Radius = -1 },
		"calibrate": func(c *Config) { c.Calibration = 0 },
		"test size": func(c *Config) { c.TestSize = 0 },
		"artifacts": func(c *Config) { c.Artifacts = "" },
	} {
		c := Default()
		f(&c)
		assert.Assert(t, c.Validate() != nil, name)
	}
}
