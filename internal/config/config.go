/*
Package config holds the knobs of the logP training pipeline
*/
package config

import (
	"go-ml.dev/pkg/iokit"
	"go-ml.dev/pkg/logp/chem/morgan"
	"go-ml.dev/pkg/logp/model/dense"
	"go-ml.dev/pkg/zorros/zorros"
	"gopkg.in/yaml.v3"
	"time"
)

const (
	DefaultDataPath  = "Dataset/250k_rndm_zinc_drugs_clean_3.csv"
	DefaultArtifacts = "artifacts"
	ModelDir         = "logp_model"
	TFLiteFile       = "logp_model.tflite"
	HistoryFile      = "history.db"
	HeaderFile       = "model_data.h"
	LockFile         = ".lock"
)

/*
Config is the pipeline configuration, zero fields of a loaded file keep defaults
*/
type Config struct {
	DataPath     string        `yaml:"data_path"`
	Artifacts    string        `yaml:"artifacts"`
	Seed         int64         `yaml:"seed"`
	Bits         int           `yaml:"fingerprint_bits"`
	Radius       int           `yaml:"fingerprint_radius"`
	Hidden       []int         `yaml:"hidden,flow"`
	BatchSize    int           `yaml:"batch_size"`
	Epochs       int           `yaml:"epochs"`
	Int8         bool          `yaml:"int8"`
	TestSize     float64       `yaml:"test_size"`
	LearningRate float64       `yaml:"learning_rate"`
	Calibration  int           `yaml:"calibration"`
	CHeader      bool          `yaml:"c_header"`
	History      bool          `yaml:"history"`
	LockTimeout  time.Duration `yaml:"lock_timeout"`
}

/*
Default returns the compiled-in configuration
*/
func Default() Config {
	return Config{
		DataPath:     DefaultDataPath,
		Artifacts:    DefaultArtifacts,
		Seed:         42,
		Bits:         morgan.DefaultBits,
		Radius:       morgan.DefaultRadius,
		Hidden:       append([]int{}, dense.DefaultHidden...),
		BatchSize:    256,
		Epochs:       20,
		Int8:         false,
		TestSize:     0.1,
		LearningRate: 1e-3,
		Calibration:  500,
		History:      true,
		LockTimeout:  10 * time.Second,
	}
}

/*
Load reads a YAML file over the defaults
*/
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := iokit.File(path).ReadAll()
	if err != nil {
		return cfg, zorros.Wrapf(err, "cannot read config %v: %v", path, err.Error())
	}
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, zorros.Wrapf(err, "invalid YAML in %v: %v", path, err.Error())
	}
	return cfg, cfg.Validate()
}

/*
Validate checks values are usable
*/
func (c Config) Validate() error {
	switch {
	case c.DataPath == "":
		return zorros.Errorf("data path is empty")
	case c.Artifacts == "":
		return zorros.Errorf("artifacts directory is empty")
	case c.Bits <= 0:
		return zorros.Errorf("fingerprint bits must be positive, got %d", c.Bits)
	case c.Radius < 0:
		return zorros.Errorf("fingerprint radius must not be negative, got %d", c.Radius)
	case c.BatchSize <= 0:
		return zorros.Errorf("batch size must be positive, got %d", c.BatchSize)
	case c.Epochs <= 0:
		return zorros.Errorf("epochs must be positive, got %d", c.Epochs)
	case c.TestSize <= 0 || c.TestSize >= 1:
		return zorros.Errorf("test size must be in (0,1), got %v", c.TestSize)
	case c.LearningRate <= 0:
		return zorros.Errorf("learning rate must be positive, got %v", c.LearningRate)
	case c.Calibration <= 0:
		return zorros.Errorf("calibration size must be positive, got %d", c.Calibration)
	case len(c.Hidden) == 0:
		return zorros.Errorf("at least one hidden layer is required")
	}
	for _, u := range c.Hidden {
		if u <= 0 {
			return zorros.Errorf("hidden layer width must be positive, got %v", c.Hidden)
		}
	}
	return nil
}
