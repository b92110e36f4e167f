package slam

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const (
	defaultMaxIterations = 10
	defaultTolerance     = 1e-4
)

// Config holds the estimator parameters.
type Config struct {
	// NumLandmarks is the fixed number of landmark slots of the incremental estimator.
	NumLandmarks int `json:"num_landmarks" yaml:"num_landmarks"`
	// Lambda is the Levenberg-Marquardt damping added to the reduced system of each step.
	Lambda float64 `json:"lambda" yaml:"lambda"`
	// MaxIterations bounds the batch estimator. Zero means the default of 10.
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`
	// Tolerance is the mean squared correction below which the batch estimator stops.
	// Zero means the default of 1e-4.
	Tolerance float64 `json:"tolerance" yaml:"tolerance"`
	// Debug logs every batch iteration at info level.
	Debug bool `json:"debug" yaml:"debug"`
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) error {
	var errs error
	if conf.NumLandmarks < 0 {
		errs = multierr.Append(errs, newConfigValidationError(path, "num_landmarks", "must not be negative"))
	}
	if conf.Lambda < 0 {
		errs = multierr.Append(errs, newConfigValidationError(path, "lambda", "must not be negative"))
	}
	if conf.MaxIterations < 0 {
		errs = multierr.Append(errs, newConfigValidationError(path, "max_iterations", "must not be negative"))
	}
	if conf.Tolerance < 0 {
		errs = multierr.Append(errs, newConfigValidationError(path, "tolerance", "must not be negative"))
	}
	return errs
}

func (conf Config) iterations() int {
	if conf.MaxIterations == 0 {
		return defaultMaxIterations
	}
	return conf.MaxIterations
}

func (conf Config) tolerance() float64 {
	if conf.Tolerance == 0 {
		return defaultTolerance
	}
	return conf.Tolerance
}

// LoadConfig reads a Config from a JSON file (".json") or a YAML file (anything else) and validates it.
// Environment variables referenced as $VAR or ${VAR} are expanded first.
func LoadConfig(path string) (*Config, error) {
	data, err := envsubst.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read config")
	}
	var conf Config
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &conf)
	} else {
		err = yaml.Unmarshal(data, &conf)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cannot parse config %q", path)
	}
	if err := conf.Validate(path); err != nil {
		return nil, err
	}
	return &conf, nil
}
