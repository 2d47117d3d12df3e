package train

import (
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Config collects every knob of the dataset pipeline and the training loop.
// Zero values are filled from the default tags; Validate rejects anything the
// pipeline cannot honor.
type Config struct {
	// Rolling window sizes for the slope/angle/acceleration metrics, applied
	// to both the Heikin-Ashi close and the raw close.
	HAWindows []int `yaml:"ha_windows" default:"[5,10,20]" validate:"min=1,unique,dive,gte=2"`
	// Rolling window sizes for the statistical indicators on the raw close.
	IndicatorWindows []int `yaml:"indicator_windows" default:"[5,10,20]" validate:"min=1,unique,dive,gte=2"`

	// Label generation.
	LabelHorizon   int     `yaml:"label_horizon" default:"5" validate:"gte=1"`
	EntryThreshold float64 `yaml:"entry_threshold" default:"0.01" validate:"gt=0"`
	ExitThreshold  float64 `yaml:"exit_threshold" default:"0.01" validate:"gt=0"`

	// Sequence windowing.
	SeqLen int `yaml:"seq_len" default:"32" validate:"gte=1"`
	Stride int `yaml:"stride" default:"1" validate:"gte=1"`

	// Network architecture.
	HiddenChannels []int   `yaml:"hidden_channels" default:"[32,64,64]" validate:"min=1,dive,gte=1"`
	KernelSize     int     `yaml:"kernel_size" default:"3" validate:"gte=2"`
	Dropout        float64 `yaml:"dropout" default:"0.1" validate:"gte=0,lt=1"`

	// Optimization.
	LearningRate float64 `yaml:"learning_rate" default:"0.001" validate:"gt=0"`
	BatchSize    int     `yaml:"batch_size" default:"64" validate:"gte=1"`
	Epochs       int     `yaml:"epochs" default:"5" validate:"gte=1"`
	TrainFrac    float64 `yaml:"train_frac" default:"0.7" validate:"gt=0,lt=1"`
	Seed         int64   `yaml:"seed" default:"42"`
}

// DefaultConfig returns a config with every field at its default.
func DefaultConfig() *Config {
	c := &Config{}
	if err := defaults.Set(c); err != nil {
		// Static tags; can only fail if a tag is malformed.
		panic(fmt.Sprintf("train: bad default tag: %v", err))
	}
	return c
}

// Validate checks the configuration against its field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

// LoadConfig reads a YAML configuration file, fills unset fields with
// defaults and validates the result.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c := &Config{}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(c); err != nil {
		return nil, fmt.Errorf("apply config defaults: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
