// Package config loads the host tool settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"micmeter/core"
	"micmeter/host/serial"
)

// Modes accepted by the host tool.
const (
	ModeSerial = "serial"
	ModeReplay = "replay"
)

type Config struct {
	Mode   string       `yaml:"mode" validate:"required,oneof=serial replay"`
	Serial SerialConfig `yaml:"serial"`
	Replay ReplayConfig `yaml:"replay"`
	Plot   PlotConfig   `yaml:"plot"`
}

type SerialConfig struct {
	Device        string `yaml:"device" validate:"omitempty,max=4096"`
	Baud          int    `yaml:"baud" validate:"gte=300,lte=4000000"`
	ReadTimeoutMs int    `yaml:"read_timeout_ms" validate:"gte=0,lte=60000"`
}

type ReplayConfig struct {
	File     string `yaml:"file" validate:"omitempty,max=4096"`
	Loop     bool   `yaml:"loop"`
	Realtime bool   `yaml:"realtime"`
	Raw      bool   `yaml:"raw"`
}

type PlotConfig struct {
	Enabled   bool `yaml:"enabled"`
	Width     int  `yaml:"width" validate:"gte=10,lte=400"`
	Precision int  `yaml:"precision" validate:"gte=-1,lte=8"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		Mode: ModeSerial,
		Serial: SerialConfig{
			Device: "/dev/ttyACM0",
			Baud:   115200,
		},
		Plot: PlotConfig{
			Width:     60,
			Precision: -1,
		},
	}
}

// Load reads a YAML file on top of the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field ranges and the settings the selected mode needs.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, e.Namespace()+" "+formatValidationMessage(e))
			}
			return fmt.Errorf("%w: %s", core.ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return err
	}

	switch c.Mode {
	case ModeSerial:
		if c.Serial.Device == "" {
			return fmt.Errorf("%w: serial mode needs a device", core.ErrInvalidConfig)
		}
	case ModeReplay:
		if c.Replay.File == "" {
			return fmt.Errorf("%w: replay mode needs a WAV file", core.ErrInvalidConfig)
		}
	}
	return nil
}

// PortConfig converts the serial section into a port configuration.
func (c *Config) PortConfig() *serial.Config {
	return &serial.Config{
		Device:      c.Serial.Device,
		Baud:        c.Serial.Baud,
		ReadTimeout: c.Serial.ReadTimeoutMs,
	}
}

func formatValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", e.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", e.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	default:
		return fmt.Sprintf("failed validation '%s'", e.Tag())
	}
}
