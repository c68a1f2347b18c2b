package app

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/vk/elastico/internal/dataset"
)

// Commands understood by App.Run.
const (
	CommandLoad    = "load"
	CommandInspect = "inspect"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Command string `validate:"oneof=load inspect"`
	JobPath string `validate:"required"` // hcl job file

	LogFormat       string `validate:"oneof=text json"`
	LogLevel        string `validate:"oneof=debug info warn error"`
	LogFile         string
	HealthcheckPort int `validate:"min=0,max=65535"`

	// Workers and ESURL override the job file when set.
	Workers int    `validate:"min=0,max=64"`
	ESURL   string `validate:"omitempty,url"`

	// Rows and Truncate shape the inspect preview.
	Rows     int `validate:"min=0"`
	Truncate bool
}

// NewConfig applies defaults and validates cfg.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Command == CommandInspect && cfg.Rows == 0 {
		cfg.Rows = dataset.DefaultShowRows
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
