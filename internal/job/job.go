package job

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vk/elastico/internal/dataset"
	"github.com/vk/elastico/internal/mapping"
	"github.com/vk/elastico/internal/progress"
	"github.com/vk/elastico/internal/search"
)

// Load modes.
const (
	ModeDirect = "direct"
	ModeSpool  = "spool"
)

const (
	defaultAddress    = "http://localhost:9200"
	defaultBulkSize   = 1000
	defaultWorkers    = 2
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
)

// ErrSpoolRequired is returned when spool mode is selected without a spool block.
var ErrSpoolRequired = errors.New("mode \"spool\" requires a spool block")

// Index holds the target index settings.
type Index struct {
	Name            string `validate:"required,lowercase,excludesall=/*?<>#0x7C0x2C"`
	Recreate        bool
	Mode            string `validate:"oneof=direct spool"`
	BulkSize        int    `validate:"min=1,max=100000"`
	Workers         int    `validate:"min=1,max=64"`
	IDField         string `validate:"excluded_with=IDHash"`
	IDHash          bool
	Refresh         bool
	Strict          bool
	Shards          int  `validate:"min=0"`
	Replicas        *int `validate:"omitempty,min=0"`
	RefreshInterval string
}

// Cluster holds connection settings.
type Cluster struct {
	Addresses          []string `validate:"required,min=1,dive,url"`
	Username           string   `validate:"required_with=Password"`
	Password           string
	APIKey             string `validate:"excluded_with=Username"`
	CACert             string
	InsecureSkipVerify bool
	Timeout            time.Duration `validate:"min=0"`
	MaxRetries         int           `validate:"min=0,max=10"`
}

// Spool holds the intermediate JSON-lines settings.
type Spool struct {
	Dir       string `validate:"required"`
	UploadURL string `validate:"omitempty,url"`
}

// Progress describes a socket.io progress endpoint.
type Progress struct {
	URL                string `validate:"required,url"`
	Namespace          string
	Event              string
	InsecureSkipVerify bool
}

// Job is a fully resolved and validated load job.
type Job struct {
	// File is the job file the job was loaded from.
	File     string
	Source   dataset.Options
	Index    Index
	Cluster  Cluster
	Spool    *Spool
	Progress []Progress `validate:"dive"`
}

// Validate checks field constraints and cross-block rules.
func (j *Job) Validate() error {
	validate := validator.New()
	if err := validate.Struct(j); err != nil {
		return fmt.Errorf("invalid job: %w", err)
	}
	if j.Index.Mode == ModeSpool && j.Spool == nil {
		return ErrSpoolRequired
	}
	if j.Source.Path == "" {
		return errors.New("invalid job: source path is required")
	}
	return nil
}

// SearchSettings converts the cluster block into client settings.
func (c Cluster) SearchSettings() search.Settings {
	return search.Settings{
		Addresses:          c.Addresses,
		Username:           c.Username,
		Password:           c.Password,
		APIKey:             c.APIKey,
		CACert:             c.CACert,
		InsecureSkipVerify: c.InsecureSkipVerify,
		Timeout:            c.Timeout,
		MaxRetries:         c.MaxRetries,
	}
}

// MappingSettings returns the index settings sent on creation.
func (i Index) MappingSettings() mapping.Settings {
	return mapping.Settings{
		Shards:          i.Shards,
		Replicas:        i.Replicas,
		RefreshInterval: i.RefreshInterval,
	}
}

// SocketIOSettings converts a progress block into reporter settings.
func (p Progress) SocketIOSettings() progress.SocketIOSettings {
	return progress.SocketIOSettings{
		URL:                p.URL,
		Namespace:          p.Namespace,
		Event:              p.Event,
		InsecureSkipVerify: p.InsecureSkipVerify,
	}
}
