// Package mapping derives an Elasticsearch index mapping from a dataset schema.
package mapping

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8/typedapi/indices/create"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/vk/elastico/internal/dataset"
)

// ErrUnsupportedType is returned for column types that have no index mapping.
var ErrUnsupportedType = errors.New("datatype not supported in index mapping")

// Property is the mapping of a single field.
type Property struct {
	Type string `json:"type"`
}

// Settings are the optional index settings sent alongside the mapping.
type Settings struct {
	Shards          int
	Replicas        *int
	RefreshInterval string
}

// Mapping is the set of field properties of an index.
type Mapping struct {
	Properties map[string]Property
	Settings   Settings
}

var propertyTypes = map[dataset.DataType]string{
	dataset.StringType:    "text",
	dataset.TimestampType: "date",
	dataset.IntegerType:   "integer",
	dataset.LongType:      "long",
	dataset.DoubleType:    "double",
	dataset.BooleanType:   "boolean",
}

// FromSchema maps every field of schema to an index property.
func FromSchema(schema dataset.Schema) (Mapping, error) {
	props := make(map[string]Property, len(schema.Fields))
	for _, f := range schema.Fields {
		p, err := propertyFor(f.Type)
		if err != nil {
			return Mapping{}, fmt.Errorf("field %q: %w", f.Name, err)
		}
		props[f.Name] = p
	}
	return Mapping{Properties: props}, nil
}

func propertyFor(t dataset.DataType) (Property, error) {
	name, ok := propertyTypes[t]
	if !ok {
		return Property{}, fmt.Errorf("%w: %q", ErrUnsupportedType, t)
	}
	return Property{Type: name}, nil
}

// Body renders the create-index request body.
func (m Mapping) Body() ([]byte, error) {
	props := make(map[string]types.Property, len(m.Properties))
	for name, p := range m.Properties {
		tp, err := typedProperty(p)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		props[name] = tp
	}

	req := create.Request{Mappings: &types.TypeMapping{Properties: props}}
	if settings := m.Settings.index(); settings != nil {
		req.Settings = &types.IndexSettings{Index: settings}
	}
	return json.Marshal(req)
}

func typedProperty(p Property) (types.Property, error) {
	switch p.Type {
	case "text":
		return types.NewTextProperty(), nil
	case "date":
		return types.NewDateProperty(), nil
	case "integer":
		return types.NewIntegerNumberProperty(), nil
	case "long":
		return types.NewLongNumberProperty(), nil
	case "double":
		return types.NewDoubleNumberProperty(), nil
	case "boolean":
		return types.NewBooleanProperty(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, p.Type)
}

// index returns the index level settings, or nil when none are set.
func (s Settings) index() *types.IndexSettings {
	if s.Shards <= 0 && s.Replicas == nil && s.RefreshInterval == "" {
		return nil
	}
	settings := &types.IndexSettings{}
	if s.Shards > 0 {
		settings.NumberOfShards = strconv.Itoa(s.Shards)
	}
	if s.Replicas != nil {
		settings.NumberOfReplicas = strconv.Itoa(*s.Replicas)
	}
	if s.RefreshInterval != "" {
		var interval types.Duration = s.RefreshInterval
		settings.RefreshInterval = &interval
	}
	return settings
}
