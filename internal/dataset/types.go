package dataset

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// ErrUnknownType is returned when a column type name cannot be resolved.
var ErrUnknownType = errors.New("unknown data type")

// DataType is the logical type of a column.
type DataType string

const (
	StringType    DataType = "string"
	IntegerType   DataType = "integer"
	LongType      DataType = "long"
	DoubleType    DataType = "double"
	TimestampType DataType = "timestamp"
	BooleanType   DataType = "boolean"
)

var typeAliases = map[string]DataType{
	"string":    StringType,
	"text":      StringType,
	"integer":   IntegerType,
	"int":       IntegerType,
	"long":      LongType,
	"bigint":    LongType,
	"double":    DoubleType,
	"float":     DoubleType,
	"timestamp": TimestampType,
	"date":      TimestampType,
	"boolean":   BooleanType,
	"bool":      BooleanType,
}

// ParseDataType resolves a type name, accepting the usual aliases.
func ParseDataType(name string) (DataType, error) {
	t, ok := typeAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	return t, nil
}

// CtyType returns the value type rows carry for this column.
func (t DataType) CtyType() cty.Type {
	switch t {
	case IntegerType, LongType, DoubleType:
		return cty.Number
	case BooleanType:
		return cty.Bool
	default:
		return cty.String
	}
}

// Field describes one column of a Schema.
type Field struct {
	Name     string
	Type     DataType
	Nullable bool
}

// Schema is the ordered list of columns of a dataset.
type Schema struct {
	Fields []Field
}

// Index returns the position of the named column, or -1.
func (s Schema) Index(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Names returns the column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// CtyType returns the object type of a single row.
func (s Schema) CtyType() cty.Type {
	attrs := make(map[string]cty.Type, len(s.Fields))
	for _, f := range s.Fields {
		attrs[f.Name] = f.Type.CtyType()
	}
	return cty.Object(attrs)
}

// Print writes the schema as a tree:
//
//	root
//	 |-- name: string (nullable = true)
func (s Schema) Print(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "root"); err != nil {
		return err
	}
	for _, f := range s.Fields {
		if _, err := fmt.Fprintf(w, " |-- %s: %s (nullable = %t)\n", f.Name, f.Type, f.Nullable); err != nil {
			return err
		}
	}
	return nil
}
