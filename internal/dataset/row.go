package dataset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Row holds one value per schema field, in schema order.
type Row []cty.Value

// Object returns the row as a cty object keyed by column name.
func (r Row) Object(schema Schema) cty.Value {
	attrs := make(map[string]cty.Value, len(schema.Fields))
	for i, f := range schema.Fields {
		attrs[f.Name] = r[i]
	}
	return cty.ObjectVal(attrs)
}

// JSON encodes the row as a JSON object. Null columns are kept as null.
func (r Row) JSON(schema Schema) ([]byte, error) {
	if len(r) != len(schema.Fields) {
		return nil, fmt.Errorf("row has %d values, schema has %d fields", len(r), len(schema.Fields))
	}
	return ctyjson.Marshal(r.Object(schema), schema.CtyType())
}

// Text renders the value at column i the way Show prints it. Nulls render
// as "null".
func (r Row) Text(schema Schema, i int) string {
	v := r[i]
	if v.IsNull() {
		return "null"
	}
	switch schema.Fields[i].Type {
	case IntegerType, LongType:
		bf := v.AsBigFloat()
		n, _ := bf.Int64()
		return strconv.FormatInt(n, 10)
	case DoubleType:
		f, _ := v.AsBigFloat().Float64()
		s := strconv.FormatFloat(f, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case BooleanType:
		return strconv.FormatBool(v.True())
	default:
		return v.AsString()
	}
}
