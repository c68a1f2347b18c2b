package dataset

import (
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// TimestampLayout is the layout timestamps are emitted with.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

var (
	minInt32 = big.NewInt(math.MinInt32)
	maxInt32 = big.NewInt(math.MaxInt32)
)

// Cast converts raw CSV text to a value of type t. Text that cannot be
// converted yields a typed null rather than an error.
func Cast(raw string, t DataType) cty.Value {
	ty := t.CtyType()
	if t == StringType {
		return cty.StringVal(raw)
	}

	s := strings.TrimSpace(raw)
	if s == "" {
		return cty.NullVal(ty)
	}

	switch t {
	case IntegerType, LongType:
		return castInteger(s, t)
	case DoubleType:
		return castDouble(s)
	case BooleanType:
		return castBool(s)
	case TimestampType:
		return castTimestamp(s)
	}
	return cty.NullVal(ty)
}

func parseNumber(s string) (*big.Float, bool) {
	v, err := convert.Convert(cty.StringVal(s), cty.Number)
	if err != nil || v.IsNull() {
		return nil, false
	}
	bf := v.AsBigFloat()
	if bf.IsInf() {
		return nil, false
	}
	return bf, true
}

func castInteger(s string, t DataType) cty.Value {
	bf, ok := parseNumber(s)
	if !ok {
		return cty.NullVal(cty.Number)
	}
	// Truncates toward zero.
	i, _ := bf.Int(nil)
	if !i.IsInt64() {
		return cty.NullVal(cty.Number)
	}
	if t == IntegerType && (i.Cmp(minInt32) < 0 || i.Cmp(maxInt32) > 0) {
		return cty.NullVal(cty.Number)
	}
	return cty.NumberIntVal(i.Int64())
}

func castDouble(s string) cty.Value {
	bf, ok := parseNumber(s)
	if !ok {
		return cty.NullVal(cty.Number)
	}
	f, _ := bf.Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return cty.NullVal(cty.Number)
	}
	return cty.NumberFloatVal(f)
}

func castBool(s string) cty.Value {
	switch strings.ToLower(s) {
	case "true", "t", "yes", "y", "1":
		return cty.True
	case "false", "f", "no", "n", "0":
		return cty.False
	}
	return cty.NullVal(cty.Bool)
}

func castTimestamp(s string) cty.Value {
	if ts, ok := parseTimestamp(s); ok {
		return cty.StringVal(ts.Format(TimestampLayout))
	}
	return cty.NullVal(cty.String)
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
