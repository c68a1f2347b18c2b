package dataset

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// inference ranks, narrowest first. A column settles on the widest rank any
// of its sampled values needs.
const (
	rankNone = iota
	rankInteger
	rankLong
	rankDouble
	rankBoolean
	rankTimestamp
	rankString
)

var rankTypes = map[int]DataType{
	rankNone:      StringType,
	rankInteger:   IntegerType,
	rankLong:      LongType,
	rankDouble:    DoubleType,
	rankBoolean:   BooleanType,
	rankTimestamp: TimestampType,
	rankString:    StringType,
}

// inferSchema samples up to opts.InferSample records from a fresh handle and
// returns a copy of base with inferred column types.
func inferSchema(opts Options, base Schema) (Schema, error) {
	file, cr, _, first, err := openRaw(opts)
	if err != nil {
		return Schema{}, err
	}
	defer file.Close()

	ranks := make([]int, len(base.Fields))
	vote := func(record []string) {
		for i := 0; i < len(record) && i < len(ranks); i++ {
			if record[i] == opts.NullValue || strings.TrimSpace(record[i]) == "" {
				continue
			}
			ranks[i] = widen(ranks[i], rankOf(strings.TrimSpace(record[i])))
		}
	}

	sampled := 0
	if first != nil {
		vote(first)
		sampled++
	}
	for sampled < opts.InferSample {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Schema{}, fmt.Errorf("failed to sample '%s': %w", opts.Path, err)
		}
		vote(record)
		sampled++
	}

	fields := make([]Field, len(base.Fields))
	for i, f := range base.Fields {
		f.Type = rankTypes[ranks[i]]
		fields[i] = f
	}
	return Schema{Fields: fields}, nil
}

func rankOf(s string) int {
	if !Cast(s, IntegerType).IsNull() && isIntegral(s) {
		return rankInteger
	}
	if !Cast(s, LongType).IsNull() && isIntegral(s) {
		return rankLong
	}
	if !Cast(s, DoubleType).IsNull() {
		return rankDouble
	}
	switch strings.ToLower(s) {
	case "true", "false":
		return rankBoolean
	}
	if _, ok := parseTimestamp(s); ok {
		return rankTimestamp
	}
	return rankString
}

func isIntegral(s string) bool {
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// widen merges two ranks. Numeric ranks widen among themselves; mixing a
// numeric rank with anything else, or two different non-numeric ranks,
// falls back to string.
func widen(a, b int) int {
	if a == rankNone {
		return b
	}
	if a == b {
		return a
	}
	numeric := func(r int) bool { return r >= rankInteger && r <= rankDouble }
	if numeric(a) && numeric(b) {
		return max(a, b)
	}
	return rankString
}
