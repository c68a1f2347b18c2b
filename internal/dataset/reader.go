package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"unicode/utf8"

	"github.com/zclconf/go-cty/cty"
)

var (
	// ErrFieldCount is returned when a record has more fields than the header.
	ErrFieldCount = errors.New("record has more fields than the schema")
	// ErrUnknownColumn is returned when a cast names a column that does not exist.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrDelimiter is returned for delimiters that are not a single character.
	ErrDelimiter = errors.New("delimiter must be a single character")
)

const defaultInferSample = 1000

// Options controls how a CSV file is read.
type Options struct {
	Path      string
	Delimiter string
	Header    bool
	// NullValue is the text read as null. The zero value reads empty
	// fields as null.
	NullValue   string
	Comment     string
	InferSchema bool
	InferSample int
	// Casts overrides the type of the named columns.
	Casts map[string]DataType
}

// Reader streams typed rows out of a CSV file.
type Reader struct {
	file   *os.File
	csv    *csv.Reader
	schema Schema
	opts   Options
	// first holds the first data record when the file has no header.
	first []string
	// pending holds a row pushed back by unread.
	pending Row
	rows    int
}

// Open opens the CSV file described by opts and resolves its schema.
func Open(opts Options) (*Reader, error) {
	if opts.InferSample <= 0 {
		opts.InferSample = defaultInferSample
	}

	file, cr, names, first, err := openRaw(opts)
	if err != nil {
		return nil, err
	}

	fields := make([]Field, len(names))
	for i, name := range names {
		fields[i] = Field{Name: name, Type: StringType, Nullable: true}
	}
	schema := Schema{Fields: fields}

	if opts.InferSchema {
		inferred, err := inferSchema(opts, schema)
		if err != nil {
			file.Close()
			return nil, err
		}
		schema = inferred
	}

	for col, t := range opts.Casts {
		i := schema.Index(col)
		if i < 0 {
			file.Close()
			return nil, fmt.Errorf("cannot cast %q: %w", col, ErrUnknownColumn)
		}
		schema.Fields[i].Type = t
	}

	return &Reader{
		file:   file,
		csv:    cr,
		schema: schema,
		opts:   opts,
		first:  first,
	}, nil
}

// openRaw opens the file and consumes the header. Without a header the first
// record is returned so it can be replayed as data.
func openRaw(opts Options) (*os.File, *csv.Reader, []string, []string, error) {
	delim := ','
	if opts.Delimiter != "" {
		if utf8.RuneCountInString(opts.Delimiter) != 1 {
			return nil, nil, nil, nil, fmt.Errorf("%w: %q", ErrDelimiter, opts.Delimiter)
		}
		delim, _ = utf8.DecodeRuneInString(opts.Delimiter)
	}

	file, err := os.Open(opts.Path)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to open source file '%s': %w", opts.Path, err)
	}

	cr := csv.NewReader(file)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	if opts.Comment != "" {
		cr.Comment, _ = utf8.DecodeRuneInString(opts.Comment)
	}

	record, err := cr.Read()
	if err != nil {
		file.Close()
		if errors.Is(err, io.EOF) {
			return nil, nil, nil, nil, fmt.Errorf("source file '%s' is empty", opts.Path)
		}
		return nil, nil, nil, nil, fmt.Errorf("failed to read header of '%s': %w", opts.Path, err)
	}

	if !opts.Header {
		names := make([]string, len(record))
		for i := range record {
			names[i] = "_c" + strconv.Itoa(i)
		}
		return file, cr, names, record, nil
	}
	return file, cr, columnNames(record), nil, nil
}

// columnNames names blank header cells positionally and disambiguates
// duplicates by suffixing every occurrence with its position. A generated
// name that clashes with another column gets a further "_N" suffix.
func columnNames(header []string) []string {
	counts := make(map[string]int, len(header))
	for _, h := range header {
		counts[h]++
	}
	taken := make(map[string]bool, len(header))
	for _, h := range header {
		if h != "" && counts[h] == 1 {
			taken[h] = true
		}
	}
	names := make([]string, len(header))
	for i, h := range header {
		if h != "" && counts[h] == 1 {
			names[i] = h
			continue
		}
		base := "_c" + strconv.Itoa(i)
		if h != "" {
			base = h + strconv.Itoa(i)
		}
		name := base
		for n := 1; taken[name]; n++ {
			name = base + "_" + strconv.Itoa(n)
		}
		taken[name] = true
		names[i] = name
	}
	return names
}

// Schema returns the resolved schema.
func (r *Reader) Schema() Schema {
	return r.schema
}

// Rows returns how many rows have been returned so far.
func (r *Reader) Rows() int {
	return r.rows
}

// Next returns the next row, or io.EOF when the file is exhausted.
func (r *Reader) Next() (Row, error) {
	if r.pending != nil {
		row := r.pending
		r.pending = nil
		r.rows++
		return row, nil
	}

	var record []string
	if r.first != nil {
		record, r.first = r.first, nil
	} else {
		rec, err := r.csv.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		record = rec
	}

	if len(record) > len(r.schema.Fields) {
		line, _ := r.csv.FieldPos(0)
		return nil, fmt.Errorf("line %d: %w (%d > %d)", line, ErrFieldCount, len(record), len(r.schema.Fields))
	}

	row := make(Row, len(r.schema.Fields))
	for i, f := range r.schema.Fields {
		if i >= len(record) || record[i] == r.opts.NullValue {
			row[i] = cty.NullVal(f.Type.CtyType())
			continue
		}
		row[i] = Cast(record[i], f.Type)
	}
	r.rows++
	return row, nil
}

// unread pushes row back so the next call to Next returns it again.
func (r *Reader) unread(row Row) {
	r.pending = row
	r.rows--
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Scan calls fn for every remaining row. It stops at the first error
// returned by fn or when ctx is cancelled.
func Scan(ctx context.Context, r *Reader, fn func(Row) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(row); err != nil {
			return err
		}
	}
}

// Count consumes the reader and returns the number of remaining rows.
func Count(ctx context.Context, r *Reader) (int, error) {
	n := 0
	err := Scan(ctx, r, func(Row) error {
		n++
		return nil
	})
	return n, err
}
