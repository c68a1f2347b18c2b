package dataset

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

const companiesCSV = `name,current_employee_estimate,founded
Acme,12,1999
Globex,,2001
Initech,n/a,1987
`

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func readAll(t *testing.T, r *Reader) []Row {
	t.Helper()
	var rows []Row
	require.NoError(t, Scan(context.Background(), r, func(row Row) error {
		rows = append(rows, row)
		return nil
	}))
	return rows
}

func requireCty(t *testing.T, want, got cty.Value) {
	t.Helper()
	require.True(t, want.RawEquals(got), "want %#v, got %#v", want, got)
}

func TestOpen_HeaderAndCasts(t *testing.T) {
	t.Parallel()

	r, err := Open(Options{
		Path:   writeCSV(t, companiesCSV),
		Header: true,
		Casts:  map[string]DataType{"current_employee_estimate": IntegerType},
	})
	require.NoError(t, err)
	defer r.Close()

	wantSchema := Schema{Fields: []Field{
		{Name: "name", Type: StringType, Nullable: true},
		{Name: "current_employee_estimate", Type: IntegerType, Nullable: true},
		{Name: "founded", Type: StringType, Nullable: true},
	}}
	if diff := cmp.Diff(wantSchema, r.Schema()); diff != "" {
		t.Fatalf("schema mismatch (-want +got):\n%s", diff)
	}

	rows := readAll(t, r)
	require.Len(t, rows, 3)
	requireCty(t, cty.NumberIntVal(12), rows[0][1])
	requireCty(t, cty.NullVal(cty.Number), rows[1][1])
	requireCty(t, cty.NullVal(cty.Number), rows[2][1])
	requireCty(t, cty.StringVal("Initech"), rows[2][0])
	assert.Equal(t, 3, r.Rows())
}

func TestOpen_WithoutHeaderReplaysFirstRecord(t *testing.T) {
	t.Parallel()

	r, err := Open(Options{Path: writeCSV(t, "a,1\nb,2\n")})
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, []string{"_c0", "_c1"}, r.Schema().Names())
	rows := readAll(t, r)
	require.Len(t, rows, 2)
	requireCty(t, cty.StringVal("a"), rows[0][0])
}

func TestOpen_DuplicateAndBlankHeaders(t *testing.T) {
	t.Parallel()

	r, err := Open(Options{Path: writeCSV(t, "a,a,,b\n1,2,3,4\n"), Header: true})
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, []string{"a0", "a1", "_c2", "b"}, r.Schema().Names())
}

func TestOpen_GeneratedNamesDoNotShadowHeaders(t *testing.T) {
	t.Parallel()

	r, err := Open(Options{Path: writeCSV(t, "a,a,a1,,_c3\n1,2,3,4,5\n"), Header: true})
	require.NoError(t, err)
	defer r.Close()

	schema := r.Schema()
	assert.Equal(t, []string{"a0", "a1_1", "a1", "_c3_1", "_c3"}, schema.Names())

	row, err := r.Next()
	require.NoError(t, err)
	obj := row.Object(schema)
	assert.Len(t, obj.Type().AttributeTypes(), 5)
	requireCty(t, cty.StringVal("2"), obj.GetAttr("a1_1"))
	requireCty(t, cty.StringVal("3"), obj.GetAttr("a1"))
}

func TestOpen_Errors(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, companiesCSV)

	_, err := Open(Options{Path: path, Header: true, Casts: map[string]DataType{"missing": IntegerType}})
	require.ErrorIs(t, err, ErrUnknownColumn)

	_, err = Open(Options{Path: path, Header: true, Delimiter: "::"})
	require.ErrorIs(t, err, ErrDelimiter)

	_, err = Open(Options{Path: filepath.Join(t.TempDir(), "nope.csv"), Header: true})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to open source file")

	_, err = Open(Options{Path: writeCSV(t, ""), Header: true})
	require.Error(t, err)
	require.Contains(t, err.Error(), "is empty")
}

func TestNext_RecordShapes(t *testing.T) {
	t.Parallel()

	r, err := Open(Options{Path: writeCSV(t, "a;b\n1\n1;2;3\n"), Header: true, Delimiter: ";"})
	require.NoError(t, err)
	defer r.Close()

	short, err := r.Next()
	require.NoError(t, err)
	requireCty(t, cty.StringVal("1"), short[0])
	requireCty(t, cty.NullVal(cty.String), short[1])

	_, err = r.Next()
	require.ErrorIs(t, err, ErrFieldCount)
	require.Contains(t, err.Error(), "line 3")
}

func TestNext_NullValueToken(t *testing.T) {
	t.Parallel()

	r, err := Open(Options{Path: writeCSV(t, "a,b\nNULL,\n"), Header: true, NullValue: "NULL"})
	require.NoError(t, err)
	defer r.Close()

	row, err := r.Next()
	require.NoError(t, err)
	requireCty(t, cty.NullVal(cty.String), row[0])
	requireCty(t, cty.StringVal(""), row[1])

	_, err = r.Next()
	require.True(t, errors.Is(err, io.EOF))
}

func TestInferSchema(t *testing.T) {
	t.Parallel()

	content := `id,big,ratio,flag,when,mixed,empty
1,3000000000,1.5,true,2020-01-01,1,
2,1,2,false,2020-01-02 10:00:00,x,
`
	r, err := Open(Options{
		Path:        writeCSV(t, content),
		Header:      true,
		InferSchema: true,
		Casts:       map[string]DataType{"mixed": IntegerType},
	})
	require.NoError(t, err)
	defer r.Close()

	got := make(map[string]DataType)
	for _, f := range r.Schema().Fields {
		got[f.Name] = f.Type
	}
	want := map[string]DataType{
		"id":    IntegerType,
		"big":   LongType,
		"ratio": DoubleType,
		"flag":  BooleanType,
		"when":  TimestampType,
		"mixed": IntegerType,
		"empty": StringType,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("inferred types mismatch (-want +got):\n%s", diff)
	}

	rows := readAll(t, r)
	require.Len(t, rows, 2)
	requireCty(t, cty.StringVal("2020-01-02T10:00:00.000Z"), rows[1][4])
	requireCty(t, cty.NullVal(cty.Number), rows[1][5])
}

func TestRowJSON_KeepsNulls(t *testing.T) {
	t.Parallel()

	r, err := Open(Options{
		Path:   writeCSV(t, companiesCSV),
		Header: true,
		Casts:  map[string]DataType{"current_employee_estimate": IntegerType},
	})
	require.NoError(t, err)
	defer r.Close()

	rows := readAll(t, r)
	first, err := rows[0].JSON(r.Schema())
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Acme","current_employee_estimate":12,"founded":"1999"}`, string(first))

	second, err := rows[1].JSON(r.Schema())
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Globex","current_employee_estimate":null,"founded":"2001"}`, string(second))

	_, err = Row{cty.StringVal("x")}.JSON(r.Schema())
	require.Error(t, err)
}

func TestCount(t *testing.T) {
	t.Parallel()

	r, err := Open(Options{Path: writeCSV(t, companiesCSV), Header: true})
	require.NoError(t, err)
	defer r.Close()

	n, err := Count(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestScan_StopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	r, err := Open(Options{Path: writeCSV(t, companiesCSV), Header: true})
	require.NoError(t, err)
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = Scan(ctx, r, func(Row) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}

func TestParseDataType(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]DataType{
		"Integer": IntegerType,
		"int":     IntegerType,
		"float":   DoubleType,
		" date ":  TimestampType,
		"bool":    BooleanType,
		"bigint":  LongType,
		"text":    StringType,
	} {
		got, err := ParseDataType(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseDataType("binary")
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestSchemaPrint(t *testing.T) {
	t.Parallel()

	schema := Schema{Fields: []Field{
		{Name: "name", Type: StringType, Nullable: true},
		{Name: "size", Type: IntegerType, Nullable: true},
	}}
	var buf bytes.Buffer
	require.NoError(t, schema.Print(&buf))

	want := "root\n |-- name: string (nullable = true)\n |-- size: integer (nullable = true)\n"
	assert.Equal(t, want, buf.String())
}
