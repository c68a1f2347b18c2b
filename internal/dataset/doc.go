// Package dataset reads delimited text files into typed rows. It owns the
// column type system (schema, casts, inference) and the tabular console
// output used by the inspect command.
//
// Row values are cty values so that casting, null handling and JSON
// encoding share one type system with the job configuration.
package dataset
