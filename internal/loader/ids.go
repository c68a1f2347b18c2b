package loader

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/tidwall/gjson"
	"github.com/vk/elastico/internal/job"
)

// idFunc returns the _id for a document, or "" to let the cluster assign one.
type idFunc func(doc []byte) string

func newIDFunc(idx job.Index) idFunc {
	switch {
	case idx.IDHash:
		return hashID
	case idx.IDField != "":
		return fieldID(idx.IDField)
	default:
		return func([]byte) string { return "" }
	}
}

// hashID derives a stable id from the document content.
func hashID(doc []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(doc))
}

// fieldID reads the id from a top-level field. Column names may contain
// dots and spaces, so the object is walked instead of queried by path.
func fieldID(field string) idFunc {
	return func(doc []byte) string {
		id := ""
		gjson.ParseBytes(doc).ForEach(func(key, value gjson.Result) bool {
			if key.String() != field {
				return true
			}
			switch value.Type {
			case gjson.Null:
			case gjson.String:
				id = value.Str
			default:
				id = value.Raw
			}
			return false
		})
		return id
	}
}
