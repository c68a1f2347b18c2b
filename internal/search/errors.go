package search

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

var (
	// ErrNotAcknowledged is returned when the cluster does not acknowledge an index creation.
	ErrNotAcknowledged = errors.New("index creation not acknowledged")
	// ErrBulkRejected is returned when a whole bulk request fails.
	ErrBulkRejected = errors.New("bulk request rejected")
)

// ResponseError is an error response returned by the cluster.
type ResponseError struct {
	Status int
	Type   string
	Reason string
}

func (e *ResponseError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("elasticsearch: status %d", e.Status)
	}
	return fmt.Sprintf("elasticsearch: status %d: %s: %s", e.Status, e.Type, e.Reason)
}

func responseError(status int, body []byte) error {
	parsed := gjson.ParseBytes(body)
	return &ResponseError{
		Status: status,
		Type:   parsed.Get("error.type").String(),
		Reason: parsed.Get("error.reason").String(),
	}
}
