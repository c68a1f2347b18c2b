package search

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// Document is one source document to index. An empty ID lets the cluster
// assign one.
type Document struct {
	ID     string
	Source []byte
}

// ItemError describes a document the cluster refused.
type ItemError struct {
	Position int
	Index    string
	ID       string
	Status   int
	Type     string
	Reason   string
}

// BulkResult summarises a bulk response.
type BulkResult struct {
	Indexed int
	Failed  int
	Errors  []ItemError
}

type bulkAction struct {
	Index bulkMeta `json:"index"`
}

type bulkMeta struct {
	Index string `json:"_index"`
	ID    string `json:"_id,omitempty"`
}

// Bulk indexes docs into index with a single _bulk request. Item level
// failures are reported in the result; only request level failures return
// an error.
func (c *Client) Bulk(ctx context.Context, index string, docs []Document, refresh string) (BulkResult, error) {
	if len(docs) == 0 {
		return BulkResult{}, nil
	}

	payload, err := encodeBulk(index, docs)
	if err != nil {
		return BulkResult{}, err
	}

	res, err := esapi.BulkRequest{Index: index, Body: bytes.NewReader(payload), Refresh: refresh}.Do(ctx, c.es)
	if err != nil {
		return BulkResult{}, errors.Wrap(ErrBulkRejected, err.Error())
	}
	body, err := readBody(res)
	if err != nil {
		return BulkResult{}, err
	}
	if res.IsError() {
		return BulkResult{}, errors.Wrap(ErrBulkRejected, responseError(res.StatusCode, body).Error())
	}

	return decodeBulk(body, len(docs))
}

func encodeBulk(index string, docs []Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i, doc := range docs {
		if !gjson.ValidBytes(doc.Source) {
			return nil, errors.Errorf("document %d is not valid JSON", i)
		}
		// Encode terminates the action line with a newline.
		if err := enc.Encode(bulkAction{Index: bulkMeta{Index: index, ID: doc.ID}}); err != nil {
			return nil, errors.Wrap(err, "failed to encode bulk action")
		}
		buf.Write(bytes.TrimSpace(doc.Source))
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func decodeBulk(body []byte, sent int) (BulkResult, error) {
	parsed := gjson.ParseBytes(body)
	items := parsed.Get("items")
	if !items.IsArray() {
		return BulkResult{}, errors.Wrap(ErrBulkRejected, "response has no items")
	}

	var result BulkResult
	position := 0
	items.ForEach(func(_, item gjson.Result) bool {
		// Each item is keyed by its action name.
		var op gjson.Result
		item.ForEach(func(_, v gjson.Result) bool {
			op = v
			return false
		})

		if e := op.Get("error"); e.Exists() {
			result.Failed++
			result.Errors = append(result.Errors, ItemError{
				Position: position,
				Index:    op.Get("_index").String(),
				ID:       op.Get("_id").String(),
				Status:   int(op.Get("status").Int()),
				Type:     e.Get("type").String(),
				Reason:   e.Get("reason").String(),
			})
		} else {
			result.Indexed++
		}
		position++
		return true
	})

	if position != sent {
		return result, errors.Wrapf(ErrBulkRejected, "response has %d items for %d documents", position, sent)
	}
	return result, nil
}
