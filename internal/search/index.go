package search

import (
	"bytes"
	"context"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/vk/elastico/internal/ctxlog"
	"github.com/vk/elastico/internal/mapping"
)

// IndexManager creates, drops and inspects indices.
type IndexManager struct {
	client *Client
}

// Indices returns the index manager of c.
func (c *Client) Indices() *IndexManager {
	return &IndexManager{client: c}
}

// Exists reports whether the index exists.
func (m *IndexManager) Exists(ctx context.Context, name string) (bool, error) {
	res, err := esapi.IndicesExistsRequest{Index: []string{name}}.Do(ctx, m.client.es)
	if err != nil {
		return false, errors.Wrapf(err, "exists request for index '%s' failed", name)
	}
	body, err := readBody(res)
	if err != nil {
		return false, err
	}
	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, errors.Wrapf(responseError(res.StatusCode, body), "exists check for index '%s'", name)
	}
}

// Delete drops the index.
func (m *IndexManager) Delete(ctx context.Context, name string) error {
	res, err := esapi.IndicesDeleteRequest{Index: []string{name}}.Do(ctx, m.client.es)
	if err != nil {
		return errors.Wrapf(err, "delete request for index '%s' failed", name)
	}
	body, err := readBody(res)
	if err != nil {
		return err
	}
	if res.IsError() {
		return errors.Wrapf(responseError(res.StatusCode, body), "failed to delete index '%s'", name)
	}
	ctxlog.FromContext(ctx).Info("Index deleted.", "index", name)
	return nil
}

// Create creates the index with the given mapping. An unacknowledged
// creation is an error.
func (m *IndexManager) Create(ctx context.Context, name string, mp mapping.Mapping) error {
	payload, err := mp.Body()
	if err != nil {
		return errors.Wrap(err, "failed to render mapping")
	}

	res, err := esapi.IndicesCreateRequest{Index: name, Body: bytes.NewReader(payload)}.Do(ctx, m.client.es)
	if err != nil {
		return errors.Wrapf(err, "create request for index '%s' failed", name)
	}
	body, err := readBody(res)
	if err != nil {
		return err
	}
	if res.IsError() {
		return errors.Wrapf(responseError(res.StatusCode, body), "failed to create index '%s'", name)
	}
	if !gjson.GetBytes(body, "acknowledged").Bool() {
		return errors.Wrapf(ErrNotAcknowledged, "index '%s'", name)
	}

	ctxlog.FromContext(ctx).Info("Index created.", "index", name, "fields", len(mp.Properties))
	return nil
}

// Recreate drops the index when it exists and creates it again.
func (m *IndexManager) Recreate(ctx context.Context, name string, mp mapping.Mapping) error {
	exists, err := m.Exists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		if err := m.Delete(ctx, name); err != nil {
			return err
		}
	}
	return m.Create(ctx, name, mp)
}

// Ensure creates the index only when it is missing. It reports whether the
// index was created.
func (m *IndexManager) Ensure(ctx context.Context, name string, mp mapping.Mapping) (bool, error) {
	exists, err := m.Exists(ctx, name)
	if err != nil {
		return false, err
	}
	if exists {
		ctxlog.FromContext(ctx).Info("Index already exists, keeping it.", "index", name)
		return false, nil
	}
	if err := m.Create(ctx, name, mp); err != nil {
		return false, err
	}
	return true, nil
}

// Refresh makes all indexed documents visible to search.
func (m *IndexManager) Refresh(ctx context.Context, name string) error {
	res, err := esapi.IndicesRefreshRequest{Index: []string{name}}.Do(ctx, m.client.es)
	if err != nil {
		return errors.Wrapf(err, "refresh request for index '%s' failed", name)
	}
	body, err := readBody(res)
	if err != nil {
		return err
	}
	if res.IsError() {
		return errors.Wrapf(responseError(res.StatusCode, body), "failed to refresh index '%s'", name)
	}
	return nil
}

// Count returns the number of documents in the index.
func (m *IndexManager) Count(ctx context.Context, name string) (int64, error) {
	res, err := esapi.CountRequest{Index: []string{name}}.Do(ctx, m.client.es)
	if err != nil {
		return 0, errors.Wrapf(err, "count request for index '%s' failed", name)
	}
	body, err := readBody(res)
	if err != nil {
		return 0, err
	}
	if res.IsError() {
		return 0, errors.Wrapf(responseError(res.StatusCode, body), "failed to count index '%s'", name)
	}
	return gjson.GetBytes(body, "count").Int(), nil
}
