// Package search wraps the Elasticsearch client with the index management
// and bulk indexing operations the loader needs.
package search

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/vk/elastico/internal/ctxlog"
)

const defaultTimeout = 30 * time.Second

// Settings describes how to reach a cluster.
type Settings struct {
	Addresses          []string
	Username           string
	Password           string
	APIKey             string
	CACert             string
	InsecureSkipVerify bool
	Timeout            time.Duration
	MaxRetries         int
}

// Client is a connected cluster client.
type Client struct {
	es        *elasticsearch.Client
	transport *http.Transport
}

// NewClient builds a client from settings. No request is made until the
// first operation.
func NewClient(ctx context.Context, s Settings) (*Client, error) {
	logger := ctxlog.FromContext(ctx).With("addresses", s.Addresses)

	transport, err := newTransport(s)
	if err != nil {
		return nil, err
	}

	cfg := elasticsearch.Config{
		Addresses:     s.Addresses,
		Username:      s.Username,
		Password:      s.Password,
		APIKey:        s.APIKey,
		Transport:     transport,
		RetryOnStatus: []int{http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout},
		MaxRetries:    s.MaxRetries,
		DisableRetry:  s.MaxRetries == 0,
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create elasticsearch client")
	}
	logger.Debug("Elasticsearch client created.", "max_retries", s.MaxRetries)

	return &Client{es: es, transport: transport}, nil
}

// newTransport returns a pooled HTTP transport honouring the TLS settings.
func newTransport(s Settings) (*http.Transport, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	tlsCfg := &tls.Config{InsecureSkipVerify: s.InsecureSkipVerify}
	if s.CACert != "" {
		pem, err := os.ReadFile(s.CACert)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read CA certificate '%s'", s.CACert)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errors.Errorf("no certificates found in '%s'", s.CACert)
		}
		tlsCfg.RootCAs = pool
	}

	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: timeout,
		TLSClientConfig:       tlsCfg,
	}, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}

// Info returns the cluster name and version.
func (c *Client) Info(ctx context.Context) (name, version string, err error) {
	res, err := esapi.InfoRequest{}.Do(ctx, c.es)
	if err != nil {
		return "", "", errors.Wrap(err, "info request failed")
	}
	body, err := readBody(res)
	if err != nil {
		return "", "", err
	}
	if res.IsError() {
		return "", "", responseError(res.StatusCode, body)
	}
	parsed := gjson.ParseBytes(body)
	return parsed.Get("cluster_name").String(), parsed.Get("version.number").String(), nil
}

func readBody(res *esapi.Response) ([]byte, error) {
	if res.Body == nil {
		return nil, nil
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}
	return body, nil
}
