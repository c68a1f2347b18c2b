package progress

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	"github.com/vk/elastico/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

const (
	defaultEvent   = "load_progress"
	connectTimeout = 15 * time.Second
)

// SocketIOSettings describes the dashboard endpoint progress is pushed to.
type SocketIOSettings struct {
	URL                string
	Namespace          string
	Event              string
	InsecureSkipVerify bool
}

// SocketIOReporter emits every snapshot as a socket.io event.
type SocketIOReporter struct {
	io    *socket.Socket
	event string
}

// DialSocketIO connects to the endpoint and waits for the connection to be
// established.
func DialSocketIO(ctx context.Context, s SocketIOSettings) (*SocketIOReporter, error) {
	logger := ctxlog.FromContext(ctx).With("reporter", "socketio", "url", s.URL)
	logger.Info("Connecting progress reporter...")

	parsedURL, err := url.Parse(s.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if s.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(s.Namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Progress reporter connected", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		var err error = fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connectChan <- err
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(connectTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", connectTimeout)
	}

	event := s.Event
	if event == "" {
		event = defaultEvent
	}
	return &SocketIOReporter{io: io, event: event}, nil
}

// Report implements Reporter.
func (r *SocketIOReporter) Report(_ context.Context, s Snapshot) error {
	payload := map[string]any{
		"index":      s.Index,
		"rows":       s.Rows,
		"indexed":    s.Indexed,
		"failed":     s.Failed,
		"batches":    s.Batches,
		"elapsed_ms": s.Elapsed.Milliseconds(),
		"done":       s.Done,
	}
	if err := r.io.Emit(r.event, payload); err != nil {
		return fmt.Errorf("failed to emit %s: %w", r.event, err)
	}
	return nil
}

// Close implements Reporter.
func (r *SocketIOReporter) Close() error {
	r.io.Disconnect()
	return nil
}
