package testutil

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/tidwall/gjson"
)

// FakeDoc is a document stored by FakeElasticsearch.
type FakeDoc struct {
	ID     string
	Source json.RawMessage
}

// FakeElasticsearch is an in-memory stand-in for the subset of the
// Elasticsearch REST API the loader talks to.
type FakeElasticsearch struct {
	Server *httptest.Server

	// Reject, when set, decides per document whether the bulk item fails
	// and with which reason.
	Reject func(source []byte) (bool, string)
	// BulkStatus, when non-zero, makes every bulk request fail with it.
	BulkStatus int
	// Unacknowledged makes index creation return acknowledged=false.
	Unacknowledged bool

	mu       sync.Mutex
	indices  map[string]json.RawMessage
	docs     map[string][]FakeDoc
	requests []string
	bulks    int
	nextID   int
}

// NewFakeElasticsearch starts a fake cluster that is shut down with the test.
func NewFakeElasticsearch(t *testing.T) *FakeElasticsearch {
	t.Helper()
	f := &FakeElasticsearch{
		indices: make(map[string]json.RawMessage),
		docs:    make(map[string][]FakeDoc),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the base address of the fake cluster.
func (f *FakeElasticsearch) URL() string {
	return f.Server.URL
}

// AddIndex registers an existing index.
func (f *FakeElasticsearch) AddIndex(name string, docs ...FakeDoc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indices[name] = json.RawMessage(`{}`)
	f.docs[name] = append(f.docs[name], docs...)
}

// Mapping returns the create body of an index, or nil.
func (f *FakeElasticsearch) Mapping(name string) json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.indices[name]
}

// Docs returns a copy of the documents stored in an index.
func (f *FakeElasticsearch) Docs(name string) []FakeDoc {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeDoc(nil), f.docs[name]...)
}

// Requests returns every request seen as "METHOD /path".
func (f *FakeElasticsearch) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// BulkCount returns the number of bulk requests served.
func (f *FakeElasticsearch) BulkCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bulks
}

func (f *FakeElasticsearch) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.mu.Unlock()

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.URL.Path == "/" && r.Method == http.MethodGet:
		fmt.Fprint(w, `{"cluster_name":"fake","version":{"number":"8.6.2"}}`)
	case len(parts) == 1 && parts[0] == "_bulk":
		f.bulk(w, r, "")
	case len(parts) == 2 && parts[1] == "_bulk":
		f.bulk(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "_refresh":
		fmt.Fprint(w, `{"_shards":{"total":1,"successful":1,"failed":0}}`)
	case len(parts) == 2 && parts[1] == "_count":
		f.mu.Lock()
		n := len(f.docs[parts[0]])
		f.mu.Unlock()
		fmt.Fprintf(w, `{"count":%d}`, n)
	case len(parts) == 1:
		f.index(w, r, parts[0])
	default:
		writeError(w, http.StatusBadRequest, "illegal_argument_exception", "unsupported path "+r.URL.Path)
	}
}

func (f *FakeElasticsearch) index(w http.ResponseWriter, r *http.Request, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, exists := f.indices[name]

	switch r.Method {
	case http.MethodHead:
		if !exists {
			w.WriteHeader(http.StatusNotFound)
		}
	case http.MethodDelete:
		if !exists {
			writeError(w, http.StatusNotFound, "index_not_found_exception", "no such index ["+name+"]")
			return
		}
		delete(f.indices, name)
		delete(f.docs, name)
		fmt.Fprint(w, `{"acknowledged":true}`)
	case http.MethodPut:
		if exists {
			writeError(w, http.StatusBadRequest, "resource_already_exists_exception", "index ["+name+"] already exists")
			return
		}
		body, _ := io.ReadAll(r.Body)
		if len(body) == 0 {
			body = []byte(`{}`)
		}
		f.indices[name] = body
		fmt.Fprintf(w, `{"acknowledged":%t,"shards_acknowledged":true,"index":%q}`, !f.Unacknowledged, name)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", r.Method)
	}
}

func (f *FakeElasticsearch) bulk(w http.ResponseWriter, r *http.Request, defaultIndex string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulks++

	if f.BulkStatus != 0 {
		writeError(w, f.BulkStatus, "es_rejected_execution_exception", "rejected by fake")
		return
	}

	scanner := bufio.NewScanner(r.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var items []string
	errorsSeen := false
	for scanner.Scan() {
		action := bytes.TrimSpace(scanner.Bytes())
		if len(action) == 0 {
			continue
		}
		meta := gjson.GetBytes(action, "index")
		if !scanner.Scan() {
			writeError(w, http.StatusBadRequest, "action_request_validation_exception", "missing source line")
			return
		}
		source := append([]byte(nil), bytes.TrimSpace(scanner.Bytes())...)

		index := meta.Get("_index").String()
		if index == "" {
			index = defaultIndex
		}
		id := meta.Get("_id").String()
		if id == "" {
			f.nextID++
			id = fmt.Sprintf("auto-%d", f.nextID)
		}

		if f.Reject != nil {
			if rejected, reason := f.Reject(source); rejected {
				errorsSeen = true
				items = append(items, fmt.Sprintf(
					`{"index":{"_index":%q,"_id":%q,"status":400,"error":{"type":"mapper_parsing_exception","reason":%q}}}`,
					index, id, reason))
				continue
			}
		}

		if _, ok := f.indices[index]; !ok {
			f.indices[index] = json.RawMessage(`{}`)
		}
		f.docs[index] = append(f.docs[index], FakeDoc{ID: id, Source: source})
		items = append(items, fmt.Sprintf(`{"index":{"_index":%q,"_id":%q,"status":201,"result":"created"}}`, index, id))
	}

	fmt.Fprintf(w, `{"took":1,"errors":%t,"items":[%s]}`, errorsSeen, strings.Join(items, ","))
}

func writeError(w http.ResponseWriter, status int, typ, reason string) {
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":{"type":%q,"reason":%q},"status":%d}`, typ, reason, status)
}
