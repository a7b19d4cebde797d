package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"handlerd/internal/handler"
	"handlerd/internal/httpapi"
	"handlerd/internal/manifest"
	"handlerd/internal/metrics"
	"handlerd/internal/registry"
	"handlerd/internal/worker"
	"handlerd/pkg/types"
)

// service adapts a worker and a scanned store to httpapi.Service.
type service struct {
	*worker.Worker
	entries []registry.Entry
}

func (s *service) Models() []manifest.Model { return registry.Models(s.entries) }

// statusLog records status reports from the server goroutine.
type statusLog struct {
	mu      sync.Mutex
	reports []metrics.StatusCapture
}

func (s *statusLog) ReportStatus(code int, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, metrics.StatusCapture{Code: code, Message: msg})
}

func (s *statusLog) all() []metrics.StatusCapture {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]metrics.StatusCapture(nil), s.reports...)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type harness struct {
	srv      *httptest.Server
	w        *worker.Worker
	rec      *metrics.Recorder
	status   *statusLog
	logs     *syncBuffer
	startErr error
}

// newHarness hosts h behind the HTTP API. Start errors are recorded, not fatal,
// so tests can exercise a handler that failed to initialize.
func newHarness(t *testing.T, h handler.Handler, props handler.Properties, store string) *harness {
	t.Helper()
	var entries []registry.Entry
	if store != "" {
		es, err := registry.LoadDir(store)
		if err != nil {
			t.Fatalf("load store: %v", err)
		}
		entries = es
	}
	hs := &harness{
		rec:    metrics.NewRecorder(0),
		status: &statusLog{},
		logs:   &syncBuffer{},
	}
	hs.w = worker.New(h, worker.Config{
		Model:       "e2e",
		HandlerName: "test",
		Properties:  props,
		Logger:      zerolog.New(hs.logs),
		Metrics:     hs.rec,
		Status:      hs.status,
	})
	hs.startErr = hs.w.Start()
	hs.srv = httptest.NewServer(httpapi.NewMux(&service{Worker: hs.w, entries: entries}))
	t.Cleanup(hs.srv.Close)
	return hs
}

func (hs *harness) predict(t *testing.T, inputs ...any) (int, types.PredictResponse) {
	t.Helper()
	body, err := json.Marshal(types.PredictRequest{Inputs: inputs})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	resp, err := http.Post(hs.srv.URL+"/predictions", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /predictions: %v", err)
	}
	defer resp.Body.Close()
	var out types.PredictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.StatusCode, out
}

func (hs *harness) get(t *testing.T, path string) (int, []byte) {
	t.Helper()
	resp, err := http.Get(hs.srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return resp.StatusCode, b
}
