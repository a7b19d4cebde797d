package e2e

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"handlerd/internal/handler"
	"handlerd/internal/handlers/echo"
	"handlerd/internal/manifest"
	"handlerd/pkg/types"
)

type boomHandler struct{ handler.Base }

func (h *boomHandler) Inference(any) (any, error) { return nil, errors.New("boom") }

func TestDefaultStagesReturnPlaceholders(t *testing.T) {
	hs := newHarness(t, &handler.Base{}, handler.Properties{"batch_size": 2}, "")
	if hs.startErr != nil {
		t.Fatalf("start: %v", hs.startErr)
	}

	code, resp := hs.predict(t, "req1", "req2")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(resp.Outputs) != 2 || resp.Outputs[0] != "OK" || resp.Outputs[1] != "OK" {
		t.Fatalf("unexpected outputs %v", resp.Outputs)
	}
	if resp.BatchID == "" {
		t.Fatalf("missing batch id")
	}

	timings := hs.rec.Timings()
	if len(timings) != 3 {
		t.Fatalf("expected 3 timings, got %d: %v", len(timings), timings)
	}
	want := []string{handler.MetricPreprocessTime, handler.MetricInferenceTime, handler.MetricPostprocessTime}
	for i, tm := range timings {
		if tm.Name != want[i] || tm.MS < 0 {
			t.Fatalf("timing %d: %+v", i, tm)
		}
	}
	if reports := hs.status.all(); len(reports) != 0 {
		t.Fatalf("status reported on success: %+v", reports)
	}
}

func TestInferenceFailureFillsEverySlot(t *testing.T) {
	hs := newHarness(t, &boomHandler{}, handler.Properties{"batch_size": 2}, "")

	code, resp := hs.predict(t, "req1", "req2")
	if code != handler.StatusUnknownInference {
		t.Fatalf("expected %d, got %d", handler.StatusUnknownInference, code)
	}
	if len(resp.Outputs) != 2 || resp.Outputs[0] != "boom" || resp.Outputs[1] != "boom" {
		t.Fatalf("unexpected outputs %v", resp.Outputs)
	}
	if resp.Error != handler.MsgUnknownInference {
		t.Fatalf("unexpected error message %q", resp.Error)
	}
	reports := hs.status.all()
	if len(reports) != 1 || reports[0].Code != handler.StatusUnknownInference || reports[0].Message != handler.MsgUnknownInference {
		t.Fatalf("status reporter: %+v", reports)
	}
	if n := len(hs.rec.Timings()); n != 0 {
		t.Fatalf("expected no timings on failure, got %d", n)
	}
	if !strings.Contains(hs.logs.String(), "boom") {
		t.Fatalf("expected failure to be logged, logs: %s", hs.logs.String())
	}

	code, body := hs.get(t, "/status")
	if code != http.StatusOK {
		t.Fatalf("/status: %d", code)
	}
	var st types.StatusResponse
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if st.LastError == "" || st.FailuresTotal != 1 || st.BatchesTotal != 1 {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestMissingBatchSizeLeavesHandlerUninitialized(t *testing.T) {
	hs := newHarness(t, &handler.Base{}, handler.Properties{}, "")
	if !handler.IsConfigurationError(hs.startErr) {
		t.Fatalf("expected configuration error, got %v", hs.startErr)
	}

	code, body := hs.get(t, "/readyz")
	if code != http.StatusServiceUnavailable || string(body) != "loading" {
		t.Fatalf("readyz: %d %q", code, body)
	}
	code, body = hs.get(t, "/status")
	var st types.StatusResponse
	if err := json.Unmarshal(body, &st); err != nil || code != http.StatusOK {
		t.Fatalf("status: %d %v", code, err)
	}
	if st.Initialized || st.BatchSize != 0 {
		t.Fatalf("expected uninitialized handler, got %+v", st)
	}

	code, resp := hs.predict(t, "a")
	if code != handler.StatusUnknownInference || len(resp.Outputs) != 1 {
		t.Fatalf("predict on uninitialized handler: %d %+v", code, resp)
	}
}

func TestWrongBatchLengthFails(t *testing.T) {
	hs := newHarness(t, echo.New(), handler.Properties{"batch_size": 2}, "")

	code, resp := hs.predict(t, "a", "b", "c")
	if code != handler.StatusUnknownInference {
		t.Fatalf("expected %d, got %d", handler.StatusUnknownInference, code)
	}
	want := (&handler.InvalidBatchSizeError{Want: 2, Got: 3}).Error()
	if len(resp.Outputs) != 2 || resp.Outputs[0] != want {
		t.Fatalf("unexpected outputs %v, want slots of %q", resp.Outputs, want)
	}

	code, resp = hs.predict(t, "a", "b")
	if code != http.StatusOK || resp.Outputs[0] != "a" || resp.Outputs[1] != "b" {
		t.Fatalf("follow-up batch: %d %v", code, resp.Outputs)
	}
}

func TestStoreManifestsAreServedCanonically(t *testing.T) {
	store := t.TempDir()
	m := manifest.MustModel("resnet", "resnet_handler.py",
		manifest.WithDescription("image classifier"),
		manifest.WithExtensions(map[string]any{"gpu": true}),
	)
	if _, err := manifest.New(m, "", time.Now()).WriteFile(filepath.Join(store, "resnet")); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	hs := newHarness(t, &handler.Base{}, handler.Properties{"batch_size": 1}, store)

	code, body := hs.get(t, "/models/resnet")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	want := `{"modelName":"resnet","handler":"resnet_handler.py","description":"image classifier","extensions":{"gpu":true}}`
	if string(body) != want {
		t.Fatalf("manifest mismatch:\n got %s\nwant %s", body, want)
	}
	_, again := hs.get(t, "/models/resnet")
	if string(again) != string(body) {
		t.Fatalf("manifest not byte-identical across requests")
	}

	code, body = hs.get(t, "/models")
	if code != http.StatusOK || !strings.Contains(string(body), want) {
		t.Fatalf("/models: %d %s", code, body)
	}
}
