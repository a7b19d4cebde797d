// Package echo is a reference handler: it decodes text payloads, optionally
// prefixes and upper-cases them, and returns one string per request.
//
// Properties read at Initialize (all optional besides batch_size):
//
//	prefix   string prepended to every result
//	upper    bool   upper-case results
//	fail_on  string inference fails when any payload equals it
package echo

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"handlerd/internal/handler"
	"handlerd/internal/handlers"
)

// Name is the entry point name used in manifests.
const Name = "echo"

func init() {
	handlers.Register(Name, func() handler.Handler { return New() })
}

// Handler implements handler.Handler on top of handler.Base.
type Handler struct {
	handler.Base
	prefix string
	upper  bool
	failOn string
}

// New returns an uninitialized echo handler.
func New() *Handler { return &Handler{} }

// Initialize reads the batch size and the echo options.
func (h *Handler) Initialize(hctx *handler.Context) error {
	if err := h.Base.Initialize(hctx); err != nil {
		return err
	}
	p := hctx.Properties
	if v, ok := p["prefix"].(string); ok {
		h.prefix = v
	}
	if v, ok := p["upper"].(bool); ok {
		h.upper = v
	}
	if v, ok := p["fail_on"].(string); ok {
		h.failOn = v
	}
	return nil
}

// Preprocess turns each raw request into text. Maps carrying a "body" or
// "data" entry use that entry as the payload.
func (h *Handler) Preprocess(batch []any) (any, error) {
	if err := h.CheckBatchSize(batch); err != nil {
		return nil, err
	}
	texts := make([]string, len(batch))
	for i, req := range batch {
		s, err := payloadText(req)
		if err != nil {
			return nil, fmt.Errorf("request %d: %w", i, err)
		}
		texts[i] = s
	}
	return texts, nil
}

// Inference applies the configured transform.
func (h *Handler) Inference(input any) (any, error) {
	texts, ok := input.([]string)
	if !ok {
		return nil, fmt.Errorf("unexpected model input %T", input)
	}
	out := make([]string, len(texts))
	for i, s := range texts {
		if h.failOn != "" && s == h.failOn {
			return nil, errors.New(s)
		}
		if h.upper {
			s = strings.ToUpper(s)
		}
		out[i] = h.prefix + s
	}
	return out, nil
}

// Postprocess returns one string per batch slot.
func (h *Handler) Postprocess(output any) ([]any, error) {
	texts, ok := output.([]string)
	if !ok {
		return nil, fmt.Errorf("unexpected model output %T", output)
	}
	res := make([]any, len(texts))
	for i, s := range texts {
		res[i] = s
	}
	return res, nil
}

func payloadText(req any) (string, error) {
	switch v := req.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case json.RawMessage:
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s, nil
		}
		return string(v), nil
	case map[string]any:
		for _, k := range []string{"body", "data"} {
			if inner, ok := v[k]; ok {
				return payloadText(inner)
			}
		}
	case nil:
		return "", errors.New("empty request")
	}
	b, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
