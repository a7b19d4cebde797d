// Package manifest holds the deployment descriptor of a handler: the model
// value object and the MANIFEST.json envelope written next to it.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Model identifies a handler entry point and its optional metadata.
// It is immutable: the canonical JSON projection is built once by NewModel
// and every rendering returns those same bytes.
type Model struct {
	modelName    string
	handler      string
	description  *string
	modelVersion *string
	extensions   json.RawMessage
	projection   []byte
}

// ModelOption sets an optional Model field.
type ModelOption func(*modelFields)

type modelFields struct {
	description  *string
	modelVersion *string
	extensions   map[string]any
	hasExt       bool
}

// WithDescription sets the description.
func WithDescription(s string) ModelOption {
	return func(f *modelFields) { f.description = &s }
}

// WithModelVersion sets the model version.
func WithModelVersion(s string) ModelOption {
	return func(f *modelFields) { f.modelVersion = &s }
}

// WithExtensions sets the extensions object. A nil map leaves it absent.
func WithExtensions(ext map[string]any) ModelOption {
	return func(f *modelFields) {
		f.extensions = ext
		f.hasExt = ext != nil
	}
}

// NewModel builds a Model. Required fields are not validated. It fails only
// when the extensions cannot be encoded as JSON.
func NewModel(modelName, handler string, opts ...ModelOption) (Model, error) {
	var f modelFields
	for _, o := range opts {
		o(&f)
	}
	m := Model{
		modelName:    modelName,
		handler:      handler,
		description:  f.description,
		modelVersion: f.modelVersion,
	}
	if f.hasExt {
		raw, err := encode(f.extensions)
		if err != nil {
			return Model{}, fmt.Errorf("encode extensions: %w", err)
		}
		m.extensions = raw
	}
	proj, err := m.project()
	if err != nil {
		return Model{}, err
	}
	m.projection = proj
	return m, nil
}

// MustModel is like NewModel but panics on error.
func MustModel(modelName, handler string, opts ...ModelOption) Model {
	m, err := NewModel(modelName, handler, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// project renders the fields in canonical order, omitting absent optionals.
func (m Model) project() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	write := func(key string, v any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, err := encode(key)
		if err != nil {
			return err
		}
		val, err := encode(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
		return nil
	}
	if err := write("modelName", m.modelName); err != nil {
		return nil, err
	}
	if err := write("handler", m.handler); err != nil {
		return nil, err
	}
	if m.description != nil {
		if err := write("description", *m.description); err != nil {
			return nil, err
		}
	}
	if m.modelVersion != nil {
		if err := write("modelVersion", *m.modelVersion); err != nil {
			return nil, err
		}
	}
	if m.extensions != nil {
		if err := write("extensions", m.extensions); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encode marshals v compactly without HTML escaping.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (m Model) ModelName() string { return m.modelName }

func (m Model) Handler() string { return m.handler }

// Description returns the description and whether it is present.
func (m Model) Description() (string, bool) {
	if m.description == nil {
		return "", false
	}
	return *m.description, true
}

// ModelVersion returns the model version and whether it is present.
func (m Model) ModelVersion() (string, bool) {
	if m.modelVersion == nil {
		return "", false
	}
	return *m.modelVersion, true
}

// Extensions returns a fresh copy of the extensions, or nil when absent.
func (m Model) Extensions() map[string]any {
	if m.extensions == nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(m.extensions, &out); err != nil {
		return nil
	}
	return out
}

// String returns the canonical JSON rendering.
func (m Model) String() string { return string(m.projection) }

// MarshalJSON returns a copy of the canonical JSON rendering.
func (m Model) MarshalJSON() ([]byte, error) {
	if m.projection == nil {
		return nil, fmt.Errorf("manifest: model not constructed with NewModel")
	}
	return append([]byte(nil), m.projection...), nil
}

// Equal reports whether two models render identically.
func (m Model) Equal(o Model) bool { return bytes.Equal(m.projection, o.projection) }

type modelWire struct {
	ModelName    string          `json:"modelName"`
	Handler      string          `json:"handler"`
	Description  *string         `json:"description"`
	ModelVersion *string         `json:"modelVersion"`
	Extensions   json.RawMessage `json:"extensions"`
}

// ParseModel decodes a JSON model object. A null optional is treated as absent.
func ParseModel(b []byte) (Model, error) {
	var w modelWire
	if err := json.Unmarshal(b, &w); err != nil {
		return Model{}, fmt.Errorf("decode model: %w", err)
	}
	var opts []ModelOption
	if w.Description != nil {
		opts = append(opts, WithDescription(*w.Description))
	}
	if w.ModelVersion != nil {
		opts = append(opts, WithModelVersion(*w.ModelVersion))
	}
	if len(w.Extensions) > 0 && !bytes.Equal(bytes.TrimSpace(w.Extensions), []byte("null")) {
		var ext map[string]any
		if err := json.Unmarshal(w.Extensions, &ext); err != nil {
			return Model{}, fmt.Errorf("decode extensions: %w", err)
		}
		opts = append(opts, WithExtensions(ext))
	}
	return NewModel(w.ModelName, w.Handler, opts...)
}
