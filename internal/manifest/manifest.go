package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"handlerd/internal/common/fsutil"
)

// Layout of a packaged handler directory.
const (
	Dir  = "MAR-INF"
	File = "MANIFEST.json"

	SpecificationVersion = "1.0"
	DefaultRuntime       = "go"
	createdOnLayout      = "02/01/2006 15:04:05"
)

// Manifest is the envelope written to MAR-INF/MANIFEST.json.
type Manifest struct {
	SpecificationVersion  string `json:"specificationVersion"`
	ImplementationVersion string `json:"implementationVersion,omitempty"`
	CreatedOn             string `json:"createdOn"`
	Runtime               string `json:"runtime"`
	Model                 Model  `json:"model"`
}

// New wraps m in an envelope stamped with the given creation time.
func New(m Model, implementationVersion string, createdOn time.Time) Manifest {
	return Manifest{
		SpecificationVersion:  SpecificationVersion,
		ImplementationVersion: implementationVersion,
		CreatedOn:             createdOn.Format(createdOnLayout),
		Runtime:               DefaultRuntime,
		Model:                 m,
	}
}

// UnmarshalJSON decodes the envelope, rebuilding Model through ParseModel.
func (mf *Manifest) UnmarshalJSON(b []byte) error {
	var aux struct {
		SpecificationVersion  string          `json:"specificationVersion"`
		ImplementationVersion string          `json:"implementationVersion"`
		CreatedOn             string          `json:"createdOn"`
		Runtime               string          `json:"runtime"`
		Model                 json.RawMessage `json:"model"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if len(aux.Model) == 0 {
		return fmt.Errorf("manifest: missing model")
	}
	m, err := ParseModel(aux.Model)
	if err != nil {
		return err
	}
	*mf = Manifest{
		SpecificationVersion:  aux.SpecificationVersion,
		ImplementationVersion: aux.ImplementationVersion,
		CreatedOn:             aux.CreatedOn,
		Runtime:               aux.Runtime,
		Model:                 m,
	}
	return nil
}

// Path returns the manifest path inside a packaged handler directory.
func Path(dir string) string { return filepath.Join(dir, Dir, File) }

// WriteFile writes the manifest into dir/MAR-INF/MANIFEST.json and returns the path.
func (mf Manifest) WriteFile(dir string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(mf); err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}
	p := Path(dir)
	if err := fsutil.WriteFileAtomic(p, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return p, nil
}

// ReadFile loads a manifest from path.
func ReadFile(path string) (Manifest, error) {
	var mf Manifest
	b, err := os.ReadFile(path)
	if err != nil {
		return mf, err
	}
	if err := json.Unmarshal(b, &mf); err != nil {
		return mf, fmt.Errorf("%s: %w", path, err)
	}
	return mf, nil
}
