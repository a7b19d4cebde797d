package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"handlerd/internal/handlers"
	"handlerd/internal/manifest"
)

type manifestFlags struct {
	modelName    string
	handler      string
	description  string
	modelVersion string
	extensions   []string
	implVersion  string
	out          string
	force        bool
}

func buildManifestCmd() *cobra.Command {
	mf := &manifestFlags{}
	cmd := &cobra.Command{
		Use:     "manifest",
		Short:   "Write MAR-INF/MANIFEST.json for a packaged handler",
		Example: "  handlerd manifest --model-name resnet --handler echo --model-version 1.0 --extension gpu=true --out ./store/resnet",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := writeManifest(mf, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&mf.modelName, "model-name", "", "Model name (required)")
	f.StringVar(&mf.handler, "handler", "", "Handler entry point (required)")
	f.StringVar(&mf.description, "description", "", "Model description")
	f.StringVar(&mf.modelVersion, "model-version", "", "Model version")
	f.StringArrayVar(&mf.extensions, "extension", nil, "Extension key=value; JSON values are decoded (repeatable)")
	f.StringVar(&mf.implVersion, "impl-version", "", "Implementation version recorded in the envelope")
	f.StringVar(&mf.out, "out", ".", "Package directory to write into")
	f.BoolVar(&mf.force, "force", false, "Allow handler entry points not registered in this binary")
	_ = cmd.MarkFlagRequired("model-name")
	_ = cmd.MarkFlagRequired("handler")
	return cmd
}

// writeManifest builds the model from flags and writes the envelope.
// Only flags that were given become present optionals.
func writeManifest(mf *manifestFlags, now time.Time) (string, error) {
	if strings.TrimSpace(mf.modelName) == "" || strings.TrimSpace(mf.handler) == "" {
		return "", fmt.Errorf("model name and handler are required")
	}
	if !mf.force {
		if _, err := handlers.New(mf.handler); err != nil {
			return "", fmt.Errorf("%w (registered: %s; use --force to skip)", err, strings.Join(handlers.Names(), ", "))
		}
	}
	var opts []manifest.ModelOption
	if mf.description != "" {
		opts = append(opts, manifest.WithDescription(mf.description))
	}
	if mf.modelVersion != "" {
		opts = append(opts, manifest.WithModelVersion(mf.modelVersion))
	}
	if len(mf.extensions) > 0 {
		ext, err := parseExtensions(mf.extensions)
		if err != nil {
			return "", err
		}
		opts = append(opts, manifest.WithExtensions(ext))
	}
	m, err := manifest.NewModel(mf.modelName, mf.handler, opts...)
	if err != nil {
		return "", err
	}
	return manifest.New(m, mf.implVersion, now).WriteFile(mf.out)
}

// parseExtensions turns key=value pairs into a map. Values that parse as JSON
// keep their JSON type; anything else is a string.
func parseExtensions(kvs []string) (map[string]any, error) {
	out := make(map[string]any, len(kvs))
	for _, kv := range kvs {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid extension %q: want key=value", kv)
		}
		var decoded any
		if err := json.Unmarshal([]byte(v), &decoded); err == nil {
			out[k] = decoded
		} else {
			out[k] = v
		}
	}
	return out, nil
}
