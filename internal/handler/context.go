package handler

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PropBatchSize is the required properties key holding the batch size.
const PropBatchSize = "batch_size"

// Properties is the runtime-supplied configuration mapping. Handlers read it
// and must never write to it.
type Properties map[string]any

// MetricsSink receives per-stage timings in milliseconds.
type MetricsSink interface {
	AddTime(name string, ms float64)
}

// StatusReporter receives the status of a batch when it fails.
type StatusReporter interface {
	ReportStatus(code int, msg string)
}

// Context is the bundle the runtime passes to Initialize and Handle.
// Nil sinks are treated as no-ops.
type Context struct {
	Properties Properties
	Metrics    MetricsSink
	Status     StatusReporter
}

// NewContext builds a Context.
func NewContext(props Properties, metrics MetricsSink, status StatusReporter) *Context {
	return &Context{Properties: props, Metrics: metrics, Status: status}
}

func (c *Context) metrics() MetricsSink {
	if c == nil || c.Metrics == nil {
		return noopMetrics{}
	}
	return c.Metrics
}

func (c *Context) status() StatusReporter {
	if c == nil || c.Status == nil {
		return noopStatus{}
	}
	return c.Status
}

type noopMetrics struct{}

func (noopMetrics) AddTime(string, float64) {}

type noopStatus struct{}

func (noopStatus) ReportStatus(int, string) {}

// BatchSize returns the configured batch size. Config files may decode the
// value as any numeric kind, so integral floats and numeric strings are accepted.
func (p Properties) BatchSize() (int, error) {
	v, ok := p[PropBatchSize]
	if !ok || v == nil {
		return 0, &ConfigurationError{Key: PropBatchSize, Err: errMissing}
	}
	n, err := toInt(v)
	if err != nil {
		return 0, &ConfigurationError{Key: PropBatchSize, Err: err}
	}
	if n <= 0 {
		return 0, &ConfigurationError{Key: PropBatchSize, Err: fmt.Errorf("must be positive, got %d", n)}
	}
	return n, nil
}

func toInt(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int8:
		return int(x), nil
	case int16:
		return int(x), nil
	case int32:
		return int(x), nil
	case int64:
		return int(x), nil
	case uint:
		return int(x), nil
	case uint8:
		return int(x), nil
	case uint16:
		return int(x), nil
	case uint32:
		return int(x), nil
	case uint64:
		return int(x), nil
	case float32:
		return floatToInt(float64(x))
	case float64:
		return floatToInt(x)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", x)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

func floatToInt(f float64) (int, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("not an integer: %v", f)
	}
	return int(f), nil
}
