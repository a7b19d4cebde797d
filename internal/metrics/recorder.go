package metrics

import (
	"reflect"
	"sync"

	"handlerd/internal/handler"
)

// Timing is one recorded AddTime call.
type Timing struct {
	Name string
	MS   float64
}

// Recorder stores timings in memory. It keeps the full history and the
// latest value per metric name.
type Recorder struct {
	mu    sync.Mutex
	times []Timing
	last  map[string]float64
	limit int
}

// NewRecorder returns a Recorder keeping at most limit timings (0 = unbounded).
func NewRecorder(limit int) *Recorder {
	return &Recorder{last: make(map[string]float64), limit: limit}
}

func (r *Recorder) AddTime(name string, ms float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.times = append(r.times, Timing{Name: name, MS: ms})
	if r.limit > 0 && len(r.times) > r.limit {
		r.times = append([]Timing(nil), r.times[len(r.times)-r.limit:]...)
	}
	r.last[name] = ms
}

// Timings returns a copy of the recorded timings, oldest first.
func (r *Recorder) Timings() []Timing {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Timing, len(r.times))
	copy(out, r.times)
	return out
}

// Last returns a copy of the most recent value per metric name.
func (r *Recorder) Last() map[string]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]float64, len(r.last))
	for k, v := range r.last {
		out[k] = v
	}
	return out
}

// Multi fans AddTime out to every sink.
type Multi []handler.MetricsSink

func (m Multi) AddTime(name string, ms float64) {
	for _, s := range m {
		if !IsNil(s) {
			s.AddTime(name, ms)
		}
	}
}

// IsNil reports whether v is nil or an interface holding a nil pointer,
// map, slice, func or chan.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// StatusCapture remembers the last reported status. A zero Code means
// nothing was reported.
type StatusCapture struct {
	Code    int
	Message string
	Calls   int
	Next    handler.StatusReporter
}

func (c *StatusCapture) ReportStatus(code int, msg string) {
	c.Code = code
	c.Message = msg
	c.Calls++
	if !IsNil(c.Next) {
		c.Next.ReportStatus(code, msg)
	}
}

var (
	_ handler.MetricsSink    = (*Recorder)(nil)
	_ handler.MetricsSink    = Multi(nil)
	_ handler.MetricsSink    = (*PrometheusSink)(nil)
	_ handler.StatusReporter = (*PrometheusStatus)(nil)
	_ handler.StatusReporter = (*StatusCapture)(nil)
)
