// Package handler defines the pluggable inference-handler contract and the
// orchestration that drives it. It is structured into small files by concern:
//
//   - context.go: Context (properties, metrics sink, status reporter) passed to every call.
//   - errors.go: error types and predicates (IsConfigurationError, IsInvalidBatchSize, ...).
//   - base.go: Handler interface and the embeddable Base with default stages.
//   - lifecycle.go: Lifecycle, which runs preprocess → inference → postprocess,
//     times each stage and converts failures into a uniform batch response.
//   - types.go: Phase and State snapshot.
//
// Concrete handlers embed Base and override any of Preprocess, Inference and
// Postprocess:
//
//	type myHandler struct{ handler.Base }
//
//	func (h *myHandler) Inference(in any) (any, error) { ... }
//
//	lc := handler.NewLifecycle(&myHandler{})
//	if err := lc.Initialize(hctx); err != nil { ... }
//	out := lc.Handle(batch, hctx)
//
// A Lifecycle is not safe for concurrent Handle calls; the hosting runtime
// gives each instance exclusive access.
package handler
