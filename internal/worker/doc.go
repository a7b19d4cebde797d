// Package worker hosts a single handler instance for the serving process.
// It is structured into small files by concern:
//
//   - worker.go: Worker type, construction, Start and status reporting.
//   - admission.go: bounded wait queue plus the single in-flight slot that gives
//     the handler exclusive access for each batch.
//   - predict.go: Predict, which builds the per-batch handler.Context and runs Handle.
//   - events.go: lifecycle events and publishers.
//   - errors.go: error types and predicates (IsTooBusy).
//
// A Worker never routes between models and never runs two batches at once.
package worker
