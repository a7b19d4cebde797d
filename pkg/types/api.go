package types

import "encoding/json"

// PredictRequest is one batch of raw requests.
type PredictRequest struct {
	// Raw request payloads; the length must match the handler batch size.
	// example: ["hello","world"]
	Inputs []any `json:"inputs"`
}

// PredictResponse carries one output per input. When the batch failed every
// output holds the same error text and Error is set.
type PredictResponse struct {
	// Identifier assigned to the batch.
	// example: 2b0c9d6e-5f7a-4a59-9d39-0c3c8f6e8e11
	BatchID string `json:"batch_id"`
	// One result per input, in order.
	Outputs []any `json:"outputs"`
	// Status message reported by the handler on failure.
	// example: Unknown inference error
	Error string `json:"error,omitempty"`
}

// ModelsResponse wraps the manifests returned by GET /models.
type ModelsResponse struct {
	// Canonical model manifests found in the store.
	Models []json.RawMessage `json:"models"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
