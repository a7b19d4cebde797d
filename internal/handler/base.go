package handler

// PlaceholderResult is what the default Postprocess returns for every slot.
const PlaceholderResult = "OK"

// Handler is the contract every model handler satisfies. Implementations
// normally embed Base and override one or more stages.
type Handler interface {
	// Initialize is called once at load time.
	Initialize(hctx *Context) error
	Initialized() bool
	BatchSize() int

	// Preprocess turns raw requests into model input.
	Preprocess(batch []any) (any, error)
	// Inference runs the model forward pass.
	Inference(input any) (any, error)
	// Postprocess maps model output to one result per batch slot.
	Postprocess(output any) ([]any, error)
}

// Base provides the default implementation of Handler.
// The zero value is an uninitialized handler.
type Base struct {
	initialized bool
	batchSize   int
}

var _ Handler = (*Base)(nil)

// Initialize reads the batch size from the context properties. A second call
// on an initialized handler is rejected and leaves the batch size unchanged.
func (b *Base) Initialize(hctx *Context) error {
	if b.initialized {
		return &ConfigurationError{Key: PropBatchSize, Err: ErrAlreadyInitialized}
	}
	if hctx == nil {
		return &ConfigurationError{Err: errMissing}
	}
	n, err := hctx.Properties.BatchSize()
	if err != nil {
		return err
	}
	b.batchSize = n
	b.initialized = true
	return nil
}

func (b *Base) Initialized() bool { return b.initialized }

func (b *Base) BatchSize() int { return b.batchSize }

// CheckBatchSize validates the batch length against the configured size.
// Handlers overriding Preprocess should call it first.
func (b *Base) CheckBatchSize(batch []any) error {
	if len(batch) != b.batchSize {
		return &InvalidBatchSizeError{Want: b.batchSize, Got: len(batch)}
	}
	return nil
}

// Preprocess checks the batch size and returns an empty result.
func (b *Base) Preprocess(batch []any) (any, error) {
	if err := b.CheckBatchSize(batch); err != nil {
		return nil, err
	}
	return nil, nil
}

// Inference is a no-op.
func (b *Base) Inference(input any) (any, error) { return nil, nil }

// Postprocess returns BatchSize copies of PlaceholderResult.
func (b *Base) Postprocess(output any) ([]any, error) {
	return Fill(b.batchSize, PlaceholderResult), nil
}

// Fill returns a slice of n copies of v.
func Fill(n int, v any) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = v
	}
	return out
}
