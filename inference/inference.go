// Package inference defines the contract between the exchange core and the
// deep-learning inference step. The inference toolchain itself (slide
// staging, tile extraction, model deployment) lives outside this module;
// the bridge only invokes it through the Engine interface and consumes its
// structured result.
package inference

import (
	"context"

	"github.com/pathdss/lisbridge/hl7"
)

// Result is the structured outcome of a successful inference run.
type Result struct {
	// Model is the identifier of the model that produced the predictions.
	Model string
	// Predictions holds the (label, score) pairs for the processed slide(s).
	Predictions []hl7.Prediction
	// Artifacts holds files to embed in the result message, such as a
	// visualization project for the reporting pathologist.
	Artifacts []hl7.Artifact
}

// Engine runs model inference for one order message.
//
// Run is invoked synchronously by the retry worker, at most once at a time
// system-wide, and is the expected bottleneck of the whole pipeline. It must
// return either a Result or an error; there is no side channel. A returned
// error makes the order eligible for retry up to the configured ceiling.
type Engine interface {
	Run(ctx context.Context, order *hl7.Message) (*Result, error)
}

// EngineFunc adapts a plain function to the Engine interface.
type EngineFunc func(ctx context.Context, order *hl7.Message) (*Result, error)

func (f EngineFunc) Run(ctx context.Context, order *hl7.Message) (*Result, error) {
	return f(ctx, order)
}
