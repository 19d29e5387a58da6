package inference

import (
	"context"
	"fmt"
)

// Hyperparams configures a training run. These travel with the stored model so
// a reloaded record can be retrained or inspected without external context.
type Hyperparams struct {
	HiddenSize     int     `json:"hidden_size"`
	Activation     string  `json:"activation"`
	WeightInit     string  `json:"weight_init"`
	RidgePenalty   float64 `json:"ridge_penalty"`
	MaxInputLength int     `json:"max_input_length"`
	DropoutRate    float64 `json:"dropout_rate"`
}

// EncoderParams are the text-encoder reconstruction parameters. A model is
// inert without them, so they are embedded in the weights payload rather than
// stored as a separate field that could drift out of sync.
type EncoderParams struct {
	Mode      string `json:"mode"`
	MaxLength int    `json:"max_length"`
}

type LabeledText struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Engine is the boundary to the external numerical library. This layer never
// reimplements training or inference; it only serializes what crosses it.
type Engine interface {
	Train(ctx context.Context, examples []LabeledText, hp Hyperparams, enc EncoderParams) (*WeightsPayload, []string, error)
	Predict(ctx context.Context, w *WeightsPayload, categories []string, text string, topK int) ([]Prediction, error)
	Embed(ctx context.Context, w *WeightsPayload, text string) ([]float64, error)
}

type unavailableEngine struct {
	reason string
}

// Unavailable returns an Engine whose every call fails with the given reason.
// Used when the process is wired for persistence and monitoring only.
func Unavailable(reason string) Engine {
	return &unavailableEngine{reason: reason}
}

func (e *unavailableEngine) err() error {
	return fmt.Errorf("inference engine unavailable: %s", e.reason)
}

func (e *unavailableEngine) Train(context.Context, []LabeledText, Hyperparams, EncoderParams) (*WeightsPayload, []string, error) {
	return nil, nil, e.err()
}

func (e *unavailableEngine) Predict(context.Context, *WeightsPayload, []string, string, int) ([]Prediction, error) {
	return nil, e.err()
}

func (e *unavailableEngine) Embed(context.Context, *WeightsPayload, string) ([]float64, error) {
	return nil, e.err()
}
