package inference

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// WeightsPayload is the opaque serialized model state: the numeric arrays the
// library needs plus the encoder reconstruction parameters. It is treated as a
// single atomic unit on read and write.
type WeightsPayload struct {
	InputHidden  [][]float64    `json:"input_hidden"`
	HiddenBias   []float64      `json:"hidden_bias"`
	HiddenOutput [][]float64    `json:"hidden_output"`
	Vocabulary   map[string]int `json:"vocabulary,omitempty"`
	Encoder      EncoderParams  `json:"encoder"`
}

// EncodeWeights serializes a payload to the base64 blob stored in a model
// record.
func EncodeWeights(p *WeightsPayload) (string, error) {
	if p == nil {
		return "", fmt.Errorf("weights payload is nil")
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encoding weights payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeWeights reverses EncodeWeights. The round trip is lossless.
func DecodeWeights(blob string) (*WeightsPayload, error) {
	if blob == "" {
		return nil, fmt.Errorf("weights blob is empty")
	}
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("decoding weights blob: %w", err)
	}
	var p WeightsPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parsing weights payload: %w", err)
	}
	return &p, nil
}
