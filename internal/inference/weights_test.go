package inference

import "testing"

func TestWeightsRoundTrip(t *testing.T) {
	original := &WeightsPayload{
		InputHidden:  [][]float64{{0.1, -0.2}, {0.3, 0.4}},
		HiddenBias:   []float64{0.01, -0.02},
		HiddenOutput: [][]float64{{1.5}, {-2.5}},
		Vocabulary:   map[string]int{"a": 0, "b": 1},
		Encoder:      EncoderParams{Mode: "char", MaxLength: 128},
	}

	blob, err := EncodeWeights(original)
	if err != nil {
		t.Fatalf("EncodeWeights: %v", err)
	}

	decoded, err := DecodeWeights(blob)
	if err != nil {
		t.Fatalf("DecodeWeights: %v", err)
	}
	if decoded.Encoder != original.Encoder {
		t.Fatalf("encoder: want=%+v got=%+v", original.Encoder, decoded.Encoder)
	}
	if len(decoded.InputHidden) != 2 || decoded.InputHidden[1][0] != 0.3 {
		t.Fatalf("input_hidden mismatch: got=%v", decoded.InputHidden)
	}
	if len(decoded.HiddenBias) != 2 || decoded.HiddenBias[1] != -0.02 {
		t.Fatalf("hidden_bias mismatch: got=%v", decoded.HiddenBias)
	}
	if decoded.HiddenOutput[1][0] != -2.5 {
		t.Fatalf("hidden_output mismatch: got=%v", decoded.HiddenOutput)
	}
	if decoded.Vocabulary["b"] != 1 {
		t.Fatalf("vocabulary mismatch: got=%v", decoded.Vocabulary)
	}
}

func TestEncodeWeightsDeterministic(t *testing.T) {
	p := &WeightsPayload{
		HiddenBias: []float64{1, 2, 3},
		Encoder:    EncoderParams{Mode: "token", MaxLength: 64},
	}
	first, err := EncodeWeights(p)
	if err != nil {
		t.Fatalf("EncodeWeights: %v", err)
	}
	second, err := EncodeWeights(p)
	if err != nil {
		t.Fatalf("EncodeWeights: %v", err)
	}
	if first != second {
		t.Fatalf("encoding not deterministic")
	}
}

func TestDecodeWeightsRejectsGarbage(t *testing.T) {
	if _, err := DecodeWeights(""); err == nil {
		t.Fatalf("expected error for empty blob")
	}
	if _, err := DecodeWeights("not base64!!"); err == nil {
		t.Fatalf("expected error for invalid base64")
	}
	if _, err := DecodeWeights("bm90IGpzb24="); err == nil {
		t.Fatalf("expected error for non-JSON payload")
	}
}

func TestUnavailableEngine(t *testing.T) {
	engine := Unavailable("not bound")
	if _, _, err := engine.Train(nil, nil, Hyperparams{}, EncoderParams{}); err == nil {
		t.Fatalf("expected Train to fail")
	}
	if _, err := engine.Predict(nil, nil, nil, "x", 1); err == nil {
		t.Fatalf("expected Predict to fail")
	}
	if _, err := engine.Embed(nil, nil, "x"); err == nil {
		t.Fatalf("expected Embed to fail")
	}
}
