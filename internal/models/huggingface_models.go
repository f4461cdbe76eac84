package models

import (
	"encoding/json"
	"fmt"
)

type InferenceRequest struct {
	Inputs     string              `json:"inputs"`
	Parameters InferenceParameters `json:"parameters"`
	Options    InferenceOptions    `json:"options"`
}

type InferenceParameters struct {
	TopK            int    `json:"top_k"`
	FunctionToApply string `json:"function_to_apply,omitempty"`
}

type InferenceOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type InferenceLabel struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// InferenceResponse is the text-classification payload of the inference API.
// The API answers a single input either as [[{...}]] or as [{...}].
type InferenceResponse []InferenceLabel

func (r *InferenceResponse) UnmarshalJSON(data []byte) error {
	var nested [][]InferenceLabel
	if err := json.Unmarshal(data, &nested); err == nil {
		if len(nested) == 0 {
			*r = nil
			return nil
		}
		*r = nested[0]
		return nil
	}

	var flat []InferenceLabel
	if err := json.Unmarshal(data, &flat); err != nil {
		return fmt.Errorf("unexpected inference payload: %w", err)
	}
	*r = flat
	return nil
}

func (r InferenceResponse) LabelScores() []LabelScore {
	scores := make([]LabelScore, len(r))
	for i, l := range r {
		scores[i] = LabelScore{Label: l.Label, Score: l.Score}
	}
	return scores
}

// InferenceError is the body the inference API returns on failure.
type InferenceError struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time,omitempty"`
}
