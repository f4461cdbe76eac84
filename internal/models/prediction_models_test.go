package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgMax(t *testing.T) {
	t.Run("picks the highest score", func(t *testing.T) {
		scores := []LabelScore{
			{Label: "others", Score: 0.1},
			{Label: "joy", Score: 0.7},
			{Label: "sadness", Score: 0.2},
		}
		i, ok := ArgMax(scores)
		require.True(t, ok)
		assert.Equal(t, 1, i)
	})

	t.Run("ties go to the first label", func(t *testing.T) {
		scores := []LabelScore{
			{Label: "hateful", Score: 0.4},
			{Label: "targeted", Score: 0.4},
			{Label: "aggressive", Score: 0.2},
		}
		i, ok := ArgMax(scores)
		require.True(t, ok)
		assert.Equal(t, 0, i)
	})

	t.Run("empty input has no arg-max", func(t *testing.T) {
		i, ok := ArgMax(nil)
		assert.False(t, ok)
		assert.Equal(t, -1, i)
	})
}

func TestNewPrediction(t *testing.T) {
	scores := []LabelScore{
		{Label: "others", Score: 0.05},
		{Label: "joy", Score: 0.85},
		{Label: "sadness", Score: 0.02},
		{Label: "anger", Score: 0.03},
		{Label: "surprise", Score: 0.03},
		{Label: "disgust", Score: 0.01},
		{Label: "fear", Score: 0.01},
	}

	p := NewPrediction("emotion", scores)

	assert.Equal(t, "emotion", p.Task)
	assert.Equal(t, "joy", p.TopLabel)
	assert.Equal(t, 0.85, p.TopScore)
	assert.InDelta(t, 1.0, p.Total(), 1e-9)
	assert.Equal(t, []string{"others", "joy", "sadness", "anger", "surprise", "disgust", "fear"}, p.Labels())

	probs := p.Probabilities()
	assert.Len(t, probs, 7)
	for label, score := range probs {
		assert.LessOrEqual(t, score, probs[p.TopLabel], label)
	}
}

func TestNewPrediction_Empty(t *testing.T) {
	p := NewPrediction("hate_speech", nil)
	assert.Empty(t, p.TopLabel)
	assert.Zero(t, p.TopScore)
	assert.Zero(t, p.Total())
}

func TestInferenceResponse_UnmarshalJSON(t *testing.T) {
	t.Run("nested payload", func(t *testing.T) {
		var resp InferenceResponse
		err := json.Unmarshal([]byte(`[[{"label":"joy","score":0.9},{"label":"fear","score":0.1}]]`), &resp)
		require.NoError(t, err)
		assert.Equal(t, []LabelScore{{Label: "joy", Score: 0.9}, {Label: "fear", Score: 0.1}}, resp.LabelScores())
	})

	t.Run("flat payload", func(t *testing.T) {
		var resp InferenceResponse
		err := json.Unmarshal([]byte(`[{"label":"hateful","score":0.3}]`), &resp)
		require.NoError(t, err)
		assert.Equal(t, []LabelScore{{Label: "hateful", Score: 0.3}}, resp.LabelScores())
	})

	t.Run("error payload", func(t *testing.T) {
		var resp InferenceResponse
		err := json.Unmarshal([]byte(`{"error":"Model is loading"}`), &resp)
		assert.Error(t, err)
	})
}
