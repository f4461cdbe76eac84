package analysis

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spacesedan/sentiscope/internal/classifier"
	"github.com/spacesedan/sentiscope/internal/metrics"
	"github.com/spacesedan/sentiscope/internal/models"
	"github.com/spacesedan/sentiscope/internal/sentiment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePredictor struct {
	task   string
	scores []models.LabelScore
	err    error
	calls  atomic.Int32
	inputs []string
}

func (f *fakePredictor) Task() string { return f.task }

func (f *fakePredictor) Predict(_ context.Context, text string) (models.Prediction, error) {
	f.calls.Add(1)
	f.inputs = append(f.inputs, text)
	if f.err != nil {
		return models.Prediction{}, f.err
	}
	return models.NewPrediction(f.task, f.scores), nil
}

func newEmotion() *fakePredictor {
	return &fakePredictor{
		task: classifier.TASK_EMOTION,
		scores: []models.LabelScore{
			{Label: "others", Score: 0.03},
			{Label: "joy", Score: 0.9},
			{Label: "sadness", Score: 0.02},
			{Label: "anger", Score: 0.02},
			{Label: "surprise", Score: 0.01},
			{Label: "disgust", Score: 0.01},
			{Label: "fear", Score: 0.01},
		},
	}
}

func newHate() *fakePredictor {
	return &fakePredictor{
		task: classifier.TASK_HATE_SPEECH,
		scores: []models.LabelScore{
			{Label: "hateful", Score: 0.2},
			{Label: "targeted", Score: 0.4},
			{Label: "aggressive", Score: 0.4},
		},
	}
}

func TestAnalyzer_Analyze(t *testing.T) {
	t.Run("returns both predictions with arg-max labels", func(t *testing.T) {
		emotion, hate := newEmotion(), newHate()
		a := NewAnalyzer(emotion, hate)

		result, err := a.Analyze(context.Background(), "I am so happy today")
		require.NoError(t, err)

		assert.Equal(t, "joy", result.Emotion.TopLabel)
		assert.InDelta(t, 1.0, result.Emotion.Total(), 1e-9)
		assert.Equal(t, "targeted", result.HateSpeech.TopLabel, "ties go to the first label")
		assert.InDelta(t, 0.4, result.HateSpeech.TopScore, 1e-9)
		assert.Nil(t, result.Sentiment)
		assert.Equal(t, "I am so happy today", result.Input)
		assert.Equal(t, int32(1), emotion.calls.Load())
		assert.Equal(t, int32(1), hate.calls.Load())
	})

	t.Run("empty and whitespace input never reach the predictors", func(t *testing.T) {
		for _, input := range []string{"", "   ", "\n\t  \r\n"} {
			emotion, hate := newEmotion(), newHate()
			a := NewAnalyzer(emotion, hate, WithSentiment(sentiment.NewAnalyzer()))

			before := testutil.ToFloat64(metrics.AnalysesTotal.WithLabelValues(metrics.OUTCOME_EMPTY))
			result, err := a.Analyze(context.Background(), input)

			assert.ErrorIs(t, err, ErrEmptyInput)
			assert.Nil(t, result)
			assert.Zero(t, emotion.calls.Load())
			assert.Zero(t, hate.calls.Load())
			assert.Equal(t, before+1, testutil.ToFloat64(metrics.AnalysesTotal.WithLabelValues(metrics.OUTCOME_EMPTY)))
		}
	})

	t.Run("predictor failure propagates", func(t *testing.T) {
		emotion, hate := newEmotion(), newHate()
		boom := errors.New("model exploded")
		hate.err = boom
		a := NewAnalyzer(emotion, hate)

		_, err := a.Analyze(context.Background(), "hello")

		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), classifier.TASK_HATE_SPEECH)
		assert.Equal(t, int32(1), emotion.calls.Load())
		assert.Equal(t, int32(1), hate.calls.Load())
	})

	t.Run("preprocessor rewrites the predictor input", func(t *testing.T) {
		emotion, hate := newEmotion(), newHate()
		a := NewAnalyzer(emotion, hate, WithPreprocessor(strings.ToUpper))

		result, err := a.Analyze(context.Background(), "  hello  ")
		require.NoError(t, err)

		assert.Equal(t, "  hello  ", result.Text)
		assert.Equal(t, "HELLO", result.Input)
		assert.Equal(t, []string{"HELLO"}, emotion.inputs)
		assert.Equal(t, []string{"HELLO"}, hate.inputs)
	})

	t.Run("preprocessor producing nothing falls back to the input", func(t *testing.T) {
		emotion, hate := newEmotion(), newHate()
		a := NewAnalyzer(emotion, hate, WithPreprocessor(func(string) string { return " " }))

		result, err := a.Analyze(context.Background(), "***")
		require.NoError(t, err)
		assert.Equal(t, "***", result.Input)
	})

	t.Run("sentiment panel", func(t *testing.T) {
		a := NewAnalyzer(newEmotion(), newHate(), WithSentiment(sentiment.NewAnalyzer()))

		result, err := a.Analyze(context.Background(), "I love this, it is wonderful!")
		require.NoError(t, err)

		require.NotNil(t, result.Sentiment)
		assert.Equal(t, sentiment.LABEL_POSITIVE, result.Sentiment.TopLabel)
		assert.Greater(t, result.Sentiment.Compound, 0.0)
	})
}

func TestNewAnalyzerFromSet(t *testing.T) {
	set := &classifier.Set{
		Emotion:    newEmotion(),
		HateSpeech: newHate(),
		Sentiment:  sentiment.NewAnalyzer(),
	}

	result, err := NewAnalyzerFromSet(set).Analyze(context.Background(), "great day")
	require.NoError(t, err)
	assert.NotNil(t, result.Sentiment)
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "12.34%", FormatPercent(0.1234))
	assert.Equal(t, "100.00%", FormatPercent(1))
	assert.Equal(t, "0.00%", FormatPercent(0))
	assert.Equal(t, "33.33%", FormatPercent(1.0/3))
}

func TestWriteReport(t *testing.T) {
	result := &Result{
		Emotion: models.NewPrediction(classifier.TASK_EMOTION, []models.LabelScore{
			{Label: "joy", Score: 0.75},
			{Label: "others", Score: 0.25},
		}),
		HateSpeech: models.NewPrediction(classifier.TASK_HATE_SPEECH, []models.LabelScore{
			{Label: "hateful", Score: 0.1},
			{Label: "targeted", Score: 0.05},
			{Label: "aggressive", Score: 0.85},
		}),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, result))

	out := buf.String()
	assert.Contains(t, out, "Top Emotion: joy\n")
	assert.Contains(t, out, "- joy: 75.00%\n- others: 25.00%\n")
	assert.Contains(t, out, "Top Hate Speech Category: aggressive (85.00%)\n")
	assert.Contains(t, out, "- targeted: 5.00%\n")
	assert.NotContains(t, out, "Sentiment")

	result.Sentiment = &models.Prediction{
		Task:     sentiment.TASK,
		Scores:   []models.LabelScore{{Label: sentiment.LABEL_POSITIVE, Score: 1}},
		Compound: 0.5,
	}
	buf.Reset()
	require.NoError(t, WriteReport(&buf, result))
	assert.Contains(t, buf.String(), "Overall: positive (compound 0.50)\n")
}
