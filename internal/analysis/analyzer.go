package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spacesedan/sentiscope/internal/classifier"
	"github.com/spacesedan/sentiscope/internal/metrics"
	"github.com/spacesedan/sentiscope/internal/models"
)

var ErrEmptyInput = errors.New("please enter some text")

// Result is everything one analysis produced. Input is the text the predictors
// saw, which differs from Text when preprocessing is enabled.
type Result struct {
	Text       string             `json:"text"`
	Input      string             `json:"input"`
	Emotion    models.Prediction  `json:"emotion"`
	HateSpeech models.Prediction  `json:"hate_speech"`
	Sentiment  *models.Prediction `json:"sentiment,omitempty"`
	Elapsed    time.Duration      `json:"elapsed_ns"`
}

type Option func(*Analyzer)

// WithSentiment adds a third predictor whose result is reported alongside the
// two required ones. A nil predictor is ignored.
func WithSentiment(p classifier.Predictor) Option {
	return func(a *Analyzer) {
		a.sentiment = p
	}
}

// WithPreprocessor rewrites the validated text before it reaches the
// predictors.
func WithPreprocessor(fn func(string) string) Option {
	return func(a *Analyzer) {
		a.preprocess = fn
	}
}

type Analyzer struct {
	emotion    classifier.Predictor
	hateSpeech classifier.Predictor
	sentiment  classifier.Predictor
	preprocess func(string) string
}

func NewAnalyzer(emotion, hateSpeech classifier.Predictor, opts ...Option) *Analyzer {
	a := &Analyzer{
		emotion:    emotion,
		hateSpeech: hateSpeech,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewAnalyzerFromSet wires the predictors of a loaded set.
func NewAnalyzerFromSet(set *classifier.Set, opts ...Option) *Analyzer {
	if set.Sentiment != nil {
		opts = append([]Option{WithSentiment(set.Sentiment)}, opts...)
	}
	return NewAnalyzer(set.Emotion, set.HateSpeech, opts...)
}

// Analyze runs both classifiers on text. Empty or whitespace-only text returns
// ErrEmptyInput and no predictor is called. Predictor errors are returned
// as-is, wrapped with the failing task.
func (a *Analyzer) Analyze(ctx context.Context, text string) (*Result, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		metrics.AnalysesTotal.WithLabelValues(metrics.OUTCOME_EMPTY).Inc()
		return nil, ErrEmptyInput
	}

	input := trimmed
	if a.preprocess != nil {
		if processed := strings.TrimSpace(a.preprocess(trimmed)); processed != "" {
			input = processed
		}
	}

	start := time.Now()
	result := &Result{Text: text, Input: input}

	var err error
	if result.Emotion, err = a.predict(ctx, a.emotion, input); err != nil {
		return nil, a.fail(err)
	}
	if result.HateSpeech, err = a.predict(ctx, a.hateSpeech, input); err != nil {
		return nil, a.fail(err)
	}
	if a.sentiment != nil {
		prediction, err := a.predict(ctx, a.sentiment, input)
		if err != nil {
			return nil, a.fail(err)
		}
		result.Sentiment = &prediction
	}

	result.Elapsed = time.Since(start)
	metrics.AnalysesTotal.WithLabelValues(metrics.OUTCOME_OK).Inc()

	slog.Debug("[Analyzer] Analysis complete",
		slog.String("top_emotion", result.Emotion.TopLabel),
		slog.String("top_hate_speech", result.HateSpeech.TopLabel),
		slog.Duration("elapsed", result.Elapsed))
	return result, nil
}

func (a *Analyzer) predict(ctx context.Context, p classifier.Predictor, input string) (models.Prediction, error) {
	start := time.Now()
	prediction, err := p.Predict(ctx, input)
	metrics.ObservePrediction(p.Task(), start, err)
	if err != nil {
		return models.Prediction{}, fmt.Errorf("%s prediction failed: %w", p.Task(), err)
	}
	return prediction, nil
}

func (a *Analyzer) fail(err error) error {
	metrics.AnalysesTotal.WithLabelValues(metrics.OUTCOME_ERROR).Inc()
	slog.Error("[Analyzer] Analysis failed", slog.String("error", err.Error()))
	return err
}
