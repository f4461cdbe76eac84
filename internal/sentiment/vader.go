package sentiment

import (
	"context"
	"strings"
	"sync"

	"github.com/jonreiter/govader"
	"github.com/spacesedan/sentiscope/internal/models"
)

const TASK = "sentiment"

const (
	LABEL_NEGATIVE = "NEG"
	LABEL_NEUTRAL  = "NEU"
	LABEL_POSITIVE = "POS"
)

var (
	analyzer     *govader.SentimentIntensityAnalyzer
	analyzerOnce sync.Once
)

func getAnalyzer() *govader.SentimentIntensityAnalyzer {
	analyzerOnce.Do(func() {
		analyzer = govader.NewSentimentIntensityAnalyzer()
	})
	return analyzer
}

// Analyzer is a lexicon-based sentiment classifier. It needs no model files and
// is always available, so it backs the optional third panel.
type Analyzer struct{}

func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

func (a *Analyzer) Task() string {
	return TASK
}

// Predict scores text with VADER and reports its neg/neu/pos proportions as
// probabilities, with the compound score attached.
func (a *Analyzer) Predict(ctx context.Context, text string) (models.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return models.Prediction{}, err
	}

	scores := getAnalyzer().PolarityScores(strings.TrimSpace(text))

	neg, neu, pos := scores.Negative, scores.Neutral, scores.Positive
	total := neg + neu + pos
	if total <= 0 {
		neg, neu, pos = 0, 1, 0
	} else {
		neg, neu, pos = neg/total, neu/total, pos/total
	}

	prediction := models.NewPrediction(TASK, []models.LabelScore{
		{Label: LABEL_NEGATIVE, Score: neg},
		{Label: LABEL_NEUTRAL, Score: neu},
		{Label: LABEL_POSITIVE, Score: pos},
	})
	prediction.Compound = scores.Compound
	return prediction, nil
}

// CompoundLabel buckets a compound score into the coarse label used for
// summaries.
func CompoundLabel(score float64) string {
	switch {
	case score >= 0.20:
		return "positive"
	case score <= -0.20:
		return "negative"
	default:
		return "neutral"
	}
}
