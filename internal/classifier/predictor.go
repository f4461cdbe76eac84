package classifier

import (
	"context"

	"github.com/spacesedan/sentiscope/internal/models"
)

const (
	TASK_EMOTION     = "emotion"
	TASK_HATE_SPEECH = "hate_speech"
)

// Predictor is a pre-trained classifier that maps one text to a probability for
// each of its labels.
type Predictor interface {
	Task() string
	Predict(ctx context.Context, text string) (models.Prediction, error)
}
