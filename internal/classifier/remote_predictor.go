package classifier

import (
	"context"

	"github.com/spacesedan/sentiscope/internal/clients"
	"github.com/spacesedan/sentiscope/internal/models"
)

// RemotePredictor classifies text through the hosted inference API.
type RemotePredictor struct {
	task     string
	model    string
	function string
	client   *clients.HuggingFaceClient
}

func NewRemotePredictor(client *clients.HuggingFaceClient, task, model, function string) *RemotePredictor {
	return &RemotePredictor{
		task:     task,
		model:    model,
		function: function,
		client:   client,
	}
}

func (p *RemotePredictor) Task() string {
	return p.task
}

func (p *RemotePredictor) Model() string {
	return p.model
}

func (p *RemotePredictor) Predict(ctx context.Context, text string) (models.Prediction, error) {
	scores, err := p.client.Classify(ctx, p.model, text, p.function)
	if err != nil {
		return models.Prediction{}, err
	}
	return models.NewPrediction(p.task, scores), nil
}
