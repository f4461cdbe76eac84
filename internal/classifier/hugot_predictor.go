package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/spacesedan/sentiscope/config"
	"github.com/spacesedan/sentiscope/internal/models"
)

// HugotPredictor runs a text-classification ONNX model in process.
type HugotPredictor struct {
	task     string
	pipeline *pipelines.TextClassificationPipeline
	mu       sync.Mutex
}

// NewHugotPredictor builds a pipeline for the model stored at modelPath. The
// pipeline runs in multi-label mode so every label's score is reported, not only
// the winner. aggregation is softmax or sigmoid.
func NewHugotPredictor(session *hugot.Session, task, modelPath, aggregation string) (*HugotPredictor, error) {
	options := []hugot.TextClassificationOption{pipelines.WithMultiLabel()}
	if aggregation == config.AGGREGATION_SIGMOID {
		options = append(options, pipelines.WithSigmoid())
	} else {
		options = append(options, pipelines.WithSoftmax())
	}

	pipelineConfig := hugot.TextClassificationConfig{
		ModelPath: modelPath,
		Name:      task + "Pipeline",
		Options:   options,
	}

	start := time.Now()
	pipeline, err := hugot.NewPipeline(session, pipelineConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s pipeline from %s: %w", task, modelPath, err)
	}

	slog.Info("[HugotPredictor] Pipeline ready",
		slog.String("task", task),
		slog.String("model_path", modelPath),
		slog.String("aggregation", aggregation),
		slog.Duration("elapsed", time.Since(start)))

	return &HugotPredictor{task: task, pipeline: pipeline}, nil
}

func (p *HugotPredictor) Task() string {
	return p.task
}

func (p *HugotPredictor) Predict(ctx context.Context, text string) (models.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return models.Prediction{}, err
	}

	p.mu.Lock()
	output, err := p.pipeline.RunPipeline([]string{text})
	p.mu.Unlock()
	if err != nil {
		return models.Prediction{}, fmt.Errorf("%s pipeline failed: %w", p.task, err)
	}
	if len(output.ClassificationOutputs) == 0 {
		return models.Prediction{}, fmt.Errorf("%s pipeline returned no output", p.task)
	}

	scores := toLabelScores(output.ClassificationOutputs[0])
	if len(scores) == 0 {
		return models.Prediction{}, fmt.Errorf("%s pipeline returned no labels", p.task)
	}
	return models.NewPrediction(p.task, scores), nil
}

func toLabelScores(outputs []pipelines.ClassificationOutput) []models.LabelScore {
	scores := make([]models.LabelScore, 0, len(outputs))
	for _, o := range outputs {
		scores = append(scores, models.LabelScore{
			Label: o.Label,
			Score: float64(o.Score),
		})
	}
	return scores
}
