package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/spacesedan/sentiscope/config"
	"github.com/spacesedan/sentiscope/internal/clients"
	"github.com/spacesedan/sentiscope/internal/sentiment"
)

var (
	setInstance *Set
	setErr      error
	setOnce     sync.Once
)

// Set holds the predictors the service runs on every analysis. Sentiment is nil
// when the panel is disabled.
type Set struct {
	Emotion    Predictor
	HateSpeech Predictor
	Sentiment  Predictor

	healthCheck func(ctx context.Context) bool
	close       func()
}

// Load builds the process-wide predictor set on first call. Later calls return
// the same set, or the same error when loading failed.
func Load(ctx context.Context, cfg *config.AppConfig) (*Set, error) {
	setOnce.Do(func() {
		setInstance, setErr = NewSet(ctx, cfg)
	})
	return setInstance, setErr
}

// NewSet builds the predictors for the configured backend.
func NewSet(ctx context.Context, cfg *config.AppConfig) (*Set, error) {
	slog.Info("[Classifier] Loading predictors",
		slog.String("backend", cfg.Predictor.Backend),
		slog.String("emotion_model", cfg.Predictor.EmotionModel),
		slog.String("hate_speech_model", cfg.Predictor.HateSpeechModel))
	start := time.Now()

	var set *Set
	var err error
	switch cfg.Predictor.Backend {
	case config.BACKEND_REMOTE:
		set = newRemoteSet(clients.GetHuggingFaceClient(cfg.Predictor), cfg.Predictor)
	case config.BACKEND_HUGOT:
		set, err = newHugotSet(ctx, cfg.Predictor)
	default:
		err = fmt.Errorf("unknown predictor backend %q", cfg.Predictor.Backend)
	}
	if err != nil {
		slog.Error("[Classifier] Failed to load predictors", slog.String("error", err.Error()))
		return nil, err
	}

	if cfg.SentimentEnabled {
		set.Sentiment = sentiment.NewAnalyzer()
	}

	slog.Info("[Classifier] Predictors loaded",
		slog.Bool("sentiment", set.Sentiment != nil),
		slog.Duration("elapsed", time.Since(start)))
	return set, nil
}

func newRemoteSet(client *clients.HuggingFaceClient, cfg config.PredictorConfig) *Set {
	emotion := NewRemotePredictor(client, TASK_EMOTION, cfg.EmotionModel, config.AGGREGATION_SOFTMAX)
	hate := NewRemotePredictor(client, TASK_HATE_SPEECH, cfg.HateSpeechModel, cfg.HateSpeechAggregation)

	return &Set{
		Emotion:    emotion,
		HateSpeech: hate,
		healthCheck: func(ctx context.Context) bool {
			return client.ModelHealthCheck(ctx, emotion.Model()) &&
				client.ModelHealthCheck(ctx, hate.Model())
		},
		close: func() {},
	}
}

func newHugotSet(ctx context.Context, cfg config.PredictorConfig) (*Set, error) {
	emotionPath, err := clients.EnsureModel(cfg.ModelsDir, cfg.EmotionModel, cfg.APIToken, cfg.Download)
	if err != nil {
		return nil, err
	}
	hatePath, err := clients.EnsureModel(cfg.ModelsDir, cfg.HateSpeechModel, cfg.APIToken, cfg.Download)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	session, err := clients.GetHugotSession(cfg.OnnxLibraryPath)
	if err != nil {
		return nil, err
	}

	emotion, err := NewHugotPredictor(session, TASK_EMOTION, emotionPath, config.AGGREGATION_SOFTMAX)
	if err != nil {
		clients.CloseHugotSession()
		return nil, err
	}
	hate, err := NewHugotPredictor(session, TASK_HATE_SPEECH, hatePath, cfg.HateSpeechAggregation)
	if err != nil {
		clients.CloseHugotSession()
		return nil, err
	}

	return &Set{
		Emotion:     emotion,
		HateSpeech:  hate,
		healthCheck: func(context.Context) bool { return true },
		close:       clients.CloseHugotSession,
	}, nil
}

// RequestBudget is the longest one analysis can wait on the predictors. The
// remote backend makes two sequential calls, each of which may retry.
func RequestBudget(cfg config.PredictorConfig) time.Duration {
	if cfg.Backend != config.BACKEND_REMOTE {
		return cfg.Timeout
	}
	return 2 * clients.MaxCallDuration(cfg.Timeout, cfg.MaxRetries)
}

// Healthy reports whether the backing models can serve predictions.
func (s *Set) Healthy(ctx context.Context) bool {
	if s.healthCheck == nil {
		return true
	}
	return s.healthCheck(ctx)
}

// Close releases the inference runtime. The set must not be used afterwards.
func (s *Set) Close() {
	if s.close != nil {
		s.close()
	}
}
