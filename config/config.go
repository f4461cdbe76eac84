package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BACKEND_HUGOT  = "hugot"
	BACKEND_REMOTE = "remote"

	AGGREGATION_SOFTMAX = "softmax"
	AGGREGATION_SIGMOID = "sigmoid"

	DEFAULT_EMOTION_MODEL     = "finiteautomata/bertweet-base-emotion-analysis"
	DEFAULT_HATE_SPEECH_MODEL = "pysentimiento/bertweet-hate-speech"
	DEFAULT_INFERENCE_URL     = "https://api-inference.huggingface.co/models"
)

type AppConfig struct {
	Env               string
	Port              string
	LogLevel          string
	SentimentEnabled  bool
	PreprocessEnabled bool
	Predictor         PredictorConfig
}

// PredictorConfig selects where the two classifiers run and which models they use.
type PredictorConfig struct {
	Backend               string
	EmotionModel          string
	HateSpeechModel       string
	HateSpeechAggregation string

	// hugot backend
	ModelsDir       string
	Download        bool
	OnnxLibraryPath string

	// remote backend
	InferenceURL string
	APIToken     string
	Timeout      time.Duration
	MaxRetries   int
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

// Load reads the application configuration from the environment. LoadEnv should
// be called first so .env files are visible here.
func Load() (*AppConfig, error) {
	env := getEnv("APP_ENV", "dev")

	cfg := &AppConfig{
		Env:      env,
		Port:     getEnv("PORT", "8080"),
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Predictor: PredictorConfig{
			Backend:               strings.ToLower(getEnv("PREDICTOR_BACKEND", BACKEND_REMOTE)),
			EmotionModel:          getEnv("EMOTION_MODEL", DEFAULT_EMOTION_MODEL),
			HateSpeechModel:       getEnv("HATE_SPEECH_MODEL", DEFAULT_HATE_SPEECH_MODEL),
			HateSpeechAggregation: strings.ToLower(getEnv("HATE_SPEECH_AGGREGATION", AGGREGATION_SOFTMAX)),
			ModelsDir:             getEnv("MODELS_DIR", "./models"),
			OnnxLibraryPath:       getEnv("ONNXRUNTIME_LIB_PATH", ""),
			InferenceURL:          strings.TrimRight(getEnv("HF_INFERENCE_URL", DEFAULT_INFERENCE_URL), "/"),
			APIToken:              getEnv("HF_API_TOKEN", ""),
		},
	}

	var err error
	if cfg.SentimentEnabled, err = getBool("SENTIMENT_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.PreprocessEnabled, err = getBool("PREPROCESS_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.Predictor.Download, err = getBool("HUGOT_DOWNLOAD", false); err != nil {
		return nil, err
	}

	// remote models are slow to cold start outside production
	timeout := 60 * time.Second
	if env == "production" {
		timeout = 10 * time.Second
	}
	if raw := getEnv("HF_TIMEOUT", ""); raw != "" {
		timeout, err = time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid HF_TIMEOUT %q: %w", raw, err)
		}
	}
	cfg.Predictor.Timeout = timeout

	if raw := getEnv("HF_MAX_RETRIES", ""); raw != "" {
		retries, err := strconv.Atoi(raw)
		if err != nil || retries < 0 {
			return nil, fmt.Errorf("invalid HF_MAX_RETRIES %q", raw)
		}
		cfg.Predictor.MaxRetries = retries
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	switch c.Predictor.Backend {
	case BACKEND_HUGOT, BACKEND_REMOTE:
	default:
		return fmt.Errorf("invalid PREDICTOR_BACKEND %q: must be %q or %q",
			c.Predictor.Backend, BACKEND_HUGOT, BACKEND_REMOTE)
	}

	switch c.Predictor.HateSpeechAggregation {
	case AGGREGATION_SOFTMAX, AGGREGATION_SIGMOID:
	default:
		return fmt.Errorf("invalid HATE_SPEECH_AGGREGATION %q: must be %q or %q",
			c.Predictor.HateSpeechAggregation, AGGREGATION_SOFTMAX, AGGREGATION_SIGMOID)
	}

	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid PORT %q: %w", c.Port, err)
	}
	if c.Predictor.Timeout <= 0 {
		return fmt.Errorf("HF_TIMEOUT must be positive, got %s", c.Predictor.Timeout)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *AppConfig) Addr() string {
	return ":" + c.Port
}
