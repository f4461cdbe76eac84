package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/spacesedan/sentiscope/config"
	"github.com/spacesedan/sentiscope/internal/models"
	"golang.org/x/oauth2"
)

var ErrUnexpectedStatus = errors.New("unexpected status from inference API")

var (
	huggingFaceInstance *HuggingFaceClient
	huggingFaceOnce     sync.Once
)

// HuggingFaceClient calls text-classification models hosted behind the
// Hugging Face inference API (or any server speaking the same protocol).
type HuggingFaceClient struct {
	Client     *http.Client
	baseURL    string
	maxRetries int
	backoff    time.Duration
}

// NewHuggingFaceClient builds a client for baseURL. A non-empty token is sent as
// a bearer token on every request.
func NewHuggingFaceClient(baseURL, token string, timeout time.Duration, maxRetries int) *HuggingFaceClient {
	httpClient := &http.Client{}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	httpClient.Timeout = timeout

	return &HuggingFaceClient{
		Client:     httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		maxRetries: maxRetries,
		backoff:    INITIAL_BACKOFF,
	}
}

// GetHuggingFaceClient returns the process-wide client, built from cfg on
// first use.
func GetHuggingFaceClient(cfg config.PredictorConfig) *HuggingFaceClient {
	huggingFaceOnce.Do(func() {
		slog.Info("[HuggingFaceClient] Initializing Client",
			slog.String("base_url", cfg.InferenceURL),
			slog.Duration("timeout", cfg.Timeout),
			slog.Int("max_retries", cfg.MaxRetries),
			slog.Bool("authenticated", cfg.APIToken != ""))
		huggingFaceInstance = NewHuggingFaceClient(cfg.InferenceURL, cfg.APIToken, cfg.Timeout, cfg.MaxRetries)
	})
	return huggingFaceInstance
}

func (h *HuggingFaceClient) modelURL(model string) string {
	return h.baseURL + "/" + strings.TrimLeft(model, "/")
}

// DoWithRetry sends the request built by newReq, retrying on transport errors
// and 5xx responses up to maxRetries extra times with exponential backoff.
func (h *HuggingFaceClient) DoWithRetry(ctx context.Context, newReq func() (*http.Request, error)) (*http.Response, error) {
	var resp *http.Response
	var err error
	backoff := h.backoff

	for attempt := 0; attempt <= h.maxRetries; attempt++ {
		var req *http.Request
		req, err = newReq()
		if err != nil {
			return nil, err
		}

		resp, err = h.Client.Do(req)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}
		if attempt == h.maxRetries {
			break
		}

		slog.Warn("[HuggingFaceClient] Request failed, will retry",
			slog.Int("attempt", attempt+1),
			slog.String("error", errMsg(err, resp)))

		if resp != nil {
			resp.Body.Close()
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, MAX_BACKOFF)
	}

	return resp, err
}

// MaxCallDuration is the longest one request can take through DoWithRetry:
// every attempt timing out plus the backoff between attempts.
func MaxCallDuration(timeout time.Duration, maxRetries int) time.Duration {
	total := timeout * time.Duration(maxRetries+1)
	backoff := INITIAL_BACKOFF
	for i := 0; i < maxRetries; i++ {
		total += backoff
		backoff = min(backoff*2, MAX_BACKOFF)
	}
	return total
}

// Classify returns every label score the model reports for text, in the order
// the API returned them. function is "softmax" or "sigmoid".
func (h *HuggingFaceClient) Classify(ctx context.Context, model, text, function string) ([]models.LabelScore, error) {
	input := models.InferenceRequest{
		Inputs: text,
		Parameters: models.InferenceParameters{
			TopK:            INFERENCE_TOP_K,
			FunctionToApply: function,
		},
		Options: models.InferenceOptions{WaitForModel: true},
	}

	var result models.InferenceResponse
	start := time.Now()
	if err := h.postJSON(ctx, h.modelURL(model), input, &result); err != nil {
		slog.Error("[HuggingFaceClient] Classification request failed",
			slog.String("model", model),
			slog.Duration("elapsed", time.Since(start)))
		return nil, err
	}

	slog.Debug("[HuggingFaceClient] Classification request successful",
		slog.String("model", model),
		slog.Int("labels", len(result)),
		slog.Duration("elapsed", time.Since(start)))

	if len(result) == 0 {
		return nil, fmt.Errorf("model %s returned no labels", model)
	}
	return result.LabelScores(), nil
}

// ModelHealthCheck reports whether the model endpoint answers without a
// server error.
func (h *HuggingFaceClient) ModelHealthCheck(ctx context.Context, model string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.modelURL(model), http.NoBody)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", USER_AGENT)

	resp, err := h.Client.Do(req)
	if err != nil {
		slog.Warn("[HuggingFaceClient] Health check failed",
			slog.String("model", model),
			slog.String("error", err.Error()))
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode < 500
}

// helper function for posting data to the inference API
func (h *HuggingFaceClient) postJSON(ctx context.Context, endpoint string, input interface{}, output interface{}) error {
	body, err := json.Marshal(input)
	if err != nil {
		slog.Error("[HuggingFaceClient] Failed to marshal input",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to marshal input: %w", err)
	}

	newReq := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			slog.Error("[HuggingFaceClient] Failed to build request",
				slog.String("endpoint", endpoint),
				slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", USER_AGENT)
		return req, nil
	}

	resp, err := h.DoWithRetry(ctx, newReq)
	if err != nil {
		slog.Error("[HuggingFaceClient] Request failed",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()))
		return fmt.Errorf("inference request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("[HuggingFaceClient] Failed to read response",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr models.InferenceError
		_ = json.Unmarshal(respBody, &apiErr)
		slog.Error("[HuggingFaceClient] Inference API returned an error",
			slog.String("endpoint", endpoint),
			slog.Int("status", resp.StatusCode),
			slog.String("api_error", apiErr.Error),
			getPreview(respBody))
		return fmt.Errorf("%w: status %d: %s", ErrUnexpectedStatus, resp.StatusCode, apiErr.Error)
	}

	if err := json.Unmarshal(respBody, output); err != nil {
		slog.Error("[HuggingFaceClient] Failed to unmarshal response",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
			getPreview(respBody),
			slog.Int("raw_response_length", len(respBody)))

		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

func getPreview(respBody []byte) slog.Attr {
	raw := string(respBody)
	if len(raw) > 50 {
		raw = raw[:50]
	}
	return slog.String("raw_response", raw)
}

func errMsg(err error, resp *http.Response) string {
	if err != nil {
		return err.Error()
	}
	if resp != nil {
		return fmt.Sprintf("status code %d", resp.StatusCode)
	}
	return "unknown error"
}
