package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spacesedan/sentiscope/config"
	"github.com/spacesedan/sentiscope/internal/analysis"
	"github.com/spacesedan/sentiscope/internal/models"
	"github.com/spacesedan/sentiscope/internal/sentiment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPredictor struct {
	task   string
	scores []models.LabelScore
	err    error
	calls  atomic.Int32
}

func (s *stubPredictor) Task() string { return s.task }

func (s *stubPredictor) Predict(_ context.Context, _ string) (models.Prediction, error) {
	s.calls.Add(1)
	if s.err != nil {
		return models.Prediction{}, s.err
	}
	return models.NewPrediction(s.task, s.scores), nil
}

type testEnv struct {
	emotion *stubPredictor
	hate    *stubPredictor
	ready   *atomic.Bool
	router  http.Handler
}

func newTestEnv(opts ...analysis.Option) *testEnv {
	env := &testEnv{
		emotion: &stubPredictor{task: "emotion", scores: []models.LabelScore{
			{Label: "joy", Score: 0.8765},
			{Label: "sadness", Score: 0.1},
			{Label: "others", Score: 0.0235},
		}},
		hate: &stubPredictor{task: "hate_speech", scores: []models.LabelScore{
			{Label: "hateful", Score: 0.05},
			{Label: "targeted", Score: 0.03},
			{Label: "aggressive", Score: 0.92},
		}},
		ready: &atomic.Bool{},
	}
	analyzer := analysis.NewAnalyzer(env.emotion, env.hate, opts...)
	env.router = NewRouter(NewHandler(analyzer, env.ready))
	return env
}

func postForm(router http.Handler, text string) *httptest.ResponseRecorder {
	form := url.Values{"text": {text}}
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func postJSON(router http.Handler, body string) (*httptest.ResponseRecorder, Response) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestHandleAnalyze_HateSpeechNote(t *testing.T) {
	tests := []struct {
		name     string
		opts     []HandlerOption
		wantNote bool
	}{
		{name: "softmax explains the shared total", opts: []HandlerOption{WithHateSpeechAggregation(config.AGGREGATION_SOFTMAX)}, wantNote: true},
		{name: "sigmoid scores are independent", opts: []HandlerOption{WithHateSpeechAggregation(config.AGGREGATION_SIGMOID)}, wantNote: false},
		{name: "no aggregation configured", wantNote: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			analyzer := analysis.NewAnalyzer(env.emotion, env.hate)
			router := NewRouter(NewHandler(analyzer, env.ready, tt.opts...))

			w := postForm(router, "some text")
			require.Equal(t, http.StatusOK, w.Code)
			if tt.wantNote {
				assert.Contains(t, w.Body.String(), SOFTMAX_NOTE)
			} else {
				assert.NotContains(t, w.Body.String(), SOFTMAX_NOTE)
			}
		})
	}

	t.Run("note is not shown without a result", func(t *testing.T) {
		env := newTestEnv()
		analyzer := analysis.NewAnalyzer(env.emotion, env.hate)
		router := NewRouter(NewHandler(analyzer, env.ready, WithHateSpeechAggregation(config.AGGREGATION_SOFTMAX)))

		w := postForm(router, "  ")
		assert.NotContains(t, w.Body.String(), SOFTMAX_NOTE)
	})
}

func TestHandleIndex(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	body := w.Body.String()
	assert.Contains(t, body, "Emotion &amp; Hate Speech Detection")
	assert.Contains(t, body, `<textarea id="text" name="text">`)
	assert.Contains(t, body, "Analyze")
	assert.NotContains(t, body, "Top Emotion")
}

func TestHandleAnalyze(t *testing.T) {
	t.Run("renders listings and charts", func(t *testing.T) {
		env := newTestEnv()
		w := postForm(env.router, "I am so happy today")

		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "<strong>Top Emotion:</strong> joy")
		assert.Contains(t, body, "- joy: 87.65%")
		assert.Contains(t, body, "- others: 2.35%")
		assert.Contains(t, body, "<strong>Top Hate Speech Category:</strong> aggressive (92.00%)")
		assert.Contains(t, body, "- targeted: 3.00%")
		assert.Equal(t, 2, strings.Count(body, `src="data:image/svg+xml;base64,`))
		assert.Contains(t, body, "I am so happy today</textarea>")
		assert.NotContains(t, body, "Sentiment")
	})

	t.Run("empty text shows the warning without predicting", func(t *testing.T) {
		env := newTestEnv()
		w := postForm(env.router, "   ")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), EMPTY_WARNING)
		assert.NotContains(t, w.Body.String(), "Top Emotion")
		assert.Zero(t, env.emotion.calls.Load())
		assert.Zero(t, env.hate.calls.Load())
	})

	t.Run("predictor failure", func(t *testing.T) {
		env := newTestEnv()
		env.emotion.err = errors.New("runtime error")
		w := postForm(env.router, "hello")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), FAILED_ERROR)
		assert.Zero(t, env.hate.calls.Load())
	})

	t.Run("submitted text is escaped", func(t *testing.T) {
		env := newTestEnv()
		w := postForm(env.router, "<script>alert(1)</script>")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "<script>alert(1)</script>")
		assert.Contains(t, w.Body.String(), "&lt;script&gt;")
	})

	t.Run("sentiment panel", func(t *testing.T) {
		env := newTestEnv(analysis.WithSentiment(sentiment.NewAnalyzer()))
		w := postForm(env.router, "What a wonderful day")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Sentiment")
		assert.Contains(t, w.Body.String(), "<strong>Overall:</strong> positive")
	})
}

func TestHandleAPIAnalyze(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		env := newTestEnv()
		w, resp := postJSON(env.router, `{"text":"I am so happy today"}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, resp.Success)
		assert.Nil(t, resp.Error)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, w.Header().Get(REQUEST_ID_HEADER), resp.Meta.RequestID)

		data, ok := resp.Data.(map[string]any)
		require.True(t, ok)
		emotion := data["emotion"].(map[string]any)
		assert.Equal(t, "joy", emotion["top_label"])
		hate := data["hate_speech"].(map[string]any)
		assert.Equal(t, "aggressive", hate["top_label"])
		assert.Len(t, hate["scores"], 3)
	})

	t.Run("empty text", func(t *testing.T) {
		env := newTestEnv()
		w, resp := postJSON(env.router, `{"text":"  "}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, CODE_INVALID_REQUEST, resp.Error.Code)
		assert.Equal(t, EMPTY_WARNING, resp.Error.Message)
		assert.Zero(t, env.emotion.calls.Load())
	})

	t.Run("malformed body", func(t *testing.T) {
		env := newTestEnv()
		w, resp := postJSON(env.router, `{"text":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, CODE_INVALID_REQUEST, resp.Error.Code)
	})

	t.Run("predictor failure", func(t *testing.T) {
		env := newTestEnv()
		env.hate.err = errors.New("timeout")
		w, resp := postJSON(env.router, `{"text":"hello"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, CODE_INTERNAL_ERROR, resp.Error.Code)
		assert.NotContains(t, resp.Error.Message, "timeout")
	})
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/ready", nil)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	env.ready.Store(true)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv()
	postForm(env.router, "hello")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sentiscope_analyses_total")
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/analyze", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
